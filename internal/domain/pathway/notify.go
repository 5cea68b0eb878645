package pathway

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/carepath/internal/domain/identity"
	"github.com/ehr/carepath/internal/domain/inbox"
	"github.com/ehr/carepath/internal/domain/scheduling"
	"github.com/ehr/carepath/internal/platform/notification"
)

// Mailer sends templated email.
type Mailer interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Message, error)
}

// InboxWriter stores internal notifications.
type InboxWriter interface {
	CreateNotification(ctx context.Context, n *inbox.Notification) error
}

// NotifyOutcome reports which channels succeeded.
type NotifyOutcome struct {
	EmailSent    bool
	InboxCreated bool
}

// Notifier tells a patient's referring clinician about a pathway change by
// email and by inbox notification. Failures are logged, never returned.
type Notifier struct {
	accounts AccountLookup
	mailer   Mailer
	inbox    InboxWriter
	logger   zerolog.Logger
}

func NewNotifier(accounts AccountLookup, mailer Mailer, inbox InboxWriter, logger zerolog.Logger) *Notifier {
	return &Notifier{accounts: accounts, mailer: mailer, inbox: inbox, logger: logger}
}

// Notify is a no-op unless the patient has a referring account with an email.
// The email and the inbox record are attempted independently.
func (n *Notifier) Notify(ctx context.Context, patient *identity.Patient, p Pathway, reason string, first *scheduling.Appointment) NotifyOutcome {
	var out NotifyOutcome
	if patient.ReferringClinicianID == nil {
		return out
	}
	log := n.logger.With().
		Str("patient_id", patient.ID.String()).
		Str("stage", "notify").
		Logger()

	referrer, err := n.accounts.GetAccount(ctx, *patient.ReferringClinicianID)
	if errors.Is(err, identity.ErrAccountNotFound) {
		log.Warn().Str("referring_clinician_id", patient.ReferringClinicianID.String()).Msg("referring clinician account not found")
		return out
	}
	if err != nil {
		log.Error().Err(err).Msg("referring clinician lookup failed")
		return out
	}
	if referrer.Email == "" {
		log.Debug().Msg("referring clinician has no email, skipping notification")
		return out
	}

	summary := appointmentSummary(first)
	if reason == "" {
		reason = "Not specified"
	}

	_, err = n.mailer.SendFromTemplate(ctx, notification.TemplatePathwayTransfer, map[string]string{
		"recipient_name":      referrer.FullName,
		"patient_name":        patient.DisplayName(),
		"patient_identifier":  patient.Identifier,
		"pathway":             string(p),
		"reason":              reason,
		"appointment_summary": summary,
	}, referrer.Email)
	if err != nil {
		log.Error().Err(err).Msg("pathway transfer email failed")
	} else {
		out.EmailSent = true
	}

	patientID := patient.ID
	err = n.inbox.CreateNotification(ctx, &inbox.Notification{
		RecipientID: referrer.ID,
		PatientID:   &patientID,
		Type:        inbox.TypePathwayTransfer,
		Title:       fmt.Sprintf("Pathway update: %s", patient.DisplayName()),
		Message: fmt.Sprintf("%s (%s) has been moved to %s. Reason: %s. %s",
			patient.DisplayName(), patient.Identifier, p, reason, summary),
	})
	if err != nil {
		log.Error().Err(err).Msg("pathway transfer inbox notification failed")
	} else {
		out.InboxCreated = true
	}
	return out
}

func appointmentSummary(a *scheduling.Appointment) string {
	if a == nil {
		return "No follow-up appointment has been booked."
	}
	return fmt.Sprintf("Next appointment: %s at %s with %s.", a.DateString(), a.Time, a.ClinicianName)
}
