package pathway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/carepath/internal/domain/clinicalnote"
	"github.com/ehr/carepath/internal/domain/identity"
	"github.com/ehr/carepath/internal/domain/scheduling"
	"github.com/ehr/carepath/internal/platform/auth"
	"github.com/ehr/carepath/internal/platform/events"
)

// PatientStore loads and updates patients.
type PatientStore interface {
	FindPatient(ctx context.Context, ref string) (*identity.Patient, error)
	UpdatePathway(ctx context.Context, u identity.PathwayUpdate) (*identity.Patient, error)
}

// AccountLookup reads login accounts.
type AccountLookup interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*identity.UserAccount, error)
	GetAccountByFullName(ctx context.Context, name string) (*identity.UserAccount, error)
}

type Booker interface {
	Book(ctx context.Context, req scheduling.BookingRequest) ([]*scheduling.Appointment, error)
}

type NoteRecorder interface {
	RecordTransition(ctx context.Context, patientID uuid.UUID, t clinicalnote.Transition) (*clinicalnote.ClinicalNote, error)
}

// Service applies pathway transitions. Only validation, the patient lookup
// and the pathway update can fail a transition; booking, the note, the
// referrer notification and the event are each attempted in that order and
// their failures are logged.
type Service struct {
	patients PatientStore
	accounts AccountLookup
	booker   Booker
	notes    NoteRecorder
	notifier *Notifier
	events   events.Publisher
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(patients PatientStore, accounts AccountLookup, booker Booker, notes NoteRecorder, notifier *Notifier, publisher events.Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		patients: patients,
		accounts: accounts,
		booker:   booker,
		notes:    notes,
		notifier: notifier,
		events:   publisher,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *Service) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	target, err := Parse(req.Pathway)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, req.Pathway)
	}

	patient, err := s.patients.FindPatient(ctx, req.PatientRef)
	if err != nil {
		return nil, err
	}
	previous := patient.Pathway()

	updated, err := s.patients.UpdatePathway(ctx, identity.PathwayUpdate{
		PatientID: patient.ID,
		Pathway:   string(target),
		Status:    target.Status(),
		Notes:     req.Notes,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("update pathway: %w", err)
	}

	log := s.logger.With().
		Str("patient_id", updated.ID.String()).
		Str("pathway", string(target)).
		Logger()
	log.Info().Str("previous_pathway", previous).Str("status", updated.Status).Msg("pathway transition applied")

	booked := s.autoBook(ctx, log, updated, target, req)

	s.recordNote(ctx, log, updated.ID, previous, target, req, booked)

	var first *scheduling.Appointment
	if len(booked) > 0 {
		first = booked[0]
	}
	if target.NotifiesReferrer() && s.notifier != nil {
		s.notifier.Notify(ctx, updated, target, req.Reason, first)
	}

	s.publish(ctx, log, updated, previous, target, req, booked)

	res := &TransitionResult{
		PatientID:              updated.ID,
		PatientIdentifier:      updated.Identifier,
		CarePathway:            target,
		Status:                 updated.Status,
		AutoBooked:             first,
		AutoBookedAppointments: booked,
	}
	if previous != "" {
		res.PreviousPathway = &previous
	}
	if updated.PathwayUpdatedAt != nil {
		res.PathwayUpdatedAt = *updated.PathwayUpdatedAt
	}
	if res.AutoBookedAppointments == nil {
		res.AutoBookedAppointments = []*scheduling.Appointment{}
	}
	return res, nil
}

func (s *Service) autoBook(ctx context.Context, log zerolog.Logger, patient *identity.Patient, target Pathway, req TransitionRequest) []*scheduling.Appointment {
	cadence, ok := target.Cadence()
	if !ok {
		return nil
	}
	var createdBy *uuid.UUID
	if req.Actor.ID != uuid.Nil {
		id := req.Actor.ID
		createdBy = &id
	}

	booked, err := s.booker.Book(ctx, scheduling.BookingRequest{
		PatientID:  patient.ID,
		Pathway:    string(target),
		Reason:     req.Reason,
		Cadence:    cadence,
		Clinicians: s.clinicianCandidates(ctx, log, patient, req.Actor),
		CreatedBy:  createdBy,
	})
	switch {
	case errors.Is(err, scheduling.ErrClinicianUnresolvable):
		log.Warn().Err(err).Str("stage", "auto_book").Msg("no clinician catalog entry for assigned clinician or acting user, skipping auto-booking")
	case err != nil:
		log.Error().Err(err).Str("stage", "auto_book").Msg("auto-booking failed")
	}
	return booked
}

// clinicianCandidates lists who to book with, in order: the assigned catalog
// clinician, the account named by the legacy assigned name, then the acting
// user. Accounts carry a direct catalog link;
// accounts without one are bridged to the catalog by email.
func (s *Service) clinicianCandidates(ctx context.Context, log zerolog.Logger, patient *identity.Patient, actor auth.Actor) []scheduling.ClinicianCandidate {
	var out []scheduling.ClinicianCandidate

	if patient.AssignedClinicianID != nil {
		id := *patient.AssignedClinicianID
		out = append(out, scheduling.ClinicianCandidate{Source: "assigned", ID: &id})
	}
	// The legacy free-text name still applies when the catalog reference is
	// missing or no longer active.
	if patient.AssignedClinicianName != nil && *patient.AssignedClinicianName != "" {
		acct, err := s.accounts.GetAccountByFullName(ctx, *patient.AssignedClinicianName)
		if err == nil {
			out = append(out, accountCandidate("assigned_name", acct, acct.Email))
		} else if !errors.Is(err, identity.ErrAccountNotFound) {
			log.Error().Err(err).Msg("assigned clinician account lookup failed")
		}
	}

	if actor.ID != uuid.Nil {
		acct, err := s.accounts.GetAccount(ctx, actor.ID)
		if err == nil {
			email := actor.Email
			if email == "" {
				email = acct.Email
			}
			return append(out, accountCandidate("actor", acct, email))
		}
		if !errors.Is(err, identity.ErrAccountNotFound) {
			log.Error().Err(err).Msg("acting user account lookup failed")
		}
	}
	if actor.Email != "" {
		out = append(out, scheduling.ClinicianCandidate{Source: "actor", Email: actor.Email})
	}
	return out
}

func accountCandidate(source string, acct *identity.UserAccount, email string) scheduling.ClinicianCandidate {
	if acct.ClinicianID != nil {
		id := *acct.ClinicianID
		return scheduling.ClinicianCandidate{Source: source, ID: &id}
	}
	return scheduling.ClinicianCandidate{Source: source, Email: email}
}

func (s *Service) recordNote(ctx context.Context, log zerolog.Logger, patientID uuid.UUID, previous string, target Pathway, req TransitionRequest, booked []*scheduling.Appointment) {
	t := clinicalnote.Transition{
		PreviousPathway: previous,
		NewPathway:      string(target),
		Reason:          req.Reason,
		ActorName:       req.Actor.Name,
		ActorRole:       req.Actor.Role,
	}
	if req.Notes != nil {
		t.ClinicalNotes = *req.Notes
	}
	for _, a := range booked {
		t.Appointments = append(t.Appointments, clinicalnote.AppointmentSummary{
			Date:      a.DateString(),
			Time:      a.Time,
			Clinician: a.ClinicianName,
			Label:     a.Label,
		})
	}
	if _, err := s.notes.RecordTransition(ctx, patientID, t); err != nil {
		log.Error().Err(err).Str("stage", "note").Msg("transition note not recorded")
	}
}

func (s *Service) publish(ctx context.Context, log zerolog.Logger, patient *identity.Patient, previous string, target Pathway, req TransitionRequest, booked []*scheduling.Appointment) {
	evt := events.TransitionEvent{
		PatientID:         patient.ID,
		PatientIdentifier: patient.Identifier,
		PreviousPathway:   previous,
		Pathway:           string(target),
		Status:            patient.Status,
		Reason:            req.Reason,
		OccurredAt:        s.now().UTC(),
	}
	if req.Actor.ID != uuid.Nil {
		evt.ActorID = req.Actor.ID.String()
	}
	for _, a := range booked {
		evt.AppointmentIDs = append(evt.AppointmentIDs, a.ID.String())
	}
	if err := s.events.PublishTransition(ctx, evt); err != nil {
		log.Warn().Err(err).Str("stage", "event").Msg("transition event not published")
	}
}
