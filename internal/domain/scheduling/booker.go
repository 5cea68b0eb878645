package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/carepath/internal/domain/identity"
)

// ClinicianCandidate is one way of naming the booking clinician. ID is a
// clinician catalog id; Email is resolved through the catalog's active
// clinicians when ID is nil.
type ClinicianCandidate struct {
	Source string
	ID     *uuid.UUID
	Email  string
}

// BookingRequest asks the Booker to book a cadence for one patient.
type BookingRequest struct {
	PatientID  uuid.UUID
	Pathway    string
	Reason     string
	Cadence    Cadence
	Clinicians []ClinicianCandidate
	CreatedBy  *uuid.UUID
}

// Booker books follow-up appointments for a pathway transition.
type Booker struct {
	appointments AppointmentRepository
	slots        *SlotResolver
	clinicians   identity.ClinicianRepository
	loc          *time.Location
	now          func() time.Time
	logger       zerolog.Logger
}

func NewBooker(appointments AppointmentRepository, clinicians identity.ClinicianRepository, loc *time.Location, logger zerolog.Logger) *Booker {
	if loc == nil {
		loc = time.UTC
	}
	return &Booker{
		appointments: appointments,
		slots:        NewSlotResolver(appointments),
		clinicians:   clinicians,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock replaces the time source used to compute "today".
func (b *Booker) WithClock(now func() time.Time) *Booker {
	b.now = now
	return b
}

// ResolveClinician returns the first candidate that maps to an active catalog
// clinician.
func (b *Booker) ResolveClinician(ctx context.Context, candidates []ClinicianCandidate) (*identity.Clinician, error) {
	for _, cand := range candidates {
		var (
			c   *identity.Clinician
			err error
		)
		switch {
		case cand.ID != nil:
			c, err = b.clinicians.GetActiveByID(ctx, *cand.ID)
		case strings.TrimSpace(cand.Email) != "":
			c, err = b.clinicians.GetActiveByEmail(ctx, strings.TrimSpace(cand.Email))
		default:
			continue
		}
		if errors.Is(err, identity.ErrClinicianNotFound) {
			b.logger.Debug().Str("source", cand.Source).Msg("clinician candidate not in catalog")
			continue
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, ErrClinicianUnresolvable
}

// Book resolves the clinician and books every follow-up in the cadence.
// A date that fails to book is logged and skipped; the returned slice holds
// only the appointments actually created. The error is non-nil only when no
// clinician could be resolved or the lookup itself failed.
func (b *Booker) Book(ctx context.Context, req BookingRequest) ([]*Appointment, error) {
	clinician, err := b.ResolveClinician(ctx, req.Clinicians)
	if err != nil {
		return nil, err
	}

	today := calendarDate(b.now().In(b.loc))
	total := len(req.Cadence.FollowUps)
	var booked []*Appointment
	for i, fu := range req.Cadence.FollowUps {
		date := addMonths(today, fu.Months)
		a := &Appointment{
			PatientID:     req.PatientID,
			ClinicianID:   clinician.ID,
			ClinicianName: clinician.DisplayName(),
			Date:          date,
			Type:          TypeClinicianConsultation,
			Status:        StatusScheduled,
			CreatedBy:     req.CreatedBy,
			Label:         fu.Label,
		}
		note := appointmentNote(req.Pathway, req.Reason, i+1, total, fu.Label)
		a.Notes = &note

		if err := b.bookOne(ctx, a, req.Cadence.Candidates()); err != nil {
			b.logger.Error().Err(err).
				Str("patient_id", req.PatientID.String()).
				Str("date", date.Format(DateLayout)).
				Msg("auto-booking failed for follow-up date")
			continue
		}
		booked = append(booked, a)
	}
	return booked, nil
}

// bookOne inserts a at the first free candidate time. An insert that loses a
// race for the slot moves on to the next candidate. When every candidate is
// occupied the last one is booked as an overbooking.
func (b *Booker) bookOne(ctx context.Context, a *Appointment, candidates []string) error {
	remaining := candidates
	for len(remaining) > 0 {
		slot, exhausted, err := b.slots.FirstFree(ctx, a.ClinicianID, a.Date, remaining)
		if err != nil {
			return fmt.Errorf("slot search: %w", err)
		}
		if exhausted {
			break
		}
		a.Time = slot
		err = b.appointments.Create(ctx, a)
		if errors.Is(err, ErrSlotTaken) {
			remaining = remaining[indexOf(remaining, slot)+1:]
			continue
		}
		return err
	}

	a.Time = candidates[len(candidates)-1]
	a.Overbooked = true
	b.logger.Warn().Err(ErrSlotSearchExhausted).
		Str("clinician_id", a.ClinicianID.String()).
		Str("date", a.DateString()).
		Str("time", a.Time).
		Msg("all candidate slots occupied, overbooking last candidate")
	return b.appointments.Create(ctx, a)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return len(list) - 1
}

func appointmentNote(pathway, reason string, n, total int, label string) string {
	if strings.TrimSpace(reason) == "" {
		reason = "Not specified"
	}
	note := fmt.Sprintf("Auto-booked follow-up appointment. Pathway: %s. Reason: %s.", pathway, reason)
	if total > 1 {
		note += fmt.Sprintf(" Follow-up %d of %d (%s).", n, total, label)
	}
	return note
}
