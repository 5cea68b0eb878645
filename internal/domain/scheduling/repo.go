package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	// Create inserts a. Returns ErrSlotTaken when a non-overbooked active
	// appointment already holds the same clinician, date and time.
	Create(ctx context.Context, a *Appointment) error
	// HasActiveBooking reports whether a scheduled or confirmed appointment
	// exists for the clinician at date and timeOfDay.
	HasActiveBooking(ctx context.Context, clinicianID uuid.UUID, date time.Time, timeOfDay string) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
}
