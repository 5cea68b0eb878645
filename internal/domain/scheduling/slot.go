package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SlotResolver answers whether a clinician's time slot is free. It only reads.
type SlotResolver struct {
	appointments AppointmentRepository
}

func NewSlotResolver(appointments AppointmentRepository) *SlotResolver {
	return &SlotResolver{appointments: appointments}
}

func (r *SlotResolver) IsFree(ctx context.Context, clinicianID uuid.UUID, date time.Time, timeOfDay string) (bool, error) {
	taken, err := r.appointments.HasActiveBooking(ctx, clinicianID, date, timeOfDay)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// FirstFree walks candidates in order and returns the first free one. When
// all are occupied it returns the last candidate with exhausted set.
func (r *SlotResolver) FirstFree(ctx context.Context, clinicianID uuid.UUID, date time.Time, candidates []string) (slot string, exhausted bool, err error) {
	if len(candidates) == 0 {
		return "", false, errors.New("no candidate slots")
	}
	for _, c := range candidates {
		free, err := r.IsFree(ctx, clinicianID, date, c)
		if err != nil {
			return "", false, err
		}
		if free {
			return c, false, nil
		}
	}
	return candidates[len(candidates)-1], true, nil
}
