package scheduling

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSlotTaken is returned by AppointmentRepository.Create when another
	// active booking already holds the clinician/date/time.
	ErrSlotTaken = errors.New("appointment slot already taken")
	// ErrSlotSearchExhausted means every candidate time on a date was occupied.
	ErrSlotSearchExhausted = errors.New("no free slot among candidates")
	// ErrClinicianUnresolvable means no candidate maps to an active catalog clinician.
	ErrClinicianUnresolvable = errors.New("no clinician catalog entry could be resolved")
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"

	TypeClinicianConsultation = "clinician_consultation"

	DateLayout  = "2006-01-02"
	DefaultSlot = "10:00"
)

// Appointment maps to the appointment table. Date holds a calendar day at
// midnight UTC; Time is the local clinic time as HH:MM.
type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	ClinicianID uuid.UUID  `db:"clinician_id" json:"clinician_id"`
	Date        time.Time  `db:"appointment_date" json:"-"`
	Time        string     `db:"appointment_time" json:"appointment_time"`
	Type        string     `db:"appointment_type" json:"appointment_type"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	Status      string     `db:"status" json:"status"`
	Overbooked  bool       `db:"overbooked" json:"overbooked"`
	CreatedBy   *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	// Populated from the clinician catalog, not stored on the row.
	ClinicianName string `db:"-" json:"clinician_name,omitempty"`
	// Cadence label such as "6 months"; empty for single-appointment cadences.
	Label string `db:"-" json:"label,omitempty"`
}

// DateString formats Date as YYYY-MM-DD.
func (a *Appointment) DateString() string {
	return a.Date.Format(DateLayout)
}

// MarshalJSON renders Date as YYYY-MM-DD.
func (a Appointment) MarshalJSON() ([]byte, error) {
	type alias Appointment
	return json.Marshal(struct {
		alias
		Date string `json:"appointment_date"`
	}{alias(a), a.DateString()})
}

// ActiveStatuses are the statuses under which an appointment holds its slot.
// They must match the predicate of appointment_active_slot_uq.
var ActiveStatuses = []string{StatusScheduled, StatusConfirmed}

// calendarDate truncates t to its calendar day in t's location, returned as
// midnight UTC.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addMonths adds n calendar months to date, clamping the day to the last day
// of the target month (Jan 31 + 1 month = Feb 28/29).
func addMonths(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	last := time.Date(y, m+time.Month(n)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if d > last {
		d = last
	}
	return time.Date(y, m+time.Month(n), d, 0, 0, 0, 0, time.UTC)
}
