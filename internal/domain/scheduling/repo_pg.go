package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/carepath/internal/platform/db"
)

const activeSlotConstraint = "appointment_active_slot_uq"

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointment (
			id, patient_id, clinician_id, appointment_date, appointment_time,
			appointment_type, notes, status, overbooked, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.ClinicianID, a.Date, a.Time,
		a.Type, a.Notes, a.Status, a.Overbooked, a.CreatedBy,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err, activeSlotConstraint) {
		return ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("appointment create: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) HasActiveBooking(ctx context.Context, clinicianID uuid.UUID, date time.Time, timeOfDay string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE clinician_id = $1 AND appointment_date = $2 AND appointment_time = $3
			  AND status = ANY($4)
		)`, clinicianID, date, timeOfDay, ActiveStatuses).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("appointment slot check: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.clinician_id, a.appointment_date, a.appointment_time,
			a.appointment_type, a.notes, a.status, a.overbooked, a.created_by, a.created_at, a.updated_at,
			COALESCE(c.first_name || ' ' || c.last_name, '')
		FROM appointment a
		LEFT JOIN clinician c ON c.id = a.clinician_id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date, a.appointment_time`, patientID)
	if err != nil {
		return nil, fmt.Errorf("appointment list: %w", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.ClinicianID, &a.Date, &a.Time,
			&a.Type, &a.Notes, &a.Status, &a.Overbooked, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
			&a.ClinicianName,
		); err != nil {
			return nil, fmt.Errorf("appointment scan: %w", err)
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}
