package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/carepath/internal/platform/db"
)

const patientIdentifierConstraint = "patient_identifier_key"

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, identifier, first_name, last_name, birth_date, email,
	care_pathway, status, assigned_clinician_id, assigned_clinician_name, referring_clinician_id,
	notes, pathway_updated_at, created_by, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO patient (
			id, identifier, first_name, last_name, birth_date, email,
			care_pathway, status, assigned_clinician_id, assigned_clinician_name, referring_clinician_id,
			notes, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		p.ID, p.Identifier, p.FirstName, p.LastName, p.BirthDate, p.Email,
		p.CarePathway, p.Status, p.AssignedClinicianID, p.AssignedClinicianName, p.ReferringClinicianID,
		p.Notes, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.IsUniqueViolation(err, patientIdentifierConstraint) {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, p.Identifier)
	}
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.getOne(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id)
}

func (r *patientRepoPG) GetByIdentifier(ctx context.Context, identifier string) (*Patient, error) {
	return r.getOne(ctx, `SELECT `+patientCols+` FROM patient WHERE identifier = $1`, identifier)
}

func (r *patientRepoPG) getOne(ctx context.Context, sql string, arg interface{}) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, sql, arg))
	if db.IsNoRows(err) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient get: %w", err)
	}
	return p, nil
}

func (r *patientRepoPG) IdentifierExists(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE identifier = $1)`, identifier).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("patient identifier exists: %w", err)
	}
	return exists, nil
}

func (r *patientRepoPG) UpdatePathway(ctx context.Context, u PathwayUpdate) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `
		UPDATE patient SET
			care_pathway = $2,
			status = $3,
			notes = COALESCE($4, notes),
			pathway_updated_at = $5,
			updated_at = $5
		WHERE id = $1
		RETURNING `+patientCols,
		u.PatientID, u.Pathway, u.Status, u.Notes, u.UpdatedAt,
	))
	if db.IsNoRows(err) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient update pathway: %w", err)
	}
	return p, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Identifier, &p.FirstName, &p.LastName, &p.BirthDate, &p.Email,
		&p.CarePathway, &p.Status, &p.AssignedClinicianID, &p.AssignedClinicianName, &p.ReferringClinicianID,
		&p.Notes, &p.PathwayUpdatedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Clinician Repository --

type clinicianRepoPG struct {
	pool *pgxpool.Pool
}

func NewClinicianRepo(pool *pgxpool.Pool) ClinicianRepository {
	return &clinicianRepoPG{pool: pool}
}

const clinicianCols = `id, first_name, last_name, email, specialty, is_active`

func (r *clinicianRepoPG) GetActiveByID(ctx context.Context, id uuid.UUID) (*Clinician, error) {
	return r.getOne(ctx, `SELECT `+clinicianCols+` FROM clinician WHERE id = $1 AND is_active`, id)
}

func (r *clinicianRepoPG) GetActiveByEmail(ctx context.Context, email string) (*Clinician, error) {
	return r.getOne(ctx, `SELECT `+clinicianCols+` FROM clinician
		WHERE lower(email) = lower($1) AND is_active
		ORDER BY created_at LIMIT 1`, email)
}

func (r *clinicianRepoPG) getOne(ctx context.Context, sql string, arg interface{}) (*Clinician, error) {
	var c Clinician
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Specialty, &c.IsActive,
	)
	if db.IsNoRows(err) {
		return nil, ErrClinicianNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clinician get: %w", err)
	}
	return &c, nil
}

// -- Account Repository --

type accountRepoPG struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) AccountRepository {
	return &accountRepoPG{pool: pool}
}

const accountCols = `id, full_name, email, role, is_active, clinician_id`

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*UserAccount, error) {
	return r.getOne(ctx, `SELECT `+accountCols+` FROM user_account WHERE id = $1`, id)
}

func (r *accountRepoPG) GetByFullName(ctx context.Context, fullName string) (*UserAccount, error) {
	return r.getOne(ctx, `SELECT `+accountCols+` FROM user_account
		WHERE full_name = $1 AND is_active
		ORDER BY created_at LIMIT 1`, fullName)
}

func (r *accountRepoPG) getOne(ctx context.Context, sql string, arg interface{}) (*UserAccount, error) {
	var a UserAccount
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&a.ID, &a.FullName, &a.Email, &a.Role, &a.IsActive, &a.ClinicianID,
	)
	if db.IsNoRows(err) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user account get: %w", err)
	}
	return &a, nil
}
