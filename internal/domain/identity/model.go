package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrNameRequired        = errors.New("first_name and last_name are required")
	ErrClinicianNotFound   = errors.New("clinician not found")
	ErrAccountNotFound     = errors.New("user account not found")
	ErrDuplicateIdentifier = errors.New("patient identifier already in use")
	ErrIdentifierExhausted = errors.New("could not allocate a unique patient identifier")
)

// Patient administrative status.
const (
	StatusActive     = "Active"
	StatusDischarged = "Discharged"
)

// Patient maps to the patient table.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	Identifier            string     `db:"identifier" json:"identifier"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	BirthDate             *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Email                 *string    `db:"email" json:"email,omitempty"`
	CarePathway           *string    `db:"care_pathway" json:"care_pathway"`
	Status                string     `db:"status" json:"status"`
	AssignedClinicianID   *uuid.UUID `db:"assigned_clinician_id" json:"assigned_clinician_id,omitempty"`
	AssignedClinicianName *string    `db:"assigned_clinician_name" json:"assigned_clinician_name,omitempty"`
	ReferringClinicianID  *uuid.UUID `db:"referring_clinician_id" json:"referring_clinician_id,omitempty"`
	Notes                 *string    `db:"notes" json:"notes,omitempty"`
	PathwayUpdatedAt      *time.Time `db:"pathway_updated_at" json:"pathway_updated_at,omitempty"`
	CreatedBy             *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Patient) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Pathway returns the current care pathway, or "" when none is set.
func (p *Patient) Pathway() string {
	if p.CarePathway == nil {
		return ""
	}
	return *p.CarePathway
}

// PathwayUpdate is the set of columns written by a pathway transition.
// Notes is left untouched when nil.
type PathwayUpdate struct {
	PatientID uuid.UUID
	Pathway   string
	Status    string
	Notes     *string
	UpdatedAt time.Time
}

// Clinician is an entry in the bookable clinician catalog. Its id is the one
// appointments reference; it is not a login account id.
type Clinician struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}

func (c *Clinician) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// UserAccount is a login account.
type UserAccount struct {
	ID       uuid.UUID `db:"id" json:"id"`
	FullName string    `db:"full_name" json:"full_name"`
	Email    string    `db:"email" json:"email"`
	Role     string    `db:"role" json:"role"`
	IsActive bool      `db:"is_active" json:"is_active"`
	// ClinicianID links a clinical account to its catalog entry. Unset for
	// accounts that predate the link; those fall back to matching by email.
	ClinicianID *uuid.UUID `db:"clinician_id" json:"clinician_id,omitempty"`
}
