package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	// Create inserts p. A clash on the identifier returns ErrDuplicateIdentifier.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByIdentifier(ctx context.Context, identifier string) (*Patient, error)
	IdentifierExists(ctx context.Context, identifier string) (bool, error)
	// UpdatePathway applies u in a single statement and returns the updated row.
	UpdatePathway(ctx context.Context, u PathwayUpdate) (*Patient, error)
}

type ClinicianRepository interface {
	GetActiveByID(ctx context.Context, id uuid.UUID) (*Clinician, error)
	// GetActiveByEmail matches case-insensitively.
	GetActiveByEmail(ctx context.Context, email string) (*Clinician, error)
}

type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*UserAccount, error)
	GetByFullName(ctx context.Context, fullName string) (*UserAccount, error)
}
