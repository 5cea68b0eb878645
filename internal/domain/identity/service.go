package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	patients   PatientRepository
	clinicians ClinicianRepository
	accounts   AccountRepository
	allocator  *IdentifierAllocator
}

func NewService(patients PatientRepository, clinicians ClinicianRepository, accounts AccountRepository, allocator *IdentifierAllocator) *Service {
	return &Service{patients: patients, clinicians: clinicians, accounts: accounts, allocator: allocator}
}

// -- Patient --

// CreatePatient registers a new patient under a freshly allocated identifier.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return ErrNameRequired
	}
	if p.AssignedClinicianID != nil {
		if _, err := s.clinicians.GetActiveByID(ctx, *p.AssignedClinicianID); err != nil {
			return fmt.Errorf("assigned_clinician_id: %w", err)
		}
	}
	if p.ReferringClinicianID != nil {
		if _, err := s.accounts.GetByID(ctx, *p.ReferringClinicianID); err != nil {
			return fmt.Errorf("referring_clinician_id: %w", err)
		}
	}
	p.Status = StatusActive

	_, err := s.allocator.Allocate(ctx, func(identifier string) error {
		p.ID = uuid.Nil
		p.Identifier = identifier
		return s.patients.Create(ctx, p)
	})
	return err
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// FindPatient resolves ref as an internal UUID, falling back to the
// human-readable identifier.
func (s *Service) FindPatient(ctx context.Context, ref string) (*Patient, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.patients.GetByID(ctx, id)
	}
	return s.patients.GetByIdentifier(ctx, ref)
}

// UpdatePathway writes a pathway transition to the patient record.
func (s *Service) UpdatePathway(ctx context.Context, u PathwayUpdate) (*Patient, error) {
	return s.patients.UpdatePathway(ctx, u)
}

// NextIdentifier returns an identifier that is currently unused without
// reserving it.
func (s *Service) NextIdentifier(ctx context.Context) (string, error) {
	return s.allocator.Allocate(ctx, nil)
}

// -- Accounts --

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*UserAccount, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *Service) GetAccountByFullName(ctx context.Context, name string) (*UserAccount, error) {
	return s.accounts.GetByFullName(ctx, name)
}
