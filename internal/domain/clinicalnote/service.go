package clinicalnote

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	notes NoteRepository
}

func NewService(notes NoteRepository) *Service {
	return &Service{notes: notes}
}

// RecordTransition composes and stores the pathway transfer note for a patient.
func (s *Service) RecordTransition(ctx context.Context, patientID uuid.UUID, t Transition) (*ClinicalNote, error) {
	n := &ClinicalNote{
		PatientID:  patientID,
		NoteType:   NoteTypePathwayTransfer,
		Content:    Compose(t),
		AuthorName: orDefault(t.ActorName, "Unknown"),
		AuthorRole: RoleLabel(t.ActorRole),
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) ListPatientNotes(ctx context.Context, patientID uuid.UUID, limit int) ([]*ClinicalNote, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notes.ListByPatient(ctx, patientID, limit)
}
