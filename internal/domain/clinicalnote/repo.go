package clinicalnote

import (
	"context"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, n *ClinicalNote) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ClinicalNote, error)
}
