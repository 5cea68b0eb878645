package clinicalnote

import (
	"time"

	"github.com/google/uuid"
)

const NoteTypePathwayTransfer = "pathway_transfer"

// ClinicalNote maps to the clinical_note table. Notes are insert-only.
type ClinicalNote struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	NoteType   string    `db:"note_type" json:"note_type"`
	Content    string    `db:"content" json:"content"`
	AuthorName string    `db:"author_name" json:"author_name"`
	AuthorRole string    `db:"author_role" json:"author_role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
