package clinicalnote

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type noteRepoPG struct {
	pool *pgxpool.Pool
}

func NewNoteRepoPG(pool *pgxpool.Pool) NoteRepository {
	return &noteRepoPG{pool: pool}
}

func (r *noteRepoPG) Create(ctx context.Context, n *ClinicalNote) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clinical_note (id, patient_id, note_type, content, author_name, author_role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		n.ID, n.PatientID, n.NoteType, n.Content, n.AuthorName, n.AuthorRole,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("clinical note create: %w", err)
	}
	return nil
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ClinicalNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, note_type, content, author_name, author_role, created_at
		FROM clinical_note WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("clinical note list: %w", err)
	}
	defer rows.Close()

	var items []*ClinicalNote
	for rows.Next() {
		var n ClinicalNote
		if err := rows.Scan(&n.ID, &n.PatientID, &n.NoteType, &n.Content, &n.AuthorName, &n.AuthorRole, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &n)
	}
	return items, rows.Err()
}
