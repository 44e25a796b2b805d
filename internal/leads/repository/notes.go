package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
)

type CreateNoteParams struct {
	LeadID   uuid.UUID
	Author   string
	Content  string
	NoteType string
}

// CreateNote stores a note, records it in the history trail, and counts it
// as an interaction, all in one transaction.
func (r *Repository) CreateNote(ctx context.Context, params CreateNoteParams) (domain.Note, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockLead(ctx, tx, params.LeadID); err != nil {
		return domain.Note{}, err
	}

	var note domain.Note
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_notes (lead_id, author, content, note_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lead_id, author, content, note_type, created_at
	`, params.LeadID, params.Author, params.Content, params.NoteType).Scan(
		&note.ID, &note.LeadID, &note.Author, &note.Content, &note.NoteType, &note.CreatedAt,
	)
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to insert note: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leads SET message_count = message_count + 1, updated_at = now() WHERE id = $1
	`, params.LeadID); err != nil {
		return domain.Note{}, fmt.Errorf("failed to bump message count: %w", err)
	}

	if err := insertHistory(ctx, tx, historyParams{
		EntityType: domain.EntityLead,
		EntityID:   params.LeadID,
		EventKind:  domain.EventKindNoteAdded,
		NewValue:   params.NoteType,
		Actor:      params.Author,
	}); err != nil {
		return domain.Note{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

// ListNotes returns a lead's notes, newest first.
func (r *Repository) ListNotes(ctx context.Context, leadID uuid.UUID, limit, offset int) ([]domain.Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author, content, note_type, created_at
		FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, leadID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.LeadID, &note.Author, &note.Content, &note.NoteType, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return notes, nil
}
