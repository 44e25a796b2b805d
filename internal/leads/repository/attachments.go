package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leadflow_backend/internal/leads/domain"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

type CreateAttachmentParams struct {
	LeadID      uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
}

// CreateAttachment inserts the metadata row for an uploaded object.
func (r *Repository) CreateAttachment(ctx context.Context, params CreateAttachmentParams) (domain.Attachment, error) {
	var att domain.Attachment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_attachments (lead_id, file_key, file_name, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, lead_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
	`, params.LeadID, params.FileKey, params.FileName, params.ContentType, params.SizeBytes, params.UploadedBy).Scan(
		&att.ID, &att.LeadID, &att.FileKey, &att.FileName, &att.ContentType, &att.SizeBytes, &att.UploadedBy, &att.CreatedAt,
	)
	return att, err
}

// GetAttachmentByID retrieves one attachment, scoped to its lead.
func (r *Repository) GetAttachmentByID(ctx context.Context, leadID, id uuid.UUID) (domain.Attachment, error) {
	var att domain.Attachment
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
		FROM lead_attachments
		WHERE id = $1 AND lead_id = $2
	`, id, leadID).Scan(
		&att.ID, &att.LeadID, &att.FileKey, &att.FileName, &att.ContentType, &att.SizeBytes, &att.UploadedBy, &att.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attachment{}, ErrAttachmentNotFound
	}
	return att, err
}

// DeleteAttachment removes the metadata row. The caller deletes the object
// from storage first so a failure here never leaves a dangling row.
func (r *Repository) DeleteAttachment(ctx context.Context, leadID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM lead_attachments WHERE id = $1 AND lead_id = $2
	`, id, leadID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

// ListAttachments returns a lead's attachment rows, newest first.
func (r *Repository) ListAttachments(ctx context.Context, leadID uuid.UUID) ([]domain.Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
		FROM lead_attachments
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]domain.Attachment, 0)
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(
			&att.ID, &att.LeadID, &att.FileKey, &att.FileName, &att.ContentType,
			&att.SizeBytes, &att.UploadedBy, &att.CreatedAt,
		); err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return attachments, nil
}
