package repository

import (
	"context"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
)

// ListHistory returns the audit trail for one entity, newest first.
func (r *Repository) ListHistory(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, event_kind, old_value, new_value, actor, reason, created_at
		FROM lead_history
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID, &entry.EntityType, &entry.EntityID, &entry.EventKind,
			&entry.OldValue, &entry.NewValue, &entry.Actor, &entry.Reason, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}
