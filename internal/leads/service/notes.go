package service

import (
	"context"
	"errors"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

var ErrInvalidNote = errors.New("note content must not be empty")

func (s *Service) AddNote(ctx context.Context, leadID uuid.UUID, req transport.CreateNoteRequest) (transport.NoteResponse, error) {
	content := sanitize.Text(req.Content)
	if content == "" {
		return transport.NoteResponse{}, ErrInvalidNote
	}
	noteType := req.NoteType
	if noteType == "" {
		noteType = domain.NoteTypeComment
	}

	note, err := s.repo.CreateNote(ctx, repository.CreateNoteParams{
		LeadID:   leadID,
		Author:   actorOrSystem(req.Author),
		Content:  content,
		NoteType: noteType,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.NoteResponse{}, ErrLeadNotFound
		}
		return transport.NoteResponse{}, err
	}

	return toNoteResponse(note), nil
}

func (s *Service) ListNotes(ctx context.Context, leadID uuid.UUID, limit, offset int) (transport.NoteListResponse, error) {
	if _, err := s.repo.GetLeadByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.NoteListResponse{}, ErrLeadNotFound
		}
		return transport.NoteListResponse{}, err
	}

	notes, err := s.repo.ListNotes(ctx, leadID, clampLimit(limit), clampOffset(offset))
	if err != nil {
		return transport.NoteListResponse{}, err
	}

	items := make([]transport.NoteResponse, len(notes))
	for i, note := range notes {
		items[i] = toNoteResponse(note)
	}

	return transport.NoteListResponse{Items: items}, nil
}

func toNoteResponse(note domain.Note) transport.NoteResponse {
	return transport.NoteResponse{
		ID:        note.ID,
		LeadID:    note.LeadID,
		Author:    note.Author,
		Content:   note.Content,
		NoteType:  note.NoteType,
		CreatedAt: note.CreatedAt,
	}
}
