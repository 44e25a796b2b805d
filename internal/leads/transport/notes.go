package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Author   string `json:"author,omitempty" validate:"omitempty,max=100"`
	Content  string `json:"content" validate:"required,min=1,max=2000"`
	NoteType string `json:"noteType" validate:"omitempty,oneof=comment call email system"`
}

type NoteResponse struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"leadId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	NoteType  string    `json:"noteType"`
	CreatedAt time.Time `json:"createdAt"`
}

type NoteListResponse struct {
	Items []NoteResponse `json:"items"`
}
