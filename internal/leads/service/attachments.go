package service

import (
	"context"
	"errors"
	"fmt"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"

	"github.com/google/uuid"
)

// ErrUploadRejected wraps storage policy failures (disallowed content type,
// size out of bounds) so transport can tell them apart from outages.
var ErrUploadRejected = errors.New("upload rejected")

// PresignUpload hands out a short-lived URL for pushing a file straight to
// object storage. The metadata row is written later, when the client
// confirms the upload.
func (s *Service) PresignUpload(ctx context.Context, leadID uuid.UUID, req transport.PresignedUploadRequest) (transport.PresignedUploadResponse, error) {
	if s.storage == nil {
		return transport.PresignedUploadResponse{}, ErrStorageDisabled
	}

	if _, err := s.repo.GetLeadByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.PresignedUploadResponse{}, ErrLeadNotFound
		}
		return transport.PresignedUploadResponse{}, err
	}

	if err := s.storage.ValidateContentType(req.ContentType); err != nil {
		return transport.PresignedUploadResponse{}, fmt.Errorf("%w: %s", ErrUploadRejected, err)
	}
	if err := s.storage.ValidateFileSize(req.SizeBytes); err != nil {
		return transport.PresignedUploadResponse{}, fmt.Errorf("%w: %s", ErrUploadRejected, err)
	}

	presigned, err := s.storage.GenerateUploadURL(ctx, s.cfg.AttachmentsBucket, leadID.String(), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return transport.PresignedUploadResponse{}, err
	}

	return transport.PresignedUploadResponse{
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt.Unix(),
	}, nil
}

// ConfirmAttachment records the metadata row after the client finished the
// presigned upload.
func (s *Service) ConfirmAttachment(ctx context.Context, leadID uuid.UUID, req transport.CreateAttachmentRequest) (transport.AttachmentResponse, error) {
	if s.storage == nil {
		return transport.AttachmentResponse{}, ErrStorageDisabled
	}

	if _, err := s.repo.GetLeadByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AttachmentResponse{}, ErrLeadNotFound
		}
		return transport.AttachmentResponse{}, err
	}

	att, err := s.repo.CreateAttachment(ctx, repository.CreateAttachmentParams{
		LeadID:      leadID,
		FileKey:     req.FileKey,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  actorOrSystem(req.UploadedBy),
	})
	if err != nil {
		return transport.AttachmentResponse{}, err
	}

	s.bus.Publish(ctx, events.AttachmentUploaded{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       leadID,
		AttachmentID: att.ID,
		FileName:     att.FileName,
		FileKey:      att.FileKey,
		ContentType:  att.ContentType,
		SizeBytes:    att.SizeBytes,
	})

	return toAttachmentResponse(att), nil
}

func (s *Service) GetAttachment(ctx context.Context, leadID, attachmentID uuid.UUID) (transport.AttachmentResponse, error) {
	att, err := s.repo.GetAttachmentByID(ctx, leadID, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return transport.AttachmentResponse{}, ErrAttachmentNotFound
		}
		return transport.AttachmentResponse{}, err
	}
	return toAttachmentResponse(att), nil
}

func (s *Service) ListAttachments(ctx context.Context, leadID uuid.UUID) (transport.AttachmentListResponse, error) {
	if _, err := s.repo.GetLeadByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AttachmentListResponse{}, ErrLeadNotFound
		}
		return transport.AttachmentListResponse{}, err
	}

	attachments, err := s.repo.ListAttachments(ctx, leadID)
	if err != nil {
		return transport.AttachmentListResponse{}, err
	}

	items := make([]transport.AttachmentResponse, len(attachments))
	for i, att := range attachments {
		items[i] = toAttachmentResponse(att)
	}
	return transport.AttachmentListResponse{Items: items}, nil
}

// PresignDownload hands out a short-lived URL for fetching an attachment.
func (s *Service) PresignDownload(ctx context.Context, leadID, attachmentID uuid.UUID) (transport.PresignedDownloadResponse, error) {
	if s.storage == nil {
		return transport.PresignedDownloadResponse{}, ErrStorageDisabled
	}

	att, err := s.repo.GetAttachmentByID(ctx, leadID, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return transport.PresignedDownloadResponse{}, ErrAttachmentNotFound
		}
		return transport.PresignedDownloadResponse{}, err
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, s.cfg.AttachmentsBucket, att.FileKey)
	if err != nil {
		return transport.PresignedDownloadResponse{}, err
	}

	return transport.PresignedDownloadResponse{
		DownloadURL: presigned.URL,
		ExpiresAt:   presigned.ExpiresAt.Unix(),
	}, nil
}

// DeleteAttachment removes the object first, then the row: a storage
// failure leaves the row pointing at a live object instead of the reverse.
func (s *Service) DeleteAttachment(ctx context.Context, leadID, attachmentID uuid.UUID) error {
	if s.storage == nil {
		return ErrStorageDisabled
	}

	att, err := s.repo.GetAttachmentByID(ctx, leadID, attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return ErrAttachmentNotFound
		}
		return err
	}

	if err := s.storage.DeleteObject(ctx, s.cfg.AttachmentsBucket, att.FileKey); err != nil {
		return err
	}

	if err := s.repo.DeleteAttachment(ctx, leadID, attachmentID); err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return ErrAttachmentNotFound
		}
		return err
	}
	return nil
}

func toAttachmentResponse(att domain.Attachment) transport.AttachmentResponse {
	return transport.AttachmentResponse{
		ID:          att.ID,
		LeadID:      att.LeadID,
		FileKey:     att.FileKey,
		FileName:    att.FileName,
		ContentType: att.ContentType,
		SizeBytes:   att.SizeBytes,
		UploadedBy:  att.UploadedBy,
		CreatedAt:   att.CreatedAt,
	}
}
