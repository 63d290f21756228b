package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abduss/filevault/internal/content"
	"github.com/abduss/filevault/internal/events"
	"github.com/abduss/filevault/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultContentType = "application/octet-stream"

// Store persists file metadata.
type Store interface {
	Create(ctx context.Context, f StoredFile) (StoredFile, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]StoredFile, error)
	FindByIDAndOwner(ctx context.Context, fileID, ownerID int64) (StoredFile, error)
	DeleteByIDAndOwner(ctx context.Context, fileID, ownerID int64, removeContent func(StoredFile) error) (StoredFile, error)
}

// Service manages the file lifecycle across the metadata repository and the content medium.
type Service struct {
	repo   Store
	store  content.Store
	events events.Publisher
	log    *zap.Logger
	newKey func(base string) string
}

// NewService constructs a file service.
func NewService(repo Store, store content.Store, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		store:  store,
		events: publisher,
		log:    log,
		newKey: storageName,
	}
}

// Save streams r to the content medium and records metadata once the bytes are durable.
// The recorded size is the number of bytes actually written.
func (s *Service) Save(ctx context.Context, ownerID int64, originalName string, r io.Reader, contentType string) (StoredFile, error) {
	name := displayName(originalName)
	key := s.newKey(sanitizeBaseName(name))
	if strings.TrimSpace(contentType) == "" {
		contentType = defaultContentType
	}

	obj, err := s.store.Put(ctx, key, r, contentType)
	if err != nil {
		if !errors.Is(err, content.ErrSourceRead) {
			s.log.Error("store upload content", zap.Int64("owner_user_id", ownerID), zap.String("stored_filename", key), zap.Error(err))
		}
		return StoredFile{}, err
	}

	stored, err := s.repo.Create(ctx, StoredFile{
		OwnerID:          ownerID,
		OriginalFilename: name,
		StoredFilename:   key,
		ContentType:      contentType,
		SizeBytes:        obj.Size,
		UploadPath:       obj.Location,
		Checksum:         obj.Checksum,
	})
	if err != nil {
		if rmErr := s.store.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			s.log.Warn("remove orphaned content", zap.String("stored_filename", key), zap.Error(rmErr))
		}
		return StoredFile{}, err
	}

	metrics.UploadCompleted(stored.SizeBytes)
	s.events.Publish(events.New(events.FileUploaded, stored.ID, ownerID, map[string]any{
		"filename":   stored.OriginalFilename,
		"size_bytes": stored.SizeBytes,
		"checksum":   stored.Checksum,
	}))
	return stored, nil
}

// ListByOwner returns the owner's files, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]StoredFile, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// FindByIDAndOwner returns ErrFileNotFound both for unknown ids and for files of other owners.
func (s *Service) FindByIDAndOwner(ctx context.Context, fileID, ownerID int64) (StoredFile, error) {
	return s.repo.FindByIDAndOwner(ctx, fileID, ownerID)
}

// Open looks the file up for its owner and opens its content.
func (s *Service) Open(ctx context.Context, fileID, ownerID int64) (StoredFile, io.ReadCloser, error) {
	f, err := s.repo.FindByIDAndOwner(ctx, fileID, ownerID)
	if err != nil {
		return StoredFile{}, nil, err
	}

	rc, err := s.store.Open(ctx, f.StoredFilename)
	if err != nil {
		if errors.Is(err, content.ErrNotExist) {
			return StoredFile{}, nil, ErrContentMissing
		}
		return StoredFile{}, nil, err
	}
	return f, rc, nil
}

// Delete removes the content, then the file's audits and metadata.
func (s *Service) Delete(ctx context.Context, fileID, ownerID int64) error {
	deleted, err := s.repo.DeleteByIDAndOwner(ctx, fileID, ownerID, func(f StoredFile) error {
		if err := s.store.Remove(ctx, f.StoredFilename); err != nil {
			return fmt.Errorf("remove content: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			s.log.Error("delete file", zap.Int64("file_id", fileID), zap.Int64("owner_user_id", ownerID), zap.Error(err))
		}
		return err
	}

	s.events.Publish(events.New(events.FileDeleted, deleted.ID, ownerID, map[string]any{
		"filename": deleted.OriginalFilename,
	}))
	return nil
}

// storageName is globally unique and safe to use as a path component.
func storageName(base string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + base
}
