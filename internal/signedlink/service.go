// Package signedlink issues signed download links and resolves them back to file content.
package signedlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/abduss/filevault/internal/audit"
	"github.com/abduss/filevault/internal/events"
	"github.com/abduss/filevault/internal/file"
	"github.com/abduss/filevault/internal/metrics"
	"github.com/abduss/filevault/internal/token"
	"go.uber.org/zap"
)

var (
	// ErrTTLExceeded rejects a TTL that is not positive or is above the configured maximum.
	ErrTTLExceeded = errors.New("ttl out of range")
	// ErrForbidden hides which token check failed.
	ErrForbidden = errors.New("invalid or expired download token")
)

// FileStore is the owner-scoped view of stored files.
type FileStore interface {
	FindByIDAndOwner(ctx context.Context, fileID, ownerID int64) (file.StoredFile, error)
	Open(ctx context.Context, fileID, ownerID int64) (file.StoredFile, io.ReadCloser, error)
}

// AuditRecorder records issued links.
type AuditRecorder interface {
	Record(ctx context.Context, fileID, requesterID, ttlSeconds int64) (audit.LinkAudit, error)
}

// TokenCodec mints and verifies download tokens.
type TokenCodec interface {
	Encode(fileID, ownerID int64, ttl time.Duration) (string, time.Time, error)
	Decode(tokenString string) (token.Claims, error)
}

// Link is an issued signed link.
type Link struct {
	FileID     int64
	TTLSeconds int64
	Token      string
	URL        string
	ExpiresAt  time.Time
}

// Download is a resolved token: the file record and an open reader over its bytes.
// Callers must close Content.
type Download struct {
	File    file.StoredFile
	Content io.ReadCloser
}

// Service issues and resolves signed links.
type Service struct {
	files         FileStore
	audits        AuditRecorder
	codec         TokenCodec
	events        events.Publisher
	log           *zap.Logger
	maxTTLSeconds int64
}

// NewService constructs the signed link service.
func NewService(files FileStore, audits AuditRecorder, codec TokenCodec, publisher events.Publisher, log *zap.Logger, maxTTLSeconds int64) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		files:         files,
		audits:        audits,
		codec:         codec,
		events:        publisher,
		log:           log,
		maxTTLSeconds: maxTTLSeconds,
	}
}

// MaxTTLSeconds returns the configured upper bound for link lifetimes.
func (s *Service) MaxTTLSeconds() int64 {
	return s.maxTTLSeconds
}

// Issue checks the TTL and ownership, mints a token, records the audit and
// builds the download URL under baseURL. Every successful call writes one audit row.
func (s *Service) Issue(ctx context.Context, fileID, requesterID, ttlSeconds int64, baseURL string) (Link, error) {
	if ttlSeconds <= 0 || ttlSeconds > s.maxTTLSeconds {
		return Link{}, ErrTTLExceeded
	}

	f, err := s.files.FindByIDAndOwner(ctx, fileID, requesterID)
	if err != nil {
		return Link{}, err
	}

	signed, expiresAt, err := s.codec.Encode(f.ID, f.OwnerID, time.Duration(ttlSeconds)*time.Second)
	if err != nil {
		return Link{}, fmt.Errorf("mint download token: %w", err)
	}

	if _, err := s.audits.Record(ctx, f.ID, requesterID, ttlSeconds); err != nil {
		return Link{}, fmt.Errorf("record link audit: %w", err)
	}

	metrics.LinkIssued()
	s.events.Publish(events.New(events.LinkIssued, f.ID, requesterID, map[string]any{
		"ttl_seconds": ttlSeconds,
		"expires_at":  expiresAt,
	}))

	return Link{
		FileID:     f.ID,
		TTLSeconds: ttlSeconds,
		Token:      signed,
		URL:        DownloadURL(baseURL, signed),
		ExpiresAt:  expiresAt,
	}, nil
}

// Resolve verifies the token and re-checks the file against current state.
// Any token failure is reported as ErrForbidden; a deleted file or missing
// bytes surface as file.ErrFileNotFound or file.ErrContentMissing.
func (s *Service) Resolve(ctx context.Context, tokenString string) (Download, error) {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		s.log.Debug("download token rejected", zap.Error(err))
		return Download{}, ErrForbidden
	}

	f, rc, err := s.files.Open(ctx, claims.FileID, claims.OwnerID)
	if err != nil {
		return Download{}, err
	}
	return Download{File: f, Content: rc}, nil
}
