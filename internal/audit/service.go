package audit

import (
	"context"

	"go.uber.org/zap"
)

// Store persists audits.
type Store interface {
	Create(ctx context.Context, a LinkAudit) (LinkAudit, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]View, error)
}

// Service records signed-link issuance and exposes it to the requester.
type Service struct {
	store Store
	log   *zap.Logger
}

// NewService constructs an audit service.
func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// Record writes one audit row for an issued link.
func (s *Service) Record(ctx context.Context, fileID, requesterID, ttlSeconds int64) (LinkAudit, error) {
	a, err := s.store.Create(ctx, LinkAudit{
		FileID:          fileID,
		RequesterUserID: requesterID,
		TTLSeconds:      ttlSeconds,
	})
	if err != nil {
		s.log.Error("record link audit", zap.Int64("file_id", fileID), zap.Int64("requester_user_id", requesterID), zap.Error(err))
		return LinkAudit{}, err
	}
	return a, nil
}

// ListByRequester returns requesterID's audits; callerID must be the same user.
func (s *Service) ListByRequester(ctx context.Context, callerID, requesterID int64) ([]View, error) {
	if callerID != requesterID {
		return nil, ErrForbidden
	}
	return s.store.ListByRequester(ctx, requesterID)
}
