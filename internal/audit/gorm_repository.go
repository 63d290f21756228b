package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormRepository stores audits through gorm, used with SQLite.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a gorm-backed audit repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create appends an audit row.
func (r *GormRepository) Create(ctx context.Context, a LinkAudit) (LinkAudit, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	a.ID = 0
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return LinkAudit{}, fmt.Errorf("create link audit: %w", err)
	}
	return a, nil
}

// ListByRequester returns the requester's audits with the file's current name, newest first.
func (r *GormRepository) ListByRequester(ctx context.Context, requesterID int64) ([]View, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	views := []View{}
	err := r.db.WithContext(ctx).
		Table("link_audits AS a").
		Select("a.id, a.file_id, f.original_filename AS filename, a.requester_user_id, a.ttl_seconds, a.created_at").
		Joins("JOIN stored_files f ON f.id = a.file_id").
		Where("a.requester_user_id = ?", requesterID).
		Order("a.created_at DESC").
		Order("a.id DESC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("list link audits: %w", err)
	}
	return views, nil
}
