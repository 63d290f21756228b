package file

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormRepository stores file metadata through gorm, used with SQLite.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a gorm-backed file repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create inserts metadata for a new file.
func (r *GormRepository) Create(ctx context.Context, f StoredFile) (StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	f.ID = 0
	if err := r.db.WithContext(ctx).Create(&f).Error; err != nil {
		return StoredFile{}, fmt.Errorf("create file metadata: %w", err)
	}
	return f, nil
}

// ListByOwner returns the owner's files, newest first.
func (r *GormRepository) ListByOwner(ctx context.Context, ownerID int64) ([]StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	files := []StoredFile{}
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// FindByIDAndOwner fetches a single file ensuring ownership.
func (r *GormRepository) FindByIDAndOwner(ctx context.Context, fileID, ownerID int64) (StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var f StoredFile
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", fileID, ownerID).
		Take(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StoredFile{}, ErrFileNotFound
		}
		return StoredFile{}, fmt.Errorf("get file metadata: %w", err)
	}
	return f, nil
}

// DeleteByIDAndOwner mirrors Repository.DeleteByIDAndOwner. SQLite serializes
// writers, so the row needs no explicit lock.
func (r *GormRepository) DeleteByIDAndOwner(ctx context.Context, fileID, ownerID int64, removeContent func(StoredFile) error) (StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var deleted StoredFile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f StoredFile
		if err := tx.Where("id = ? AND owner_user_id = ?", fileID, ownerID).Take(&f).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFileNotFound
			}
			return fmt.Errorf("lock file metadata: %w", err)
		}

		if err := removeContent(f); err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM link_audits WHERE file_id = ?", f.ID).Error; err != nil {
			return fmt.Errorf("delete link audits: %w", err)
		}
		if err := tx.Delete(&StoredFile{}, f.ID).Error; err != nil {
			return fmt.Errorf("delete file metadata: %w", err)
		}
		deleted = f
		return nil
	})
	if err != nil {
		return StoredFile{}, err
	}
	return deleted, nil
}
