package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const repoTimeout = 5 * time.Second

// DBTX is the part of pgxpool.Pool the repositories need.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores file metadata in PostgreSQL.
type Repository struct {
	db DBTX
}

// NewRepository builds a new file repository.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const fileColumns = `id, owner_user_id, original_filename, stored_filename, content_type, size_bytes, upload_path, checksum, created_at`

// Create inserts metadata for a new file.
func (r *Repository) Create(ctx context.Context, f StoredFile) (StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO stored_files (owner_user_id, original_filename, stored_filename, content_type, size_bytes, upload_path, checksum)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + fileColumns + `;`

	row := r.db.QueryRow(ctx, query,
		f.OwnerID,
		f.OriginalFilename,
		f.StoredFilename,
		f.ContentType,
		f.SizeBytes,
		f.UploadPath,
		f.Checksum,
	)

	stored, err := scanFile(row)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// ListByOwner returns the owner's files, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + fileColumns + `
FROM stored_files
WHERE owner_user_id = $1
ORDER BY created_at DESC, id DESC;`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []StoredFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// FindByIDAndOwner fetches a single file ensuring ownership.
func (r *Repository) FindByIDAndOwner(ctx context.Context, fileID, ownerID int64) (StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + fileColumns + `
FROM stored_files
WHERE id = $1 AND owner_user_id = $2;`

	f, err := scanFile(r.db.QueryRow(ctx, query, fileID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredFile{}, ErrFileNotFound
		}
		return StoredFile{}, fmt.Errorf("get file metadata: %w", err)
	}
	return f, nil
}

// DeleteByIDAndOwner locks the row, calls removeContent, then deletes the
// file's audits and the file row in the same transaction.
func (r *Repository) DeleteByIDAndOwner(ctx context.Context, fileID, ownerID int64, removeContent func(StoredFile) error) (StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return StoredFile{}, fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
SELECT ` + fileColumns + `
FROM stored_files
WHERE id = $1 AND owner_user_id = $2
FOR UPDATE;`

	f, err := scanFile(tx.QueryRow(ctx, query, fileID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredFile{}, ErrFileNotFound
		}
		return StoredFile{}, fmt.Errorf("lock file metadata: %w", err)
	}

	if err := removeContent(f); err != nil {
		return StoredFile{}, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM link_audits WHERE file_id = $1;`, f.ID); err != nil {
		return StoredFile{}, fmt.Errorf("delete link audits: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM stored_files WHERE id = $1;`, f.ID); err != nil {
		return StoredFile{}, fmt.Errorf("delete file metadata: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return StoredFile{}, fmt.Errorf("commit delete: %w", err)
	}
	return f, nil
}

func scanFile(row pgx.Row) (StoredFile, error) {
	var f StoredFile
	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.OriginalFilename,
		&f.StoredFilename,
		&f.ContentType,
		&f.SizeBytes,
		&f.UploadPath,
		&f.Checksum,
		&f.CreatedAt,
	)
	return f, err
}
