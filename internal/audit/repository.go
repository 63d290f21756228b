package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const repoTimeout = 5 * time.Second

// DBTX is the part of pgxpool.Pool the repository needs.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores audits in PostgreSQL.
type Repository struct {
	db DBTX
}

// NewRepository builds a new audit repository.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// Create appends an audit row.
func (r *Repository) Create(ctx context.Context, a LinkAudit) (LinkAudit, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO link_audits (file_id, requester_user_id, ttl_seconds)
VALUES ($1, $2, $3)
RETURNING id, file_id, requester_user_id, ttl_seconds, created_at;`

	var stored LinkAudit
	err := r.db.QueryRow(ctx, query, a.FileID, a.RequesterUserID, a.TTLSeconds).Scan(
		&stored.ID,
		&stored.FileID,
		&stored.RequesterUserID,
		&stored.TTLSeconds,
		&stored.CreatedAt,
	)
	if err != nil {
		return LinkAudit{}, fmt.Errorf("create link audit: %w", err)
	}
	return stored, nil
}

// ListByRequester returns the requester's audits with the file's current name, newest first.
func (r *Repository) ListByRequester(ctx context.Context, requesterID int64) ([]View, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT a.id, a.file_id, f.original_filename, a.requester_user_id, a.ttl_seconds, a.created_at
FROM link_audits a
JOIN stored_files f ON f.id = a.file_id
WHERE a.requester_user_id = $1
ORDER BY a.created_at DESC, a.id DESC;`

	rows, err := r.db.Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list link audits: %w", err)
	}
	defer rows.Close()

	views := []View{}
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.FileID, &v.Filename, &v.RequesterUserID, &v.TTLSeconds, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan link audit: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link audits: %w", err)
	}
	return views, nil
}
