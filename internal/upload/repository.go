package upload

import (
	"context"
	"database/sql"
)

// Record is one stored upload, kept for auditing only.
type Record struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Record(ctx context.Context, rec Record) error {
	query := "INSERT INTO uploads (object_key, url, content_type, size_bytes) VALUES ($1, $2, $3, $4)"
	_, err := r.db.ExecContext(ctx, query, rec.Key, rec.URL, rec.ContentType, rec.Size)
	return err
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT object_key, url, content_type, size_bytes
		FROM uploads
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Key, &rec.URL, &rec.ContentType, &rec.Size); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
