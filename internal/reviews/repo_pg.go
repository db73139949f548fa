package reviews

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, rev Review) error {
	const query = `
INSERT INTO reviews (id, user_id, user_email, rating, title, comment, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query, rev.ID, rev.UserID, rev.UserEmail, rev.Rating, rev.Title, rev.Comment, rev.CreatedAt)
	return err
}

func (r *PGRepo) Latest(ctx context.Context, userID string) (Review, error) {
	const query = `
SELECT id, user_id, user_email, rating, title, comment, created_at
FROM reviews
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`
	var rev Review
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&rev.ID, &rev.UserID, &rev.UserEmail, &rev.Rating, &rev.Title, &rev.Comment, &rev.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	return rev, err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Review, error) {
	const query = `
SELECT id, user_id, user_email, rating, title, comment, created_at
FROM reviews
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Review{}
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.UserEmail, &rev.Rating, &rev.Title, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func (r *PGRepo) Summary(ctx context.Context) (Summary, error) {
	var count, total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews`).Scan(&count, &total)
	if err != nil {
		return Summary{}, err
	}
	return summarize(count, total), nil
}
