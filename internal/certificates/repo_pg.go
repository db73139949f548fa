package certificates

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, file_name, storage_key, size_bytes, pages, row_count, watermarked, product_name, created_at`

func (r *PGRepo) Create(ctx context.Context, cert Certificate) error {
	const query = `
INSERT INTO certificates (` + selectColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		cert.ID,
		cert.UserID,
		cert.FileName,
		cert.StorageKey,
		cert.SizeBytes,
		cert.Pages,
		cert.Rows,
		cert.Watermarked,
		cert.ProductName,
		cert.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (Certificate, error) {
	const query = `
SELECT ` + selectColumns + `
FROM certificates
WHERE user_id = $1 AND id = $2
LIMIT 1`
	cert, err := scanCertificate(r.DB.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Certificate{}, ErrNotFound
	}
	return cert, err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Certificate, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + selectColumns + `
FROM certificates
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Certificate{}
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM certificates WHERE user_id = $1 AND id = $2`, userID, id)
	return err
}

func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE certificates SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row scanner) (Certificate, error) {
	var c Certificate
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.FileName,
		&c.StorageKey,
		&c.SizeBytes,
		&c.Pages,
		&c.Rows,
		&c.Watermarked,
		&c.ProductName,
		&c.CreatedAt,
	)
	return c, err
}
