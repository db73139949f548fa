package profiles

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo stores profiles in the company_profiles table.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, userID string) (Profile, error) {
	const query = `
SELECT user_id, name, address, logo_url, theme_id, primary_color, secondary_color, layout, custom_background, created_at, updated_at
FROM company_profiles
WHERE user_id = $1`
	var p Profile
	b := &p.Branding
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &b.Name, &b.Address, &b.Logo, &b.Theme.ID, &b.Theme.PrimaryColor, &b.Theme.SecondaryColor,
		&b.Layout, &b.CustomBackground, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (r *PGRepo) Upsert(ctx context.Context, p Profile) (Profile, error) {
	const query = `
INSERT INTO company_profiles (user_id, name, address, logo_url, theme_id, primary_color, secondary_color, layout, custom_background, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  name = EXCLUDED.name,
  address = EXCLUDED.address,
  logo_url = EXCLUDED.logo_url,
  theme_id = EXCLUDED.theme_id,
  primary_color = EXCLUDED.primary_color,
  secondary_color = EXCLUDED.secondary_color,
  layout = EXCLUDED.layout,
  custom_background = EXCLUDED.custom_background,
  updated_at = now()
RETURNING created_at, updated_at`
	b := p.Branding
	err := r.DB.QueryRowContext(ctx, query,
		p.UserID, b.Name, b.Address, b.Logo, b.Theme.ID, b.Theme.PrimaryColor, b.Theme.SecondaryColor,
		b.Layout, b.CustomBackground,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (r *PGRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM company_profiles WHERE user_id = $1`, userID)
	return err
}

// ClaimGuest moves the guest profile unless the user already has one.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `
UPDATE company_profiles SET user_id = $1, updated_at = now()
WHERE user_id = $2
  AND NOT EXISTS (SELECT 1 FROM company_profiles WHERE user_id = $1)`, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
