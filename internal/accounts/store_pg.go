package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed account store.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

const selectAccount = `
SELECT email, plan, subscription_status, downloads_remaining, downloads_used_this_month,
       paid_downloads, current_period_end, created_at, updated_at
FROM accounts WHERE user_id = $1`

func (s *pgStore) Get(ctx context.Context, userID string) (Account, error) {
	acct, err := scanAccount(s.DB.QueryRowContext(ctx, selectAccount, userID), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return newAccount(userID, time.Now().UTC()), nil
	}
	return acct, err
}

func (s *pgStore) Update(ctx context.Context, userID string, fn func(*Account) error) (acct Account, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	acct, err = scanAccount(tx.QueryRowContext(ctx, selectAccount+" FOR UPDATE", userID), userID)
	if errors.Is(err, sql.ErrNoRows) {
		acct, err = newAccount(userID, time.Now().UTC()), nil
	}
	if err != nil {
		return Account{}, err
	}
	if err = fn(&acct); err != nil {
		return Account{}, err
	}
	acct.UpdatedAt = time.Now().UTC()

	if _, err = tx.ExecContext(ctx, `
INSERT INTO accounts (user_id, email, plan, subscription_status, downloads_remaining,
                      downloads_used_this_month, paid_downloads, current_period_end, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (user_id) DO UPDATE SET
  email = EXCLUDED.email,
  plan = EXCLUDED.plan,
  subscription_status = EXCLUDED.subscription_status,
  downloads_remaining = EXCLUDED.downloads_remaining,
  downloads_used_this_month = EXCLUDED.downloads_used_this_month,
  paid_downloads = EXCLUDED.paid_downloads,
  current_period_end = EXCLUDED.current_period_end,
  updated_at = EXCLUDED.updated_at`,
		userID, acct.Email, string(acct.Plan), string(acct.SubscriptionStatus), acct.DownloadsRemaining,
		acct.DownloadsUsedThisMonth, acct.PaidDownloads, acct.CurrentPeriodEnd, acct.CreatedAt, acct.UpdatedAt,
	); err != nil {
		return Account{}, err
	}
	if err = tx.Commit(); err != nil {
		return Account{}, err
	}
	return acct, nil
}

func scanAccount(row *sql.Row, userID string) (Account, error) {
	acct := Account{UserID: userID}
	var plan, status string
	var periodEnd sql.NullTime
	if err := row.Scan(&acct.Email, &plan, &status, &acct.DownloadsRemaining, &acct.DownloadsUsedThisMonth,
		&acct.PaidDownloads, &periodEnd, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
		return Account{}, err
	}
	acct.Plan = Plan(plan)
	acct.SubscriptionStatus = SubscriptionStatus(status)
	if periodEnd.Valid {
		t := periodEnd.Time
		acct.CurrentPeriodEnd = &t
	}
	return acct, nil
}
