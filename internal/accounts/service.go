package accounts

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DefaultMonthlyCredits is the subscriber allowance per billing period.
const DefaultMonthlyCredits = 60

// Service decides entitlements and moves download balances.
type Service struct {
	store          Store
	monthlyCredits int
	now            func() time.Time
}

// NewService constructs a Service over store.
func NewService(store Store, monthlyCredits int) *Service {
	if monthlyCredits <= 0 {
		monthlyCredits = DefaultMonthlyCredits
	}
	return &Service{store: store, monthlyCredits: monthlyCredits, now: func() time.Time { return time.Now().UTC() }}
}

// Status returns the account with any elapsed billing period rolled over.
func (s *Service) Status(ctx context.Context, userID string) (Account, error) {
	acct, err := s.store.Get(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	s.rollover(&acct)
	return acct, nil
}

// Decide returns the entitlement for one render. Guests and free users get
// the watermarked tier. requestPaid asks to spend a subscription credit or a
// one-time download when the plan doesn't already cover clean output.
func (s *Service) Decide(ctx context.Context, userID string, requestPaid bool) (Decision, error) {
	if userID == "" || IsGuestID(userID) {
		return freeDecision(), nil
	}
	acct, err := s.Status(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	switch {
	case acct.Plan == PlanPro:
		return paidDecision(SourcePro), nil
	case !requestPaid:
		return freeDecision(), nil
	case acct.SubscriptionStatus == SubscriptionActive && acct.DownloadsRemaining > 0:
		return paidDecision(SourceSubscription), nil
	case acct.PaidDownloads > 0:
		return paidDecision(SourcePaidDownload), nil
	}
	return freeDecision(), nil
}

// Charge spends whatever Decide said pays for the render.
func (s *Service) Charge(ctx context.Context, userID string, source Source) error {
	switch source {
	case SourceSubscription:
		_, err := s.ConsumeCredit(ctx, userID)
		return err
	case SourcePaidDownload:
		_, err := s.store.Update(ctx, userID, func(a *Account) error {
			if a.PaidDownloads <= 0 {
				return ErrNoPaidDownloads
			}
			a.PaidDownloads--
			return nil
		})
		return err
	}
	return nil
}

// ConsumeCredit spends one subscriber download.
func (s *Service) ConsumeCredit(ctx context.Context, userID string) (Account, error) {
	if IsGuestID(userID) {
		return Account{}, ErrGuest
	}
	return s.store.Update(ctx, userID, func(a *Account) error {
		if a.SubscriptionStatus != SubscriptionActive {
			return ErrSubscriptionRequired
		}
		s.rollover(a)
		if a.DownloadsRemaining <= 0 {
			return ErrNoCredits
		}
		a.DownloadsRemaining--
		a.DownloadsUsedThisMonth++
		return nil
	})
}

// GrantPaidDownload records n one-time purchases.
func (s *Service) GrantPaidDownload(ctx context.Context, userID string, n int) (Account, error) {
	if IsGuestID(userID) {
		return Account{}, ErrGuest
	}
	if n <= 0 {
		n = 1
	}
	return s.store.Update(ctx, userID, func(a *Account) error {
		a.PaidDownloads += n
		return nil
	})
}

// ActivateSubscription starts a fresh billing period with a full allowance.
func (s *Service) ActivateSubscription(ctx context.Context, userID string) (Account, error) {
	if IsGuestID(userID) {
		return Account{}, ErrGuest
	}
	now := s.now()
	return s.store.Update(ctx, userID, func(a *Account) error {
		end := now.AddDate(0, 1, 0)
		if a.Plan != PlanPro {
			a.Plan = PlanSubscriber
		}
		a.SubscriptionStatus = SubscriptionActive
		a.DownloadsRemaining = s.monthlyCredits
		a.DownloadsUsedThisMonth = 0
		a.CurrentPeriodEnd = &end
		return nil
	})
}

// CancelSubscription drops the remaining allowance.
func (s *Service) CancelSubscription(ctx context.Context, userID string) (Account, error) {
	return s.store.Update(ctx, userID, func(a *Account) error {
		if a.SubscriptionStatus == SubscriptionNone {
			return ErrSubscriptionRequired
		}
		if a.Plan == PlanSubscriber {
			a.Plan = PlanFree
		}
		a.SubscriptionStatus = SubscriptionCanceled
		a.DownloadsRemaining = 0
		return nil
	})
}

// UpgradeToPro grants unlimited clean certificates.
func (s *Service) UpgradeToPro(ctx context.Context, userID string) (Account, error) {
	if IsGuestID(userID) {
		return Account{}, ErrGuest
	}
	return s.store.Update(ctx, userID, func(a *Account) error {
		a.Plan = PlanPro
		return nil
	})
}

// Reset returns the account to the free tier.
func (s *Service) Reset(ctx context.Context, userID string) (Account, error) {
	now := s.now()
	return s.store.Update(ctx, userID, func(a *Account) error {
		email, created := a.Email, a.CreatedAt
		*a = newAccount(userID, now)
		a.Email, a.CreatedAt = email, created
		return nil
	})
}

// RecordSignIn stores the identity's email on first and later sign-ins.
func (s *Service) RecordSignIn(ctx context.Context, userID, email string) error {
	if strings.TrimSpace(userID) == "" || IsGuestID(userID) {
		return errors.New("signed-in user id is required")
	}
	_, err := s.store.Update(ctx, userID, func(a *Account) error {
		if email != "" {
			a.Email = email
		}
		return nil
	})
	return err
}

// rollover renews an active subscription whose period has ended.
func (s *Service) rollover(a *Account) {
	if a.SubscriptionStatus != SubscriptionActive || a.CurrentPeriodEnd == nil {
		return
	}
	now := s.now()
	end := *a.CurrentPeriodEnd
	if now.Before(end) {
		return
	}
	for !now.Before(end) {
		end = end.AddDate(0, 1, 0)
	}
	a.CurrentPeriodEnd = &end
	a.DownloadsRemaining = s.monthlyCredits
	a.DownloadsUsedThisMonth = 0
}
