package accounts

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"coa-backend/internal/shared/storage/docstore"
)

type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore keeps accounts on the users collection.
func NewFirestoreStore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

type accountDoc struct {
	Email                  string     `firestore:"email"`
	AccountType            string     `firestore:"accountType"`
	SubscriptionStatus     string     `firestore:"subscriptionStatus"`
	DownloadsRemaining     int        `firestore:"downloadsRemaining"`
	DownloadsUsedThisMonth int        `firestore:"downloadsUsedThisMonth"`
	PaidDownloads          int        `firestore:"paidDownloads"`
	CurrentPeriodEnd       *time.Time `firestore:"currentPeriodEnd"`
	CreatedAt              time.Time  `firestore:"createdAt"`
	UpdatedAt              time.Time  `firestore:"updatedAt"`
}

func (d accountDoc) account(userID string) Account {
	acct := Account{
		UserID:                 userID,
		Email:                  d.Email,
		Plan:                   Plan(d.AccountType),
		SubscriptionStatus:     SubscriptionStatus(d.SubscriptionStatus),
		DownloadsRemaining:     d.DownloadsRemaining,
		DownloadsUsedThisMonth: d.DownloadsUsedThisMonth,
		PaidDownloads:          d.PaidDownloads,
		CurrentPeriodEnd:       d.CurrentPeriodEnd,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
	if acct.Plan == "" {
		acct.Plan = PlanFree
	}
	if acct.SubscriptionStatus == "" {
		acct.SubscriptionStatus = SubscriptionNone
	}
	return acct
}

func docFromAccount(acct Account) accountDoc {
	return accountDoc{
		Email:                  acct.Email,
		AccountType:            string(acct.Plan),
		SubscriptionStatus:     string(acct.SubscriptionStatus),
		DownloadsRemaining:     acct.DownloadsRemaining,
		DownloadsUsedThisMonth: acct.DownloadsUsedThisMonth,
		PaidDownloads:          acct.PaidDownloads,
		CurrentPeriodEnd:       acct.CurrentPeriodEnd,
		CreatedAt:              acct.CreatedAt,
		UpdatedAt:              acct.UpdatedAt,
	}
}

func (s *firestoreStore) Get(ctx context.Context, userID string) (Account, error) {
	snap, err := s.client.Collection(docstore.UsersCollection).Doc(userID).Get(ctx)
	if docstore.IsNotFound(err) {
		return newAccount(userID, time.Now().UTC()), nil
	}
	if err != nil {
		return Account{}, err
	}
	var doc accountDoc
	if err := snap.DataTo(&doc); err != nil {
		return Account{}, err
	}
	return doc.account(userID), nil
}

func (s *firestoreStore) Update(ctx context.Context, userID string, fn func(*Account) error) (Account, error) {
	ref := s.client.Collection(docstore.UsersCollection).Doc(userID)
	var out Account
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		acct := newAccount(userID, time.Now().UTC())
		snap, err := tx.Get(ref)
		switch {
		case docstore.IsNotFound(err):
		case err != nil:
			return err
		default:
			var doc accountDoc
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			acct = doc.account(userID)
		}
		if err := fn(&acct); err != nil {
			return err
		}
		acct.UpdatedAt = time.Now().UTC()
		out = acct
		return tx.Set(ref, docFromAccount(acct))
	})
	if err != nil {
		return Account{}, err
	}
	return out, nil
}
