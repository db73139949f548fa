package certificates

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("certificate not found")

// Repo persists certificate metadata. The PDF itself lives in the object store.
type Repo interface {
	Create(ctx context.Context, cert Certificate) error
	Get(ctx context.Context, userID, id string) (Certificate, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Certificate, error)
	// Delete removes a certificate row; a missing row is not an error.
	Delete(ctx context.Context, userID, id string) error
	// ClaimGuest moves a guest's certificates to a signed-in user.
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}
