package profiles

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the user has no saved profile.
var ErrNotFound = errors.New("company profile not found")

// Repo persists one profile per user.
type Repo interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Upsert(ctx context.Context, p Profile) (Profile, error)
	Delete(ctx context.Context, userID string) error
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}
