package reviews

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("review not found")

type Repo interface {
	Create(ctx context.Context, r Review) error
	// Latest returns the user's most recent review or ErrNotFound.
	Latest(ctx context.Context, userID string) (Review, error)
	ListByUser(ctx context.Context, userID string) ([]Review, error)
	Summary(ctx context.Context) (Summary, error)
}
