package reviews

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	items []Review
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(ctx context.Context, rev Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, rev)
	return nil
}

func (r *MemoryRepo) Latest(ctx context.Context, userID string) (Review, error) {
	list, err := r.ListByUser(ctx, userID)
	if err != nil {
		return Review{}, err
	}
	if len(list) == 0 {
		return Review{}, ErrNotFound
	}
	return list[0], nil
}

// ListByUser returns the user's reviews newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Review{}
	for _, rev := range r.items {
		if rev.UserID == userID {
			out = append(out, rev)
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Summary(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, rev := range r.items {
		total += rev.Rating
	}
	return summarize(len(r.items), total), nil
}

func summarize(count, total int) Summary {
	if count == 0 {
		return Summary{}
	}
	avg := float64(total) / float64(count)
	return Summary{Count: count, AverageRating: float64(int(avg*10+0.5)) / 10}
}
