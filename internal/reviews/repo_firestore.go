package reviews

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"coa-backend/internal/shared/storage/docstore"
)

// FirestoreRepo stores reviews in the reviews collection keyed by review id.
type FirestoreRepo struct {
	Client *firestore.Client
}

type reviewDoc struct {
	UserID    string    `firestore:"userId"`
	UserEmail string    `firestore:"userEmail"`
	Rating    int       `firestore:"rating"`
	Title     string    `firestore:"title"`
	Comment   string    `firestore:"comment"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (r *FirestoreRepo) col() *firestore.CollectionRef {
	return r.Client.Collection(docstore.ReviewsCollection)
}

func (r *FirestoreRepo) Create(ctx context.Context, rev Review) error {
	_, err := r.col().Doc(rev.ID).Create(ctx, reviewDoc{
		UserID:    rev.UserID,
		UserEmail: rev.UserEmail,
		Rating:    rev.Rating,
		Title:     rev.Title,
		Comment:   rev.Comment,
		CreatedAt: rev.CreatedAt,
	})
	return err
}

func (r *FirestoreRepo) Latest(ctx context.Context, userID string) (Review, error) {
	list, err := r.query(ctx, r.col().Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc).Limit(1))
	if err != nil {
		return Review{}, err
	}
	if len(list) == 0 {
		return Review{}, ErrNotFound
	}
	return list[0], nil
}

func (r *FirestoreRepo) ListByUser(ctx context.Context, userID string) ([]Review, error) {
	return r.query(ctx, r.col().Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc))
}

func (r *FirestoreRepo) Summary(ctx context.Context) (Summary, error) {
	iter := r.col().Select("rating").Documents(ctx)
	defer iter.Stop()
	count, total := 0, 0
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return Summary{}, err
		}
		var d reviewDoc
		if err := snap.DataTo(&d); err != nil {
			return Summary{}, err
		}
		count++
		total += d.Rating
	}
	return summarize(count, total), nil
}

func (r *FirestoreRepo) query(ctx context.Context, q firestore.Query) ([]Review, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()
	out := []Review{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var d reviewDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, Review{
			ID:        snap.Ref.ID,
			UserID:    d.UserID,
			UserEmail: d.UserEmail,
			Rating:    d.Rating,
			Title:     d.Title,
			Comment:   d.Comment,
			CreatedAt: d.CreatedAt,
		})
	}
}
