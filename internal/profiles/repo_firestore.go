package profiles

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"coa-backend/coa/model"
	"coa-backend/internal/shared/storage/docstore"
)

// FirestoreRepo stores profiles in the companyInfo collection keyed by user id.
type FirestoreRepo struct {
	Client *firestore.Client
}

type themeDoc struct {
	ID             string `firestore:"id"`
	PrimaryColor   string `firestore:"primaryColor"`
	SecondaryColor string `firestore:"secondaryColor"`
}

type companyDoc struct {
	UserID           string    `firestore:"userId"`
	CompanyName      string    `firestore:"companyName"`
	CompanyAddress   string    `firestore:"companyAddress"`
	LogoURL          string    `firestore:"logoUrl"`
	Theme            themeDoc  `firestore:"theme"`
	Layout           string    `firestore:"layout"`
	CustomBackground string    `firestore:"customBackground"`
	CreatedAt        time.Time `firestore:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
}

func (d companyDoc) profile() Profile {
	return Profile{
		UserID: d.UserID,
		Branding: model.BrandingProfile{
			Name:             d.CompanyName,
			Address:          d.CompanyAddress,
			Logo:             d.LogoURL,
			Theme:            model.Theme{ID: d.Theme.ID, PrimaryColor: d.Theme.PrimaryColor, SecondaryColor: d.Theme.SecondaryColor},
			Layout:           d.Layout,
			CustomBackground: d.CustomBackground,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func docFromProfile(p Profile) companyDoc {
	b := p.Branding
	return companyDoc{
		UserID:           p.UserID,
		CompanyName:      b.Name,
		CompanyAddress:   b.Address,
		LogoURL:          b.Logo,
		Theme:            themeDoc{ID: b.Theme.ID, PrimaryColor: b.Theme.PrimaryColor, SecondaryColor: b.Theme.SecondaryColor},
		Layout:           b.Layout,
		CustomBackground: b.CustomBackground,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (r *FirestoreRepo) doc(userID string) *firestore.DocumentRef {
	return r.Client.Collection(docstore.CompanyCollection).Doc(userID)
}

func (r *FirestoreRepo) Get(ctx context.Context, userID string) (Profile, error) {
	snap, err := r.doc(userID).Get(ctx)
	if docstore.IsNotFound(err) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	var d companyDoc
	if err := snap.DataTo(&d); err != nil {
		return Profile{}, err
	}
	return d.profile(), nil
}

func (r *FirestoreRepo) Upsert(ctx context.Context, p Profile) (Profile, error) {
	ref := r.doc(p.UserID)
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		p.CreatedAt, p.UpdatedAt = now, now
		snap, err := tx.Get(ref)
		if err != nil && !docstore.IsNotFound(err) {
			return err
		}
		if err == nil {
			var existing companyDoc
			if err := snap.DataTo(&existing); err == nil && !existing.CreatedAt.IsZero() {
				p.CreatedAt = existing.CreatedAt
			}
		}
		return tx.Set(ref, docFromProfile(p))
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (r *FirestoreRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.doc(userID).Delete(ctx)
	return err
}

func (r *FirestoreRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	moved := 0
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		moved = 0
		guestSnap, err := tx.Get(r.doc(guestUserID))
		if docstore.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.Get(r.doc(authedUserID)); err == nil {
			return nil
		} else if !docstore.IsNotFound(err) {
			return err
		}
		var d companyDoc
		if err := guestSnap.DataTo(&d); err != nil {
			return err
		}
		d.UserID = authedUserID
		d.UpdatedAt = time.Now().UTC()
		if err := tx.Set(r.doc(authedUserID), d); err != nil {
			return err
		}
		moved = 1
		return tx.Delete(r.doc(guestUserID))
	})
	return moved, err
}
