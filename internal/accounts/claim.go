package accounts

import (
	"context"
	"errors"
	"strings"
)

// GuestClaimer moves rows owned by a guest identity to a signed-in user.
type GuestClaimer interface {
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}

// ClaimResult counts migrated rows per resource.
type ClaimResult struct {
	Migrated map[string]int `json:"migrated"`
}

// ClaimGuest migrates every registered resource. Claiming twice is a no-op.
func ClaimGuest(ctx context.Context, claimers map[string]GuestClaimer, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}
	if !IsGuestID(guestUserID) || IsGuestID(authedUserID) {
		return ClaimResult{}, ErrGuest
	}
	result := ClaimResult{Migrated: make(map[string]int, len(claimers))}
	for name, claimer := range claimers {
		n, err := claimer.ClaimGuest(ctx, guestUserID, authedUserID)
		if err != nil {
			return result, err
		}
		result.Migrated[name] = n
	}
	return result, nil
}
