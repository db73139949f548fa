package accounts

import (
	"strings"
	"time"

	"coa-backend/coa/model"
)

// Plan is the account tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanSubscriber Plan = "subscriber"
)

// SubscriptionStatus mirrors the billing provider's subscription state.
type SubscriptionStatus string

const (
	SubscriptionNone     SubscriptionStatus = "none"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// Account is a user's plan and download balance.
type Account struct {
	UserID                 string             `json:"userId"`
	Email                  string             `json:"email,omitempty"`
	Plan                   Plan               `json:"accountType"`
	SubscriptionStatus     SubscriptionStatus `json:"subscriptionStatus"`
	DownloadsRemaining     int                `json:"downloadsRemaining"`
	DownloadsUsedThisMonth int                `json:"downloadsUsedThisMonth"`
	PaidDownloads          int                `json:"paidDownloads"`
	CurrentPeriodEnd       *time.Time         `json:"currentPeriodEnd"`
	CreatedAt              time.Time          `json:"createdAt"`
	UpdatedAt              time.Time          `json:"updatedAt"`
}

func newAccount(userID string, now time.Time) Account {
	return Account{
		UserID:             userID,
		Plan:               PlanFree,
		SubscriptionStatus: SubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Source names what pays for an unwatermarked certificate.
type Source string

const (
	SourceFree         Source = "free"
	SourcePro          Source = "pro"
	SourceSubscription Source = "subscription"
	SourcePaidDownload Source = "paid_download"
)

// Decision is the entitlement for one render and what to charge for it.
type Decision struct {
	Entitlement model.Entitlement
	Source      Source
}

func freeDecision() Decision {
	return Decision{Entitlement: model.FreeEntitlement, Source: SourceFree}
}

func paidDecision(source Source) Decision {
	return Decision{
		Entitlement: model.Entitlement{Watermarked: false, UseCustomHeader: true},
		Source:      source,
	}
}

// IsGuestID reports whether userID is an anonymous guest identity.
func IsGuestID(userID string) bool {
	return strings.HasPrefix(userID, "guest:")
}
