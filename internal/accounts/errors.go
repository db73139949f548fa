package accounts

import "errors"

var (
	// ErrNoCredits means the subscriber used this period's downloads.
	ErrNoCredits = errors.New("no download credits remaining")
	// ErrSubscriptionRequired means the operation needs an active subscription.
	ErrSubscriptionRequired = errors.New("active subscription required")
	// ErrNoPaidDownloads means no one-time download is left to spend.
	ErrNoPaidDownloads = errors.New("no paid downloads remaining")
	// ErrGuest means the operation needs a signed-in user.
	ErrGuest = errors.New("login required")
)
