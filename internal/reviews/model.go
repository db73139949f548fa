package reviews

import "time"

// Review is a signed-in user's rating of the service.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	UserEmail string    `json:"userEmail,omitempty"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary aggregates every review.
type Summary struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
}

// Input is the submitted review body.
type Input struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}
