package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxTitleLen   = 100
	minCommentLen = 10
	maxCommentLen = 2000
	// ThrottleWindow is the minimum gap between two reviews by one user.
	ThrottleWindow = time.Minute
)

var ErrThrottled = errors.New("review submitted too recently")

type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid review: %d issue(s)", len(e.Issues))
}

type Service struct {
	Repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, now: time.Now}
}

// Submit validates and stores a review.
func (s *Service) Submit(ctx context.Context, userID, email string, in Input) (Review, error) {
	rev := Review{
		UserID:    userID,
		UserEmail: strings.TrimSpace(email),
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := validate(rev); err != nil {
		return Review{}, err
	}

	now := s.now().UTC()
	last, err := s.Repo.Latest(ctx, userID)
	switch {
	case err == nil:
		if now.Sub(last.CreatedAt) < ThrottleWindow {
			return Review{}, ErrThrottled
		}
	case !errors.Is(err, ErrNotFound):
		return Review{}, err
	}

	rev.ID = uuid.NewString()
	rev.CreatedAt = now
	if err := s.Repo.Create(ctx, rev); err != nil {
		return Review{}, err
	}
	return rev, nil
}

func (s *Service) Mine(ctx context.Context, userID string) ([]Review, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.Repo.Summary(ctx)
}

func validate(rev Review) error {
	var issues []FieldIssue
	if rev.Rating < 1 || rev.Rating > 5 {
		issues = append(issues, FieldIssue{Field: "rating", Issue: "must be between 1 and 5"})
	}
	if utf8.RuneCountInString(rev.Title) > maxTitleLen {
		issues = append(issues, FieldIssue{Field: "title", Issue: fmt.Sprintf("max %d characters", maxTitleLen)})
	}
	switch n := utf8.RuneCountInString(rev.Comment); {
	case n < minCommentLen:
		issues = append(issues, FieldIssue{Field: "comment", Issue: fmt.Sprintf("min %d characters", minCommentLen)})
	case n > maxCommentLen:
		issues = append(issues, FieldIssue{Field: "comment", Issue: fmt.Sprintf("max %d characters", maxCommentLen)})
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
