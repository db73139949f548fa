package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"coa-backend/coa/layout"
	"coa-backend/coa/model"
)

const (
	maxNameLen    = 200
	maxAddressLen = 1000
	// Logo and background refs may be inline data URIs.
	maxAssetRefLen = 12 << 20
)

// FieldIssue names one invalid input field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError lists every rejected field of a save.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Issue)
	}
	return "invalid company profile: " + strings.Join(parts, ", ")
}

// Service validates and stores company profiles.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Get returns the stored profile or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	if s == nil || s.Repo == nil {
		return Profile{}, errors.New("profiles service not configured")
	}
	return s.Repo.Get(ctx, userID)
}

// Save normalizes branding and upserts it for userID.
func (s *Service) Save(ctx context.Context, userID string, branding model.BrandingProfile) (Profile, error) {
	if s == nil || s.Repo == nil {
		return Profile{}, errors.New("profiles service not configured")
	}
	normalized, err := Normalize(branding)
	if err != nil {
		return Profile{}, err
	}
	return s.Repo.Upsert(ctx, Profile{UserID: userID, Branding: normalized})
}

// Delete removes the user's profile. Deleting a missing profile succeeds.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("profiles service not configured")
	}
	return s.Repo.Delete(ctx, userID)
}

// Branding returns override when it carries a company name, otherwise the
// stored profile, otherwise an empty profile.
func (s *Service) Branding(ctx context.Context, userID string, override *model.BrandingProfile) (model.BrandingProfile, error) {
	if override != nil && strings.TrimSpace(override.Name) != "" {
		return Normalize(*override)
	}
	p, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return model.BrandingProfile{Layout: layout.Classic, Theme: model.Theme{ID: layout.DefaultThemeID}}, nil
	}
	if err != nil {
		return model.BrandingProfile{}, err
	}
	return p.Branding, nil
}

// Normalize trims fields, canonicalizes layout and theme ids and rejects
// values the renderer could only silently drop.
func Normalize(b model.BrandingProfile) (model.BrandingProfile, error) {
	var issues []FieldIssue
	out := model.BrandingProfile{
		Name:             strings.TrimSpace(b.Name),
		Address:          strings.TrimSpace(b.Address),
		Logo:             strings.TrimSpace(b.Logo),
		CustomBackground: strings.TrimSpace(b.CustomBackground),
		Layout:           layout.Resolve(b.Layout).ID,
	}

	switch {
	case out.Name == "":
		issues = append(issues, FieldIssue{Field: "companyName", Issue: "required"})
	case utf8.RuneCountInString(out.Name) > maxNameLen:
		issues = append(issues, FieldIssue{Field: "companyName", Issue: fmt.Sprintf("max %d characters", maxNameLen)})
	}
	if utf8.RuneCountInString(out.Address) > maxAddressLen {
		issues = append(issues, FieldIssue{Field: "companyAddress", Issue: fmt.Sprintf("max %d characters", maxAddressLen)})
	}
	if len(out.Logo) > maxAssetRefLen {
		issues = append(issues, FieldIssue{Field: "logoUrl", Issue: "too large"})
	}
	if len(out.CustomBackground) > maxAssetRefLen {
		issues = append(issues, FieldIssue{Field: "customBackground", Issue: "too large"})
	}

	themeID := strings.ToLower(strings.TrimSpace(b.Theme.ID))
	if !layout.KnownTheme(themeID) {
		themeID = layout.DefaultThemeID
	}
	out.Theme = model.Theme{ID: themeID}
	var issue *FieldIssue
	if out.Theme.PrimaryColor, issue = normalizeHex("theme.primaryColor", b.Theme.PrimaryColor); issue != nil {
		issues = append(issues, *issue)
	}
	if out.Theme.SecondaryColor, issue = normalizeHex("theme.secondaryColor", b.Theme.SecondaryColor); issue != nil {
		issues = append(issues, *issue)
	}

	if len(issues) > 0 {
		return model.BrandingProfile{}, &ValidationError{Issues: issues}
	}
	return out, nil
}

// normalizeHex returns the color as upper-case #RRGGBB, or "" when unset.
func normalizeHex(field, value string) (string, *FieldIssue) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	c, err := layout.ParseHex(value)
	if err != nil {
		return "", &FieldIssue{Field: field, Issue: "invalid hex color"}
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B), nil
}
