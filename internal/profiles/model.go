package profiles

import (
	"time"

	"coa-backend/coa/model"
)

// Profile is a user's saved company branding.
type Profile struct {
	UserID    string
	Branding  model.BrandingProfile
	CreatedAt time.Time
	UpdatedAt time.Time
}

// profileResponse keeps the field names the web client already uses.
type profileResponse struct {
	CompanyName      string      `json:"companyName"`
	CompanyAddress   string      `json:"companyAddress"`
	LogoURL          string      `json:"logoUrl,omitempty"`
	Theme            model.Theme `json:"theme"`
	Layout           string      `json:"layout"`
	CustomBackground string      `json:"customBackground,omitempty"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

func toResponse(p Profile) profileResponse {
	return profileResponse{
		CompanyName:      p.Branding.Name,
		CompanyAddress:   p.Branding.Address,
		LogoURL:          p.Branding.Logo,
		Theme:            p.Branding.Theme,
		Layout:           p.Branding.Layout,
		CustomBackground: p.Branding.CustomBackground,
		UpdatedAt:        p.UpdatedAt,
	}
}
