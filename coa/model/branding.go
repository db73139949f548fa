package model

// Theme selects the two brand colors. ID names a preset; PrimaryColor and
// SecondaryColor, when set, override the preset as a custom hex pair.
type Theme struct {
	ID             string `json:"id,omitempty" yaml:"id,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty" yaml:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty" yaml:"secondaryColor,omitempty"`
}

// BrandingProfile is the customer's identity applied to a generated certificate.
type BrandingProfile struct {
	Name             string `json:"name,omitempty" yaml:"name,omitempty"`
	Address          string `json:"address,omitempty" yaml:"address,omitempty"`
	Logo             string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Theme            Theme  `json:"theme" yaml:"theme"`
	Layout           string `json:"layout,omitempty" yaml:"layout,omitempty"`
	CustomBackground string `json:"customBackground,omitempty" yaml:"customBackground,omitempty"`
}

// Entitlement is decided per render by the billing state and never stored.
type Entitlement struct {
	Watermarked     bool `json:"watermarked"`
	UseCustomHeader bool `json:"useCustomHeader"`
}

// FreeEntitlement is what an account without any paid capability receives.
var FreeEntitlement = Entitlement{Watermarked: true}
