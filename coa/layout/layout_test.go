package layout

import (
	"testing"

	"coa-backend/coa/model"
)

func TestResolveLayouts(t *testing.T) {
	tests := []struct {
		id     string
		header HeaderStyle
		logo   Align
		text   Align
		border float64
		fill   HeaderFill
	}{
		{id: "classic", header: HeaderBanner, logo: AlignCenter, text: AlignCenter, border: 2, fill: FillFilled},
		{id: "modern", header: HeaderMinimal, logo: AlignLeft, text: AlignLeft, border: 1, fill: FillFilled},
		{id: "minimal", header: HeaderNone, logo: AlignCenter, text: AlignCenter, border: 0.5, fill: FillOutline},
		{id: " Modern ", header: HeaderMinimal, logo: AlignLeft, text: AlignLeft, border: 1, fill: FillFilled},
		{id: "brutalist", header: HeaderBanner, logo: AlignCenter, text: AlignCenter, border: 2, fill: FillFilled},
		{id: "", header: HeaderBanner, logo: AlignCenter, text: AlignCenter, border: 2, fill: FillFilled},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			g := Resolve(tc.id)
			if g.HeaderStyle != tc.header || g.LogoAlign != tc.logo || g.TextAlign != tc.text {
				t.Fatalf("unexpected geometry %+v", g)
			}
			if g.TableBorderWidth != tc.border || g.TableHeaderFill != tc.fill {
				t.Fatalf("unexpected table style %+v", g)
			}
		})
	}
}

func TestResolveThemeDefaultsAndOverrides(t *testing.T) {
	p := ResolveTheme(model.Theme{})
	if p.ThemeID != DefaultThemeID {
		t.Fatalf("expected default theme, got %q", p.ThemeID)
	}
	if p.Primary != (RGB{R: 0x1A, G: 0x37, B: 0x6B}) || p.Secondary != (RGB{R: 0x56, G: 0x82, B: 0x59}) {
		t.Fatalf("unexpected default palette %+v", p)
	}

	p = ResolveTheme(model.Theme{ID: "ocean", PrimaryColor: "#fff", SecondaryColor: "zzzzzz"})
	if p.Primary != (RGB{R: 255, G: 255, B: 255}) {
		t.Fatalf("expected custom primary, got %+v", p.Primary)
	}
	if p.Secondary != mustHex(presets["ocean"].secondary) {
		t.Fatalf("expected invalid secondary to keep preset, got %+v", p.Secondary)
	}
}

func TestThemeIDsAreAllPresets(t *testing.T) {
	ids := ThemeIDs()
	if len(ids) != len(presets) {
		t.Fatalf("expected %d ids, got %d", len(presets), len(ids))
	}
	for _, id := range ids {
		if !KnownTheme(id) {
			t.Fatalf("id %q has no preset", id)
		}
	}
}

func TestParseHexRejectsBadInput(t *testing.T) {
	for _, s := range []string{"", "#12", "#12345G", "1234567"} {
		if _, err := ParseHex(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}
