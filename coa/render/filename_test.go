package render

import (
	"strings"
	"testing"
	"time"

	"coa-backend/coa/model"
)

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	tests := []struct {
		name     string
		rec      model.ExtractedRecord
		branding model.BrandingProfile
		want     string
	}{
		{
			name:     "all parts",
			rec:      model.ExtractedRecord{ProductName: "Sodium Chloride", LotNo: "L123"},
			branding: model.BrandingProfile{Name: "Acme"},
			want:     "Acme_Sodium-Chloride_L123_COA.pdf",
		},
		{
			name: "batch when no lot",
			rec:  model.ExtractedRecord{ProductName: "Urea", BatchNo: "B 77"},
			want: "Urea_B-77_COA.pdf",
		},
		{
			name:     "caps each part",
			rec:      model.ExtractedRecord{ProductName: "Polyethylene Glycol 4000 Pharmaceutical Grade"},
			branding: model.BrandingProfile{Name: "International Chemical Supplies"},
			want:     "International-C_Polyethylene-Glycol-4000_COA.pdf",
		},
		{
			name:     "spaced hyphens collapse",
			rec:      model.ExtractedRecord{ProductName: "Sodium -- Chloride", LotNo: "L-1 - 2"},
			branding: model.BrandingProfile{Name: "Acme - Labs"},
			want:     "Acme-Labs_Sodium-Chloride_L-1-2_COA.pdf",
		},
		{
			name: "timestamp fallback",
			rec:  model.ExtractedRecord{ProductName: "***"},
			want: "COA_LOYW3V28.pdf",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FileName(tc.rec, tc.branding, now); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFileNameStripsPathHostileInput(t *testing.T) {
	inputs := []string{
		"../../etc/passwd",
		"a/b\\c",
		"evil\x00name\r\n\t",
		"..",
		"con:nul?*<>|\"",
	}
	now := time.UnixMilli(1)
	for _, in := range inputs {
		name := FileName(model.ExtractedRecord{ProductName: in, LotNo: in}, model.BrandingProfile{Name: in}, now)
		base := strings.TrimSuffix(name, ".pdf")
		if strings.Contains(base, ".") || strings.ContainsAny(name, "/\\:*?\"<>|") {
			t.Fatalf("unsafe file name %q from %q", name, in)
		}
		for _, r := range name {
			if r < 0x20 || r == 0x7f {
				t.Fatalf("control character in %q", name)
			}
		}
		if !strings.HasSuffix(name, ".pdf") {
			t.Fatalf("missing extension in %q", name)
		}
	}
}
