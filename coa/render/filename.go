package render

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"coa-backend/coa/model"
)

var (
	fileNameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	fileNameSpaces     = regexp.MustCompile(`\s+`)
	fileNameDashes     = regexp.MustCompile(`-{2,}`)
)

const (
	companyPartLen = 15
	productPartLen = 25
	lotPartLen     = 15
)

// FileName derives the download name from branding and record, for example
// "Acme_Sodium-Chloride_L123_COA.pdf". With nothing usable it falls back to a
// base-36 timestamp from now.
func FileName(rec model.ExtractedRecord, branding model.BrandingProfile, now time.Time) string {
	lot := rec.LotNo
	if strings.TrimSpace(lot) == "" {
		lot = rec.BatchNo
	}
	var parts []string
	for _, p := range []string{
		sanitizeFileNamePart(branding.Name, companyPartLen),
		sanitizeFileNamePart(rec.ProductName, productPartLen),
		sanitizeFileNamePart(lot, lotPartLen),
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "COA_" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + ".pdf"
	}
	return strings.Join(append(parts, "COA"), "_") + ".pdf"
}

func sanitizeFileNamePart(s string, maxLen int) string {
	s = fileNameDisallowed.ReplaceAllString(s, "")
	s = fileNameSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = fileNameDashes.ReplaceAllString(s, "-")
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return strings.Trim(s, "-")
}
