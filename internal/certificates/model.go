package certificates

import (
	"time"

	"coa-backend/coa/model"
)

// Certificate is a rendered, stored COA.
type Certificate struct {
	ID          string
	UserID      string
	FileName    string
	StorageKey  string
	SizeBytes   int64
	Pages       int
	Rows        int
	Watermarked bool
	ProductName string
	CreatedAt   time.Time
}

// RenderInput is one render request.
type RenderInput struct {
	Record   model.ExtractedRecord
	Branding *model.BrandingProfile
	// Paid asks to spend a subscription credit or a paid download for a clean copy.
	Paid bool
}

type certificateResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	SizeBytes   int64     `json:"sizeBytes"`
	Pages       int       `json:"pages"`
	Rows        int       `json:"rows"`
	Watermarked bool      `json:"watermarked"`
	ProductName string    `json:"productName,omitempty"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toResponse(c Certificate) certificateResponse {
	return certificateResponse{
		ID:          c.ID,
		FileName:    c.FileName,
		SizeBytes:   c.SizeBytes,
		Pages:       c.Pages,
		Rows:        c.Rows,
		Watermarked: c.Watermarked,
		ProductName: c.ProductName,
		DownloadURL: apiDownloadPath(c.ID),
		CreatedAt:   c.CreatedAt,
	}
}

func apiDownloadPath(id string) string {
	return "/api/v1/certificates/" + id + "/download"
}
