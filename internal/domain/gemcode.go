package domain

import (
	"time"
)

// GemCode is an issued gemstone piece code.
type GemCode struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Slug          string    `json:"slug"`
	GemstoneNames []string  `json:"gemstone_names"`
	GemstonePart  string    `json:"gemstone_part"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	PieceNumber   int       `json:"piece_number"`
	Checksum      string    `json:"checksum"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CodeFilter narrows a listing. Zero values match everything.
type CodeFilter struct {
	Year         int
	Month        int
	GemstonePart string
}

// GenerateCodeRequest asks for a new persisted code.
type GenerateCodeRequest struct {
	GemstoneNames []string `json:"gemstone_names" binding:"required,min=1"`
	Month         int      `json:"month"`
	Year          int      `json:"year"`
	Description   string   `json:"description" binding:"max=500"`
}

// PreviewCodeRequest renders a code for a caller supplied piece number.
type PreviewCodeRequest struct {
	GemstoneNames []string `json:"gemstone_names" binding:"required,min=1"`
	Month         int      `json:"month"`
	Year          int      `json:"year"`
	PieceNumber   int      `json:"piece_number"`
}

// PreviewCodeResponse is the rendered code and its parts.
type PreviewCodeResponse struct {
	Code         string `json:"code"`
	GemstonePart string `json:"gemstone_part"`
	Checksum     string `json:"checksum"`
}

// VerifyCodeRequest carries a code and the ground truth it should encode.
type VerifyCodeRequest struct {
	Code          string   `json:"code" binding:"required"`
	GemstoneNames []string `json:"gemstone_names"`
	Month         int      `json:"month"`
	Year          int      `json:"year"`
	PieceNumber   int      `json:"piece_number"`
}

// VerifyCodeResponse is the outcome of a verification.
type VerifyCodeResponse struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
}

// StoredVerifyResponse is the outcome of checking a code against its stored record.
type StoredVerifyResponse struct {
	Code       string `json:"code"`
	Valid      bool   `json:"valid"`
	Registered bool   `json:"registered"`
}

// BatchVerifyRequest verifies several codes at once.
type BatchVerifyRequest struct {
	Items []VerifyCodeRequest `json:"items" binding:"required,min=1,dive"`
}

// BatchVerifyResponse holds results in request order.
type BatchVerifyResponse struct {
	Results    []VerifyCodeResponse `json:"results"`
	ValidCount int                  `json:"valid_count"`
}

// ListCodesRequest represents a list codes request.
type ListCodesRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Year     int    `form:"year"`
	Month    int    `form:"month"`
	Gemstone string `form:"gemstone"`
}

// ListCodesResponse represents a paginated list response.
type ListCodesResponse struct {
	Codes      []GemCode `json:"codes"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// GemstoneAbbreviation pairs a gemstone name with its three letter code.
type GemstoneAbbreviation struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// ExportRequest selects the month to export.
type ExportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// ExportResult describes a written export file.
type ExportResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}
