package server

import (
	"github.com/matsen/apa2tex/internal/match"
)

// Error codes used in API responses.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInvalidBibTeX = "INVALID_BIBTEX"
	ErrCodeNoReference   = "NO_REFERENCE"
	ErrCodeNoEntry       = "NO_ENTRY"
	ErrCodeTooLarge      = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is returned by middleware that rejects a request outright.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ConvertRequest is the payload for POST /api/v1/convert.
type ConvertRequest struct {
	// References is the APA reference list, one reference per line.
	References string `json:"references" binding:"required"`

	// Document is the text whose citations are converted. May be empty.
	Document string `json:"document"`

	// BibTeX is the bibliography the references are resolved against.
	BibTeX string `json:"bibtex" binding:"required"`

	// Reflow joins references that were wrapped over several lines.
	Reflow bool `json:"reflow,omitempty"`
}

// ConvertResponse is the response for POST /api/v1/convert.
type ConvertResponse struct {
	Success   bool         `json:"success"`
	Output    string       `json:"output"`
	Converted int          `json:"converted"`
	Keys      []string     `json:"keys"`
	Messages  []string     `json:"messages"`
	RunID     int64        `json:"run_id,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// ResolveRequest is the payload for POST /api/v1/resolve.
type ResolveRequest struct {
	References string `json:"references" binding:"required"`
	BibTeX     string `json:"bibtex" binding:"required"`
	Author     string `json:"author" binding:"required"`
	Year       string `json:"year" binding:"required"`
}

// ResolveResponse is the response for POST /api/v1/resolve. Resolution is
// partially filled when the reference matched but no entry did.
type ResolveResponse struct {
	Success    bool              `json:"success"`
	Resolution *match.Resolution `json:"resolution,omitempty"`
	Error      *ErrorDetail      `json:"error,omitempty"`
}

// CitedRequest is the payload for POST /api/v1/cited.
type CitedRequest struct {
	Document string `json:"document" binding:"required"`
	BibTeX   string `json:"bibtex" binding:"required"`
}

// CitedResponse is the response for POST /api/v1/cited.
type CitedResponse struct {
	Success bool         `json:"success"`
	Keys    []string     `json:"keys"`
	Missing []string     `json:"missing"`
	BibTeX  string       `json:"bibtex"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
