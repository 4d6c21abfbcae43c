package models

import (
	"github.com/google/uuid"
)

// GenerateRequest asks the worker to pregenerate fit thumbnails of a
// source image at the configured widths (or Widths when present).
type GenerateRequest struct {
	RequestID uuid.UUID `json:"requestId"`

	// Source is a path relative to DIR_ORIGINALS_ROOT, or an http(s)
	// URL.
	Source string `json:"source"`

	// Widths overrides the worker's configured pregeneration widths.
	Widths []int `json:"widths,omitempty"`
}

// EvictRequest asks the worker to delete every cached thumbnail of a
// source image.
type EvictRequest struct {
	RequestID uuid.UUID `json:"requestId"`
	Source    string    `json:"source"`
}
