// Package transform turns source image bytes into encoded thumbnail bytes.
//
// The package defines the Transformer contract consumed by the cache
// resolver plus two implementations: a pure-Go one backed by
// disintegration/imaging that supports the full operation set, and a
// lilliput-backed fast path for bulk jpeg pregeneration.
package transform

import (
	"context"
	"errors"
)

// Op identifies a thumbnail operation.
type Op string

// DefaultQuality is applied when a spec does not constrain encode quality.
const DefaultQuality = 85

const (
	OpCrop         Op = "crop"
	OpFit          Op = "fit"
	OpResize       Op = "resize"
	OpResizeCanvas Op = "resizeCanvas"
)

var (
	// ErrDecode means the source bytes could not be decoded as an image.
	ErrDecode = errors.New("transform: source image is not decodable")

	// ErrUnsupportedSpec means this transformer cannot satisfy the
	// requested spec. Callers may fall back to another implementation.
	ErrUnsupportedSpec = errors.New("transform: spec not supported by this transformer")
)

// Spec describes a single transformation. Width or Height of zero means
// that dimension is unconstrained and derived from the source aspect
// ratio. Format must be a normalized extension (jpg, png, gif, bmp, tiff).
type Spec struct {
	Op      Op
	Width   int
	Height  int
	Format  string
	Quality int

	// Anchor positions crops and canvas pastes. Empty means center.
	Anchor string

	// Background is a hex color ("#rrggbb") filling exposed canvas
	// area on resizeCanvas. Empty means black.
	Background string

	// Relative makes resizeCanvas treat Width/Height as deltas to the
	// source dimensions instead of absolute values.
	Relative bool
}

type Transformer interface {
	Transform(ctx context.Context, src []byte, spec Spec) ([]byte, error)
}
