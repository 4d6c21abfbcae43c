package transform

import (
	"context"
	"fmt"

	"github.com/discord/lilliput"
)

// Buffer for encoded output; lilliput requires it preallocated.
const lilliputOutputBufferSize = 50 * 1024 * 1024

// LilliputTransformer is a native-codec fast path for bulk jpeg
// pregeneration. It only handles fit and resize into jpg or png; any
// other spec is answered with ErrUnsupportedSpec so callers can fall
// back to the imaging transformer.
type LilliputTransformer struct{}

func NewLilliputTransformer() *LilliputTransformer {
	return &LilliputTransformer{}
}

func (t *LilliputTransformer) Transform(
	ctx context.Context,
	src []byte,
	spec Spec,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var resizeMethod lilliput.ImageOpsSizeMethod
	switch spec.Op {
	case OpFit:
		resizeMethod = lilliput.ImageOpsFit
	case OpResize:
		resizeMethod = lilliput.ImageOpsResize
	default:
		return nil, fmt.Errorf(
			"%w: lilliput path handles fit/resize only, got %q",
			ErrUnsupportedSpec,
			spec.Op,
		)
	}

	if spec.Format != "jpg" && spec.Format != "png" {
		return nil, fmt.Errorf(
			"%w: lilliput path encodes jpg/png only, got %q",
			ErrUnsupportedSpec,
			spec.Format,
		)
	}

	decoder, err := lilliput.NewDecoder(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer decoder.Close()

	header, err := decoder.Header()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	origWidth := header.Width()
	origHeight := header.Height()
	if origWidth == 0 || origHeight == 0 {
		return nil, fmt.Errorf(
			"%w: invalid dimensions %dx%d",
			ErrDecode,
			origWidth,
			origHeight,
		)
	}

	width, height := spec.Width, spec.Height
	if width <= 0 && height <= 0 {
		width, height = origWidth, origHeight
	} else if width <= 0 {
		width = (origWidth * height) / origHeight
	} else if height <= 0 {
		height = (origHeight * width) / origWidth
	}

	quality := spec.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}

	ops := lilliput.NewImageOps(int(float64(origWidth) * 1.5))
	defer ops.Close()

	opts := &lilliput.ImageOptions{
		FileType:             "." + spec.Format,
		Width:                width,
		Height:               height,
		ResizeMethod:         resizeMethod,
		NormalizeOrientation: true,
		EncodeOptions: map[int]int{
			lilliput.JpegQuality: quality,
		},
	}

	out, err := ops.Transform(decoder, opts, make([]byte, lilliputOutputBufferSize))
	if err != nil {
		return nil, fmt.Errorf("lilliput transform failed: %w", err)
	}

	return out, nil
}
