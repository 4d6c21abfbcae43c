package transform

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	// Decoders for source formats imaging does not register itself.
	_ "golang.org/x/image/webp"
)

// ImagingTransformer implements every operation with the pure-Go
// disintegration/imaging package.
type ImagingTransformer struct{}

func NewImagingTransformer() *ImagingTransformer {
	return &ImagingTransformer{}
}

func (t *ImagingTransformer) Transform(
	ctx context.Context,
	src []byte,
	spec Spec,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(
		bytes.NewReader(src),
		imaging.AutoOrientation(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out, err := t.apply(img, spec)
	if err != nil {
		return nil, err
	}

	format, err := imaging.FormatFromExtension(spec.Format)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: cannot encode %q",
			ErrUnsupportedSpec,
			spec.Format,
		)
	}

	var buf bytes.Buffer
	quality := spec.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	err = imaging.Encode(&buf, out, format, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s thumbnail: %w", spec.Format, err)
	}

	return buf.Bytes(), nil
}

func (t *ImagingTransformer) apply(
	img image.Image,
	spec Spec,
) (image.Image, error) {
	bounds := img.Bounds()
	width, height := spec.Width, spec.Height

	switch spec.Op {
	case OpCrop:
		if width <= 0 {
			width = bounds.Dx()
		}
		if height <= 0 {
			height = bounds.Dy()
		}
		anchor, err := parseAnchor(spec.Anchor)
		if err != nil {
			return nil, err
		}
		return imaging.CropAnchor(img, width, height, anchor), nil

	case OpFit:
		// Fit crops to the target aspect ratio before scaling down.
		width, height = fillMissingDimension(bounds, width, height)
		anchor, err := parseAnchor(spec.Anchor)
		if err != nil {
			return nil, err
		}
		return imaging.Fill(img, width, height, anchor, imaging.Lanczos), nil

	case OpResize:
		if width <= 0 && height <= 0 {
			return img, nil
		}
		return imaging.Resize(img, width, height, imaging.Lanczos), nil

	case OpResizeCanvas:
		return t.resizeCanvas(img, spec)

	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrUnsupportedSpec, spec.Op)
	}
}

// resizeCanvas changes the image boundaries without scaling content.
// The source is pasted onto a background-filled canvas at the anchor
// position; in relative mode width/height grow or shrink the source
// dimensions instead of replacing them.
func (t *ImagingTransformer) resizeCanvas(
	img image.Image,
	spec Spec,
) (image.Image, error) {
	bounds := img.Bounds()

	width, height := spec.Width, spec.Height
	if spec.Relative {
		width = bounds.Dx() + width
		height = bounds.Dy() + height
	} else {
		if width <= 0 {
			width = bounds.Dx()
		}
		if height <= 0 {
			height = bounds.Dy()
		}
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf(
			"%w: canvas of %dx%d is empty",
			ErrUnsupportedSpec,
			width,
			height,
		)
	}

	background, err := parseHexColor(spec.Background)
	if err != nil {
		return nil, err
	}

	anchor, err := parseAnchor(spec.Anchor)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(width, height, background)
	position := anchorPoint(anchor, width, height, bounds.Dx(), bounds.Dy())
	return imaging.Paste(canvas, img, position), nil
}

// fillMissingDimension derives an absent width or height from the source
// aspect ratio so a single constraint still produces a full fill spec.
func fillMissingDimension(bounds image.Rectangle, width, height int) (int, int) {
	if width <= 0 && height <= 0 {
		return bounds.Dx(), bounds.Dy()
	}
	if width <= 0 {
		width = bounds.Dx() * height / bounds.Dy()
		if width < 1 {
			width = 1
		}
	}
	if height <= 0 {
		height = bounds.Dy() * width / bounds.Dx()
		if height < 1 {
			height = 1
		}
	}
	return width, height
}

func parseAnchor(name string) (imaging.Anchor, error) {
	switch strings.ToLower(name) {
	case "", "center", "centre":
		return imaging.Center, nil
	case "top":
		return imaging.Top, nil
	case "bottom":
		return imaging.Bottom, nil
	case "left":
		return imaging.Left, nil
	case "right":
		return imaging.Right, nil
	case "topleft", "top-left":
		return imaging.TopLeft, nil
	case "topright", "top-right":
		return imaging.TopRight, nil
	case "bottomleft", "bottom-left":
		return imaging.BottomLeft, nil
	case "bottomright", "bottom-right":
		return imaging.BottomRight, nil
	default:
		return imaging.Center, fmt.Errorf(
			"%w: unknown anchor %q",
			ErrUnsupportedSpec,
			name,
		)
	}
}

// anchorPoint computes the paste origin for an inner image of iw x ih on
// a canvas of cw x ch.
func anchorPoint(anchor imaging.Anchor, cw, ch, iw, ih int) image.Point {
	centerX := (cw - iw) / 2
	centerY := (ch - ih) / 2
	rightX := cw - iw
	bottomY := ch - ih

	switch anchor {
	case imaging.Top:
		return image.Pt(centerX, 0)
	case imaging.Bottom:
		return image.Pt(centerX, bottomY)
	case imaging.Left:
		return image.Pt(0, centerY)
	case imaging.Right:
		return image.Pt(rightX, centerY)
	case imaging.TopLeft:
		return image.Pt(0, 0)
	case imaging.TopRight:
		return image.Pt(rightX, 0)
	case imaging.BottomLeft:
		return image.Pt(0, bottomY)
	case imaging.BottomRight:
		return image.Pt(rightX, bottomY)
	default:
		return image.Pt(centerX, centerY)
	}
}

func parseHexColor(s string) (color.Color, error) {
	if s == "" {
		return color.Black, nil
	}

	hex := strings.TrimPrefix(strings.ToLower(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{
			hex[0], hex[0],
			hex[1], hex[1],
			hex[2], hex[2],
		})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("%w: bad background color %q", ErrUnsupportedSpec, s)
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		var v uint8
		for _, c := range []byte(hex[i*2 : i*2+2]) {
			v <<= 4
			switch {
			case c >= '0' && c <= '9':
				v |= c - '0'
			case c >= 'a' && c <= 'f':
				v |= c - 'a' + 10
			default:
				return nil, fmt.Errorf(
					"%w: bad background color %q",
					ErrUnsupportedSpec,
					s,
				)
			}
		}
		rgb[i] = v
	}

	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}
