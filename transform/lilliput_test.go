package transform

import (
	"context"
	"errors"
	"testing"
)

// The rejection branches run before any decoding, so they are testable
// without image fixtures.
func TestLilliputRejectsSpecsOutsideFastPath(t *testing.T) {
	tr := NewLilliputTransformer()

	cases := []struct {
		name string
		spec Spec
	}{
		{"crop op", Spec{Op: OpCrop, Width: 10, Height: 10, Format: "jpg"}},
		{"resizeCanvas op", Spec{Op: OpResizeCanvas, Width: 10, Height: 10, Format: "jpg"}},
		{"unknown op", Spec{Op: Op("sharpen"), Format: "jpg"}},
		{"gif output", Spec{Op: OpFit, Width: 10, Format: "gif"}},
		{"tiff output", Spec{Op: OpResize, Width: 10, Format: "tiff"}},
		{"bmp output", Spec{Op: OpResize, Width: 10, Format: "bmp"}},
	}

	for _, tc := range cases {
		_, err := tr.Transform(context.Background(), nil, tc.spec)
		if !errors.Is(err, ErrUnsupportedSpec) {
			t.Errorf("%s: want ErrUnsupportedSpec, got %v", tc.name, err)
		}
	}
}

func TestLilliputRespectsCancelledContext(t *testing.T) {
	tr := NewLilliputTransformer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Transform(ctx, nil, Spec{Op: OpFit, Width: 10, Format: "jpg"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}
