package transform

import (
	"context"
	"errors"
)

// Fallback tries Primary and retries on Secondary when Primary rejects
// the spec. The pregeneration worker uses it to prefer the lilliput
// fast path while keeping the full imaging op set available.
type Fallback struct {
	Primary   Transformer
	Secondary Transformer
}

func (f *Fallback) Transform(
	ctx context.Context,
	src []byte,
	spec Spec,
) ([]byte, error) {
	out, err := f.Primary.Transform(ctx, src, spec)
	if err != nil && errors.Is(err, ErrUnsupportedSpec) {
		return f.Secondary.Transform(ctx, src, spec)
	}
	return out, err
}
