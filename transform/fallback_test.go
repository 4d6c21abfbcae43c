package transform

import (
	"context"
	"errors"
	"testing"
)

type stubTransformer struct {
	out   []byte
	err   error
	calls int
}

func (s *stubTransformer) Transform(
	ctx context.Context,
	src []byte,
	spec Spec,
) ([]byte, error) {
	s.calls++
	return s.out, s.err
}

func TestFallbackUsesPrimaryWhenItCan(t *testing.T) {
	primary := &stubTransformer{out: []byte("primary")}
	secondary := &stubTransformer{out: []byte("secondary")}
	f := &Fallback{Primary: primary, Secondary: secondary}

	out, err := f.Transform(context.Background(), nil, Spec{Op: OpFit})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if string(out) != "primary" {
		t.Errorf("want primary output, got %q", out)
	}
	if secondary.calls != 0 {
		t.Error("secondary should not run when primary succeeds")
	}
}

func TestFallbackRetriesOnUnsupportedSpec(t *testing.T) {
	primary := &stubTransformer{err: ErrUnsupportedSpec}
	secondary := &stubTransformer{out: []byte("secondary")}
	f := &Fallback{Primary: primary, Secondary: secondary}

	out, err := f.Transform(context.Background(), nil, Spec{Op: OpResizeCanvas})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if string(out) != "secondary" {
		t.Errorf("want secondary output, got %q", out)
	}
}

func TestFallbackPropagatesOtherErrors(t *testing.T) {
	primary := &stubTransformer{err: ErrDecode}
	secondary := &stubTransformer{out: []byte("secondary")}
	f := &Fallback{Primary: primary, Secondary: secondary}

	_, err := f.Transform(context.Background(), nil, Spec{Op: OpFit})
	if !errors.Is(err, ErrDecode) {
		t.Errorf("want ErrDecode, got %v", err)
	}
	if secondary.calls != 0 {
		t.Error("secondary must not run on a decode failure")
	}
}
