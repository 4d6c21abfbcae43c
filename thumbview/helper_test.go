package thumbview

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mgalindo/thumbview/resolver"
	"github.com/mgalindo/thumbview/transform"
)

type fakeTransformer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTransformer) Transform(
	ctx context.Context,
	src []byte,
	spec transform.Spec,
) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return []byte("thumb-" + string(spec.Op)), nil
}

func newTestHelper(t *testing.T) (*Helper, string, string) {
	t.Helper()

	targetDir := t.TempDir()
	res, err := resolver.New(
		resolver.Config{TargetDir: targetDir},
		&fakeTransformer{},
	)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	helper := NewHelper(Config{
		BaseURL:   "https://example.com",
		MediaPath: "/media/thumbs",
	}, res)

	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 6), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	src := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(src, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	return helper, src, targetDir
}

func TestInvokeURLVariantReturnsBareURL(t *testing.T) {
	helper, src, _ := newTestHelper(t)

	out, err := helper.Invoke(
		context.Background(),
		"resizeUrl",
		src,
		map[string]any{"width": 20},
	)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}

	if !strings.HasPrefix(out, "https://example.com/media/thumbs/") {
		t.Errorf("want absolute URL under the media path, got %q", out)
	}
	if strings.Contains(out, "<") {
		t.Errorf("URL variant must not contain markup: %q", out)
	}
	if !strings.HasSuffix(out, ".jpg") {
		t.Errorf("default format should yield a .jpg URL, got %q", out)
	}
}

func TestInvokeReturnsMarkupEmbeddingURL(t *testing.T) {
	helper, src, _ := newTestHelper(t)
	ctx := context.Background()

	url, err := helper.Invoke(ctx, "resizeUrl", src, map[string]any{"width": 20})
	if err != nil {
		t.Fatalf("url invoke failed: %v", err)
	}

	markup, err := helper.Invoke(ctx, "resize", src, map[string]any{"width": 20})
	if err != nil {
		t.Fatalf("markup invoke failed: %v", err)
	}

	if !strings.HasPrefix(markup, `<img src="`) || !strings.HasSuffix(markup, "/>") {
		t.Errorf("want an img element, got %q", markup)
	}
	if !strings.Contains(markup, url) {
		t.Errorf("markup %q does not embed the URL %q", markup, url)
	}
}

func TestInvokeDispatchesEveryName(t *testing.T) {
	helper, src, _ := newTestHelper(t)
	ctx := context.Background()

	for _, name := range []string{"crop", "fit", "resize", "resizeCanvas"} {
		markup, err := helper.Invoke(ctx, name, src, map[string]any{"width": 10, "height": 10})
		if err != nil {
			t.Errorf("%s failed: %v", name, err)
		} else if !strings.HasPrefix(markup, "<img ") {
			t.Errorf("%s should render markup, got %q", name, markup)
		}

		url, err := helper.Invoke(ctx, name+"Url", src, map[string]any{"width": 10, "height": 10})
		if err != nil {
			t.Errorf("%sUrl failed: %v", name, err)
		} else if strings.Contains(url, "<") {
			t.Errorf("%sUrl should render a bare URL, got %q", name, url)
		}
	}
}

func TestInvokeRelativeURL(t *testing.T) {
	helper, src, _ := newTestHelper(t)

	out, err := helper.Invoke(
		context.Background(),
		"fitUrl",
		src,
		map[string]any{"width": 20},
		map[string]any{"fullBase": false},
	)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}

	if !strings.HasPrefix(out, "/media/thumbs/") {
		t.Errorf("want relative URL, got %q", out)
	}
	if strings.Contains(out, "example.com") {
		t.Errorf("relative URL must not carry the site base: %q", out)
	}
}

func TestInvokeMissingSourceFailsBeforeFilesystemAccess(t *testing.T) {
	helper, _, targetDir := newTestHelper(t)

	_, err := helper.Invoke(context.Background(), "cropUrl", "")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}

	entries, err := os.ReadDir(targetDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("failed dispatch must not touch the cache directory, found %d entries", len(entries))
	}
}

func TestInvokeUnknownOperation(t *testing.T) {
	helper, src, _ := newTestHelper(t)

	for _, name := range []string{"sharpen", "sharpenUrl", "Url", ""} {
		_, err := helper.Invoke(context.Background(), name, src)
		if !errors.Is(err, ErrUnknownOperation) {
			t.Errorf("Invoke(%q): want ErrUnknownOperation, got %v", name, err)
		}
	}
}

func TestInvokeRejectsBadParams(t *testing.T) {
	helper, src, _ := newTestHelper(t)
	ctx := context.Background()

	cases := []map[string]any{
		{"width": -5},
		{"width": 0},
		{"height": "many"},
		{"quality": 0},
		{"quality": 150},
		{"zoom": 2},
		{"relative": "sideways"},
	}
	for _, params := range cases {
		_, err := helper.Invoke(ctx, "cropUrl", src, params)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("params %v: want ErrInvalidArgument, got %v", params, err)
		}
	}
}

func TestMarkupAttributesEscapedAndSorted(t *testing.T) {
	helper, src, _ := newTestHelper(t)

	markup, err := helper.Invoke(
		context.Background(),
		"resize",
		src,
		map[string]any{"width": 20},
		map[string]any{"class": "hero", "alt": `say "cheese"`},
	)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}

	if !strings.Contains(markup, `alt="say &#34;cheese&#34;"`) {
		t.Errorf("attribute value not escaped: %q", markup)
	}
	alt := strings.Index(markup, "alt=")
	class := strings.Index(markup, "class=")
	if alt == -1 || class == -1 || alt > class {
		t.Errorf("attributes not in sorted order: %q", markup)
	}
}

func TestFuncMapRendersThroughTemplates(t *testing.T) {
	helper, src, _ := newTestHelper(t)

	tmpl, err := template.New("page").
		Funcs(helper.FuncMap(context.Background())).
		Parse(`<a href="{{fitUrl .Src .Params}}">{{fit .Src .Params}}</a>`)
	if err != nil {
		t.Fatalf("template parse failed: %v", err)
	}

	var out bytes.Buffer
	err = tmpl.Execute(&out, map[string]any{
		"Src":    src,
		"Params": map[string]any{"width": 20},
	})
	if err != nil {
		t.Fatalf("template execute failed: %v", err)
	}

	rendered := out.String()
	if !strings.Contains(rendered, `<img src="https://example.com/media/thumbs/`) {
		t.Errorf("img tag escaped or missing in template output: %q", rendered)
	}
	if !strings.Contains(rendered, `<a href="https://example.com/media/thumbs/`) {
		t.Errorf("url func did not render into the href: %q", rendered)
	}
}
