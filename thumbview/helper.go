// Package thumbview is the template-facing thumbnail facade. It
// dispatches operation names (crop, fit, resize, resizeCanvas, each
// with a "Url" variant) to the cache resolver and presents the result
// as a URL or as image markup.
package thumbview

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/mgalindo/thumbview/resolver"
	"github.com/mgalindo/thumbview/transform"
)

// Config wires a Helper to its site.
type Config struct {
	// BaseURL is the site base prepended to absolute URLs, e.g.
	// "https://example.com".
	BaseURL string

	// MediaPath is the URL path the cache directory is served under,
	// e.g. "/media/thumbs".
	MediaPath string
}

// operations is the dispatch table. The "Url" suffix of a dispatched
// name is not part of the table; it is split off into a boolean before
// lookup.
var operations = map[string]transform.Op{
	"crop":         transform.OpCrop,
	"fit":          transform.OpFit,
	"resize":       transform.OpResize,
	"resizeCanvas": transform.OpResizeCanvas,
}

type Helper struct {
	cfg      Config
	resolver *resolver.Resolver
}

func NewHelper(cfg Config, res *resolver.Resolver) *Helper {
	return &Helper{
		cfg:      cfg,
		resolver: res,
	}
}

// Invoke preserves the dynamic calling contract: name is an operation
// optionally suffixed with "Url", args are the params bag and the
// options bag, either of which may be omitted. URL-only names return a
// bare URL; every other name returns image markup embedding that URL.
func (h *Helper) Invoke(
	ctx context.Context,
	name string,
	source string,
	args ...map[string]any,
) (string, error) {
	op, urlOnly, err := splitName(name)
	if err != nil {
		return "", err
	}

	var paramsBag, optionsBag map[string]any
	if len(args) > 0 {
		paramsBag = args[0]
	}
	if len(args) > 1 {
		optionsBag = args[1]
	}
	if len(args) > 2 {
		return "", fmt.Errorf(
			"%w: %s takes at most a params bag and an options bag",
			ErrInvalidArgument,
			name,
		)
	}

	params, err := parseParams(paramsBag)
	if err != nil {
		return "", err
	}
	opts, err := parseOptions(optionsBag)
	if err != nil {
		return "", err
	}

	if urlOnly {
		return h.URL(ctx, op, source, params, opts)
	}
	markup, err := h.Tag(ctx, op, source, params, opts)
	return string(markup), err
}

// URL resolves the thumbnail and returns only its URL.
func (h *Helper) URL(
	ctx context.Context,
	op transform.Op,
	source string,
	params resolver.Params,
	opts Options,
) (string, error) {
	artifact, err := h.resolve(ctx, op, source, params)
	if err != nil {
		return "", err
	}
	return h.urlFor(artifact.Path, opts.FullBase)
}

// Tag resolves the thumbnail and returns an image element pointing at
// it, carrying opts.Attrs as extra attributes.
func (h *Helper) Tag(
	ctx context.Context,
	op transform.Op,
	source string,
	params resolver.Params,
	opts Options,
) (template.HTML, error) {
	url, err := h.URL(ctx, op, source, params, opts)
	if err != nil {
		return "", err
	}
	return imgTag(url, opts.Attrs), nil
}

// resolve validates the request and delegates to the cache resolver.
// Validation happens before any filesystem access.
func (h *Helper) resolve(
	ctx context.Context,
	op transform.Op,
	source string,
	params resolver.Params,
) (resolver.Artifact, error) {
	if source == "" {
		return resolver.Artifact{}, fmt.Errorf(
			"%w: source image reference is required",
			ErrInvalidArgument,
		)
	}
	if _, ok := operations[string(op)]; !ok {
		return resolver.Artifact{}, fmt.Errorf(
			"%w: %q",
			ErrUnknownOperation,
			op,
		)
	}

	return h.resolver.Resolve(ctx, resolver.Request{
		Source: source,
		Op:     op,
		Params: params,
	})
}

// splitName separates the base operation from the "Url" suffix of a
// dispatched name.
func splitName(name string) (transform.Op, bool, error) {
	urlOnly := strings.HasSuffix(name, "Url")
	base := strings.TrimSuffix(name, "Url")

	op, ok := operations[base]
	if !ok {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op, urlOnly, nil
}

// FuncMap exposes every dispatchable name as a template function.
// Markup names return template.HTML so html/template leaves the tag
// unescaped. The context bounds remote source fetches and transform
// work for all calls rendered with the returned map.
func (h *Helper) FuncMap(ctx context.Context) template.FuncMap {
	funcs := make(template.FuncMap, len(operations)*2)

	for name := range operations {
		name := name
		funcs[name] = func(source string, args ...map[string]any) (template.HTML, error) {
			out, err := h.Invoke(ctx, name, source, args...)
			return template.HTML(out), err
		}
		funcs[name+"Url"] = func(source string, args ...map[string]any) (string, error) {
			return h.Invoke(ctx, name+"Url", source, args...)
		}
	}

	return funcs
}
