package thumbview

import (
	"fmt"
	"strconv"

	"github.com/mgalindo/thumbview/resolver"
)

// Options controls how a resolved thumbnail is presented. Every key of
// the dynamic options bag that is not recognized here passes through as
// an HTML attribute on rendered markup.
type Options struct {
	// FullBase selects an absolute URL (site base prepended) over a
	// relative one.
	FullBase bool

	// Attrs are extra HTML attributes for rendered image tags. Ignored
	// by URL-only calls.
	Attrs map[string]string
}

// DefaultOptions returns the option defaults: absolute URLs, no extra
// attributes.
func DefaultOptions() Options {
	return Options{FullBase: true}
}

// parseOptions folds a dynamic options bag over the defaults,
// field by field.
func parseOptions(bag map[string]any) (Options, error) {
	opts := DefaultOptions()
	if bag == nil {
		return opts, nil
	}

	for key, value := range bag {
		if key == "fullBase" {
			b, err := asBool(value)
			if err != nil {
				return opts, fmt.Errorf("%w: option fullBase: %v", ErrInvalidArgument, err)
			}
			opts.FullBase = b
			continue
		}

		if opts.Attrs == nil {
			opts.Attrs = make(map[string]string)
		}
		opts.Attrs[key] = fmt.Sprint(value)
	}

	return opts, nil
}

// parseParams folds a dynamic params bag into resolver.Params. Unknown
// keys are rejected so template typos fail loudly instead of producing
// a differently keyed thumbnail.
func parseParams(bag map[string]any) (resolver.Params, error) {
	var p resolver.Params
	if bag == nil {
		return p, nil
	}

	for key, value := range bag {
		var err error
		switch key {
		case "width":
			p.Width, err = asDimension(value)
		case "height":
			p.Height, err = asDimension(value)
		case "quality":
			p.Quality, err = asQuality(value)
		case "format":
			p.Format = fmt.Sprint(value)
		case "anchor":
			p.Anchor = fmt.Sprint(value)
		case "background":
			p.Background = fmt.Sprint(value)
		case "relative":
			p.Relative, err = asBool(value)
		case "target":
			p.Target = fmt.Sprint(value)
		default:
			return p, fmt.Errorf("%w: unknown param %q", ErrInvalidArgument, key)
		}
		if err != nil {
			return p, fmt.Errorf("%w: param %s: %v", ErrInvalidArgument, key, err)
		}
	}

	return p, nil
}

// asDimension accepts the numeric shapes templates and decoded JSON
// produce. Dimensions must be positive; absence is expressed by leaving
// the key out.
func asDimension(value any) (int, error) {
	n, err := asInt(value)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be a positive integer, got %d", n)
	}
	return n, nil
}

// asQuality bounds encode quality to the jpeg range. Values above 100
// would be clamped by the encoder and only fragment the cache key space.
func asQuality(value any) (int, error) {
	n, err := asInt(value)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 100 {
		return 0, fmt.Errorf("must be between 1 and 100, got %d", n)
	}
	return n, nil
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %T", value)
	}
}

func asBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("not a boolean: %q", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("not a boolean: %T", value)
	}
}
