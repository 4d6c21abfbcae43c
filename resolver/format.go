package resolver

import (
	"fmt"
	"strings"
)

// DefaultFormat is used when a request does not name an output format.
const DefaultFormat = "jpg"

// formatAliases maps every recognized output format, case-folded, to the
// file extension the cache uses for it. webp is deliberately absent:
// sources may be webp, but nothing in the stack encodes it.
var formatAliases = map[string]string{
	"jpg":  "jpg",
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
	"bmp":  "bmp",
	"tif":  "tiff",
	"tiff": "tiff",
}

// NormalizeFormat resolves a requested output format to its canonical
// cache extension. Empty input means DefaultFormat.
func NormalizeFormat(format string) (string, error) {
	if format == "" {
		format = DefaultFormat
	}

	ext, ok := formatAliases[strings.ToLower(format)]
	if !ok {
		return "", fmt.Errorf(
			"%w: %q is not a recognized image format",
			ErrUnsupportedFormat,
			format,
		)
	}

	return ext, nil
}
