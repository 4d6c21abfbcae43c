package thumbview

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// urlFor maps a cache file path to the URL it is served under. With
// fullBase the configured site base is prepended, otherwise the URL is
// root-relative.
func (h *Helper) urlFor(filePath string, fullBase bool) (string, error) {
	rel, err := filepath.Rel(h.resolver.TargetDir(), filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf(
			"thumbview: %s is outside the cache directory",
			filePath,
		)
	}

	urlPath := path.Join("/", h.cfg.MediaPath, filepath.ToSlash(rel))
	if !fullBase {
		return urlPath, nil
	}

	return strings.TrimRight(h.cfg.BaseURL, "/") + urlPath, nil
}
