package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/mgalindo/thumbview/transform"
)

// Cache file names are "<sourceDigest>-<paramDigest>.<ext>". Splitting
// the key keeps it deterministic while letting EvictSource enumerate
// every cached variant of one source with a single glob.

const digestHexLen = 32

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:digestHexLen]
}

// sourceDigest identifies a source image. Paths are cleaned first so
// "./a/b.png" and "a/b.png" share every cached variant.
func sourceDigest(sourceRef string) string {
	if !isRemote(sourceRef) {
		sourceRef = path.Clean(strings.ReplaceAll(sourceRef, "\\", "/"))
	}
	return digest(sourceRef)
}

// paramDigest hashes every parameter that affects the produced bytes.
// Values are rendered in a fixed field order, so the key cannot depend
// on how a caller happened to assemble the request. Quality is included
// deliberately: requests differing only in quality must not share a
// cache file.
func paramDigest(op transform.Op, p Params, ext string) string {
	anchor := strings.ToLower(p.Anchor)
	if anchor == "" {
		anchor = "center"
	}

	quality := p.Quality
	if quality <= 0 {
		quality = transform.DefaultQuality
	}

	canonical := fmt.Sprintf(
		"op=%s&w=%d&h=%d&anchor=%s&bg=%s&rel=%t&ext=%s&q=%d",
		op,
		p.Width,
		p.Height,
		anchor,
		strings.ToLower(p.Background),
		p.Relative,
		ext,
		quality,
	)

	return digest(canonical)
}

func cacheFileName(sourceRef string, op transform.Op, p Params, ext string) string {
	return fmt.Sprintf(
		"%s-%s.%s",
		sourceDigest(sourceRef),
		paramDigest(op, p, ext),
		ext,
	)
}

func isRemote(sourceRef string) bool {
	return strings.HasPrefix(sourceRef, "http://") ||
		strings.HasPrefix(sourceRef, "https://")
}
