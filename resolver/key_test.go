package resolver

import (
	"testing"

	"github.com/mgalindo/thumbview/transform"
)

func TestCacheFileNameIsStable(t *testing.T) {
	p := Params{Width: 200, Height: 100, Anchor: "top"}

	a := cacheFileName("a/b.png", transform.OpCrop, p, "jpg")
	b := cacheFileName("a/b.png", transform.OpCrop, p, "jpg")
	if a != b {
		t.Errorf("identical inputs produced different names: %q vs %q", a, b)
	}
}

func TestCacheFileNameCleansSourcePaths(t *testing.T) {
	p := Params{Width: 200}

	a := cacheFileName("./a/b.png", transform.OpResize, p, "jpg")
	b := cacheFileName("a/b.png", transform.OpResize, p, "jpg")
	if a != b {
		t.Errorf("equivalent source paths keyed differently: %q vs %q", a, b)
	}
}

func TestCacheFileNameSensitivity(t *testing.T) {
	base := Params{Width: 200, Height: 100}
	name := cacheFileName("a.png", transform.OpCrop, base, "jpg")

	variants := map[string]string{
		"width":      cacheFileName("a.png", transform.OpCrop, Params{Width: 201, Height: 100}, "jpg"),
		"height":     cacheFileName("a.png", transform.OpCrop, Params{Width: 200, Height: 101}, "jpg"),
		"operation":  cacheFileName("a.png", transform.OpFit, base, "jpg"),
		"source":     cacheFileName("b.png", transform.OpCrop, base, "jpg"),
		"extension":  cacheFileName("a.png", transform.OpCrop, base, "png"),
		"anchor":     cacheFileName("a.png", transform.OpCrop, Params{Width: 200, Height: 100, Anchor: "top"}, "jpg"),
		"background": cacheFileName("a.png", transform.OpCrop, Params{Width: 200, Height: 100, Background: "#fff"}, "jpg"),
		"relative":   cacheFileName("a.png", transform.OpCrop, Params{Width: 200, Height: 100, Relative: true}, "jpg"),
		"quality":    cacheFileName("a.png", transform.OpCrop, Params{Width: 200, Height: 100, Quality: 40}, "jpg"),
	}

	for field, variant := range variants {
		if variant == name {
			t.Errorf("changing %s did not change the cache file name", field)
		}
	}
}

func TestCacheFileNameNormalizesDefaults(t *testing.T) {
	// Spelled-out defaults and absent values must share a cache file.
	implicit := cacheFileName("a.png", transform.OpCrop, Params{Width: 10}, "jpg")
	explicit := cacheFileName(
		"a.png",
		transform.OpCrop,
		Params{Width: 10, Anchor: "Center", Quality: transform.DefaultQuality},
		"jpg",
	)
	if implicit != explicit {
		t.Errorf(
			"default and explicit params keyed differently: %q vs %q",
			implicit,
			explicit,
		)
	}
}
