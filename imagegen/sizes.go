package imagegen

import (
	"fmt"
	"slices"
	"strings"
)

const (
	DefaultModel      = "gemini-3-pro-image-preview"
	DefaultSize       = "768x1344"
	DefaultResolution = "1K"
)

type model struct {
	// imageSize reports whether the model accepts an output resolution.
	imageSize bool
}

var models = map[string]model{
	"gemini-3-pro-image-preview": {imageSize: true},
	"gemini-2.5-flash-image":     {},
}

// Size is a base resolution preset and the aspect ratio requested for it.
type Size struct {
	Width, Height int
	AspectRatio   string
}

var sizes = map[string]Size{
	"1024x1024": {1024, 1024, "1:1"},
	"832x1248":  {832, 1248, "2:3"},
	"1248x832":  {1248, 832, "3:2"},
	"864x1184":  {864, 1184, "3:4"},
	"1184x864":  {1184, 864, "4:3"},
	"896x1152":  {896, 1152, "4:5"},
	"1152x896":  {1152, 896, "5:4"},
	"768x1344":  {768, 1344, "9:16"},
	"1344x768":  {1344, 768, "16:9"},
	"1536x672":  {1536, 672, "21:9"},
}

var resolutions = map[string]int{"1K": 1, "2K": 2, "4K": 4}

// Models returns the supported model names in sorted order.
func Models() []string { return sortedKeys(models) }

// Sizes returns the size preset names in sorted order.
func Sizes() []string { return sortedKeys(sizes) }

// Resolutions returns the resolution names, smallest first.
func Resolutions() []string { return []string{"1K", "2K", "4K"} }

// LookupSize returns the preset named key.
func LookupSize(key string) (Size, error) {
	s, ok := sizes[key]
	if !ok {
		return Size{}, fmt.Errorf("unknown size %q (available: %s)", key, strings.Join(Sizes(), ", "))
	}
	return s, nil
}

// Scaled returns the preset dimensions multiplied by the resolution factor.
func Scaled(key, resolution string) (width, height int, err error) {
	s, err := LookupSize(key)
	if err != nil {
		return 0, 0, err
	}
	mult, ok := resolutions[resolution]
	if !ok {
		return 0, 0, fmt.Errorf("unknown resolution %q (available: %s)", resolution, strings.Join(Resolutions(), ", "))
	}
	return s.Width * mult, s.Height * mult, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
