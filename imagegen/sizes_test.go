package imagegen

import (
	"slices"
	"testing"
)

func TestScaled(t *testing.T) {
	tests := []struct {
		size, resolution string
		wantW, wantH     int
		wantErr          bool
	}{
		{"768x1344", "1K", 768, 1344, false},
		{"1024x1024", "2K", 2048, 2048, false},
		{"1536x672", "4K", 6144, 2688, false},
		{"640x480", "1K", 0, 0, true},
		{"1024x1024", "8K", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.size+"@"+tt.resolution, func(t *testing.T) {
			w, h, err := Scaled(tt.size, tt.resolution)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scaled() error = %v, wantErr %v", err, tt.wantErr)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Scaled() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	if got := Sizes(); len(got) != 10 || !slices.IsSorted(got) {
		t.Errorf("Sizes() = %v", got)
	}
	if !slices.Contains(Sizes(), DefaultSize) {
		t.Errorf("default size %q is not a preset", DefaultSize)
	}
	if got := Models(); !slices.Equal(got, []string{"gemini-2.5-flash-image", "gemini-3-pro-image-preview"}) {
		t.Errorf("Models() = %v", got)
	}
	if s, _ := LookupSize("1344x768"); s.AspectRatio != "16:9" {
		t.Errorf("1344x768 aspect ratio = %q", s.AspectRatio)
	}
}
