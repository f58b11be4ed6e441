package quality

import (
	"image"
	"testing"
)

func TestBoxDimensions(t *testing.T) {
	tests := []struct {
		name   string
		box    Box
		width  int
		height int
		area   int
		minDim int
	}{
		{"square", Box{Top: 25, Right: 75, Bottom: 75, Left: 25}, 50, 50, 2500, 50},
		{"wide", Box{Top: 10, Right: 110, Bottom: 60, Left: 10}, 100, 50, 5000, 50},
		{"tall", Box{Top: 0, Right: 40, Bottom: 120, Left: 0}, 40, 120, 4800, 40},
		{"empty", Box{Top: 10, Right: 10, Bottom: 10, Left: 10}, 0, 0, 0, 0},
		{"inverted", Box{Top: 50, Right: 20, Bottom: 30, Left: 60}, -40, -20, 800, -40},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.box.Width(); got != tc.width {
				t.Errorf("Width() = %d; want %d", got, tc.width)
			}
			if got := tc.box.Height(); got != tc.height {
				t.Errorf("Height() = %d; want %d", got, tc.height)
			}
			if got := tc.box.Area(); got != tc.area {
				t.Errorf("Area() = %d; want %d", got, tc.area)
			}
			if got := tc.box.MinDim(); got != tc.minDim {
				t.Errorf("MinDim() = %d; want %d", got, tc.minDim)
			}
		})
	}
}

func TestBoxRect(t *testing.T) {
	box := Box{Top: 5, Right: 30, Bottom: 25, Left: 10}
	want := image.Rect(10, 5, 30, 25)
	if got := box.Rect(); got != want {
		t.Errorf("Rect() = %v; want %v", got, want)
	}
}
