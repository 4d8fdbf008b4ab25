package facematch

import (
	"image"
	"math"
	"testing"
)

func TestBoxToRect(t *testing.T) {
	tests := []struct {
		name     string
		bbox     []float64
		expected image.Rectangle
	}{
		{"integer box", []float64{10, 20, 30, 40}, image.Rect(10, 20, 30, 40)},
		{"fractional box grows outward", []float64{10.4, 20.6, 29.2, 39.9}, image.Rect(10, 20, 30, 40)},
		{"swapped corners", []float64{30, 40, 10, 20}, image.Rect(10, 20, 30, 40)},
		{"malformed", []float64{1, 2, 3}, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BoxToRect(tt.bbox)
			if got != tt.expected {
				t.Errorf("BoxToRect(%v) = %v, want %v", tt.bbox, got, tt.expected)
			}
		})
	}
}

func TestScaleRect(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)

	tests := []struct {
		name     string
		rect     image.Rectangle
		sx, sy   float64
		expected image.Rectangle
	}{
		{"quarter scale back to full", image.Rect(10, 20, 30, 40), 4, 4, image.Rect(40, 80, 120, 160)},
		{"non-uniform factors", image.Rect(10, 10, 20, 20), 4, 3.5, image.Rect(40, 35, 80, 70)},
		{"clamped to frame", image.Rect(150, 100, 170, 130), 4, 4, image.Rect(600, 400, 640, 480)},
		{"identity", image.Rect(1, 2, 3, 4), 1, 1, image.Rect(1, 2, 3, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleRect(tt.rect, tt.sx, tt.sy, bounds)
			if got != tt.expected {
				t.Errorf("ScaleRect(%v, %v, %v) = %v, want %v", tt.rect, tt.sx, tt.sy, got, tt.expected)
			}
		})
	}
}

func TestBoxArea(t *testing.T) {
	tests := []struct {
		name     string
		bbox     []float64
		expected float64
	}{
		{"square", []float64{0, 0, 10, 10}, 100},
		{"rectangle", []float64{5, 5, 15, 10}, 50},
		{"inverted", []float64{10, 10, 0, 0}, 0},
		{"malformed", []float64{1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BoxArea(tt.bbox); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("BoxArea(%v) = %v, want %v", tt.bbox, got, tt.expected)
			}
		})
	}
}
