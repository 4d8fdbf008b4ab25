package facematch

import (
	"image"
	"math"
)

// BoxToRect converts a detector box [x1, y1, x2, y2] in pixels to an image.Rectangle.
// Returns an empty rectangle for malformed boxes.
func BoxToRect(bbox []float64) image.Rectangle {
	if len(bbox) != 4 {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(bbox[0])),
		int(math.Floor(bbox[1])),
		int(math.Ceil(bbox[2])),
		int(math.Ceil(bbox[3])),
	).Canon()
}

// ScaleRect maps a rectangle detected on a downsampled frame back to the
// original frame by the per-axis factors sx and sy, clamped to bounds.
func ScaleRect(r image.Rectangle, sx, sy float64, bounds image.Rectangle) image.Rectangle {
	scaled := image.Rect(
		int(math.Round(float64(r.Min.X)*sx)),
		int(math.Round(float64(r.Min.Y)*sy)),
		int(math.Round(float64(r.Max.X)*sx)),
		int(math.Round(float64(r.Max.Y)*sy)),
	)
	return scaled.Intersect(bounds)
}

// BoxArea returns the area of a detector box [x1, y1, x2, y2], 0 if malformed.
func BoxArea(bbox []float64) float64 {
	if len(bbox) != 4 {
		return 0
	}
	w := bbox[2] - bbox[0]
	h := bbox[3] - bbox[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}
