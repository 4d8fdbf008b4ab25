// Package facemodel talks to the face embedding server that detects faces
// and extracts one embedding per face.
package facemodel

import "context"

// Face is a single detected face in the coordinates of the submitted image.
type Face struct {
	Index     int
	Box       []float64 // [x1, y1, x2, y2]
	Embedding []float32
	Score     float64
}

// Model detects faces and computes their embeddings.
type Model interface {
	Detect(ctx context.Context, image []byte) ([]Face, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, image []byte) ([]Face, error)

func (f ModelFunc) Detect(ctx context.Context, image []byte) ([]Face, error) {
	return f(ctx, image)
}
