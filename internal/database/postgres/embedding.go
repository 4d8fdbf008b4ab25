package postgres

import (
	"errors"
	"fmt"
	"math"
)

var errEmptyEmbedding = errors.New("empty embedding")

// validateEmbedding rejects embeddings that cannot take part in distance
// computations. A dim of 0 accepts any length.
func validateEmbedding(emb []float32, dim int) error {
	if len(emb) == 0 {
		return errEmptyEmbedding
	}
	if dim > 0 && len(emb) != dim {
		return fmt.Errorf("embedding has %d dimensions, roster has %d", len(emb), dim)
	}
	for i, v := range emb {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("embedding value %d is not finite", i)
		}
	}
	return nil
}
