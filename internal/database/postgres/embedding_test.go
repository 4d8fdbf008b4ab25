package postgres

import (
	"math"
	"testing"
)

func TestValidateEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		emb     []float32
		dim     int
		wantErr bool
	}{
		{"valid any dim", []float32{0.1, 0.2}, 0, false},
		{"valid matching dim", []float32{0.1, 0.2, 0.3}, 3, false},
		{"empty", nil, 0, true},
		{"dim mismatch", []float32{0.1, 0.2}, 3, true},
		{"nan", []float32{0.1, float32(math.NaN())}, 0, true},
		{"inf", []float32{float32(math.Inf(1))}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEmbedding(tt.emb, tt.dim)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEmbedding() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
