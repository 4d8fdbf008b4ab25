package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestDecode(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	var buf bytes.Buffer
	png.Encode(&buf, src)

	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	for _, bad := range [][]byte{nil, []byte("not an image at all")} {
		if _, err := Decode(bad); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("expected ErrInvalidImage for %q, got %v", bad, err)
		}
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"already small", 100, 50, 200, 100, 50},
		{"landscape", 400, 200, 100, 100, 50},
		{"portrait", 200, 400, 100, 50, 100},
		{"no limit", 400, 200, 0, 400, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitWithin(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.max)
			if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
				t.Errorf("got %v, want %dx%d", got.Bounds(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDownscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))

	small, sx, sy := Downscale(img, 0.25)
	if small.Bounds().Dx() != 160 || small.Bounds().Dy() != 120 {
		t.Errorf("unexpected size %v", small.Bounds())
	}
	if sx != 4 || sy != 4 {
		t.Errorf("expected factors 4,4 got %v,%v", sx, sy)
	}

	// Odd sizes give per-axis factors from the rounded result.
	odd := image.NewRGBA(image.Rect(0, 0, 101, 99))
	small, sx, sy = Downscale(odd, 0.25)
	if small.Bounds().Dx() != 25 || small.Bounds().Dy() != 25 {
		t.Errorf("unexpected size %v", small.Bounds())
	}
	if sx != 101.0/25 || sy != 99.0/25 {
		t.Errorf("unexpected factors %v,%v", sx, sy)
	}

	same, sx, sy := Downscale(img, 1)
	if same != image.Image(img) || sx != 1 || sy != 1 {
		t.Error("scale 1 should return the input unchanged")
	}
}

func TestEncodeJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)

	data, err := EncodeJPEG(img, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) < 3 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("output is not a JPEG")
	}
}

func TestToRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 13))
	src.Set(10, 10, color.RGBA{R: 255, A: 255})

	out := ToRGBA(src)
	if out.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Errorf("unexpected bounds %v", out.Bounds())
	}
	if r, _, _, _ := out.At(0, 0).RGBA(); r != 0xffff {
		t.Error("pixel not copied to origin")
	}
}
