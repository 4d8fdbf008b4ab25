package recognition

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/kozaktomas/campus-attendance/internal/constants"
	"golang.org/x/image/font/gofont/goregular"
)

// Box and bar colors.
var (
	KnownColor   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	UnknownColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Label is one face annotation in frame coordinates.
type Label struct {
	Box   image.Rectangle
	Text  string
	Known bool
}

// Annotator draws face boxes with a filled label bar along the bottom edge.
// It is safe for concurrent use.
type Annotator struct {
	font *truetype.Font
}

// NewAnnotator loads the embedded Go Regular font.
func NewAnnotator() (*Annotator, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	return &Annotator{font: f}, nil
}

// Draw annotates img in place and returns it.
func (a *Annotator) Draw(img *image.RGBA, labels []Label) *image.RGBA {
	if len(labels) == 0 {
		return img
	}

	dc := gg.NewContextForRGBA(img)
	// A face caches glyphs and is not safe to share between streams.
	dc.SetFontFace(truetype.NewFace(a.font, &truetype.Options{Size: constants.LabelFontSize}))

	for _, l := range labels {
		if l.Box.Empty() {
			continue
		}
		c := UnknownColor
		if l.Known {
			c = KnownColor
		}
		left, top := float64(l.Box.Min.X), float64(l.Box.Min.Y)
		width, bottom := float64(l.Box.Dx()), float64(l.Box.Max.Y)

		dc.SetColor(c)
		dc.SetLineWidth(constants.BoxLineWidth)
		dc.DrawRectangle(left, top, width, float64(l.Box.Dy()))
		dc.Stroke()

		dc.DrawRectangle(left, bottom-constants.LabelBarHeight, width, constants.LabelBarHeight)
		dc.Fill()

		dc.SetColor(color.White)
		dc.DrawString(l.Text, left+5, bottom-10)
	}
	return img
}
