// Package capture provides frame sources for the recognition loop: an
// MJPEG-over-HTTP camera, a JPEG snapshot URL, or a directory of images.
package capture

import (
	"context"
	"errors"
	"image"
	"strings"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/config"
)

// ErrClosed is returned by ReadFrame after Close.
var ErrClosed = errors.New("capture device closed")

// Device yields decoded frames until it fails. io.EOF marks the end of a
// finite source.
type Device interface {
	ReadFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener opens a new Device for each consumer.
type Opener interface {
	Open(ctx context.Context) (Device, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Device, error)

func (f OpenerFunc) Open(ctx context.Context) (Device, error) {
	return f(ctx)
}

// NewOpener picks a source by the shape of cfg.Source: http(s) URLs are
// cameras, anything else is a directory.
func NewOpener(cfg config.CameraConfig) Opener {
	var base Opener
	if strings.HasPrefix(cfg.Source, "http://") || strings.HasPrefix(cfg.Source, "https://") {
		base = NewHTTPOpener(cfg.Source, nil)
	} else {
		base = NewDirOpener(cfg.Source, cfg.Loop)
	}
	if cfg.FrameInterval <= 0 {
		return base
	}
	return OpenerFunc(func(ctx context.Context) (Device, error) {
		dev, err := base.Open(ctx)
		if err != nil {
			return nil, err
		}
		return &throttled{Device: dev, interval: cfg.FrameInterval}, nil
	})
}

// throttled spaces reads at least interval apart.
type throttled struct {
	Device
	interval time.Duration
	last     time.Time
}

func (t *throttled) ReadFrame(ctx context.Context) (image.Image, error) {
	if !t.last.IsZero() {
		wait := t.interval - time.Since(t.last)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
	t.last = time.Now()
	return t.Device.ReadFrame(ctx)
}
