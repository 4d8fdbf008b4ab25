// Package recognition runs the live loop that reads camera frames, matches
// faces against the roster, marks attendance and emits annotated JPEGs.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/attendance"
	"github.com/kozaktomas/campus-attendance/internal/capture"
	"github.com/kozaktomas/campus-attendance/internal/facematch"
	"github.com/kozaktomas/campus-attendance/internal/facemodel"
	"github.com/kozaktomas/campus-attendance/internal/imaging"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/roster"
	"github.com/kozaktomas/campus-attendance/internal/stats"
)

// ErrDeviceOpen is returned by Run when the capture device cannot be opened.
// No frames are emitted in that case.
var ErrDeviceOpen = errors.New("capture device could not be opened")

// detectQuality is the JPEG quality of the downsampled frame sent to the model.
const detectQuality = 90

// Marker records attendance for a recognized student.
type Marker interface {
	MarkIfAbsent(ctx context.Context, studentID string) (attendance.Status, error)
}

// RosterSource returns the current roster snapshot.
type RosterSource interface {
	Current() *roster.Snapshot
}

// Options tunes a Loop. Zero values fall back to the defaults.
type Options struct {
	Scale        float64       // downsample factor before detection, default 0.25
	Threshold    float64       // match threshold, default facematch.DefaultThreshold
	FrameTimeout time.Duration // per-frame model deadline, default 2s
	JPEGQuality  int           // quality of emitted frames
}

// Detection is one face found in a frame.
type Detection struct {
	Box      image.Rectangle // full-frame coordinates
	Identity roster.Identity
	Status   attendance.Status // zero when no mark was attempted or it failed
}

// Frame is one annotated output frame.
type Frame struct {
	Seq        int64
	JPEG       []byte
	Detections []Detection
}

// Loop turns a capture device into a stream of annotated frames.
type Loop struct {
	opener    capture.Opener
	model     facemodel.Model
	roster    RosterSource
	ledger    Marker
	annotator *Annotator
	opts      Options
	log       *logger.Logger
	counters  *stats.Counters
}

// NewLoop wires a loop. counters may be nil.
func NewLoop(opener capture.Opener, model facemodel.Model, roster RosterSource, ledger Marker,
	annotator *Annotator, opts Options, log *logger.Logger, counters *stats.Counters) *Loop {
	if opts.Scale <= 0 || opts.Scale > 1 {
		opts.Scale = 0.25
	}
	if opts.Threshold <= 0 {
		opts.Threshold = facematch.DefaultThreshold
	}
	if opts.FrameTimeout <= 0 {
		opts.FrameTimeout = 2 * time.Second
	}
	if counters == nil {
		counters = &stats.Counters{}
	}
	return &Loop{
		opener:    opener,
		model:     model,
		roster:    roster,
		ledger:    ledger,
		annotator: annotator,
		opts:      opts,
		log:       log,
		counters:  counters,
	}
}

// Run opens the device and sends frames to out until the device fails or
// ctx is done. out is closed when Run returns. The end of a finite source
// returns nil.
func (l *Loop) Run(ctx context.Context, out chan<- Frame) error {
	defer close(out)

	dev, err := l.opener.Open(ctx)
	if err != nil {
		l.log.Error("failed to open capture device", "error", err)
		return fmt.Errorf("%w: %w", ErrDeviceOpen, err)
	}
	defer dev.Close()

	var seq int64
	for {
		img, err := dev.ReadFrame(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			l.log.Warn("capture device failed", "error", err)
			return fmt.Errorf("read frame: %w", err)
		}

		seq++
		frame, err := l.Process(ctx, img)
		if err != nil {
			l.counters.FramesDropped.Add(1)
			l.log.Warn("dropping frame", "seq", seq, "error", err)
			continue
		}
		frame.Seq = seq

		select {
		case out <- frame:
			l.counters.FramesEmitted.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Process runs one tick on img: detect, match, mark, annotate, encode.
// Detection and ledger failures are logged and counted, never returned.
func (l *Loop) Process(ctx context.Context, img image.Image) (Frame, error) {
	l.counters.FramesProcessed.Add(1)

	canvas := imaging.ToRGBA(img)
	small, sx, sy := imaging.Downscale(canvas, l.opts.Scale)
	faces := l.detect(ctx, small)
	l.counters.FacesDetected.Add(int64(len(faces)))

	snap := l.roster.Current()
	detections := make([]Detection, 0, len(faces))
	labels := make([]Label, 0, len(faces))
	for _, f := range faces {
		d := Detection{
			Box:      facematch.ScaleRect(facematch.BoxToRect(f.Box), sx, sy, canvas.Bounds()),
			Identity: snap.Match(f.Embedding, l.opts.Threshold),
		}
		if d.Identity.Known {
			l.counters.FacesRecognized.Add(1)
			d.Status = l.mark(ctx, d.Identity)
		}
		detections = append(detections, d)
		labels = append(labels, Label{Box: d.Box, Text: d.Identity.Label(), Known: d.Identity.Known})
	}

	data, err := imaging.EncodeJPEG(l.annotator.Draw(canvas, labels), l.opts.JPEGQuality)
	if err != nil {
		return Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	return Frame{JPEG: data, Detections: detections}, nil
}

// detect returns the faces on the downsampled frame. A timeout or model
// failure yields no faces for this tick.
func (l *Loop) detect(ctx context.Context, small image.Image) []facemodel.Face {
	data, err := imaging.EncodeJPEG(small, detectQuality)
	if err != nil {
		l.counters.DetectionFailures.Add(1)
		l.log.Warn("failed to encode frame for detection", "error", err)
		return nil
	}

	detectCtx, cancel := context.WithTimeout(ctx, l.opts.FrameTimeout)
	defer cancel()

	faces, err := l.model.Detect(detectCtx, data)
	if err == nil {
		return faces
	}
	switch {
	case ctx.Err() != nil:
		// The stream is ending; not a model problem.
	case errors.Is(detectCtx.Err(), context.DeadlineExceeded):
		l.counters.DetectionTimeouts.Add(1)
		l.log.Warn("face detection timed out", "timeout", l.opts.FrameTimeout)
	default:
		l.counters.DetectionFailures.Add(1)
		l.log.Warn("face detection failed", "error", err)
	}
	return nil
}

func (l *Loop) mark(ctx context.Context, id roster.Identity) attendance.Status {
	status, err := l.ledger.MarkIfAbsent(ctx, id.StudentID)
	if err != nil {
		l.counters.LedgerFailures.Add(1)
		l.log.Error("failed to mark attendance", "student_id", id.StudentID, "error", err)
		return 0
	}
	return status
}
