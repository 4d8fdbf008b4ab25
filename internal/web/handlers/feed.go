package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/campus-attendance/internal/constants"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/recognition"
)

// Streamer produces annotated frames until ctx ends. It closes out on return.
type Streamer interface {
	Run(ctx context.Context, out chan<- recognition.Frame) error
}

// FeedHandler serves the annotated camera feed as multipart/x-mixed-replace.
type FeedHandler struct {
	stream Streamer
	log    *logger.Logger
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(stream Streamer, log *logger.Logger) *FeedHandler {
	return &FeedHandler{stream: stream, log: log}
}

// Stream runs one recognition loop for the lifetime of the request. A camera
// that cannot be opened ends the stream without parts.
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := h.log.With("stream_id", uuid.NewString())
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	mw := multipart.NewWriter(w)
	_ = mw.SetBoundary(constants.StreamBoundary)
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mw.Boundary())
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan recognition.Frame, constants.FrameChannelBuffer)
	done := make(chan error, 1)
	go func() {
		done <- h.stream.Run(ctx, frames)
	}()
	log.Info("feed started", "remote", sanitizeForLog(r.RemoteAddr))

	var sent int
	for frame := range frames {
		if err := writeFramePart(mw, frame.JPEG); err != nil {
			log.Debug("feed client gone", "error", err)
			break
		}
		if err := rc.Flush(); err != nil {
			log.Debug("feed flush failed", "error", err)
			break
		}
		sent++
	}
	cancel()
	for range frames {
	}

	err := <-done
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Info("feed ended", "frames", sent)
	case errors.Is(err, recognition.ErrDeviceOpen):
		log.Error("feed could not open camera", "error", err)
	default:
		log.Error("feed ended with error", "frames", sent, "error", err)
	}
	if sent > 0 {
		_ = mw.Close()
	}
}

func writeFramePart(mw *multipart.Writer, jpeg []byte) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(jpeg)
	return err
}
