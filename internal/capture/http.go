package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
)

// HTTPOpener opens an HTTP camera. The response Content-Type decides the
// mode: multipart/x-mixed-replace is read as an MJPEG stream, a single
// image is re-fetched for every frame.
type HTTPOpener struct {
	url    string
	client *http.Client
}

// NewHTTPOpener creates an opener for url. A nil client uses http.DefaultClient.
func NewHTTPOpener(url string, client *http.Client) *HTTPOpener {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPOpener{url: url, client: client}
}

func (o *HTTPOpener) Open(ctx context.Context) (Device, error) {
	// The stream outlives Open, so it gets its own cancellation tied to Close.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	resp, err := o.get(streamCtx)
	if err != nil {
		cancel()
		return nil, err
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("parse camera content type: %w", err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := strings.TrimPrefix(params["boundary"], "--")
		if boundary == "" {
			resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("camera stream has no multipart boundary")
		}
		return &mjpegDevice{
			body:   resp.Body,
			reader: multipart.NewReader(resp.Body, boundary),
			cancel: cancel,
		}, nil
	}

	// Snapshot camera: the first response is the first frame.
	return &snapshotDevice{opener: o, first: resp, firstCancel: cancel}, nil
}

func (o *HTTPOpener) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}
	return resp, nil
}

type mjpegDevice struct {
	body   io.ReadCloser
	reader *multipart.Reader
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func (d *mjpegDevice) ReadFrame(ctx context.Context) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stop a blocked read when ctx ends.
	stop := context.AfterFunc(ctx, d.cancel)
	defer stop()

	part, err := d.reader.NextPart()
	if err != nil {
		return nil, err
	}
	defer part.Close()

	img, _, err := image.Decode(part)
	if err != nil {
		return nil, fmt.Errorf("decode camera frame: %w", err)
	}
	return img, nil
}

func (d *mjpegDevice) Close() error {
	d.cancel()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.body.Close()
}

type snapshotDevice struct {
	opener      *HTTPOpener
	first       *http.Response
	firstCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func (d *snapshotDevice) ReadFrame(ctx context.Context) (image.Image, error) {
	d.mu.Lock()
	resp := d.first
	d.first = nil
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if resp == nil {
		var err error
		if resp, err = d.opener.get(ctx); err != nil {
			return nil, err
		}
	} else {
		defer d.firstCancel()
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode camera snapshot: %w", err)
	}
	return img, nil
}

func (d *snapshotDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.first != nil {
		d.first.Body.Close()
		d.first = nil
	}
	d.firstCancel()
	return nil
}
