package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
)

var frameExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// DirOpener replays the images in a directory in name order.
type DirOpener struct {
	dir  string
	loop bool
}

// NewDirOpener creates an opener over dir. With loop set the replay restarts
// after the last file instead of ending with io.EOF.
func NewDirOpener(dir string, loop bool) *DirOpener {
	return &DirOpener{dir: dir, loop: loop}
}

func (o *DirOpener) Open(ctx context.Context) (Device, error) {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return nil, fmt.Errorf("open frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(frameExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, filepath.Join(o.dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames in %s", o.dir)
	}
	slices.Sort(files)

	return &dirDevice{files: files, loop: o.loop}, nil
}

type dirDevice struct {
	files []string
	loop  bool

	mu     sync.Mutex
	next   int
	closed bool
}

func (d *dirDevice) ReadFrame(ctx context.Context) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.next >= len(d.files) {
		if !d.loop {
			return nil, io.EOF
		}
		d.next = 0
	}

	path := d.files[d.next]
	d.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func (d *dirDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
