package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	appLog "riverside/internal/log"
)

// Default viewport for the calendar page snapshot.
const (
	DefaultWidth   = 1024
	DefaultHeight  = 768
	DefaultTimeout = 30 * time.Second
)

// ReadySelector is set by the calendar page once it has rendered.
const ReadySelector = `[data-ready="true"]`

// Options defines parameters for a Chromium-based screenshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar?month=2024-03".
	URL string

	// Width and Height are the viewport in pixels; zero uses the defaults.
	Width  int
	Height int

	// Timeout bounds the whole capture; zero uses DefaultTimeout.
	Timeout time.Duration
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// PageFunc captures a page to PNG bytes.
type PageFunc func(ctx context.Context, opts Options) ([]byte, error)

// CapturePage launches a headless Chromium via chromedp, navigates to
// opts.URL, waits for ReadySelector and returns a full-page PNG.
func CapturePage(parentCtx context.Context, opts Options) ([]byte, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(250 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return png, nil
}

// WriteFile captures opts.URL and writes the PNG to path.
func WriteFile(ctx context.Context, capture PageFunc, opts Options, path string) error {
	png, err := capture(ctx, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}

// Snapshotter keeps the last successful capture of one page for
// /preview.png and refreshes it on demand.
type Snapshotter struct {
	capture PageFunc
	opts    Options
	output  string // optional file copy

	mu    sync.RWMutex
	png   []byte
	taken time.Time
}

// NewSnapshotter captures opts with capture (CapturePage when nil). A
// non-empty output also writes every capture to that file.
func NewSnapshotter(capture PageFunc, opts Options, output string) *Snapshotter {
	if capture == nil {
		capture = CapturePage
	}
	return &Snapshotter{capture: capture, opts: opts, output: output}
}

// Refresh takes a new snapshot. On failure the previous one is kept.
func (s *Snapshotter) Refresh(ctx context.Context) error {
	png, err := s.capture(ctx, s.opts)
	if err != nil {
		return err
	}
	if s.output != "" {
		if err := os.WriteFile(s.output, png, 0o644); err != nil {
			appLog.Warn("snapshot file write failed", "path", s.output, "err", err)
		}
	}

	s.mu.Lock()
	s.png = png
	s.taken = time.Now()
	s.mu.Unlock()
	appLog.Info("snapshot refreshed", "bytes", len(png))
	return nil
}

// Latest returns the last snapshot and when it was taken.
func (s *Snapshotter) Latest() ([]byte, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.png == nil {
		return nil, time.Time{}, false
	}
	return s.png, s.taken, true
}
