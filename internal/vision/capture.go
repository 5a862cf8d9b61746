package vision

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/kbinani/screenshot"
)

// FrameSource interface for different frame sources (screen capture, video file, etc.).
// ReadFrame returns io.EOF once no more frames will come.
type FrameSource interface {
	ReadFrame() (image.Image, error)
	Close() error
}

// LiveSource captures the board region from the screen
type LiveSource struct {
	region image.Rectangle
	mu     sync.Mutex
	closed bool
}

// NewLiveSource creates a frame source from screen capture
func NewLiveSource(r Region) (*LiveSource, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid capture region: %w", err)
	}
	return &LiveSource{region: r.ToRectangle()}, nil
}

// ReadFrame captures the current screen region
func (ls *LiveSource) ReadFrame() (image.Image, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.closed {
		return nil, io.EOF
	}

	img, err := screenshot.CaptureRect(ls.region)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return img, nil
}

// Close stops the source
func (ls *LiveSource) Close() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.closed = true
	return nil
}

// Displays lists the bounds of every active display, for picking a capture region
func Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	bounds := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		bounds = append(bounds, screenshot.GetDisplayBounds(i))
	}
	return bounds
}
