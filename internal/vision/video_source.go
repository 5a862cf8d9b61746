package vision

import (
	"fmt"
	"image"
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// VideoSource replays frames from a screen recording
type VideoSource struct {
	video        *gocv.VideoCapture
	fps          float64
	frameCount   int
	currentFrame int
	mu           sync.Mutex
}

// NewVideoSource opens a video file for playback
func NewVideoSource(videoPath string) (*VideoSource, error) {
	video, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}

	if !video.IsOpened() {
		video.Close()
		return nil, fmt.Errorf("video file not opened: %s", videoPath)
	}

	return &VideoSource{
		video:      video,
		fps:        video.Get(gocv.VideoCaptureFPS),
		frameCount: int(video.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

// ReadFrame reads the next frame from the video
func (vs *VideoSource) ReadFrame() (image.Image, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.video == nil {
		return nil, io.EOF
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if !vs.video.Read(&mat) || mat.Empty() {
		return nil, io.EOF
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame %d: %w", vs.currentFrame, err)
	}

	vs.currentFrame++
	return img, nil
}

// FPS returns the video's frames per second
func (vs *VideoSource) FPS() float64 {
	return vs.fps
}

// Progress returns playback progress (0-1)
func (vs *VideoSource) Progress() float64 {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.frameCount == 0 {
		return 0
	}
	return float64(vs.currentFrame) / float64(vs.frameCount)
}

// Close releases video resources
func (vs *VideoSource) Close() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.video != nil {
		err := vs.video.Close()
		vs.video = nil
		return err
	}
	return nil
}
