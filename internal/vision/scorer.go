package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MatScorer measures frame similarity as one minus the mean absolute
// grayscale difference, normalized to [0, 1].
type MatScorer struct{}

// Similarity compares two frames of equal size
func (MatScorer) Similarity(prev, cur image.Image) (float64, error) {
	if prev == nil || cur == nil {
		return 0, errors.New("nil frame")
	}
	if prev.Bounds().Size() != cur.Bounds().Size() {
		return 0, fmt.Errorf("frame size changed from %v to %v", prev.Bounds().Size(), cur.Bounds().Size())
	}

	gray1, err := gocv.ImageGrayToMatGray(toGray(prev))
	if err != nil {
		return 0, fmt.Errorf("failed to convert previous frame: %w", err)
	}
	defer gray1.Close()

	gray2, err := gocv.ImageGrayToMatGray(toGray(cur))
	if err != nil {
		return 0, fmt.Errorf("failed to convert current frame: %w", err)
	}
	defer gray2.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray1, gray2, &diff)

	mean := diff.Mean().Val1
	return 1 - mean/255.0, nil
}

// toGray converts any image to an origin-anchored grayscale copy
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}
