// Package stability decides which captured frames show a settled board.
//
// A frame is admitted when the similarity between consecutive raw frames
// crosses the threshold from below. Only the rising edge fires: a board that
// stays still produces one admission, not one per frame.
package stability

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// DefaultThreshold is the similarity a frame pair must reach to count as settled
const DefaultThreshold = 0.99

// ErrInvalidThreshold is returned for thresholds outside (0, 1]
var ErrInvalidThreshold = errors.New("threshold must be in (0, 1]")

// Scorer compares two frames. 1.0 means identical.
type Scorer interface {
	Similarity(prev, cur image.Image) (float64, error)
}

// ScorerFunc adapts a function to Scorer
type ScorerFunc func(prev, cur image.Image) (float64, error)

// Similarity calls f
func (f ScorerFunc) Similarity(prev, cur image.Image) (float64, error) {
	return f(prev, cur)
}

// Admission describes what the gate made of a frame
type Admission struct {
	// Stable is true when the frame should be classified
	Stable bool
	// Seed marks the very first frame of a session
	Seed bool
	// Score is the similarity to the previous frame, zero for the seed
	Score float64
}

// Gate tracks the previous raw frame and the last two similarity scores.
type Gate struct {
	threshold float64
	scorer    Scorer

	prevFrame image.Image
	last      float64
	current   float64

	mu sync.Mutex
}

// NewGate creates a gate. A nil scorer is only usable through Observe.
func NewGate(threshold float64, scorer Scorer) (*Gate, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return &Gate{
		threshold: threshold,
		scorer:    scorer,
		last:      1.0,
		current:   1.0,
	}, nil
}

// Threshold returns the configured threshold
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Observe feeds one similarity score and reports whether it completes a
// rising edge (previous below threshold, this one at or above it).
func (g *Gate) Observe(score float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.observe(score)
}

func (g *Gate) observe(score float64) bool {
	g.last = g.current
	g.current = score
	return g.last < g.threshold && g.current >= g.threshold
}

// Admit scores frame against the previous frame and decides whether it is
// stable. The first frame after construction or Reset is always admitted as
// the seed. The previous frame is replaced even when scoring fails.
func (g *Gate) Admit(frame image.Image) (Admission, error) {
	if frame == nil {
		return Admission{}, errors.New("nil frame")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.prevFrame
	g.prevFrame = frame

	if prev == nil {
		return Admission{Stable: true, Seed: true}, nil
	}
	if g.scorer == nil {
		return Admission{}, errors.New("gate has no scorer")
	}

	score, err := g.scorer.Similarity(prev, frame)
	if err != nil {
		return Admission{}, fmt.Errorf("similarity failed: %w", err)
	}

	return Admission{
		Stable: g.observe(score),
		Score:  score,
	}, nil
}

// Rearm lets the next settled frame fire even if the board has not moved.
// Used when a stable frame could not be read.
func (g *Gate) Rearm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = 0
}

// Reset clears all transient state; the next frame seeds again
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prevFrame = nil
	g.last = 1.0
	g.current = 1.0
}
