package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/thyrook/fentrack/internal/board"
)

// FrameSource delivers raw frames; io.EOF ends the stream
type FrameSource interface {
	ReadFrame() (image.Image, error)
}

// Classifier reads the pieces off a frame
type Classifier interface {
	Classify(ctx context.Context, frame image.Image) (board.Grid, error)
}

// ProducerConfig holds producer settings
type ProducerConfig struct {
	// Interval paces capture; zero reads as fast as the source allows
	Interval time.Duration
	// Buffer is the capacity of the observation channel
	Buffer int
	// MaxReadErrors stops the producer after that many consecutive read failures; zero never stops
	MaxReadErrors int
}

// Producer captures and classifies frames off the session's critical path.
// Sends block when the channel is full, so frames are never dropped or
// reordered and a slow session slows capture down.
type Producer struct {
	source     FrameSource
	classifier Classifier
	config     ProducerConfig
	out        chan Observation
	logger     *zap.Logger
	metrics    *Metrics

	seq        uint64
	frames     atomic.Uint64
	readErrors atomic.Uint64
	lastMs     atomic.Int64
}

// NewProducer creates a producer. Call Run to start it.
func NewProducer(source FrameSource, classifier Classifier, cfg ProducerConfig, logger *zap.Logger, metrics *Metrics) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if cfg.Buffer < 1 {
		cfg.Buffer = 1
	}
	return &Producer{
		source:     source,
		classifier: classifier,
		config:     cfg,
		out:        make(chan Observation, cfg.Buffer),
		logger:     logger,
		metrics:    metrics,
	}
}

// Observations returns the channel Run feeds. It is closed when Run returns.
func (p *Producer) Observations() <-chan Observation {
	return p.out
}

// Run reads frames until the source ends, ctx is cancelled or reads keep failing.
// The end of the stream is not an error.
func (p *Producer) Run(ctx context.Context) error {
	defer close(p.out)

	var tick <-chan time.Time
	if p.config.Interval > 0 {
		ticker := time.NewTicker(p.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	consecutive := 0
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := p.source.ReadFrame()
		if errors.Is(err, io.EOF) {
			p.logger.Info("Frame source finished", zap.Uint64("frames", p.frames.Load()))
			return nil
		}
		if err != nil {
			p.readErrors.Add(1)
			consecutive++
			p.logger.Warn("Frame read failed", zap.Error(err), zap.Int("consecutive", consecutive))
			if p.config.MaxReadErrors > 0 && consecutive >= p.config.MaxReadErrors {
				return fmt.Errorf("giving up after %d failed reads: %w", consecutive, err)
			}
			continue
		}
		consecutive = 0

		obs := p.classify(ctx, frame)

		select {
		case p.out <- obs:
			p.metrics.QueueDepth.Set(float64(len(p.out)))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// classify has no timeout; a stalled classifier stalls the pipeline
func (p *Producer) classify(ctx context.Context, frame image.Image) Observation {
	p.seq++
	p.frames.Add(1)

	start := time.Now()
	grid, err := p.classifier.Classify(ctx, frame)
	elapsed := time.Since(start)

	p.lastMs.Store(elapsed.Milliseconds())
	p.metrics.ClassifyDuration.Observe(elapsed.Seconds())
	if err != nil {
		p.metrics.ClassifyErrors.Inc()
		p.logger.Debug("Classification failed", zap.Uint64("seq", p.seq), zap.Error(err))
	}

	return Observation{
		Seq:   p.seq,
		Frame: frame,
		Grid:  grid,
		Err:   err,
		At:    start,
	}
}

// ProducerStats reports capture counters
type ProducerStats struct {
	Frames       uint64
	ReadErrors   uint64
	LastClassify time.Duration
}

// Stats returns the current counters
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Frames:       p.frames.Load(),
		ReadErrors:   p.readErrors.Load(),
		LastClassify: time.Duration(p.lastMs.Load()) * time.Millisecond,
	}
}

// Run feeds observations from in through the session until in is closed or
// ctx ends, handing every emission to sink.
func (s *Session) Run(ctx context.Context, in <-chan Observation, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case obs, ok := <-in:
			if !ok {
				return nil
			}
			s.metrics.QueueDepth.Set(float64(len(in)))

			res, err := s.Process(ctx, obs)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("Frame skipped", zap.Uint64("seq", obs.Seq), zap.Error(err))
				continue
			}
			if res.Emission == nil || sink == nil {
				continue
			}
			if err := sink.Emit(ctx, *res.Emission); err != nil {
				s.logger.Error("Emission failed", zap.Uint64("seq", res.Emission.Seq), zap.Error(err))
			}
		}
	}
}
