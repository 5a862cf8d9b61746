package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Sink consumes emitted positions
type Sink interface {
	Emit(ctx context.Context, e Emission) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, e Emission) error

// Emit calls f
func (f SinkFunc) Emit(ctx context.Context, e Emission) error {
	return f(ctx, e)
}

// MultiSink fans an emission out to every sink, in order. All sinks are
// called even if one fails; the errors are joined.
type MultiSink []Sink

// Emit delivers e to each sink
func (m MultiSink) Emit(ctx context.Context, e Emission) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriterSink prints one FEN per line
type WriterSink struct {
	w  io.Writer
	mu sync.Mutex
}

// NewWriterSink creates a sink writing to w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Emit writes the FEN followed by a newline
func (ws *WriterSink) Emit(ctx context.Context, e Emission) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	_, err := fmt.Fprintln(ws.w, e.FEN)
	return err
}

// LogSink logs every emission
type LogSink struct {
	Logger *zap.Logger
}

// Emit logs e at info level
func (ls LogSink) Emit(ctx context.Context, e Emission) error {
	ls.Logger.Info("Position",
		zap.Uint64("seq", e.Seq),
		zap.Stringer("kind", e.Kind),
		zap.String("move", e.Move),
		zap.String("fen", e.FEN),
		zap.String("position", e.Position))
	return nil
}
