package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/thyrook/fentrack/internal/session"
)

// Analyzer searches a position
type Analyzer interface {
	Analyze(ctx context.Context, fen string) (Analysis, error)
}

// Advisor analyzes emitted positions in the background, only when the
// viewer is to move. A newer position replaces one still waiting, so a
// slow engine never holds up reconstruction.
type Advisor struct {
	analyzer Analyzer
	onResult func(session.Emission, Analysis)
	logger   *zap.Logger
	pending  chan session.Emission
}

// NewAdvisor creates an advisor calling onResult for every finished search
func NewAdvisor(analyzer Analyzer, onResult func(session.Emission, Analysis), logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		analyzer: analyzer,
		onResult: onResult,
		logger:   logger,
		pending:  make(chan session.Emission, 1),
	}
}

// Emit queues e for analysis when its side to move is the viewer's side
func (a *Advisor) Emit(ctx context.Context, e session.Emission) error {
	if !viewerToMove(e) {
		return nil
	}
	for {
		select {
		case a.pending <- e:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// Drop the stale position
		select {
		case old := <-a.pending:
			a.logger.Debug("Skipping superseded position", zap.Uint64("seq", old.Seq))
		default:
		}
	}
}

// Run analyzes queued positions until ctx ends
func (a *Advisor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-a.pending:
			pos := position(e)
			res, err := a.analyzer.Analyze(ctx, pos)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Warn("Analysis failed", zap.String("fen", pos), zap.Error(err))
				if errors.Is(err, ErrNotReady) {
					return err
				}
				continue
			}
			if a.onResult != nil {
				a.onResult(e, res)
			}
		}
	}
}

// position is the standard-orientation FEN the engine must search. The
// viewer-oriented FEN is used only when no other is available.
func position(e session.Emission) string {
	if e.Position != "" {
		return e.Position
	}
	return e.FEN
}

func viewerToMove(e session.Emission) bool {
	fields := strings.Fields(position(e))
	return len(fields) >= 2 && fields[1] == e.POV.Letter()
}
