// Package session runs the reconstruction pipeline for one board: stability
// gating, move inference, metadata bookkeeping and FEN emission.
//
// A Session is single-writer. Process must be called from one goroutine at a
// time; SetPOV and the read accessors may be called from anywhere.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thyrook/fentrack/internal/board"
	"github.com/thyrook/fentrack/internal/diff"
	"github.com/thyrook/fentrack/internal/fen"
	"github.com/thyrook/fentrack/internal/stability"
	"github.com/thyrook/fentrack/internal/tracker"
)

// Kind tells what a processed frame amounted to
type Kind int

const (
	// Unsettled frames were still in motion or repeated a settled board
	Unsettled Kind = iota
	// Seeded marks the first frame, which fixes the starting position
	Seeded
	// NoChange is a settled frame identical to the previous stable board
	NoChange
	// Moved is a settled frame explained by one accepted move
	Moved
	// Unrecognized is a settled frame whose change matched no move shape
	Unrecognized
	// Duplicate frames produced the same FEN as the last emission
	Duplicate
)

var kindNames = [...]string{"unsettled", "seeded", "no_change", "moved", "unrecognized", "duplicate"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Observation is one captured frame and what the classifier read from it
type Observation struct {
	Seq   uint64
	Frame image.Image
	Grid  board.Grid
	// Err is set when the classifier could not read Frame; Grid is then meaningless
	Err error
	At  time.Time
}

// Emission is a FEN handed to consumers
type Emission struct {
	Seq uint64
	// FEN is oriented for the viewer and meant for display
	FEN string
	// Position is the same state in standard orientation, white on ranks 1
	// and 2. Engines, move lookups and the journal read this one.
	Position string
	Kind     Kind
	// Move is the UCI token of the accepted move, empty for seeds and placement-only updates
	Move  string
	Shape diff.Shape
	// Mover is who made Move
	Mover board.Color
	POV   board.Color
	At    time.Time
}

// Result is the outcome of processing one observation
type Result struct {
	Kind      Kind
	Admission stability.Admission
	Move      diff.Move
	// DiffErr carries ErrUnrecognizedDiff or ErrAmbiguousMoverColor for Unrecognized results
	DiffErr  error
	Emission *Emission
}

// Options control session policy
type Options struct {
	Threshold float64
	POV       board.Color
	// TrustRawPlacement keeps following the classifier's placement when a
	// change is unrecognized, emitting it with the held metadata.
	TrustRawPlacement bool
	// SuppressDuplicates drops a FEN equal to the previous emission
	SuppressDuplicates bool
	// Validate runs the advisory legality check on every emission
	Validate bool
	// RecordGame replays accepted moves into a PGN record
	RecordGame bool
	// Start is the metadata assumed for the seeded position
	Start tracker.Metadata
}

// DefaultOptions returns the standard policy
func DefaultOptions() Options {
	return Options{
		Threshold:          stability.DefaultThreshold,
		POV:                board.White,
		TrustRawPlacement:  true,
		SuppressDuplicates: true,
		Validate:           true,
		RecordGame:         true,
		Start:              tracker.NewMetadata(),
	}
}

// Session owns all mutable reconstruction state for one board
type Session struct {
	opts    Options
	gate    *stability.Gate
	logger  *zap.Logger
	metrics *Metrics

	mu       sync.Mutex
	seeded   bool
	prevGrid board.Grid
	meta     tracker.Metadata
	pov      board.Color
	lastFEN  string
	record   *fen.Record
	emitted  uint64
	stats    Stats
}

// Stats counts what the session has seen
type Stats struct {
	Frames       int64
	Stable       int64
	Moves        int64
	Unrecognized int64
	Emissions    int64
	Duplicates   int64
	ReadErrors   int64
	InvalidGrids int64
}

// New creates a session. A nil logger or metrics is replaced by a no-op.
func New(opts Options, scorer stability.Scorer, logger *zap.Logger, metrics *Metrics) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if opts.POV != board.White && opts.POV != board.Black {
		return nil, fmt.Errorf("invalid point of view %v", opts.POV)
	}
	if opts.Start.FullMove == 0 {
		opts.Start = tracker.NewMetadata()
	}

	gate, err := stability.NewGate(opts.Threshold, scorer)
	if err != nil {
		return nil, err
	}

	logger.Debug("Session created",
		zap.Float64("threshold", gate.Threshold()),
		zap.Stringer("pov", opts.POV),
		zap.Bool("trust_placement", opts.TrustRawPlacement))

	return &Session{
		opts:    opts,
		gate:    gate,
		logger:  logger,
		metrics: metrics,
		meta:    opts.Start,
		pov:     opts.POV,
	}, nil
}

// Process runs one observation through the pipeline to completion
func (s *Session) Process(ctx context.Context, obs Observation) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Frames++
	s.metrics.FramesTotal.Inc()

	adm, err := s.gate.Admit(obs.Frame)
	if err != nil {
		return Result{Kind: Unsettled}, fmt.Errorf("frame %d: %w", obs.Seq, err)
	}
	res := Result{Kind: Unsettled, Admission: adm}
	if !adm.Stable {
		return res, nil
	}

	if obs.Err != nil {
		// The settled board could not be read. Let the next settled frame try again.
		s.gate.Rearm()
		s.stats.ReadErrors++
		s.logger.Warn("Stable frame could not be classified",
			zap.Uint64("seq", obs.Seq),
			zap.Error(obs.Err))
		return res, nil
	}

	if err := board.CheckGrid(obs.Grid); err != nil {
		// Nothing is committed; the next settled frame is read afresh
		s.gate.Rearm()
		s.stats.InvalidGrids++
		s.metrics.ClassifyErrors.Inc()
		return res, fmt.Errorf("frame %d: %w", obs.Seq, err)
	}

	s.stats.Stable++
	s.metrics.StableTotal.Inc()

	if !s.seeded {
		return s.seed(obs, res), nil
	}

	mv, derr := diff.Classify(s.prevGrid, obs.Grid)
	res.Move = mv

	switch {
	case derr != nil:
		return s.unrecognized(obs, res, derr), nil
	case mv.Shape == diff.NoChange:
		res.Kind = NoChange
		return res, nil
	}

	s.meta = tracker.Update(s.meta, mv, obs.Grid)
	s.prevGrid = obs.Grid
	s.stats.Moves++
	s.metrics.MovesTotal.WithLabelValues(mv.Shape.String()).Inc()

	s.logger.Info("Move detected",
		zap.Uint64("seq", obs.Seq),
		zap.String("move", mv.UCI()),
		zap.Stringer("shape", mv.Shape),
		zap.Stringer("mover", mv.Mover))

	if s.record != nil && s.record.Stalled() == nil {
		if err := s.record.Add(mv.UCI()); err != nil {
			s.logger.Warn("Game record stopped following", zap.Error(err))
		}
	}

	res.Kind = Moved
	return s.emit(obs, res, &mv), nil
}

func (s *Session) seed(obs Observation, res Result) Result {
	s.seeded = true
	s.prevGrid = obs.Grid
	s.meta = s.opts.Start
	s.meta.Castling = tracker.SeedCastling(s.opts.Start.Castling, obs.Grid)

	if s.opts.RecordGame {
		start := fen.Assemble(board.Encode(obs.Grid), s.meta)
		rec, err := fen.NewRecord(start)
		if err != nil {
			s.logger.Warn("Game record disabled", zap.Error(err))
		} else {
			s.record = rec
		}
	}

	s.logger.Info("Session seeded",
		zap.Uint64("seq", obs.Seq),
		zap.String("placement", board.Encode(obs.Grid)),
		zap.Stringer("castling", s.meta.Castling))

	res.Kind = Seeded
	return s.emit(obs, res, nil)
}

func (s *Session) unrecognized(obs Observation, res Result, derr error) Result {
	res.Kind = Unrecognized
	res.DiffErr = derr
	s.stats.Unrecognized++

	reason := "unrecognized"
	if errors.Is(derr, diff.ErrAmbiguousMoverColor) {
		reason = "ambiguous_color"
	}
	s.metrics.UnrecognizedTotal.WithLabelValues(reason).Inc()

	s.logger.Warn("Board change not recognized",
		zap.Uint64("seq", obs.Seq),
		zap.Int("changed_squares", len(diff.Changes(s.prevGrid, obs.Grid))),
		zap.Bool("trust_placement", s.opts.TrustRawPlacement),
		zap.Error(derr))

	if !s.opts.TrustRawPlacement {
		return res
	}

	// Metadata is held; only the placement follows the new grid
	s.prevGrid = obs.Grid
	return s.emit(obs, res, nil)
}

// emit renders the current state and records it unless it repeats the last FEN
func (s *Session) emit(obs Observation, res Result, mv *diff.Move) Result {
	out := fen.Render(s.prevGrid, s.meta, s.pov)

	if s.opts.SuppressDuplicates && out == s.lastFEN {
		s.stats.Duplicates++
		s.metrics.DuplicatesTotal.Inc()
		res.Kind = Duplicate
		return res
	}
	s.lastFEN = out

	position := fen.Render(s.prevGrid, s.meta, board.White)
	if s.opts.Validate {
		if err := fen.Validate(position); err != nil {
			s.metrics.AdvisoryRejections.Inc()
			s.logger.Warn("Position failed legality check", zap.String("fen", position), zap.Error(err))
		}
	}

	s.emitted++
	s.stats.Emissions++
	s.metrics.EmissionsTotal.Inc()

	at := obs.At
	if at.IsZero() {
		at = time.Now()
	}
	e := &Emission{
		Seq:      s.emitted,
		FEN:      out,
		Position: position,
		Kind:     res.Kind,
		POV:      s.pov,
		At:       at,
	}
	switch {
	case mv != nil:
		e.Move = mv.UCI()
		e.Shape = mv.Shape
		e.Mover = mv.Mover
	case res.Kind == Unrecognized:
		e.Shape = diff.Unrecognized
	}
	res.Emission = e
	return res
}

// SetPOV switches the orientation used for subsequent emissions
func (s *Session) SetPOV(c board.Color) error {
	if c != board.White && c != board.Black {
		return fmt.Errorf("invalid point of view %v", c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pov != c {
		s.logger.Info("Point of view changed", zap.Stringer("from", s.pov), zap.Stringer("to", c))
		s.pov = c
	}
	return nil
}

// POV returns the current orientation
func (s *Session) POV() board.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pov
}

// FEN renders the current position, false before the first settled frame
func (s *Session) FEN() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		return "", false
	}
	return fen.Render(s.prevGrid, s.meta, s.pov), true
}

// Grid returns the last stable board in standard orientation, false before
// the first settled frame
func (s *Session) Grid() (board.Grid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prevGrid, s.seeded
}

// Metadata returns the derived game state
func (s *Session) Metadata() tracker.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// PGN returns the recorded game, empty when recording is off
func (s *Session) PGN() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return ""
	}
	return s.record.PGN()
}

// Stats returns a snapshot of the counters
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Reset forgets the game; the next frame seeds a new one. The last emitted
// FEN is kept so re-seeding the same position is not emitted twice.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gate.Reset()
	s.seeded = false
	s.prevGrid = board.Grid{}
	s.meta = s.opts.Start
	s.record = nil

	s.logger.Info("Session reset")
}
