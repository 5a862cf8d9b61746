package fen

import (
	"fmt"

	"github.com/notnil/chess"
)

// Record replays the accepted moves of a session into a PGN game.
// Reconstruction can accept moves the rules engine refuses (a missed frame,
// a misread piece); the record stops at the first such move.
type Record struct {
	game    *chess.Game
	stalled error
	moves   int
}

// NewRecord starts a record from an unflipped FEN
func NewRecord(startFEN string) (*Record, error) {
	opt, err := chess.FEN(startFEN)
	if err != nil {
		return nil, fmt.Errorf("invalid start position: %w", err)
	}
	return &Record{
		game: chess.NewGame(opt, chess.UseNotation(chess.UCINotation{})),
	}, nil
}

// Add appends a move given as a UCI token
func (r *Record) Add(uci string) error {
	if r.stalled != nil {
		return r.stalled
	}
	if err := r.game.MoveStr(uci); err != nil {
		r.stalled = fmt.Errorf("record stopped at move %d (%s): %w", r.moves+1, uci, err)
		return r.stalled
	}
	r.moves++
	return nil
}

// Moves returns how many moves were recorded
func (r *Record) Moves() int {
	return r.moves
}

// Stalled returns the error that stopped the record, nil while it is still following the game
func (r *Record) Stalled() error {
	return r.stalled
}

// FEN returns the position the record has reached
func (r *Record) FEN() string {
	return r.game.Position().String()
}

// PGN returns the recorded game
func (r *Record) PGN() string {
	return r.game.String()
}
