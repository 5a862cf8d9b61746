package fen

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/thyrook/fentrack/internal/board"
)

// Validate performs an advisory sanity check of a reconstructed position.
// Callers log the result; a failing position is still emitted.
func Validate(fen string) error {
	if _, err := chess.FEN(fen); err != nil {
		return fmt.Errorf("unparseable position: %w", err)
	}

	g, err := board.Decode(Placement(fen))
	if err != nil {
		return err
	}
	if n := g.Count(board.WhiteKing); n != 1 {
		return fmt.Errorf("expected one white king, found %d", n)
	}
	if n := g.Count(board.BlackKing); n != 1 {
		return fmt.Errorf("expected one black king, found %d", n)
	}
	for col := 0; col < board.Size; col++ {
		for _, row := range []int{0, board.Size - 1} {
			if p := g[row][col]; p.Kind() == board.Pawn {
				return fmt.Errorf("pawn on back rank %s", board.Sq(row, col))
			}
		}
	}
	return nil
}
