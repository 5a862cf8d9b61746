// Package fen assembles six-field FEN strings from a grid and its metadata,
// optionally re-oriented to the observing side.
package fen

import (
	"fmt"
	"strings"

	"github.com/thyrook/fentrack/internal/board"
	"github.com/thyrook/fentrack/internal/tracker"
)

// Assemble joins placement and metadata into the six FEN fields
func Assemble(placement string, m tracker.Metadata) string {
	ep := "-"
	if m.HasEnPassant() {
		ep = m.EnPassant.Name()
	}
	return fmt.Sprintf("%s %s %s %s %d %d",
		placement,
		m.SideToMove.Letter(),
		m.Castling.String(),
		ep,
		m.HalfMove,
		m.FullMove,
	)
}

// Normalize re-orients a grid and its metadata for the observing side.
// For black the board is rotated 180°, castling letters swap colors and the
// en-passant square is mirrored. Side to move is never changed.
func Normalize(g board.Grid, m tracker.Metadata, pov board.Color) (board.Grid, tracker.Metadata) {
	if pov != board.Black {
		return g, m
	}
	out := m
	out.Castling = m.Castling.Swap()
	if m.HasEnPassant() {
		out.EnPassant = m.EnPassant.Mirror()
	}
	return g.Rotate180(), out
}

// Render is Normalize followed by Encode and Assemble
func Render(g board.Grid, m tracker.Metadata, pov board.Color) string {
	ng, nm := Normalize(g, m, pov)
	return Assemble(board.Encode(ng), nm)
}

// Placement returns the first field of a FEN string
func Placement(fen string) string {
	if i := strings.IndexByte(fen, ' '); i >= 0 {
		return fen[:i]
	}
	return fen
}
