// Package tracker keeps the FEN metadata that cannot be read off a single grid:
// side to move, castling rights, en-passant target and the move counters.
package tracker

import (
	"strings"

	"github.com/thyrook/fentrack/internal/board"
)

// Castling holds the four independent castling rights
type Castling struct {
	WhiteKingside  bool
	WhiteQueenside bool
	BlackKingside  bool
	BlackQueenside bool
}

// AllCastling is the starting set of rights
var AllCastling = Castling{true, true, true, true}

// Intersect keeps only the rights present in both sets
func (c Castling) Intersect(o Castling) Castling {
	return Castling{
		WhiteKingside:  c.WhiteKingside && o.WhiteKingside,
		WhiteQueenside: c.WhiteQueenside && o.WhiteQueenside,
		BlackKingside:  c.BlackKingside && o.BlackKingside,
		BlackQueenside: c.BlackQueenside && o.BlackQueenside,
	}
}

// Swap exchanges the white and black rights
func (c Castling) Swap() Castling {
	return Castling{
		WhiteKingside:  c.BlackKingside,
		WhiteQueenside: c.BlackQueenside,
		BlackKingside:  c.WhiteKingside,
		BlackQueenside: c.WhiteQueenside,
	}
}

// String returns the FEN castling field in canonical KQkq order, "-" if none
func (c Castling) String() string {
	var sb strings.Builder
	if c.WhiteKingside {
		sb.WriteByte('K')
	}
	if c.WhiteQueenside {
		sb.WriteByte('Q')
	}
	if c.BlackKingside {
		sb.WriteByte('k')
	}
	if c.BlackQueenside {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// Metadata is the game state that sits next to the placement in a FEN.
// It is owned by a single session and only changed through Update.
type Metadata struct {
	SideToMove board.Color
	Castling   Castling
	EnPassant  board.Square // board.NoSquare when there is no target
	HalfMove   int
	FullMove   int
}

// NewMetadata returns the metadata of the standard starting position
func NewMetadata() Metadata {
	return Metadata{
		SideToMove: board.White,
		Castling:   AllCastling,
		EnPassant:  board.NoSquare,
		HalfMove:   0,
		FullMove:   1,
	}
}

// HasEnPassant reports whether an en-passant target is set
func (m Metadata) HasEnPassant() bool {
	return m.EnPassant.Valid()
}
