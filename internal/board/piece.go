package board

import "fmt"

// Color identifies a side
type Color int

const (
	NoColor Color = iota
	White
	Black
)

// Opposite returns the other side. NoColor stays NoColor.
func (c Color) Opposite() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return NoColor
}

// Letter returns the side-to-move letter used in FEN ("w" or "b")
func (c Color) Letter() string {
	switch c {
	case White:
		return "w"
	case Black:
		return "b"
	}
	return "-"
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return "none"
}

// ParseColor accepts "w", "white", "b" or "black"
func ParseColor(s string) (Color, error) {
	switch s {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}

// Kind is a piece type without color
type Kind int

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Piece is one of the 13 labels a square can carry.
// The numbering matches the classifier's output channels.
type Piece int

const (
	Empty Piece = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// NumPieces is the size of the label alphabet, Empty included
const NumPieces = 13

const pieceLetters = ".PNBRQKpnbrqk"

// Valid reports whether p is inside the label alphabet
func (p Piece) Valid() bool {
	return p >= Empty && p <= BlackKing
}

// Color returns the owner of the piece, NoColor for Empty
func (p Piece) Color() Color {
	switch {
	case p >= WhitePawn && p <= WhiteKing:
		return White
	case p >= BlackPawn && p <= BlackKing:
		return Black
	}
	return NoColor
}

// Kind strips the color
func (p Piece) Kind() Kind {
	switch {
	case p >= WhitePawn && p <= WhiteKing:
		return Kind(p - WhitePawn + 1)
	case p >= BlackPawn && p <= BlackKing:
		return Kind(p - BlackPawn + 1)
	}
	return NoKind
}

// Letter returns the FEN letter; uppercase white, lowercase black, '.' for Empty
func (p Piece) Letter() byte {
	if !p.Valid() {
		return '?'
	}
	return pieceLetters[p]
}

func (p Piece) String() string {
	return string(p.Letter())
}

// MakePiece builds a piece from color and kind
func MakePiece(c Color, k Kind) Piece {
	if k == NoKind {
		return Empty
	}
	switch c {
	case White:
		return WhitePawn + Piece(k-1)
	case Black:
		return BlackPawn + Piece(k-1)
	}
	return Empty
}

// PieceFromLetter maps a FEN letter to a piece
func PieceFromLetter(ch byte) (Piece, bool) {
	for i := 1; i < len(pieceLetters); i++ {
		if pieceLetters[i] == ch {
			return Piece(i), true
		}
	}
	return Empty, false
}
