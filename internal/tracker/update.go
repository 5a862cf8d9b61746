package tracker

import (
	"github.com/thyrook/fentrack/internal/board"
	"github.com/thyrook/fentrack/internal/diff"
)

var (
	whiteKingHome      = board.MustSquare("e1")
	whiteKingsideRook  = board.MustSquare("h1")
	whiteQueensideRook = board.MustSquare("a1")
	blackKingHome      = board.MustSquare("e8")
	blackKingsideRook  = board.MustSquare("h8")
	blackQueensideRook = board.MustSquare("a8")
)

// Update derives the metadata following mv. after is the grid observed once
// the move settled; castling rights are checked against its home squares so a
// rook captured in place loses its right.
// Moves that are not accepted shapes leave prev untouched.
func Update(prev Metadata, mv diff.Move, after board.Grid) Metadata {
	if !mv.Shape.Accepted() {
		return prev
	}

	next := prev

	// 1. side to move follows the observed mover, not the expected turn
	next.SideToMove = mv.Mover.Opposite()

	// 2. half-move clock
	if mv.IsPawnMove() || mv.IsCapture() {
		next.HalfMove = 0
	} else {
		next.HalfMove = prev.HalfMove + 1
	}

	// 3. full-move number
	if mv.Mover == board.Black {
		next.FullMove = prev.FullMove + 1
	}

	// 4. castling rights never come back
	next.Castling = prev.Castling.Intersect(observedCastling(after))

	// 5. en-passant target lives for exactly one update
	next.EnPassant = enPassantTarget(mv)

	return next
}

// SeedCastling limits the rights claimed for a first position to those its
// home squares still allow
func SeedCastling(claimed Castling, g board.Grid) Castling {
	return claimed.Intersect(observedCastling(g))
}

// observedCastling returns the rights still possible given who stands on the home squares
func observedCastling(g board.Grid) Castling {
	whiteKing := g.At(whiteKingHome) == board.WhiteKing
	blackKing := g.At(blackKingHome) == board.BlackKing
	return Castling{
		WhiteKingside:  whiteKing && g.At(whiteKingsideRook) == board.WhiteRook,
		WhiteQueenside: whiteKing && g.At(whiteQueensideRook) == board.WhiteRook,
		BlackKingside:  blackKing && g.At(blackKingsideRook) == board.BlackRook,
		BlackQueenside: blackKing && g.At(blackQueensideRook) == board.BlackRook,
	}
}

// enPassantTarget returns the square skipped by a two-square pawn advance.
// No check is made that an enemy pawn could actually capture.
func enPassantTarget(mv diff.Move) board.Square {
	if mv.Shape != diff.Simple || !mv.IsPawnMove() || mv.From.Col != mv.To.Col {
		return board.NoSquare
	}
	startRow := board.HomeRow(mv.Mover) - 1
	step := -1
	if mv.Mover == board.Black {
		startRow = board.HomeRow(mv.Mover) + 1
		step = 1
	}
	if mv.From.Row != startRow || mv.To.Row != startRow+2*step {
		return board.NoSquare
	}
	return board.Sq(startRow+step, mv.From.Col)
}
