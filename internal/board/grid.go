package board

import "strings"

// Size is the number of rows and columns
const Size = 8

// Grid is one classified frame: an 8x8 matrix of piece labels.
// Grids are values; copying one copies the whole board.
type Grid [Size][Size]Piece

// StartingGrid returns the standard initial position
func StartingGrid() Grid {
	back := [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	var g Grid
	for col := 0; col < Size; col++ {
		g[0][col] = MakePiece(Black, back[col])
		g[1][col] = BlackPawn
		g[6][col] = WhitePawn
		g[7][col] = MakePiece(White, back[col])
	}
	return g
}

// At returns the piece on a square
func (g *Grid) At(sq Square) Piece {
	return g[sq.Row][sq.Col]
}

// Rotate180 returns the grid as seen from the other side of the board
func (g Grid) Rotate180() Grid {
	var out Grid
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			out[Size-1-row][Size-1-col] = g[row][col]
		}
	}
	return out
}

// Valid reports whether every cell holds a known label
func (g Grid) Valid() bool {
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if !g[row][col].Valid() {
				return false
			}
		}
	}
	return true
}

// Count returns how many squares hold p
func (g Grid) Count(p Piece) int {
	n := 0
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if g[row][col] == p {
				n++
			}
		}
	}
	return n
}

// String returns a human-readable diagram, rank 8 on top
func (g Grid) String() string {
	var sb strings.Builder
	sb.WriteString("\n  a b c d e f g h\n")
	for row := 0; row < Size; row++ {
		sb.WriteByte(byte('8' - row))
		sb.WriteByte(' ')
		for col := 0; col < Size; col++ {
			sb.WriteByte(g[row][col].Letter())
			sb.WriteByte(' ')
		}
		sb.WriteByte(byte('8' - row))
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
