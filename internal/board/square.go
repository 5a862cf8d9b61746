package board

import "fmt"

// Square addresses one cell of the grid.
// Row 0 is rank 8, Col 0 is file a.
type Square struct {
	Row int
	Col int
}

// NoSquare marks an absent square (e.g., no en-passant target)
var NoSquare = Square{Row: -1, Col: -1}

// Sq is shorthand for Square{row, col}
func Sq(row, col int) Square {
	return Square{Row: row, Col: col}
}

// Valid reports whether both coordinates are on the board
func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

// Rank returns the chess rank, 1-8
func (s Square) Rank() int {
	return Size - s.Row
}

// Name returns algebraic notation (e.g., "e4")
func (s Square) Name() string {
	if !s.Valid() {
		return "??"
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, s.Rank())
}

func (s Square) String() string {
	return s.Name()
}

// Mirror rotates the square 180° around the board center
func (s Square) Mirror() Square {
	return Square{Row: Size - 1 - s.Row, Col: Size - 1 - s.Col}
}

// ParseSquare converts algebraic notation to a square
func ParseSquare(name string) (Square, error) {
	if len(name) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", name)
	}
	file, rank := name[0], name[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Square{}, fmt.Errorf("invalid square %q", name)
	}
	return Square{Row: Size - int(rank-'0'), Col: int(file - 'a')}, nil
}

// MustSquare is ParseSquare for constants and tests
func MustSquare(name string) Square {
	sq, err := ParseSquare(name)
	if err != nil {
		panic(err)
	}
	return sq
}

// HomeRow is the back-rank row of a color in the unflipped orientation
func HomeRow(c Color) int {
	if c == White {
		return Size - 1
	}
	return 0
}
