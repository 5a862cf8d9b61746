// Package diff infers the move played between two settled board grids.
package diff

import (
	"errors"

	"github.com/thyrook/fentrack/internal/board"
)

var (
	// ErrUnrecognizedDiff means the changed squares match no known move shape
	ErrUnrecognizedDiff = errors.New("unrecognized diff")

	// ErrAmbiguousMoverColor means the shape matched but the mover's color could not be pinned down
	ErrAmbiguousMoverColor = errors.New("ambiguous mover color")
)

// ChangeKind tags how a square changed between two grids
type ChangeKind int

const (
	Vacated  ChangeKind = iota // piece -> empty
	Occupied                   // empty -> piece
	Replaced                   // piece -> different piece
)

func (k ChangeKind) String() string {
	switch k {
	case Vacated:
		return "vacated"
	case Occupied:
		return "occupied"
	case Replaced:
		return "replaced"
	}
	return "unknown"
}

// CellChange is one entry of a cell diff
type CellChange struct {
	Square board.Square
	Before board.Piece
	After  board.Piece
	Kind   ChangeKind
}

// Changes returns every square whose label differs, in row-major order
func Changes(before, after board.Grid) []CellChange {
	var changes []CellChange
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			b, a := before[row][col], after[row][col]
			if b == a {
				continue
			}
			kind := Replaced
			switch {
			case a == board.Empty:
				kind = Vacated
			case b == board.Empty:
				kind = Occupied
			}
			changes = append(changes, CellChange{
				Square: board.Sq(row, col),
				Before: b,
				After:  a,
				Kind:   kind,
			})
		}
	}
	return changes
}

// split partitions changes into squares that lost their piece and squares that gained one
func split(changes []CellChange) (vacated, landed []CellChange) {
	for _, c := range changes {
		if c.Kind == Vacated {
			vacated = append(vacated, c)
		} else {
			landed = append(landed, c)
		}
	}
	return vacated, landed
}
