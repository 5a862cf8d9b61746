package vision

import (
	"fmt"
	"image"

	"github.com/thyrook/fentrack/internal/board"
)

// Region defines the screen area holding the board
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ToRectangle converts the region to image.Rectangle
func (r Region) ToRectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Validate checks the region can hold eight squares per side
func (r Region) Validate() error {
	if r.Width < board.Size || r.Height < board.Size {
		return fmt.Errorf("region %dx%d too small for an %dx%d board", r.Width, r.Height, board.Size, board.Size)
	}
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("region origin (%d,%d) must not be negative", r.X, r.Y)
	}
	return nil
}

// SquareCenter returns the screen pixel at the center of a square.
// With black at the bottom of the screen files and ranks are flipped.
func (r Region) SquareCenter(sq board.Square, pov board.Color) image.Point {
	tileW := r.Width / board.Size
	tileH := r.Height / board.Size

	file, row := sq.Col, sq.Row
	if pov == board.Black {
		file = board.Size - 1 - file
		row = board.Size - 1 - row
	}

	return image.Point{
		X: r.X + file*tileW + tileW/2,
		Y: r.Y + row*tileH + tileH/2,
	}
}

// MovePoints resolves a four-character move token to the from and to pixels
func (r Region) MovePoints(token string, pov board.Color) (from, to image.Point, err error) {
	if len(token) < 4 {
		return from, to, fmt.Errorf("invalid move token %q", token)
	}
	fromSq, err := board.ParseSquare(token[:2])
	if err != nil {
		return from, to, err
	}
	toSq, err := board.ParseSquare(token[2:4])
	if err != nil {
		return from, to, err
	}
	return r.SquareCenter(fromSq, pov), r.SquareCenter(toSq, pov), nil
}
