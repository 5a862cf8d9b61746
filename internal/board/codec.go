package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPlacement is returned for malformed grids or placement text
var ErrInvalidPlacement = errors.New("invalid placement")

// Encode converts a grid to FEN placement text, rank 8 first
func Encode(g Grid) string {
	rows := make([]string, Size)
	for row := 0; row < Size; row++ {
		rows[row] = EncodeRow(g[row])
	}
	return strings.Join(rows, "/")
}

// EncodeRow run-length encodes one row: empty runs become a digit
func EncodeRow(row [Size]Piece) string {
	var sb strings.Builder
	empty := 0
	for _, p := range row {
		if p == Empty {
			empty++
			continue
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
			empty = 0
		}
		sb.WriteByte(p.Letter())
	}
	if empty > 0 {
		sb.WriteByte(byte('0' + empty))
	}
	return sb.String()
}

// Decode parses FEN placement text into a grid.
// It fails rather than padding or truncating a malformed row.
func Decode(placement string) (Grid, error) {
	var g Grid
	rows := strings.Split(placement, "/")
	if len(rows) != Size {
		return g, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidPlacement, Size, len(rows))
	}
	for i, text := range rows {
		row, err := DecodeRow(text)
		if err != nil {
			return Grid{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		g[i] = row
	}
	return g, nil
}

// DecodeRow expands one run-length row into exactly 8 cells
func DecodeRow(text string) ([Size]Piece, error) {
	var row [Size]Piece
	col := 0
	prevDigit := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch >= '1' && ch <= '8' {
			if prevDigit {
				return row, fmt.Errorf("%w: consecutive digits in %q", ErrInvalidPlacement, text)
			}
			prevDigit = true
			col += int(ch - '0')
			if col > Size {
				return row, fmt.Errorf("%w: row %q is wider than %d", ErrInvalidPlacement, text, Size)
			}
			continue
		}
		prevDigit = false
		p, ok := PieceFromLetter(ch)
		if !ok {
			return row, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidPlacement, ch, text)
		}
		if col >= Size {
			return row, fmt.Errorf("%w: row %q is wider than %d", ErrInvalidPlacement, text, Size)
		}
		row[col] = p
		col++
	}
	if col != Size {
		return row, fmt.Errorf("%w: row %q covers %d squares", ErrInvalidPlacement, text, col)
	}
	return row, nil
}

// CheckGrid rejects grids carrying labels outside the 13-symbol alphabet
func CheckGrid(g Grid) error {
	if g.Valid() {
		return nil
	}
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if !g[row][col].Valid() {
				return fmt.Errorf("%w: label %d at %s", ErrInvalidPlacement, int(g[row][col]), Sq(row, col).Name())
			}
		}
	}
	return nil
}
