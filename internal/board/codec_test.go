package board

import (
	"errors"
	"math/rand"
	"testing"
)

const startPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

func TestEncodeStartingGrid(t *testing.T) {
	got := Encode(StartingGrid())
	if got != startPlacement {
		t.Errorf("Expected %s, got %s", startPlacement, got)
	}
}

func TestDecodeKnownPlacements(t *testing.T) {
	tests := []string{
		startPlacement,
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR",
		"r1bqkbnr/pppppppp/2n5/8/4P3/5N2/PPPP1PPP/RNBQKB1R",
		"8/8/8/8/8/8/8/8",
		"4k3/8/8/3pP3/8/8/8/4K3",
	}

	for _, placement := range tests {
		t.Run(placement, func(t *testing.T) {
			g, err := Decode(placement)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got := Encode(g); got != placement {
				t.Errorf("Expected %s, got %s", placement, got)
			}
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name      string
		placement string
	}{
		{"too few rows", "8/8/8/8/8/8/8"},
		{"too many rows", "8/8/8/8/8/8/8/8/8"},
		{"short row", "rnbqkbn/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"},
		{"wide row", "rnbqkbnrr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"},
		{"digit overflow", "7p1/8/8/8/8/8/8/8"},
		{"bad letter", "rnbqxbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"},
		{"zero digit", "08/8/8/8/8/8/8/8"},
		{"nine digit", "9/8/8/8/8/8/8/8"},
		{"consecutive digits", "44/8/8/8/8/8/8/8"},
		{"empty row", "/8/8/8/8/8/8/8"},
		{"empty text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.placement)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidPlacement) {
				t.Errorf("Expected ErrInvalidPlacement, got %v", err)
			}
		})
	}
}

func TestRoundTripRandomGrids(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		var g Grid
		for row := 0; row < Size; row++ {
			for col := 0; col < Size; col++ {
				// Roughly half the squares empty
				if rng.Intn(2) == 0 {
					g[row][col] = Piece(1 + rng.Intn(NumPieces-1))
				}
			}
		}

		decoded, err := Decode(Encode(g))
		if err != nil {
			t.Fatalf("Decode(Encode(grid)) failed: %v", err)
		}
		if decoded != g {
			t.Fatalf("Round trip mismatch:\n%s\nvs\n%s", g, decoded)
		}
	}
}

func TestRotate180(t *testing.T) {
	g := StartingGrid()
	rotated := g.Rotate180()

	if rotated[0][3] != WhiteKing {
		t.Errorf("Expected white king on row 0 col 3, got %s", rotated[0][3])
	}
	if rotated[7][4] != BlackQueen {
		t.Errorf("Expected black queen on row 7 col 4, got %s", rotated[7][4])
	}
	if rotated.Rotate180() != g {
		t.Error("Rotating twice should restore the grid")
	}
}

func TestCheckGrid(t *testing.T) {
	g := StartingGrid()
	if err := CheckGrid(g); err != nil {
		t.Errorf("Starting grid rejected: %v", err)
	}

	g[4][4] = Piece(42)
	if err := CheckGrid(g); !errors.Is(err, ErrInvalidPlacement) {
		t.Errorf("Expected ErrInvalidPlacement, got %v", err)
	}
}

func TestSquareNames(t *testing.T) {
	tests := []struct {
		sq       Square
		expected string
	}{
		{Sq(0, 0), "a8"},
		{Sq(7, 7), "h1"},
		{Sq(6, 4), "e2"},
		{Sq(4, 4), "e4"},
	}

	for _, tt := range tests {
		if got := tt.sq.Name(); got != tt.expected {
			t.Errorf("Square %+v: expected %s, got %s", tt.sq, tt.expected, got)
		}
		parsed, err := ParseSquare(tt.expected)
		if err != nil {
			t.Errorf("ParseSquare(%s) failed: %v", tt.expected, err)
		}
		if parsed != tt.sq {
			t.Errorf("ParseSquare(%s) = %+v; want %+v", tt.expected, parsed, tt.sq)
		}
	}

	if _, err := ParseSquare("i9"); err == nil {
		t.Error("Expected error for off-board square")
	}
	if got := MustSquare("e3").Mirror().Name(); got != "d6" {
		t.Errorf("Expected e3 mirrored to d6, got %s", got)
	}
}

func TestPieceHelpers(t *testing.T) {
	if WhiteKnight.Color() != White || WhiteKnight.Kind() != Knight {
		t.Error("WhiteKnight decoded incorrectly")
	}
	if BlackKing.Color() != Black || BlackKing.Kind() != King {
		t.Error("BlackKing decoded incorrectly")
	}
	if Empty.Color() != NoColor {
		t.Error("Empty should have no color")
	}
	if MakePiece(Black, Rook) != BlackRook {
		t.Error("MakePiece(Black, Rook) should be BlackRook")
	}
	p, ok := PieceFromLetter('q')
	if !ok || p != BlackQueen {
		t.Errorf("Expected black queen for 'q', got %s", p)
	}
	if _, ok := PieceFromLetter('.'); ok {
		t.Error("'.' should not map to a piece")
	}
}
