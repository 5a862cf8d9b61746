package tracker

import (
	"testing"

	"github.com/thyrook/fentrack/internal/board"
	"github.com/thyrook/fentrack/internal/diff"
)

func decode(t *testing.T, placement string) board.Grid {
	t.Helper()
	g, err := board.Decode(placement)
	if err != nil {
		t.Fatalf("Decode(%s) failed: %v", placement, err)
	}
	return g
}

// step classifies before->after and applies the result
func step(t *testing.T, meta Metadata, before, after string) (Metadata, diff.Move) {
	t.Helper()
	b, a := decode(t, before), decode(t, after)
	mv, err := diff.Classify(b, a)
	if err != nil {
		t.Fatalf("Classify %s -> %s failed: %v", before, after, err)
	}
	return Update(meta, mv, a), mv
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata()
	if m.SideToMove != board.White {
		t.Errorf("Expected white to move, got %s", m.SideToMove)
	}
	if m.Castling != AllCastling {
		t.Errorf("Expected all castling rights, got %s", m.Castling)
	}
	if m.HasEnPassant() {
		t.Errorf("Expected no en-passant target, got %s", m.EnPassant)
	}
	if m.HalfMove != 0 || m.FullMove != 1 {
		t.Errorf("Expected counters 0/1, got %d/%d", m.HalfMove, m.FullMove)
	}
}

func TestKingPawnOpening(t *testing.T) {
	m, mv := step(t, NewMetadata(),
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR")

	if mv.Shape != diff.Simple || mv.Mover != board.White {
		t.Fatalf("Expected white simple move, got %s", mv)
	}
	if m.SideToMove != board.Black {
		t.Errorf("Expected black to move, got %s", m.SideToMove)
	}
	if m.HalfMove != 0 {
		t.Errorf("Expected half-move 0, got %d", m.HalfMove)
	}
	if m.FullMove != 1 {
		t.Errorf("Expected full-move 1, got %d", m.FullMove)
	}
	if m.EnPassant.Name() != "e3" {
		t.Errorf("Expected en-passant e3, got %s", m.EnPassant)
	}
}

func TestWhiteKingsideCastleRevokesWhiteRights(t *testing.T) {
	m, mv := step(t, NewMetadata(),
		"r3k2r/8/8/8/8/8/8/R3K2R",
		"r3k2r/8/8/8/8/8/8/R4RK1")

	if mv.Shape != diff.KingsideCastle {
		t.Fatalf("Expected kingside castle, got %s", mv.Shape)
	}
	want := Castling{WhiteKingside: false, WhiteQueenside: false, BlackKingside: true, BlackQueenside: true}
	if m.Castling != want {
		t.Errorf("Expected castling %s, got %s", want, m.Castling)
	}
	if m.HalfMove != 1 {
		t.Errorf("Expected half-move 1 after castling, got %d", m.HalfMove)
	}
}

func TestRookCapturedInPlaceRevokesRight(t *testing.T) {
	meta := NewMetadata()
	meta.SideToMove = board.Black
	meta.HalfMove = 7

	m, mv := step(t, meta,
		"r3k2r/8/8/8/8/8/6b1/R3K2R",
		"r3k2r/8/8/8/8/8/8/R3K2b")

	if mv.Shape != diff.Capture || mv.Mover != board.Black {
		t.Fatalf("Expected black capture, got %s", mv)
	}
	if m.Castling.WhiteKingside {
		t.Error("White kingside right should be revoked after rook captured on h1")
	}
	if !m.Castling.WhiteQueenside || !m.Castling.BlackKingside || !m.Castling.BlackQueenside {
		t.Errorf("Other rights should be untouched, got %s", m.Castling)
	}
	if m.HalfMove != 0 {
		t.Errorf("Expected half-move reset on capture, got %d", m.HalfMove)
	}
	if m.FullMove != 2 {
		t.Errorf("Expected full-move 2 after black move, got %d", m.FullMove)
	}
	if m.SideToMove != board.White {
		t.Errorf("Expected white to move, got %s", m.SideToMove)
	}
}

func TestRookMoveRevokesOneSide(t *testing.T) {
	m, _ := step(t, NewMetadata(),
		"r3k2r/8/8/8/8/8/8/R3K2R",
		"r3k2r/8/8/8/8/8/8/1R2K2R")

	want := Castling{WhiteKingside: true, WhiteQueenside: false, BlackKingside: true, BlackQueenside: true}
	if m.Castling != want {
		t.Errorf("Expected castling %s, got %s", want, m.Castling)
	}
}

func TestCastlingRightsNeverReturn(t *testing.T) {
	m, _ := step(t, NewMetadata(),
		"r3k2r/7p/8/8/8/8/8/R3K2R",
		"r3k2r/7p/8/8/8/8/8/R4K1R")
	if m.Castling.WhiteKingside || m.Castling.WhiteQueenside {
		t.Fatalf("King move should revoke both white rights, got %s", m.Castling)
	}

	// Black moves, then the white king walks back home
	m, _ = step(t, m,
		"r3k2r/7p/8/8/8/8/8/R4K1R",
		"r3k2r/8/7p/8/8/8/8/R4K1R")
	m, _ = step(t, m,
		"r3k2r/8/7p/8/8/8/8/R4K1R",
		"r3k2r/8/7p/8/8/8/8/R3K2R")

	if m.Castling.WhiteKingside || m.Castling.WhiteQueenside {
		t.Errorf("White rights must stay revoked, got %s", m.Castling)
	}
	if !m.Castling.BlackKingside || !m.Castling.BlackQueenside {
		t.Errorf("Black rights should be untouched, got %s", m.Castling)
	}
}

func TestHalfMoveClock(t *testing.T) {
	meta := NewMetadata()
	meta.HalfMove = 4

	m, _ := step(t, meta,
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
		"rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R")
	if m.HalfMove != 5 {
		t.Errorf("Expected half-move 5 after knight move, got %d", m.HalfMove)
	}

	m, _ = step(t, m,
		"rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R",
		"rnbqkbnr/ppp1pppp/8/3p4/8/5N2/PPPPPPPP/RNBQKB1R")
	if m.HalfMove != 0 {
		t.Errorf("Expected half-move 0 after pawn move, got %d", m.HalfMove)
	}
}

func TestEnPassantLivesOneUpdate(t *testing.T) {
	m, _ := step(t, NewMetadata(),
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR")
	if m.EnPassant.Name() != "e3" {
		t.Fatalf("Expected e3, got %s", m.EnPassant)
	}

	m, _ = step(t, m,
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR",
		"rnbqkbnr/ppp1pppp/3p4/8/4P3/8/PPPP1PPP/RNBQKBNR")
	if m.HasEnPassant() {
		t.Errorf("Single pawn step must clear en-passant, got %s", m.EnPassant)
	}

	m2, _ := step(t, NewMetadata(),
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR",
		"rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR")
	if m2.EnPassant.Name() != "c6" {
		t.Errorf("Expected black double push to set c6, got %s", m2.EnPassant)
	}
}

func TestUnrecognizedIsIdentity(t *testing.T) {
	meta := NewMetadata()
	meta.HalfMove = 3
	meta.EnPassant = board.MustSquare("e3")

	got := Update(meta, diff.Move{Shape: diff.Unrecognized}, board.Grid{})
	if got != meta {
		t.Errorf("Expected metadata unchanged, got %+v", got)
	}

	got = Update(meta, diff.Move{Shape: diff.NoChange}, board.Grid{})
	if got != meta {
		t.Errorf("Expected metadata unchanged for no-change, got %+v", got)
	}
}

func TestGameSequenceCounters(t *testing.T) {
	placements := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R",
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R",
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R",
		"r1bqk1nr/pppp1ppp/2n5/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQK2R",
		"r1bqk1nr/pppp1ppp/2n5/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQ1RK1",
		"r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQ1RK1",
	}

	m := NewMetadata()
	prevCastling := m.Castling
	for i := 1; i < len(placements); i++ {
		prevFull := m.FullMove
		var mv diff.Move
		m, mv = step(t, m, placements[i-1], placements[i])

		if m.Castling.Intersect(prevCastling) != m.Castling {
			t.Fatalf("Castling rights grew at ply %d: %s -> %s", i, prevCastling, m.Castling)
		}
		prevCastling = m.Castling

		wantFull := prevFull
		if mv.Mover == board.Black {
			wantFull++
		}
		if m.FullMove != wantFull {
			t.Errorf("Ply %d: expected full-move %d, got %d", i, wantFull, m.FullMove)
		}
		if m.HasEnPassant() && !(mv.IsPawnMove() && abs(mv.To.Row-mv.From.Row) == 2) {
			t.Errorf("Ply %d: en-passant %s set without a double push", i, m.EnPassant)
		}
	}

	if m.SideToMove != board.White {
		t.Errorf("Expected white to move, got %s", m.SideToMove)
	}
	if m.Castling.String() != "kq" {
		t.Errorf("Expected castling kq, got %s", m.Castling)
	}
	if m.HalfMove != 6 || m.FullMove != 5 {
		t.Errorf("Expected counters 6/5, got %d/%d", m.HalfMove, m.FullMove)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestCastlingString(t *testing.T) {
	tests := []struct {
		c        Castling
		expected string
	}{
		{AllCastling, "KQkq"},
		{Castling{}, "-"},
		{Castling{WhiteQueenside: true, BlackKingside: true}, "Qk"},
		{AllCastling.Swap(), "KQkq"},
		{Castling{WhiteKingside: true}.Swap(), "k"},
	}

	for _, tt := range tests {
		if got := tt.c.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestSeedCastling(t *testing.T) {
	tests := []struct {
		placement string
		expected  string
	}{
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR", "KQkq"},
		// white already castled, black king walked to f8
		{"r1bq1k1r/pppp1ppp/2n2n2/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQ1RK1", "-"},
		// only the a8 rook has left home
		{"1rbqkbnr/pppppppp/n7/8/8/8/PPPPPPPP/RNBQKBNR", "KQk"},
	}

	for _, tt := range tests {
		got := SeedCastling(AllCastling, decode(t, tt.placement))
		if got.String() != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.placement, tt.expected, got)
		}
	}

	// Rights never claimed stay off even when the pieces are home
	start := decode(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR")
	if got := SeedCastling(Castling{WhiteKingside: true}, start); got.String() != "K" {
		t.Errorf("Expected K, got %s", got)
	}
}
