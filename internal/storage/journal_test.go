package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/thyrook/fentrack/internal/board"
	"github.com/thyrook/fentrack/internal/diff"
	"github.com/thyrook/fentrack/internal/session"
)

func openJournal(t *testing.T, maxSize int) (*Journal, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(dbPath, maxSize)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	return j, dbPath
}

func entry(i int) Entry {
	return Entry{
		Seq:       uint64(i),
		FEN:       fmt.Sprintf("8/8/8/8/8/8/8/8 w - - 0 %d", i),
		Kind:      "moved",
		Timestamp: int64(i),
	}
}

func TestOpenJournal(t *testing.T) {
	j, dbPath := openJournal(t, 100)
	defer j.Close()

	count, err := j.Count()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected initial count 0, got %d", count)
	}

	stats, _ := j.Stats()
	if stats.DBPath != dbPath || stats.MaxSize != 100 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), 0); err == nil {
		t.Error("Expected error for zero size")
	}
}

func TestAppendAndRecent(t *testing.T) {
	j, _ := openJournal(t, 100)
	defer j.Close()

	for i := 1; i <= 5; i++ {
		if err := j.Append(entry(i)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	recent, err := j.Recent(3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(recent))
	}
	for i, e := range recent {
		if e.Seq != uint64(3+i) {
			t.Errorf("Entry %d: expected seq %d, got %d", i, 3+i, e.Seq)
		}
	}

	all, _ := j.Recent(0)
	if len(all) != 5 {
		t.Errorf("Expected all 5 entries, got %d", len(all))
	}
}

func TestCircularBuffer(t *testing.T) {
	maxSize := 10
	j, _ := openJournal(t, maxSize)
	defer j.Close()

	total := 25
	for i := 1; i <= total; i++ {
		if err := j.Append(entry(i)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	count, _ := j.Count()
	if count != uint64(total) {
		t.Errorf("Expected count %d, got %d", total, count)
	}

	stats, _ := j.Stats()
	if stats.Held != maxSize || !stats.IsWrapped {
		t.Errorf("Expected wrapped journal holding %d, got %+v", maxSize, stats)
	}

	recent, err := j.Recent(100)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != maxSize {
		t.Fatalf("Expected %d entries, got %d", maxSize, len(recent))
	}
	for i, e := range recent {
		want := uint64(total - maxSize + 1 + i)
		if e.Seq != want {
			t.Errorf("Entry %d: expected seq %d, got %d", i, want, e.Seq)
		}
	}
}

func TestPersistence(t *testing.T) {
	j, dbPath := openJournal(t, 10)
	for i := 1; i <= 5; i++ {
		j.Append(entry(i))
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dbPath, 10)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	count, _ := reopened.Count()
	if count != 5 {
		t.Errorf("Expected count 5 after reopen, got %d", count)
	}

	reopened.Append(entry(6))
	recent, _ := reopened.Recent(2)
	if len(recent) != 2 || recent[0].Seq != 5 || recent[1].Seq != 6 {
		t.Errorf("Unexpected entries after reopen: %+v", recent)
	}
}

func TestClosedJournal(t *testing.T) {
	j, _ := openJournal(t, 10)
	j.Close()

	if err := j.Append(entry(1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := j.Recent(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
}

func TestEmitFromSession(t *testing.T) {
	j, _ := openJournal(t, 10)
	defer j.Close()

	var sink session.Sink = j
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := sink.Emit(context.Background(), session.Emission{
		Seq:   2,
		FEN:   "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		Kind:  session.Moved,
		Move:  "e2e4",
		Shape: diff.Simple,
		Mover: board.White,
		POV:   board.White,
		At:    at,
	})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	recent, _ := j.Recent(1)
	if len(recent) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(recent))
	}
	e := recent[0]
	if e.Move != "e2e4" || e.Kind != "moved" || e.Shape != diff.Simple.String() {
		t.Errorf("Unexpected entry %+v", e)
	}
	if e.Timestamp != at.UnixMilli() {
		t.Errorf("Expected timestamp %d, got %d", at.UnixMilli(), e.Timestamp)
	}
}

func TestEmitStoresStandardOrientation(t *testing.T) {
	j, _ := openJournal(t, 10)
	defer j.Close()

	position := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	view := "RNBKQBNR/PPP1PPPP/8/3P4/8/8/pppppppp/rnbkqbnr b KQkq d6 0 1"
	err := j.Emit(context.Background(), session.Emission{
		Seq:      2,
		FEN:      view,
		Position: position,
		Kind:     session.Moved,
		Move:     "e2e4",
		Shape:    diff.Simple,
		Mover:    board.White,
		POV:      board.Black,
	})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	err = j.Emit(context.Background(), session.Emission{
		Seq:      3,
		FEN:      "RNBKQBNR/PPP1PPPP/8/3P4/8/8/pppppppp/rnbkqbn1 b KQkq - 0 1",
		Position: "1nbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		Kind:     session.Unrecognized,
		Shape:    diff.Unrecognized,
		POV:      board.Black,
	})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	recent, _ := j.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(recent))
	}
	if recent[0].FEN != position || recent[0].View != view {
		t.Errorf("Expected fen %s and view %s, got %+v", position, view, recent[0])
	}
	if recent[1].Shape != diff.Unrecognized.String() {
		t.Errorf("Expected unrecognized shape, got %q", recent[1].Shape)
	}
}
