package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestParseInfo(t *testing.T) {
	var a Analysis

	parseInfo("info depth 12 seldepth 18 score cp 23 nodes 1000 pv e2e4 e7e5 g1f3", &a)
	if a.Depth != 12 {
		t.Errorf("Expected depth 12, got %d", a.Depth)
	}
	if a.ScoreCP == nil || *a.ScoreCP != 23 {
		t.Errorf("Expected cp 23, got %v", a.ScoreCP)
	}
	if len(a.PV) != 3 || a.PV[0] != "e2e4" {
		t.Errorf("Unexpected pv %v", a.PV)
	}

	parseInfo("info depth 20 score mate -3 pv h7h8q", &a)
	if a.Mate == nil || *a.Mate != -3 {
		t.Errorf("Expected mate -3, got %v", a.Mate)
	}
	if a.ScoreCP != nil {
		t.Error("Mate score should clear centipawn score")
	}

	parseInfo("info string NNUE evaluation enabled", &a)
	if a.Depth != 20 {
		t.Errorf("Info string should not change depth, got %d", a.Depth)
	}
}

func TestParseBestMove(t *testing.T) {
	tests := []struct {
		line, best, ponder string
	}{
		{"bestmove e2e4", "e2e4", ""},
		{"bestmove e7e8q ponder a2a1", "e7e8q", "a2a1"},
		{"bestmove", "", ""},
	}

	for _, tt := range tests {
		best, ponder := parseBestMove(tt.line)
		if best != tt.best || ponder != tt.ponder {
			t.Errorf("%q: expected %s/%s, got %s/%s", tt.line, tt.best, tt.ponder, best, ponder)
		}
	}
}

func TestAnalysisString(t *testing.T) {
	cp, mate := -150, 2
	if got := (Analysis{BestMove: "e2e4", ScoreCP: &cp}).String(); got != "e2e4 (-1.50)" {
		t.Errorf("Unexpected %s", got)
	}
	if got := (Analysis{BestMove: "d1h5", Mate: &mate}).String(); got != "d1h5 (mate 2)" {
		t.Errorf("Unexpected %s", got)
	}
}

const fakeEngine = `#!/bin/sh
while read line; do
  case "$line" in
    uci) echo "id name FakeFish"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) echo "info depth 1 score cp 13 pv d2d4"
         echo "info depth 2 score cp 31 pv e2e4 e7e5"
         echo "bestmove e2e4 ponder e7e5" ;;
    quit) exit 0 ;;
  esac
done
`

func writeFakeEngine(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "fakefish")
	if err := os.WriteFile(path, []byte(fakeEngine), 0o755); err != nil {
		t.Fatalf("Failed to write fake engine: %v", err)
	}
	return path
}

func TestUCIEngineAnalyze(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	e, err := NewUCIEngine(ctx, writeFakeEngine(t), Limits{Depth: 2}, nil)
	if err != nil {
		t.Fatalf("NewUCIEngine failed: %v", err)
	}
	defer e.Close()

	if err := e.NewGame(ctx); err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	a, err := e.Analyze(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if a.BestMove != "e2e4" || a.Ponder != "e7e5" {
		t.Errorf("Expected e2e4 ponder e7e5, got %s ponder %s", a.BestMove, a.Ponder)
	}
	if a.ScoreCP == nil || *a.ScoreCP != 31 {
		t.Errorf("Expected last score cp 31, got %v", a.ScoreCP)
	}
	if a.Depth != 2 {
		t.Errorf("Expected depth 2, got %d", a.Depth)
	}

	// a second search on the same process
	if _, err := e.Analyze(ctx, "8/8/8/4k3/8/8/4K3/8 w - - 0 1"); err != nil {
		t.Errorf("Second analyze failed: %v", err)
	}
}

func TestUCIEngineMissingBinary(t *testing.T) {
	_, err := NewUCIEngine(context.Background(), filepath.Join(t.TempDir(), "missing"), Limits{}, nil)
	if err == nil {
		t.Error("Expected error for missing engine binary")
	}
}
