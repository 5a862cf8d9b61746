package iface

import (
	"testing"

	"github.com/thyrook/fentrack/internal/board"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		kind CommandKind
		pov  board.Color
	}{
		{"[white]", CmdPOV, board.White},
		{"[black]\n", CmdPOV, board.Black},
		{"  Black ", CmdPOV, board.Black},
		{"[ b ]", CmdPOV, board.Black},
		{"w", CmdPOV, board.White},
		{"reset", CmdReset, 0},
		{"FEN", CmdFEN, 0},
		{"pgn", CmdPGN, 0},
		{"board", CmdBoard, 0},
		{"History", CmdHistory, 0},
		{"stats", CmdStats, 0},
		{"?", CmdHelp, 0},
		{"quit", CmdQuit, 0},
	}

	for _, tt := range tests {
		cmd, err := ParseCommand(tt.line)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.line, err)
			continue
		}
		if cmd.Kind != tt.kind {
			t.Errorf("%q: expected kind %d, got %d", tt.line, tt.kind, cmd.Kind)
		}
		if tt.kind == CmdPOV && cmd.POV != tt.pov {
			t.Errorf("%q: expected %v, got %v", tt.line, tt.pov, cmd.POV)
		}
	}

	for _, bad := range []string{"", "[red]", "e2e4"} {
		if _, err := ParseCommand(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
