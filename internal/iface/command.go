package iface

import (
	"fmt"
	"strings"

	"github.com/thyrook/fentrack/internal/board"
)

// CommandKind is an interactive command typed while tracking
type CommandKind int

const (
	CmdPOV CommandKind = iota
	CmdReset
	CmdFEN
	CmdPGN
	CmdBoard
	CmdHistory
	CmdStats
	CmdHelp
	CmdQuit
)

// Command is one parsed input line
type Command struct {
	Kind CommandKind
	POV  board.Color
}

// ParseCommand reads a line such as "[black]", "white", "reset" or "fen".
// Brackets around the word are optional.
func ParseCommand(line string) (Command, error) {
	word := strings.ToLower(strings.TrimSpace(line))
	word = strings.TrimSuffix(strings.TrimPrefix(word, "["), "]")
	word = strings.TrimSpace(word)

	switch word {
	case "w", "white":
		return Command{Kind: CmdPOV, POV: board.White}, nil
	case "b", "black":
		return Command{Kind: CmdPOV, POV: board.Black}, nil
	case "reset", "new":
		return Command{Kind: CmdReset}, nil
	case "fen":
		return Command{Kind: CmdFEN}, nil
	case "pgn":
		return Command{Kind: CmdPGN}, nil
	case "board":
		return Command{Kind: CmdBoard}, nil
	case "history", "log":
		return Command{Kind: CmdHistory}, nil
	case "stats":
		return Command{Kind: CmdStats}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", strings.TrimSpace(line))
}

// CommandHelp lists the accepted commands
const CommandHelp = `Commands:
  [white] | [black]  set which side is at the bottom of the screen
  reset              forget the game; the next settled board starts a new one
  fen                print the current position
  pgn                print the recorded game
  board              draw the current position
  history            list the last journaled positions
  stats              print counters
  quit               stop tracking`
