package iface

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/thyrook/fentrack/internal/board"
	"github.com/thyrook/fentrack/internal/config"
	"github.com/thyrook/fentrack/internal/engine"
	"github.com/thyrook/fentrack/internal/session"
	"github.com/thyrook/fentrack/internal/storage"
)

// CLI provides command-line interface utilities
type CLI struct {
	config *config.Config
	quiet  bool
	out    io.Writer
	mu     sync.Mutex
}

// NewCLI creates a new CLI interface printing to stdout
func NewCLI(cfg *config.Config, quiet bool) *CLI {
	return &CLI{
		config: cfg,
		quiet:  quiet,
		out:    os.Stdout,
	}
}

// PrintBanner displays the application banner
func (c *CLI) PrintBanner() {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, strings.Repeat("=", 60))
	fmt.Fprintf(c.out, "  %s %s  board tracker\n", c.config.AppName, c.config.Version)
	fmt.Fprintln(c.out, strings.Repeat("=", 60))
	fmt.Fprintln(c.out, c.config.String())
	fmt.Fprintln(c.out, "Type [white] or [black] to switch point of view. Ctrl+C stops.")
	fmt.Fprintln(c.out)
}

// PrintStatus prints a status message
func (c *CLI) PrintStatus(message string, level string) {
	if c.quiet && level != "error" {
		return
	}

	var prefix string
	switch level {
	case "info":
		prefix = "ℹ"
	case "success":
		prefix = "✓"
	case "warning":
		prefix = "⚠"
	case "error":
		prefix = "✗"
	default:
		prefix = "•"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", prefix, message)
}

// FormatEmission renders one emission as a single status line
func FormatEmission(e session.Emission) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] #%d ", e.At.Format("15:04:05"), e.Seq)
	switch e.Kind {
	case session.Moved:
		fmt.Fprintf(&sb, "%s %s (%s) ", e.Mover, e.Move, e.Shape)
	default:
		fmt.Fprintf(&sb, "%s ", e.Kind)
	}
	sb.WriteString(e.FEN)
	return sb.String()
}

// PrintEmission prints a reconstructed position. Quiet mode leaves bare
// FENs to a session.WriterSink.
func (c *CLI) PrintEmission(e session.Emission) {
	if c.quiet {
		return
	}

	line := FormatEmission(e)
	color := ColorGreen
	switch e.Kind {
	case session.Seeded:
		color = ColorCyan
	case session.Unrecognized:
		color = ColorYellow
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.Colorize(line, color))
}

// Emit lets the CLI act as an emission sink
func (c *CLI) Emit(ctx context.Context, e session.Emission) error {
	c.PrintEmission(e)
	return nil
}

// PrintAnalysis prints the engine's suggestion and where to click for it
func (c *CLI) PrintAnalysis(a engine.Analysis, from, to image.Point) {
	if c.quiet {
		return
	}

	lines := []string{
		fmt.Sprintf("Best move: %s", a),
		fmt.Sprintf("Depth:     %d", a.Depth),
	}
	if a.Ponder != "" {
		lines = append(lines, fmt.Sprintf("Ponder:    %s", a.Ponder))
	}
	if len(a.PV) > 0 {
		lines = append(lines, fmt.Sprintf("Line:      %s", strings.Join(a.PV, " ")))
	}
	lines = append(lines, fmt.Sprintf("Click:     (%d,%d) -> (%d,%d)", from.X, from.Y, to.X, to.Y))

	c.PrintBox("ENGINE", lines)
}

// PrintBoard draws a grid the way the viewer sees it
func (c *CLI) PrintBoard(g board.Grid, pov board.Color) {
	if c.quiet {
		return
	}
	c.PrintBox(strings.ToUpper(pov.String())+" VIEW", boardLines(g, pov))
}

// BoardView is the live position as the session holds it
type BoardView interface {
	// Grid is in standard orientation, white on ranks 1 and 2
	Grid() (board.Grid, bool)
	POV() board.Color
}

// PrintCurrentBoard draws v's position for the viewer
func (c *CLI) PrintCurrentBoard(v BoardView) {
	g, ok := v.Grid()
	if !ok {
		c.PrintStatus("No position yet", "warning")
		return
	}
	c.PrintBoard(g, v.POV())
}

// PrintHistory lists journaled positions, oldest first
func (c *CLI) PrintHistory(entries []storage.Entry) {
	if len(entries) == 0 {
		c.PrintStatus("Journal is empty", "warning")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprint(e.Seq),
			time.UnixMilli(e.Timestamp).Format("15:04:05"),
			e.Kind,
			e.Move,
			e.FEN,
		})
	}
	c.PrintTable([]string{"#", "Time", "Kind", "Move", "FEN"}, rows)
}

// boardLines renders g with the pov side at the bottom
func boardLines(g board.Grid, pov board.Color) []string {
	files := "a b c d e f g h"
	if pov == board.Black {
		files = "h g f e d c b a"
	}
	lines := []string{"  " + files}
	for i := 0; i < board.Size; i++ {
		row := i
		if pov == board.Black {
			row = board.Size - 1 - i
		}
		var sb strings.Builder
		rank := byte('8' - row)
		sb.WriteByte(rank)
		for j := 0; j < board.Size; j++ {
			col := j
			if pov == board.Black {
				col = board.Size - 1 - j
			}
			sb.WriteByte(' ')
			sb.WriteByte(g[row][col].Letter())
		}
		sb.WriteByte(' ')
		sb.WriteByte(rank)
		lines = append(lines, sb.String())
	}
	return append(lines, "  "+files)
}

// PrintSessionStats prints the session and capture counters
func (c *CLI) PrintSessionStats(s session.Stats, p session.ProducerStats) {
	c.PrintTable(
		[]string{"Counter", "Value"},
		[][]string{
			{"Frames captured", fmt.Sprint(p.Frames)},
			{"Capture errors", fmt.Sprint(p.ReadErrors)},
			{"Last classify", p.LastClassify.Round(time.Millisecond).String()},
			{"Frames processed", fmt.Sprint(s.Frames)},
			{"Stable frames", fmt.Sprint(s.Stable)},
			{"Moves", fmt.Sprint(s.Moves)},
			{"Unrecognized", fmt.Sprint(s.Unrecognized)},
			{"Emissions", fmt.Sprint(s.Emissions)},
			{"Duplicates", fmt.Sprint(s.Duplicates)},
			{"Unreadable", fmt.Sprint(s.ReadErrors)},
			{"Invalid grids", fmt.Sprint(s.InvalidGrids)},
		},
	)
}

// PrintError prints an error message
func (c *CLI) PrintError(err error) {
	c.PrintStatus(fmt.Sprintf("Error: %v", err), "error")
}

// PrintWarning prints a warning message
func (c *CLI) PrintWarning(message string) {
	c.PrintStatus(message, "warning")
}

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// Colorize applies color to text if terminal supports it
func (c *CLI) Colorize(text string, color string) string {
	if c.quiet || os.Getenv("NO_COLOR") != "" {
		return text
	}
	return color + text + ColorReset
}

// PrintTable prints data in a formatted table
func (c *CLI) PrintTable(headers []string, rows [][]string) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Calculate column widths
	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	fmt.Fprintln(c.out)
	for i, h := range headers {
		fmt.Fprintf(c.out, "%-*s  ", colWidths[i], h)
	}
	fmt.Fprintln(c.out)

	for _, w := range colWidths {
		fmt.Fprint(c.out, strings.Repeat("─", w+2))
	}
	fmt.Fprintln(c.out)

	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) {
				fmt.Fprintf(c.out, "%-*s  ", colWidths[i], cell)
			}
		}
		fmt.Fprintln(c.out)
	}
	fmt.Fprintln(c.out)
}

// PrintBox prints text in a box
func (c *CLI) PrintBox(title string, lines []string) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	maxWidth := len(title)
	for _, line := range lines {
		if len(line) > maxWidth {
			maxWidth = len(line)
		}
	}

	width := maxWidth + 4 // Padding

	fmt.Fprintln(c.out, "┌"+strings.Repeat("─", width)+"┐")

	padding := (width - len(title)) / 2
	fmt.Fprintf(c.out, "│%s%s%s│\n",
		strings.Repeat(" ", padding),
		c.Colorize(title, ColorBold),
		strings.Repeat(" ", width-padding-len(title)))

	fmt.Fprintln(c.out, "├"+strings.Repeat("─", width)+"┤")

	for _, line := range lines {
		fmt.Fprintf(c.out, "│ %-*s │\n", width-2, line)
	}

	fmt.Fprintln(c.out, "└"+strings.Repeat("─", width)+"┘")
}
