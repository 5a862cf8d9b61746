// Package engine talks to an external UCI move-search engine, handing it each
// reconstructed position and reading back the best move and evaluation.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotReady is returned when the engine failed its handshake or was closed
var ErrNotReady = errors.New("engine not ready")

// Limits bounds one search. Depth wins when both are set.
type Limits struct {
	Depth    int
	MoveTime time.Duration
}

// Analysis is the engine's verdict on a position
type Analysis struct {
	BestMove string
	Ponder   string
	// ScoreCP is set for centipawn scores, Mate for forced mates (negative when being mated)
	ScoreCP *int
	Mate    *int
	Depth   int
	PV      []string
}

// String formats the score the way engines print it
func (a Analysis) String() string {
	switch {
	case a.Mate != nil:
		return fmt.Sprintf("%s (mate %d)", a.BestMove, *a.Mate)
	case a.ScoreCP != nil:
		return fmt.Sprintf("%s (%+.2f)", a.BestMove, float64(*a.ScoreCP)/100)
	default:
		return a.BestMove
	}
}

// UCIEngine starts the engine process and speaks UCI over stdin/stdout
type UCIEngine struct {
	cmd    *exec.Cmd
	in     *bufio.Writer
	out    *bufio.Scanner
	stdin  io.Closer
	limits Limits
	logger *zap.Logger

	mu    sync.Mutex
	ready bool
}

// NewUCIEngine starts path and completes the uci/isready handshake
func NewUCIEngine(ctx context.Context, path string, limits Limits, logger *zap.Logger) (*UCIEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	e := &UCIEngine{
		cmd:    cmd,
		in:     bufio.NewWriter(stdin),
		out:    bufio.NewScanner(stdout),
		stdin:  stdin,
		limits: limits,
		logger: logger,
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	var name string
	err = e.withContext(ctx, func() error {
		if err := e.send("uci"); err != nil {
			return err
		}
		for e.out.Scan() {
			line := e.out.Text()
			if strings.HasPrefix(line, "id name ") {
				name = strings.TrimPrefix(line, "id name ")
			}
			if line == "uciok" {
				return e.waitReady()
			}
		}
		return unexpectedEOF(e.out.Err())
	})
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, fmt.Errorf("engine handshake failed: %w", err)
	}

	e.ready = true
	logger.Info("Engine ready", zap.String("name", name), zap.String("path", path))
	return e, nil
}

// NewGame tells the engine a new game starts
func (e *UCIEngine) NewGame(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return ErrNotReady
	}
	return e.withContext(ctx, func() error {
		if err := e.send("ucinewgame"); err != nil {
			return err
		}
		return e.waitReady()
	})
}

// Analyze searches fen within the configured limits
func (e *UCIEngine) Analyze(ctx context.Context, fen string) (Analysis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return Analysis{}, ErrNotReady
	}

	if err := e.send("position fen " + fen); err != nil {
		return Analysis{}, err
	}

	goCmd := "go movetime 1000"
	switch {
	case e.limits.Depth > 0:
		goCmd = fmt.Sprintf("go depth %d", e.limits.Depth)
	case e.limits.MoveTime > 0:
		goCmd = fmt.Sprintf("go movetime %d", e.limits.MoveTime.Milliseconds())
	}
	if err := e.send(goCmd); err != nil {
		return Analysis{}, err
	}

	var a Analysis
	err := e.withContext(ctx, func() error {
		for e.out.Scan() {
			line := e.out.Text()
			if strings.HasPrefix(line, "bestmove ") {
				a.BestMove, a.Ponder = parseBestMove(line)
				return nil
			}
			parseInfo(line, &a)
		}
		return unexpectedEOF(e.out.Err())
	})
	if err != nil {
		return Analysis{}, err
	}

	e.logger.Debug("Analysis complete",
		zap.String("fen", fen),
		zap.String("best", a.BestMove),
		zap.Int("depth", a.Depth))

	return a, nil
}

// withContext runs fn, sending "stop" if ctx ends first. fn keeps reading
// until the engine answers so the stream stays in sync.
func (e *UCIEngine) withContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = e.send("stop")
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			e.ready = false
		}
		return ctx.Err()
	}
}

func (e *UCIEngine) waitReady() error {
	if err := e.send("isready"); err != nil {
		return err
	}
	for e.out.Scan() {
		if e.out.Text() == "readyok" {
			return nil
		}
	}
	return unexpectedEOF(e.out.Err())
}

// Close sends quit and waits for the process
func (e *UCIEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ready = false
	_ = e.send("quit")
	e.stdin.Close()
	return e.cmd.Wait()
}

func (e *UCIEngine) send(cmd string) error {
	if _, err := fmt.Fprintln(e.in, cmd); err != nil {
		return err
	}
	return e.in.Flush()
}

func unexpectedEOF(err error) error {
	if err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

// parseBestMove reads "bestmove e2e4 [ponder e7e5]"
func parseBestMove(line string) (best, ponder string) {
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		best = fields[1]
	}
	if len(fields) >= 4 && fields[2] == "ponder" {
		ponder = fields[3]
	}
	return best, ponder
}

// parseInfo folds one "info ..." line into a. Lines without a score are ignored.
func parseInfo(line string, a *Analysis) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return
	}

	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				if d, err := strconv.Atoi(fields[i+1]); err == nil {
					a.Depth = d
				}
				i++
			}
		case "score":
			if i+2 < len(fields) {
				v, err := strconv.Atoi(fields[i+2])
				if err == nil {
					switch fields[i+1] {
					case "cp":
						a.ScoreCP, a.Mate = &v, nil
					case "mate":
						a.Mate, a.ScoreCP = &v, nil
					}
				}
				i += 2
			}
		case "pv":
			a.PV = append([]string(nil), fields[i+1:]...)
			return
		}
	}
}
