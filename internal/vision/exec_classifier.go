package vision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"

	"github.com/thyrook/fentrack/internal/board"
)

// ExecClassifier drives an external classifier process. For every frame it
// writes a PNG and sends its path on one line; the process answers with one
// line holding either a placement string or 832 space-separated logits.
type ExecClassifier struct {
	cmd     *exec.Cmd
	in      *bufio.Writer
	stdin   io.Closer
	lines   chan string
	workDir string
	logger  *zap.Logger

	mu      sync.Mutex
	seq     int
	pending int // replies owed to cancelled requests
}

// NewExecClassifier starts the classifier process
func NewExecClassifier(command []string, workDir string, logger *zap.Logger) (*ExecClassifier, error) {
	if len(command) == 0 {
		return nil, errors.New("empty classifier command")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if workDir == "" {
		workDir = os.TempDir()
	}

	cmd := exec.Command(command[0], command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start classifier: %w", err)
	}

	c := &ExecClassifier{
		cmd:     cmd,
		in:      bufio.NewWriter(stdin),
		stdin:   stdin,
		lines:   make(chan string),
		workDir: workDir,
		logger:  logger,
	}

	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			c.lines <- line
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("Classifier output ended", zap.Error(err))
		}
	}()

	logger.Info("Classifier started",
		zap.Strings("command", command),
		zap.Int("pid", cmd.Process.Pid))

	return c, nil
}

// Classify asks the process for a placement
func (c *ExecClassifier) Classify(ctx context.Context, frame image.Image) (board.Grid, error) {
	line, err := c.request(ctx, frame)
	if err != nil {
		return board.Grid{}, err
	}
	return board.Decode(line)
}

// Logits asks the process for raw scores, shaped [8, 8, 13]
func (c *ExecClassifier) Logits(ctx context.Context, frame image.Image) (tensor.Tensor, error) {
	line, err := c.request(ctx, frame)
	if err != nil {
		return nil, err
	}

	fields := strings.Fields(line)
	want := squares * board.NumPieces
	if len(fields) != want {
		return nil, fmt.Errorf("expected %d logits, got %d", want, len(fields))
	}

	data := make([]float64, want)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("logit %d: %w", i, err)
		}
		data[i] = v
	}

	return tensor.New(
		tensor.WithShape(board.Size, board.Size, board.NumPieces),
		tensor.WithBacking(data),
	), nil
}

func (c *ExecClassifier) request(ctx context.Context, frame image.Image) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.pending > 0 {
		if _, err := c.next(ctx); err != nil {
			return "", err
		}
		c.pending--
	}

	c.seq++
	path := filepath.Join(c.workDir, fmt.Sprintf("fentrack-frame-%d.png", c.seq%2))
	if err := writeFrame(path, frame); err != nil {
		return "", err
	}

	if _, err := fmt.Fprintln(c.in, path); err != nil {
		return "", fmt.Errorf("failed to send frame: %w", err)
	}
	if err := c.in.Flush(); err != nil {
		return "", fmt.Errorf("failed to send frame: %w", err)
	}

	line, err := c.next(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.pending++
	}
	return line, err
}

func (c *ExecClassifier) next(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", errors.New("classifier exited")
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func writeFrame(path string, frame image.Image) error {
	if frame == nil {
		return errors.New("nil frame")
	}
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to write frame to %s", path)
	}
	return nil
}

// Close stops the process
func (c *ExecClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stdin.Close()
	for range c.lines {
	}
	return c.cmd.Wait()
}
