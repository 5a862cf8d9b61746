package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/thyrook/fentrack/internal/board"
)

const squares = board.Size * board.Size

// ErrLowConfidence is returned when a square's best label is too uncertain to trust
var ErrLowConfidence = errors.New("classification confidence below minimum")

// Classifier turns a board image into a piece grid
type Classifier interface {
	Classify(ctx context.Context, frame image.Image) (board.Grid, error)
}

// LogitsModel produces raw per-square scores, shaped [8, 8, 13] or [64, 13]
// with labels in board.Piece order.
type LogitsModel interface {
	Logits(ctx context.Context, frame image.Image) (tensor.Tensor, error)
}

// LogitsClassifier decodes model logits into a grid by per-square softmax and argmax
type LogitsClassifier struct {
	model         LogitsModel
	minConfidence float64

	g     *gorgonia.ExprGraph
	input *gorgonia.Node // [64, 13]
	probs *gorgonia.Node
	vm    gorgonia.VM
	mu    sync.Mutex
}

// NewLogitsClassifier builds the softmax graph. minConfidence of zero accepts every square.
func NewLogitsClassifier(model LogitsModel, minConfidence float64) (*LogitsClassifier, error) {
	if minConfidence < 0 || minConfidence > 1 {
		return nil, fmt.Errorf("min confidence must be in [0, 1], got %v", minConfidence)
	}

	g := gorgonia.NewGraph()
	input := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(squares, int(board.NumPieces)),
		gorgonia.WithName("logits"))

	probs, err := gorgonia.SoftMax(input)
	if err != nil {
		return nil, fmt.Errorf("failed to build softmax: %w", err)
	}

	return &LogitsClassifier{
		model:         model,
		minConfidence: minConfidence,
		g:             g,
		input:         input,
		probs:         probs,
		vm:            gorgonia.NewTapeMachine(g),
	}, nil
}

// Classify runs the model and decodes its output
func (c *LogitsClassifier) Classify(ctx context.Context, frame image.Image) (board.Grid, error) {
	if c.model == nil {
		return board.Grid{}, errors.New("no logits model configured")
	}
	logits, err := c.model.Logits(ctx, frame)
	if err != nil {
		return board.Grid{}, err
	}
	grid, _, err := c.Decode(logits)
	return grid, err
}

// Decode converts logits to a grid and the winning probability of each square
func (c *LogitsClassifier) Decode(logits tensor.Tensor) (board.Grid, []float64, error) {
	var grid board.Grid

	data, err := flattenLogits(logits)
	if err != nil {
		return grid, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	in := tensor.New(
		tensor.WithShape(squares, int(board.NumPieces)),
		tensor.WithBacking(data),
	)
	if err := gorgonia.Let(c.input, in); err != nil {
		return grid, nil, fmt.Errorf("failed to set input: %w", err)
	}
	defer c.vm.Reset()

	if err := c.vm.RunAll(); err != nil {
		return grid, nil, fmt.Errorf("failed to run softmax: %w", err)
	}

	out := c.probs.Value()
	if out == nil {
		return grid, nil, errors.New("softmax output is nil")
	}
	probs, ok := out.Data().([]float64)
	if !ok || len(probs) != len(data) {
		return grid, nil, fmt.Errorf("unexpected softmax output %T", out.Data())
	}

	confidence := make([]float64, squares)
	labels := int(board.NumPieces)
	for i := 0; i < squares; i++ {
		row := probs[i*labels : (i+1)*labels]
		best := 0
		for k := 1; k < labels; k++ {
			if row[k] > row[best] {
				best = k
			}
		}
		grid[i/board.Size][i%board.Size] = board.Piece(best)
		confidence[i] = row[best]
	}

	for i, p := range confidence {
		if p < c.minConfidence {
			sq := board.Sq(i/board.Size, i%board.Size)
			return grid, confidence, fmt.Errorf("%w: %s at %.3f", ErrLowConfidence, sq, p)
		}
	}

	return grid, confidence, nil
}

// flattenLogits checks the shape and returns a float64 copy of the data
func flattenLogits(t tensor.Tensor) ([]float64, error) {
	if t == nil {
		return nil, errors.New("nil logits")
	}

	shape := t.Shape()
	labels := int(board.NumPieces)
	switch {
	case len(shape) == 3 && shape[0] == board.Size && shape[1] == board.Size && shape[2] == labels:
	case len(shape) == 2 && shape[0] == squares && shape[1] == labels:
	default:
		return nil, fmt.Errorf("unexpected logits shape %v", shape)
	}

	out := make([]float64, squares*labels)
	switch d := t.Data().(type) {
	case []float64:
		copy(out, d)
	case []float32:
		for i, v := range d {
			out[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unsupported logits type %T", d)
	}
	return out, nil
}
