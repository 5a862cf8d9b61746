package diff

import (
	"fmt"

	"github.com/thyrook/fentrack/internal/board"
)

// Shape is the move pattern a diff was classified as
type Shape int

const (
	NoChange Shape = iota
	Simple
	Capture
	EnPassant
	KingsideCastle
	QueensideCastle
	Unrecognized
)

func (s Shape) String() string {
	switch s {
	case NoChange:
		return "no-change"
	case Simple:
		return "simple"
	case Capture:
		return "capture"
	case EnPassant:
		return "en-passant"
	case KingsideCastle:
		return "kingside-castle"
	case QueensideCastle:
		return "queenside-castle"
	}
	return "unrecognized"
}

// Accepted reports whether the shape represents a move the tracker should apply
func (s Shape) Accepted() bool {
	return s != NoChange && s != Unrecognized
}

// Move is a classified diff. For castling, From/To are the king's squares
// and RookFrom/RookTo the rook's.
type Move struct {
	Shape      Shape
	Mover      board.Color
	Piece      board.Piece // piece that left From
	Landed     board.Piece // piece observed on To afterwards
	From       board.Square
	To         board.Square
	RookFrom   board.Square
	RookTo     board.Square
	Captured   board.Piece
	CapturedAt board.Square
}

// IsPawnMove reports whether a pawn was the moving piece
func (m Move) IsPawnMove() bool {
	return m.Piece.Kind() == board.Pawn
}

// IsCapture reports whether an enemy piece left the board
func (m Move) IsCapture() bool {
	return m.Shape == Capture || m.Shape == EnPassant
}

// Promotion returns the promoted piece, Empty when the move is not a promotion
func (m Move) Promotion() board.Piece {
	if m.IsPawnMove() && m.To.Row == board.HomeRow(m.Mover.Opposite()) &&
		m.Landed.Kind() != board.Pawn && m.Landed.Kind() != board.NoKind {
		return m.Landed
	}
	return board.Empty
}

// Token returns the four-character from+to token (e.g., "e2e4")
func (m Move) Token() string {
	if !m.Shape.Accepted() {
		return ""
	}
	return m.From.Name() + m.To.Name()
}

// UCI returns the token with a promotion suffix when needed
func (m Move) UCI() string {
	tok := m.Token()
	if promo := m.Promotion(); promo != board.Empty && tok != "" {
		tok += string(board.MakePiece(board.Black, promo.Kind()).Letter())
	}
	return tok
}

func (m Move) String() string {
	if !m.Shape.Accepted() {
		return m.Shape.String()
	}
	return fmt.Sprintf("%s %s %s", m.Mover, m.Shape, m.UCI())
}

// Classify compares two stable grids and names the move between them.
// It never guesses: shapes outside the known set come back as Unrecognized
// together with an error wrapping ErrUnrecognizedDiff or ErrAmbiguousMoverColor.
func Classify(before, after board.Grid) (Move, error) {
	changes := Changes(before, after)

	var (
		mv  Move
		err error
	)
	switch len(changes) {
	case 0:
		return Move{Shape: NoChange}, nil
	case 2:
		mv, err = classifyTwo(changes)
	case 3:
		mv, err = classifyEnPassant(changes)
	case 4:
		mv, err = classifyCastle(changes)
	default:
		err = fmt.Errorf("%w: %d changed squares", ErrUnrecognizedDiff, len(changes))
	}
	if err != nil {
		return Move{Shape: Unrecognized}, err
	}
	return mv, nil
}

// classifyTwo handles simple moves and direct captures
func classifyTwo(changes []CellChange) (Move, error) {
	vacated, landed := split(changes)
	if len(vacated) != 1 || len(landed) != 1 {
		return Move{}, fmt.Errorf("%w: two changes without a vacated/landed pair", ErrUnrecognizedDiff)
	}
	from, to := vacated[0], landed[0]

	mover := from.Before.Color()
	if mover == board.NoColor {
		mover = to.After.Color()
	}
	if mover == board.NoColor || to.After.Color() != mover {
		return Move{}, fmt.Errorf("%w: %s left %s but %s arrived on %s",
			ErrAmbiguousMoverColor, from.Before, from.Square, to.After, to.Square)
	}

	mv := Move{
		Shape:  Simple,
		Mover:  mover,
		Piece:  from.Before,
		Landed: to.After,
		From:   from.Square,
		To:     to.Square,
	}
	if to.Kind == Replaced {
		if to.Before.Color() != mover.Opposite() {
			return Move{}, fmt.Errorf("%w: %s replaced own piece on %s",
				ErrAmbiguousMoverColor, to.After, to.Square)
		}
		mv.Shape = Capture
		mv.Captured = to.Before
		mv.CapturedAt = to.Square
	}
	return mv, nil
}

// forward is the row delta of a pawn advance for the given color
func forward(c board.Color) int {
	if c == board.White {
		return -1
	}
	return 1
}

// enPassantRow is the row a pawn must stand on to capture en passant
func enPassantRow(c board.Color) int {
	if c == board.White {
		return 3 // rank 5
	}
	return 4 // rank 4
}

// classifyEnPassant matches: own pawn and adjacent enemy pawn vacate the same rank,
// own pawn appears one rank further on the enemy pawn's file.
func classifyEnPassant(changes []CellChange) (Move, error) {
	vacated, landed := split(changes)
	if len(vacated) != 2 || len(landed) != 1 || landed[0].Kind != Occupied {
		return Move{}, fmt.Errorf("%w: three changes that are not an en-passant capture", ErrUnrecognizedDiff)
	}
	to := landed[0]
	if to.After.Kind() != board.Pawn {
		return Move{}, fmt.Errorf("%w: %s landed on %s in a three-square diff", ErrUnrecognizedDiff, to.After, to.Square)
	}
	mover := to.After.Color()

	var own, enemy *CellChange
	for i := range vacated {
		switch vacated[i].Before {
		case board.MakePiece(mover, board.Pawn):
			own = &vacated[i]
		case board.MakePiece(mover.Opposite(), board.Pawn):
			enemy = &vacated[i]
		}
	}
	if own == nil || enemy == nil {
		return Move{}, fmt.Errorf("%w: en-passant diff without one pawn of each color", ErrAmbiguousMoverColor)
	}

	f, c, t := own.Square, enemy.Square, to.Square
	geometry := f.Row == enPassantRow(mover) &&
		c.Row == f.Row &&
		abs(c.Col-f.Col) == 1 &&
		t.Col == c.Col &&
		t.Row == f.Row+forward(mover)
	if !geometry {
		return Move{}, fmt.Errorf("%w: pawns on %s/%s do not form an en-passant capture onto %s",
			ErrUnrecognizedDiff, f, c, t)
	}

	return Move{
		Shape:      EnPassant,
		Mover:      mover,
		Piece:      own.Before,
		Landed:     to.After,
		From:       f,
		To:         t,
		Captured:   enemy.Before,
		CapturedAt: c,
	}, nil
}

// classifyCastle matches a king moving two files on its back rank with the
// rook jumping to the square the king crossed.
func classifyCastle(changes []CellChange) (Move, error) {
	vacated, landed := split(changes)
	if len(vacated) != 2 || len(landed) != 2 {
		return Move{}, fmt.Errorf("%w: four changes that are not a castle", ErrUnrecognizedDiff)
	}
	for _, c := range landed {
		if c.Kind != Occupied {
			return Move{}, fmt.Errorf("%w: castle cannot land on occupied %s", ErrUnrecognizedDiff, c.Square)
		}
	}

	var kingFrom, rookFrom, kingTo, rookTo *CellChange
	for i := range vacated {
		switch vacated[i].Before.Kind() {
		case board.King:
			kingFrom = &vacated[i]
		case board.Rook:
			rookFrom = &vacated[i]
		}
	}
	for i := range landed {
		switch landed[i].After.Kind() {
		case board.King:
			kingTo = &landed[i]
		case board.Rook:
			rookTo = &landed[i]
		}
	}
	if kingFrom == nil || rookFrom == nil || kingTo == nil || rookTo == nil {
		return Move{}, fmt.Errorf("%w: four changes without a king and a rook", ErrUnrecognizedDiff)
	}

	mover := kingFrom.Before.Color()
	if rookFrom.Before.Color() != mover || kingTo.After.Color() != mover || rookTo.After.Color() != mover {
		return Move{}, fmt.Errorf("%w: castle pieces of mixed colors", ErrAmbiguousMoverColor)
	}

	home := board.HomeRow(mover)
	for _, c := range []*CellChange{kingFrom, rookFrom, kingTo, rookTo} {
		if c.Square.Row != home {
			return Move{}, fmt.Errorf("%w: castle square %s off the %s back rank", ErrUnrecognizedDiff, c.Square, mover)
		}
	}

	shape := Unrecognized
	switch {
	case kingFrom.Square.Col == 4 && kingTo.Square.Col == 6 && rookFrom.Square.Col == 7 && rookTo.Square.Col == 5:
		shape = KingsideCastle
	case kingFrom.Square.Col == 4 && kingTo.Square.Col == 2 && rookFrom.Square.Col == 0 && rookTo.Square.Col == 3:
		shape = QueensideCastle
	}
	if shape == Unrecognized {
		return Move{}, fmt.Errorf("%w: king %s-%s with rook %s-%s is not a castle", ErrUnrecognizedDiff,
			kingFrom.Square, kingTo.Square, rookFrom.Square, rookTo.Square)
	}

	return Move{
		Shape:    shape,
		Mover:    mover,
		Piece:    kingFrom.Before,
		Landed:   kingTo.After,
		From:     kingFrom.Square,
		To:       kingTo.Square,
		RookFrom: rookFrom.Square,
		RookTo:   rookTo.Square,
	}, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
