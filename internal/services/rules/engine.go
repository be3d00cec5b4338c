package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// StartFEN is the standard initial position
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidPosition is returned when a serialized position cannot be loaded
var ErrInvalidPosition = errors.New("invalid position")

// Position is a loaded game instance
type Position struct {
	game *nchess.Game
}

// Engine adapts the chess library to the session's needs.
// It is stateless; every call works on the Position passed in.
type Engine struct{}

// New creates a new Engine
func New() *Engine {
	return &Engine{}
}

// Load parses a FEN string. An empty string loads the start position.
func (e *Engine) Load(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return &Position{game: nchess.NewGame()}, nil
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	return &Position{game: nchess.NewGame(option)}, nil
}

// Restore rebuilds a position together with its history by replaying moves from
// the start position. When the replay does not arrive at fen, fen is loaded on its
// own and repetition counting starts from it.
func (e *Engine) Restore(fen string, moves []string) (*Position, error) {
	if len(moves) > 0 {
		if pos, err := e.replay(moves); err == nil && pos.game.FEN() == strings.TrimSpace(fen) {
			return pos, nil
		}
	}
	return e.Load(fen)
}

func (e *Engine) replay(moves []string) (*Position, error) {
	pos := &Position{game: nchess.NewGame()}
	for i, mv := range moves {
		if err := pos.game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, mv, err)
		}
	}
	return pos, nil
}

// Apply plays a UCI move on the position. Any move the position does not allow,
// including one played after the game has ended, is model.ErrIllegalMove.
func (e *Engine) Apply(pos *Position, uci string) error {
	if pos.game.Outcome() != nchess.NoOutcome {
		return model.ErrIllegalMove
	}
	if err := pos.game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return fmt.Errorf("%w: %s", model.ErrIllegalMove, uci)
	}
	return nil
}

// IsCheckmate reports whether the side to move has been mated
func (e *Engine) IsCheckmate(pos *Position) bool {
	return pos.game.Method() == nchess.Checkmate
}

// IsDraw reports whether the position is drawn: stalemate, insufficient material,
// threefold repetition or the fifty-move rule. Repetition is only visible on a
// position built by Restore.
func (e *Engine) IsDraw(pos *Position) bool {
	if pos.game.Outcome() == nchess.Draw {
		return true
	}
	for _, method := range pos.game.EligibleDraws() {
		if method == nchess.ThreefoldRepetition || method == nchess.FiftyMoveRule {
			return true
		}
	}
	return false
}

// Serialize returns the position as FEN
func (e *Engine) Serialize(pos *Position) string {
	return pos.game.FEN()
}

// SideToMove returns whose turn it is
func (e *Engine) SideToMove(pos *Position) model.Side {
	if pos.game.Position().Turn() == nchess.White {
		return model.SideWhite
	}
	return model.SideBlack
}

// Notation replays the UCI history from the start position and exports PGN
func (e *Engine) Notation(moves []string) (string, error) {
	pos, err := e.replay(moves)
	if err != nil {
		return "", err
	}
	return pos.game.String(), nil
}

// Render draws the position as a text board with white at the bottom
func (e *Engine) Render(fen string) (string, error) {
	pos, err := e.Load(fen)
	if err != nil {
		return "", err
	}
	return pos.game.Position().Board().Draw(), nil
}
