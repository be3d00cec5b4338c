package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

func playAll(t *testing.T, e *Engine, pos *Position, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		require.NoError(t, e.Apply(pos, mv), mv)
	}
}

func TestLoadStartPosition(t *testing.T) {
	e := New()

	pos, err := e.Load(StartFEN)
	require.NoError(t, err)
	assert.Equal(t, StartFEN, e.Serialize(pos))
	assert.Equal(t, model.SideWhite, e.SideToMove(pos))

	empty, err := e.Load("")
	require.NoError(t, err)
	assert.Equal(t, StartFEN, e.Serialize(empty))
}

func TestLoadInvalidFEN(t *testing.T) {
	_, err := New().Load("not a position")
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestApplyLegalMoveFlipsTurn(t *testing.T) {
	e := New()
	pos, err := e.Load(StartFEN)
	require.NoError(t, err)

	require.NoError(t, e.Apply(pos, "e2e4"))

	assert.Equal(t, model.SideBlack, e.SideToMove(pos))
	assert.True(t, strings.HasPrefix(e.Serialize(pos), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq"))
	assert.False(t, e.IsCheckmate(pos))
	assert.False(t, e.IsDraw(pos))
}

func TestApplyIllegalMove(t *testing.T) {
	e := New()
	pos, err := e.Load(StartFEN)
	require.NoError(t, err)

	assert.ErrorIs(t, e.Apply(pos, "e2e5"), model.ErrIllegalMove)
	assert.ErrorIs(t, e.Apply(pos, "zz"), model.ErrIllegalMove)
	// Position is unchanged after a rejected move
	assert.Equal(t, StartFEN, e.Serialize(pos))
}

func TestFoolsMateIsCheckmate(t *testing.T) {
	e := New()
	pos, err := e.Load(StartFEN)
	require.NoError(t, err)

	playAll(t, e, pos, "f2f3", "e7e5", "g2g4", "d8h4")

	assert.True(t, e.IsCheckmate(pos))
	assert.False(t, e.IsDraw(pos))
	assert.ErrorIs(t, e.Apply(pos, "a2a3"), model.ErrIllegalMove)
}

func TestStalemateIsDraw(t *testing.T) {
	e := New()
	// Black king boxed in on h8; white queen to g6 stalemates
	pos, err := e.Load("7k/8/5K2/8/8/8/8/6Q1 w - - 0 1")
	require.NoError(t, err)

	require.NoError(t, e.Apply(pos, "g1g6"))

	assert.True(t, e.IsDraw(pos))
	assert.False(t, e.IsCheckmate(pos))
}

func TestPromotion(t *testing.T) {
	e := New()
	pos, err := e.Load("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	require.NoError(t, err)

	require.NoError(t, e.Apply(pos, "e7e8q"))
	assert.Contains(t, e.Serialize(pos), "4Q3")
}

func TestNotationReplaysHistory(t *testing.T) {
	e := New()

	pgn, err := e.Notation([]string{"f2f3", "e7e5", "g2g4", "d8h4"})
	require.NoError(t, err)
	assert.Contains(t, pgn, "Qh4")
	assert.Contains(t, pgn, "0-1")

	_, err = e.Notation([]string{"e2e5"})
	assert.Error(t, err)
}

func TestRenderDrawsBoard(t *testing.T) {
	board, err := New().Render(StartFEN)
	require.NoError(t, err)
	assert.Contains(t, board, "A B C D E F G H")

	_, err = New().Render("not a fen")
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

// knightShuffle returns white and black knights out and back, twice
var knightShuffle = []string{
	"g1f3", "g8f6", "f3g1", "f6g8",
	"g1f3", "g8f6", "f3g1", "f6g8",
}

func TestRestoreKeepsRepetitionHistory(t *testing.T) {
	e := New()
	played, err := e.Load(StartFEN)
	require.NoError(t, err)
	history := knightShuffle[:len(knightShuffle)-1]
	playAll(t, e, played, history...)
	assert.False(t, e.IsDraw(played))

	pos, err := e.Restore(e.Serialize(played), history)
	require.NoError(t, err)
	require.NoError(t, e.Apply(pos, knightShuffle[len(knightShuffle)-1]))

	// Start position on the board for the third time
	assert.True(t, e.IsDraw(pos))
	assert.False(t, e.IsCheckmate(pos))

	// A bare FEN carries no history, so the same position is not a draw
	bare, err := e.Load(e.Serialize(pos))
	require.NoError(t, err)
	assert.False(t, e.IsDraw(bare))
}

func TestFiftyMoveRuleIsDraw(t *testing.T) {
	e := New()
	pos, err := e.Load("8/8/8/4k3/8/8/8/R3K3 w - - 99 80")
	require.NoError(t, err)
	assert.False(t, e.IsDraw(pos))

	require.NoError(t, e.Apply(pos, "a1a2"))
	assert.True(t, e.IsDraw(pos))
}

func TestRestoreFallsBackToFEN(t *testing.T) {
	e := New()
	const fen = "7k/8/5K2/8/8/8/8/6Q1 w - - 0 1"

	pos, err := e.Restore(fen, []string{"e2e4"})
	require.NoError(t, err)
	assert.Equal(t, fen, e.Serialize(pos))

	noHistory, err := e.Restore(StartFEN, nil)
	require.NoError(t, err)
	assert.Equal(t, StartFEN, e.Serialize(noHistory))

	_, err = e.Restore("not a fen", []string{"e2e4"})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}
