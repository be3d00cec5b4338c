package model

import "time"

// GameStatus labels a persisted game's lifecycle or terminal outcome
type GameStatus string

const (
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusStalemate  GameStatus = "stalemate"
	GameStatusDraw       GameStatus = "draw"
	GameStatusAborted    GameStatus = "aborted"
	GameStatusUnknown    GameStatus = "unknown"
)

// Results in the usual notation
const (
	ResultWhiteWins = "1-0"
	ResultBlackWins = "0-1"
	ResultDraw      = "1/2-1/2"
	ResultUndecided = "*"
)

// PersistedGame is the durable record of a registered match.
// It is created when the match forms and finished exactly once.
type PersistedGame struct {
	ID         int64
	White      PrincipalID
	Black      PrincipalID
	Status     GameStatus
	Result     string // empty until finished
	Notation   string // PGN of the finished game
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// IsFinished returns true once a terminal result has been written
func (g *PersistedGame) IsFinished() bool {
	return g.FinishedAt != nil
}

// GameOutcome is what gets written onto a persisted game at termination
type GameOutcome struct {
	Result     string
	Status     GameStatus
	Notation   string
	FinishedAt time.Time
}
