package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/services/rules"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// NewOutputTo creates an Output formatter writing to w
func NewOutputTo(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	// Events stream one per line
	if _, ok := data.(Event); ok {
		b, _ := json.Marshal(data)
		fmt.Fprintln(o.w, string(b))
		return
	}
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Principal:
		o.printPrincipal(v)
	case AuthResult:
		o.printAuthResult(v)
	case GameList:
		o.printGameList(v)
	case Session:
		o.printSession(v)
	case Event:
		o.printEvent(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Principal response type (matches API)
type Principal struct {
	ID       string `json:"id"`
	Tier     string `json:"tier"`
	Username string `json:"username,omitempty"`
	IsGuest  bool   `json:"is_guest"`
}

// AuthResult is a credential with the principal it names
type AuthResult struct {
	Token     string    `json:"token"`
	Principal Principal `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Game response type
type Game struct {
	ID         int64      `json:"id"`
	White      string     `json:"white"`
	Black      string     `json:"black"`
	Status     string     `json:"status"`
	Result     string     `json:"result,omitempty"`
	Notation   string     `json:"notation,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// GameList response type
type GameList struct {
	Games []Game `json:"games"`
}

// Session response type
type Session struct {
	ID          string   `json:"id"`
	State       string   `json:"state"`
	Tier        string   `json:"tier"`
	White       string   `json:"white"`
	Black       string   `json:"black"`
	FEN         string   `json:"fen"`
	Turn        string   `json:"turn"`
	Moves       []string `json:"moves"`
	WhiteTimeMs int64    `json:"white_time_ms"`
	BlackTimeMs int64    `json:"black_time_ms"`
}

// Move is a move as carried by protocol events
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// Event is any message received over the session protocol
type Event struct {
	Type        string `json:"type"`
	PrincipalID string `json:"principalId,omitempty"`
	Tier        string `json:"tier,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	Side        string `json:"side,omitempty"`
	FEN         string `json:"fen,omitempty"`
	Turn        string `json:"turn,omitempty"`
	Move        *Move  `json:"move,omitempty"`
	WhiteTimeMs int64  `json:"whiteTimeMs,omitempty"`
	BlackTimeMs int64  `json:"blackTimeMs,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Winner      string `json:"winner,omitempty"`
	Result      string `json:"result,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Stored credential states reported by health
const (
	credentialNone     = "none"
	credentialValid    = "valid"
	credentialRejected = "rejected"
)

// HealthResult is the server status plus what the CLI observed locally
type HealthResult struct {
	Status     string `json:"status"`
	LatencyMs  int64  `json:"latency_ms"`
	Credential string `json:"credential"`
}

func (o *Output) printPrincipal(p Principal) {
	name := p.Username
	if name == "" {
		name = "guest"
	}
	fmt.Fprintf(o.w, "Principal: %s (%s)\n", name, p.ID)
	fmt.Fprintf(o.w, "Tier: %s\n", p.Tier)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPrincipal(a.Principal)
	fmt.Fprintf(o.w, "Token: %s\n", a.Token)
	fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printGameList(l GameList) {
	if len(l.Games) == 0 {
		fmt.Fprintln(o.w, "No games")
		return
	}
	for _, g := range l.Games {
		result := g.Result
		if result == "" {
			result = "in progress"
		}
		fmt.Fprintf(o.w, "#%d  %s vs %s  %s  (%s)\n", g.ID, g.White, g.Black, result, g.Status)
	}
}

func (o *Output) printSession(s Session) {
	fmt.Fprintf(o.w, "Session: %s (%s)\n", s.ID, s.State)
	fmt.Fprintf(o.w, "White: %s  %s\n", s.White, formatClock(s.WhiteTimeMs))
	fmt.Fprintf(o.w, "Black: %s  %s\n", s.Black, formatClock(s.BlackTimeMs))
	fmt.Fprintf(o.w, "To move: %s\n", sideName(s.Turn))
	if len(s.Moves) > 0 {
		fmt.Fprintf(o.w, "Moves: %s\n", strings.Join(s.Moves, " "))
	}
	o.printBoard(s.FEN)
}

func (o *Output) printEvent(e Event) {
	switch e.Type {
	case "auth_success":
		fmt.Fprintf(o.w, "Authenticated as %s (%s)\n", e.PrincipalID, e.Tier)
	case "game_start":
		fmt.Fprintf(o.w, "Game %s started, you play %s\n", e.SessionID, sideName(e.Side))
		o.printBoard(e.FEN)
	case "move_made":
		if e.Move != nil {
			fmt.Fprintf(o.w, "Move %s%s%s\n", e.Move.From, e.Move.To, e.Move.Promotion)
		}
		o.printBoard(e.FEN)
		fmt.Fprintf(o.w, "White %s | Black %s | %s to move\n",
			formatClock(e.WhiteTimeMs), formatClock(e.BlackTimeMs), sideName(e.Turn))
	case "game_over":
		fmt.Fprintf(o.w, "Game over: %s, winner %s (%s)\n", e.Reason, e.Winner, e.Result)
	case "error":
		fmt.Fprintf(o.w, "Server error: %s\n", e.Message)
	default:
		o.printJSON(e)
	}
}

func (o *Output) printBoard(fen string) {
	if fen == "" {
		return
	}
	board, err := rules.New().Render(fen)
	if err != nil {
		fmt.Fprintf(o.w, "Position: %s\n", fen)
		return
	}
	fmt.Fprintln(o.w, board)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Latency: %dms\n", h.LatencyMs)
	if h.Credential != "" {
		fmt.Fprintf(o.w, "Credential: %s\n", h.Credential)
	}
}

func sideName(side string) string {
	switch side {
	case "w":
		return "white"
	case "b":
		return "black"
	default:
		return side
	}
}

func formatClock(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
