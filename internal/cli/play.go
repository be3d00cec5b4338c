package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const writeWait = 10 * time.Second

// errQuit ends the play loop without an error
var errQuit = errors.New("quit")

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Find a match and play it over the session protocol",
		Long: `Connect to the session protocol, authenticate with the saved token and
join the matchmaking queue for your tier. Once a game starts, type commands
on stdin:

  move e2e4      play a move in UCI form (e7e8q promotes)
  e2e4           shorthand for move
  resign         resign the game
  draw           end the game as a draw
  abort          abort the game with no result
  quit           disconnect

The command exits when the game ends or on Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("no token: run 'player guest', 'player register' or 'player login' first")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return play(ctx, cfg.WebSocketURL(), cfg.Token, cmd.InOrStdin(), NewOutputTo(cfg.Output, cmd.OutOrStdout()))
		},
	}
}

// playSession tracks the session the connection is currently playing
type playSession struct {
	mu sync.Mutex
	id string
}

func (s *playSession) set(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

func (s *playSession) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func play(ctx context.Context, url, token string, in io.Reader, out *Output) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := writeFrame(conn, map[string]string{"type": "auth", "token": token}); err != nil {
		return err
	}
	if err := writeFrame(conn, map[string]string{"type": "find_match"}); err != nil {
		return err
	}

	session := &playSession{}
	done := make(chan error, 1)
	go func() {
		done <- readEvents(conn, session, out)
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case err := <-done:
			return err

		case <-ctx.Done():
			closeGracefully(conn)
			return nil

		case line, ok := <-lines:
			if !ok {
				// stdin closed; keep following the game until it ends
				lines = nil
				continue
			}
			msg, err := parseCommand(line, session.get())
			if errors.Is(err, errQuit) {
				closeGracefully(conn)
				return nil
			}
			if err != nil {
				out.PrintError(err)
				continue
			}
			if msg == nil {
				continue
			}
			if err := writeFrame(conn, msg); err != nil {
				return err
			}
		}
	}
}

// readEvents prints every event until the game ends or the server closes the connection
func readEvents(conn *websocket.Conn, session *playSession, out *Output) error {
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				if closeErr.Code == websocket.CloseNormalClosure {
					return nil
				}
				return fmt.Errorf("server closed connection: %s (%d)", closeErr.Text, closeErr.Code)
			}
			return fmt.Errorf("read failed: %w", err)
		}

		out.Print(ev)

		switch ev.Type {
		case "game_start":
			session.set(ev.SessionID)
		case "game_over":
			if ev.SessionID == session.get() {
				closeGracefully(conn)
				return nil
			}
		}
	}
}

// parseCommand turns one line of user input into a protocol message.
// A nil message with nil error means there is nothing to send.
func parseCommand(line, sessionID string) (map[string]any, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil, nil
	}

	cmd, args := fields[0], fields[1:]
	if cmd == "quit" || cmd == "exit" {
		return nil, errQuit
	}
	if sessionID == "" {
		return nil, errors.New("no game in progress yet")
	}

	switch cmd {
	case "move", "m":
		if len(args) != 1 {
			return nil, errors.New("usage: move <uci>, e.g. move e2e4")
		}
		return moveMessage(sessionID, args[0])
	case "resign", "draw", "abort":
		return map[string]any{"type": cmd, "sessionId": sessionID}, nil
	default:
		if len(fields) == 1 && (len(cmd) == 4 || len(cmd) == 5) {
			return moveMessage(sessionID, cmd)
		}
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

func moveMessage(sessionID, uci string) (map[string]any, error) {
	if len(uci) != 4 && len(uci) != 5 {
		return nil, fmt.Errorf("invalid move %q: expected UCI form like e2e4 or e7e8q", uci)
	}
	move := map[string]string{"from": uci[0:2], "to": uci[2:4]}
	if len(uci) == 5 {
		move["promotion"] = uci[4:]
	}
	return map[string]any{"type": "move", "sessionId": sessionID, "move": move}, nil
}

func writeFrame(conn *websocket.Conn, msg any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

func closeGracefully(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
