package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsbatBInHossain/chess-game-server/internal/factory"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		session string
		want    map[string]any
		wantErr bool
	}{
		{"blank", "   ", "1", nil, false},
		{"move", "move e2e4", "1", map[string]any{
			"type": "move", "sessionId": "1", "move": map[string]string{"from": "e2", "to": "e4"},
		}, false},
		{"bare uci", "E7E8Q", "g3", map[string]any{
			"type": "move", "sessionId": "g3", "move": map[string]string{"from": "e7", "to": "e8", "promotion": "q"},
		}, false},
		{"resign", "resign", "1", map[string]any{"type": "resign", "sessionId": "1"}, false},
		{"draw", "draw", "1", map[string]any{"type": "draw", "sessionId": "1"}, false},
		{"abort", "abort", "1", map[string]any{"type": "abort", "sessionId": "1"}, false},
		{"no session", "e2e4", "", nil, true},
		{"bad move", "move e2", "1", nil, true},
		{"unknown", "castle kingside", "1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.line, tt.session)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandQuit(t *testing.T) {
	_, err := parseCommand("quit", "")
	assert.ErrorIs(t, err, errQuit)
}

func TestWebSocketURL(t *testing.T) {
	c := &Config{ServerURL: "http://localhost:8080/"}
	assert.Equal(t, "ws://localhost:8080/ws", c.WebSocketURL())

	c.ServerURL = "https://chess.example.com"
	assert.Equal(t, "wss://chess.example.com/ws", c.WebSocketURL())
}

func TestTokenRoundTrip(t *testing.T) {
	c := &Config{TokenFile: t.TempDir() + "/nested/token"}
	require.NoError(t, c.SaveToken("abc"))

	loaded := &Config{TokenFile: c.TokenFile}
	require.NoError(t, loaded.LoadToken())
	assert.Equal(t, "abc", loaded.Token)
}

func TestPrintEventText(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo("text", &buf)

	out.Print(Event{Type: "game_over", Reason: "resign", Winner: "white", Result: "1-0"})
	assert.Equal(t, "Game over: resign, winner white (1-0)\n", buf.String())

	buf.Reset()
	out.Print(Event{Type: "game_start", SessionID: "g1", Side: "b", FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"})
	assert.Contains(t, buf.String(), "Game g1 started, you play black")
	assert.Contains(t, buf.String(), "A B C D E F G H")
}

func TestPrintEventJSONIsOneLine(t *testing.T) {
	var buf bytes.Buffer
	NewOutputTo("json", &buf).Print(Event{Type: "error", Message: "An error occurred."})
	assert.Equal(t, `{"type":"error","message":"An error occurred."}`+"\n", buf.String())
}

// syncBuffer is a bytes.Buffer safe for one writer and a polling reader
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPlayUntilResignation(t *testing.T) {
	app := factory.NewTestApp()
	server := httptest.NewServer(app.WebSocket)
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go app.MatchmakingRunner.Run(ctx)

	type player struct {
		out   *syncBuffer
		stdin *io.PipeWriter
		done  chan error
	}
	start := func() *player {
		grant, err := app.AuthService.CreateGuest(ctx)
		require.NoError(t, err)
		r, w := io.Pipe()
		p := &player{out: &syncBuffer{}, stdin: w, done: make(chan error, 1)}
		go func() { p.done <- play(ctx, url, grant.Token, r, NewOutputTo("text", p.out)) }()
		return p
	}

	a := start()
	b := start()
	defer a.stdin.Close()
	defer b.stdin.Close()

	for _, p := range []*player{a, b} {
		require.Eventually(t, func() bool {
			return strings.Contains(p.out.String(), "started, you play")
		}, 5*time.Second, 10*time.Millisecond)
	}

	_, err := io.WriteString(a.stdin, "resign\n")
	require.NoError(t, err)

	for _, p := range []*player{a, b} {
		select {
		case err := <-p.done:
			require.NoError(t, err)
		case <-ctx.Done():
			t.Fatal("play did not finish")
		}
		assert.Contains(t, p.out.String(), "Game over: resign")
	}
}
