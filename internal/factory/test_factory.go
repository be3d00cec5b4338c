package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/mocks"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/auth"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Storage backing both sessions and games
	Storage *memory.Storage

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	store := memory.New(mockClock)

	authCfg := auth.DefaultConfig()
	authCfg.Secret = "test-secret"
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app, err := newWithDependencies(store, store, mockClock, mockRandom, Config{AuthConfig: authCfg}, logger)
	if err != nil {
		panic("test app wiring failed: " + err.Error())
	}

	return &TestApp{
		App:        app,
		Storage:    store,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
