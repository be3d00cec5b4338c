package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/clock"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
)

// Storage is an in-memory implementation of both stores, used by tests and single-process runs
type Storage struct {
	mu    sync.RWMutex
	clock clock.Clock

	// Fast store
	sessions map[model.SessionID]*model.SessionRecord
	leases   map[string]lease
	queues   map[model.Tier][]model.PrincipalID // index 0 is the oldest entry
	guestSeq int64

	// Durable store
	users         map[int64]*model.User
	usernameIndex map[string]int64
	games         map[int64]*model.PersistedGame
	nextUserID    int64
	nextGameID    int64
}

type lease struct {
	owner     string
	expiresAt time.Time
}

// New creates a new in-memory storage instance. Lease expiry is measured with clk.
func New(clk clock.Clock) *Storage {
	return &Storage{
		clock:         clk,
		sessions:      make(map[model.SessionID]*model.SessionRecord),
		leases:        make(map[string]lease),
		queues:        make(map[model.Tier][]model.PrincipalID),
		users:         make(map[int64]*model.User),
		usernameIndex: make(map[string]int64),
		games:         make(map[int64]*model.PersistedGame),
	}
}

// Ensure Storage implements the interfaces
var (
	_ storage.SessionStore = (*Storage)(nil)
	_ storage.GameStore    = (*Storage)(nil)
)

// Session records

func (s *Storage) SaveSession(ctx context.Context, rec *model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.ID] = copyRecord(rec)
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return copyRecord(rec), nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func copyRecord(rec *model.SessionRecord) *model.SessionRecord {
	cp := *rec
	cp.Moves = slices.Clone(rec.Moves)
	return &cp
}

// Leases

func (s *Storage) AcquireLease(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if held, ok := s.leases[key]; ok && now.Before(held.expiresAt) {
		return false, nil
	}
	s.leases[key] = lease{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *Storage) ReleaseLease(ctx context.Context, key, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.leases[key]; ok && held.owner == owner {
		delete(s.leases, key)
	}
	return nil
}

// Matchmaking queues

func (s *Storage) Enqueue(ctx context.Context, tier model.Tier, id model.PrincipalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	s.queues[tier] = append(s.queues[tier], id)
	return nil
}

func (s *Storage) RemoveFromQueues(ctx context.Context, id model.PrincipalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	return nil
}

func (s *Storage) removeLocked(id model.PrincipalID) {
	for tier, queue := range s.queues {
		s.queues[tier] = slices.DeleteFunc(queue, func(q model.PrincipalID) bool { return q == id })
	}
}

func (s *Storage) PopPair(ctx context.Context, tier model.Tier) ([]model.PrincipalID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.queues[tier]
	if len(queue) < 2 {
		return nil, nil
	}
	pair := []model.PrincipalID{queue[0], queue[1]}
	s.queues[tier] = slices.Clone(queue[2:])
	return pair, nil
}

func (s *Storage) QueueLength(ctx context.Context, tier model.Tier) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.queues[tier])), nil
}

func (s *Storage) NextGuestSequence(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestSeq++
	return s.guestSeq, nil
}

// Users

func (s *Storage) CreateUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernameIndex[username]; taken {
		return nil, model.ErrUsernameTaken
	}
	s.nextUserID++
	user := &model.User{
		ID:           s.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}
	s.users[user.ID] = user
	s.usernameIndex[username] = user.ID
	cp := *user
	return &cp, nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.usernameIndex[username]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// Games

func (s *Storage) CreateGame(ctx context.Context, white, black model.PrincipalID, createdAt time.Time) (*model.PersistedGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGameID++
	game := &model.PersistedGame{
		ID:        s.nextGameID,
		White:     white,
		Black:     black,
		Status:    model.GameStatusInProgress,
		CreatedAt: createdAt,
	}
	s.games[game.ID] = game
	return copyGame(game), nil
}

func (s *Storage) FinishGame(ctx context.Context, id int64, outcome model.GameOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[id]
	if !ok {
		return model.ErrGameNotFound
	}
	if game.IsFinished() {
		return model.ErrGameAlreadyFinished
	}
	finishedAt := outcome.FinishedAt
	game.Result = outcome.Result
	game.Status = outcome.Status
	game.Notation = outcome.Notation
	game.FinishedAt = &finishedAt
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id int64) (*model.PersistedGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return copyGame(game), nil
}

func (s *Storage) ListGamesForPrincipal(ctx context.Context, id model.PrincipalID, limit int) ([]*model.PersistedGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var games []*model.PersistedGame
	for _, game := range s.games {
		if game.White == id || game.Black == id {
			games = append(games, copyGame(game))
		}
	}
	// Newest first
	sort.Slice(games, func(i, j int) bool { return games[i].ID > games[j].ID })
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func copyGame(g *model.PersistedGame) *model.PersistedGame {
	cp := *g
	if g.FinishedAt != nil {
		t := *g.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
