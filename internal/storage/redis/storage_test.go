package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func newRecord(id model.SessionID) *model.SessionRecord {
	return &model.SessionRecord{
		ID:          id,
		White:       "alice",
		Black:       "bob",
		Tier:        model.TierGuest,
		FEN:         "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Turn:        model.SideWhite,
		Moves:       []string{},
		WhiteTimeMs: 300000,
		BlackTimeMs: 300000,
		LastMoveAt:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		State:       model.SessionStateActive,
		CreatedAt:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Session tests

func (s *StorageSuite) TestSaveAndGetSession() {
	rec := newRecord("g1")
	rec.Moves = []string{"e2e4"}

	s.Require().NoError(s.storage.SaveSession(s.ctx, rec))

	got, err := s.storage.GetSession(s.ctx, "g1")
	s.Require().NoError(err)
	s.Equal(rec.White, got.White)
	s.Equal(rec.Black, got.Black)
	s.Equal(rec.FEN, got.FEN)
	s.Equal([]string{"e2e4"}, got.Moves)
	s.True(rec.LastMoveAt.Equal(got.LastMoveAt))
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteSession() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, newRecord("g1")))

	s.Require().NoError(s.storage.DeleteSession(s.ctx, "g1"))

	_, err := s.storage.GetSession(s.ctx, "g1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSessionExpiresAfterTTL() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, newRecord("g1")))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.ctx, "g1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Lease tests

func (s *StorageSuite) TestAcquireLeaseIsExclusive() {
	ok, err := s.storage.AcquireLease(s.ctx, "session:1", "owner-a", 5*time.Second)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.storage.AcquireLease(s.ctx, "session:1", "owner-b", 5*time.Second)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StorageSuite) TestLeaseExpires() {
	ok, err := s.storage.AcquireLease(s.ctx, "session:1", "owner-a", 5*time.Second)
	s.Require().NoError(err)
	s.True(ok)

	s.mini.FastForward(6 * time.Second)

	ok, err = s.storage.AcquireLease(s.ctx, "session:1", "owner-b", 5*time.Second)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *StorageSuite) TestReleaseLeaseOnlyByOwner() {
	_, err := s.storage.AcquireLease(s.ctx, "session:1", "owner-a", 5*time.Second)
	s.Require().NoError(err)

	// A stranger's release is a no-op
	s.Require().NoError(s.storage.ReleaseLease(s.ctx, "session:1", "owner-b"))
	ok, err := s.storage.AcquireLease(s.ctx, "session:1", "owner-b", 5*time.Second)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.storage.ReleaseLease(s.ctx, "session:1", "owner-a"))
	ok, err = s.storage.AcquireLease(s.ctx, "session:1", "owner-b", 5*time.Second)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *StorageSuite) TestLeaseKeysAreNamespaced() {
	_, err := s.storage.AcquireLease(s.ctx, "session:1", "owner-a", 5*time.Second)
	s.Require().NoError(err)
	s.True(s.mini.Exists("chess:lock:session:1"))
}

// Queue tests

func (s *StorageSuite) TestPopPairReturnsOldestFirst() {
	for _, id := range []model.PrincipalID{"p1", "p2", "p3"} {
		s.Require().NoError(s.storage.Enqueue(s.ctx, model.TierGuest, id))
	}

	pair, err := s.storage.PopPair(s.ctx, model.TierGuest)
	s.Require().NoError(err)
	s.Equal([]model.PrincipalID{"p1", "p2"}, pair)

	n, err := s.storage.QueueLength(s.ctx, model.TierGuest)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *StorageSuite) TestPopPairWithSingleEntryLeavesQueueIntact() {
	s.Require().NoError(s.storage.Enqueue(s.ctx, model.TierGuest, "p1"))

	pair, err := s.storage.PopPair(s.ctx, model.TierGuest)
	s.Require().NoError(err)
	s.Nil(pair)

	n, err := s.storage.QueueLength(s.ctx, model.TierGuest)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *StorageSuite) TestPopPairOnEmptyQueue() {
	pair, err := s.storage.PopPair(s.ctx, model.TierRegistered)
	s.Require().NoError(err)
	s.Nil(pair)
}

func (s *StorageSuite) TestEnqueueDeduplicatesAcrossQueues() {
	s.Require().NoError(s.storage.Enqueue(s.ctx, model.TierGuest, "p1"))
	s.Require().NoError(s.storage.Enqueue(s.ctx, model.TierGuest, "p1"))
	s.Require().NoError(s.storage.Enqueue(s.ctx, model.TierRegistered, "p1"))

	guests, err := s.storage.QueueLength(s.ctx, model.TierGuest)
	s.Require().NoError(err)
	s.Equal(int64(0), guests)

	registered, err := s.storage.QueueLength(s.ctx, model.TierRegistered)
	s.Require().NoError(err)
	s.Equal(int64(1), registered)
}

func (s *StorageSuite) TestRemoveFromQueues() {
	s.Require().NoError(s.storage.Enqueue(s.ctx, model.TierGuest, "p1"))
	s.Require().NoError(s.storage.Enqueue(s.ctx, model.TierGuest, "p2"))

	s.Require().NoError(s.storage.RemoveFromQueues(s.ctx, "p1"))

	n, err := s.storage.QueueLength(s.ctx, model.TierGuest)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	// Removing an absent principal is fine
	s.NoError(s.storage.RemoveFromQueues(s.ctx, "nobody"))
}

// Counter tests

func (s *StorageSuite) TestNextGuestSequenceIncrements() {
	first, err := s.storage.NextGuestSequence(s.ctx)
	s.Require().NoError(err)
	second, err := s.storage.NextGuestSequence(s.ctx)
	s.Require().NoError(err)

	s.Equal(int64(1), first)
	s.Equal(int64(2), second)
}
