package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
)

// releaseScript deletes a lease only if it is still held by the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// popPairScript pops the two oldest queue entries, or nothing if fewer than two wait
var popPairScript = redis.NewScript(`
if redis.call("LLEN", KEYS[1]) < 2 then
	return {}
end
local first = redis.call("RPOP", KEYS[1])
local second = redis.call("RPOP", KEYS[1])
return {first, second}
`)

// Storage is a Redis-backed implementation of the session store
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.SessionStore = (*Storage)(nil)

// Session records

func (s *Storage) SaveSession(ctx context.Context, rec *model.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(rec.ID), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.SessionRecord, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var rec model.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// Leases

func (s *Storage) AcquireLease(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, leaseKey(key), owner, ttl).Result()
}

func (s *Storage) ReleaseLease(ctx context.Context, key, owner string) error {
	return releaseScript.Run(ctx, s.client, []string{leaseKey(key)}, owner).Err()
}

// Matchmaking queues

func (s *Storage) Enqueue(ctx context.Context, tier model.Tier, id model.PrincipalID) error {
	// Drop stale entries from every queue and push in one transaction
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range model.Tiers() {
			pipe.LRem(ctx, queueKey(t), 0, string(id))
		}
		pipe.LPush(ctx, queueKey(tier), string(id))
		return nil
	})
	return err
}

func (s *Storage) RemoveFromQueues(ctx context.Context, id model.PrincipalID) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range model.Tiers() {
			pipe.LRem(ctx, queueKey(t), 0, string(id))
		}
		return nil
	})
	return err
}

func (s *Storage) PopPair(ctx context.Context, tier model.Tier) ([]model.PrincipalID, error) {
	values, err := popPairScript.Run(ctx, s.client, []string{queueKey(tier)}).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(values) < 2 {
		return nil, nil
	}
	return []model.PrincipalID{model.PrincipalID(values[0]), model.PrincipalID(values[1])}, nil
}

func (s *Storage) QueueLength(ctx context.Context, tier model.Tier) (int64, error) {
	return s.client.LLen(ctx, queueKey(tier)).Result()
}

// Counters

func (s *Storage) NextGuestSequence(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, guestSequenceKey()).Result()
}
