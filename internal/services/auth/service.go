package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/clock"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
)

// Errors
var (
	ErrInvalidCredential  = errors.New("invalid or expired credential")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters of letters, digits, '-' or '_'")
	ErrInvalidPassword    = errors.New("password must be at least 6 characters")
)

const guestIDPrefix = "guest-"

// Grant is an issued credential together with the principal it names
type Grant struct {
	Token     string
	Principal model.Principal
	ExpiresAt time.Time
}

// Config holds configuration for the auth service
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// DefaultConfig returns default auth configuration. Secret has no default.
func DefaultConfig() Config {
	return Config{
		Issuer:   "chess-game-server",
		TokenTTL: time.Hour,
	}
}

// Service is the identity registry: it issues and verifies credentials
type Service struct {
	store  storage.GameStore
	tokens *TokenIssuer
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new auth Service
func New(store storage.GameStore, clk clock.Clock, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	tokens, err := NewTokenIssuer(cfg.Secret, cfg.Issuer, cfg.TokenTTL, clk)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:  store,
		tokens: tokens,
		clock:  clk,
		logger: logger.With(slog.String("component", "auth")),
	}, nil
}

// Authenticate verifies a token and returns the principal it names. No side effects.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidCredential
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	p := claims.Principal()
	return &p, nil
}

// Register creates a durable user and issues a credential for it
func (s *Service) Register(ctx context.Context, username, password string) (*Grant, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < 6 {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, string(hash), s.clock.Now())
	if err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return s.grant(user.Principal())
}

// Login checks a username and password and issues a credential
func (s *Service) Login(ctx context.Context, username, password string) (*Grant, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.grant(user.Principal())
}

// CreateGuest issues a credential for a fresh transient principal
func (s *Service) CreateGuest(ctx context.Context) (*Grant, error) {
	p := model.Principal{
		ID:   model.PrincipalID(guestIDPrefix + uuid.NewString()),
		Tier: model.TierGuest,
	}
	return s.grant(p)
}

// Profile resolves the current view of a principal. Registered principals are
// re-read from the durable store so a deleted account is noticed.
func (s *Service) Profile(ctx context.Context, p model.Principal) (*model.Principal, error) {
	if p.IsGuest() {
		return &p, nil
	}
	userID, err := model.UserIDFromPrincipal(p.ID)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Principal()
	return &profile, nil
}

func (s *Service) grant(p model.Principal) (*Grant, error) {
	token, expiresAt, err := s.tokens.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}
	return &Grant{Token: token, Principal: p, ExpiresAt: expiresAt}, nil
}

func validateUsername(username string) error {
	if n := len(username); n < 3 || n > 32 {
		return ErrInvalidUsername
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ErrInvalidUsername
		}
	}
	return nil
}
