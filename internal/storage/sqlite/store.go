// Package sqlite provides the SQLite-backed durable store for users and finished games.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage/sqlite/migrations"
)

// Store persists users and games in SQLite
type Store struct {
	sqlDB *sql.DB
}

// Ensure Store implements the interface
var _ storage.GameStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite game store and applies embedded migrations
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Users

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (*model.User, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, toMillis(createdAt),
	)
	if err != nil {
		if isConstraintUnique(err) {
			return nil, model.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &model.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    fromMillis(toMillis(createdAt)),
	}, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		user      model.User
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}

// Games

func (s *Store) CreateGame(ctx context.Context, white, black model.PrincipalID, createdAt time.Time) (*model.PersistedGame, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO games (white_player, black_player, status, created_at) VALUES (?, ?, ?, ?)`,
		string(white), string(black), string(model.GameStatusInProgress), toMillis(createdAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("game id: %w", err)
	}
	return &model.PersistedGame{
		ID:        id,
		White:     white,
		Black:     black,
		Status:    model.GameStatusInProgress,
		CreatedAt: fromMillis(toMillis(createdAt)),
	}, nil
}

// FinishGame writes the terminal result. A game that already has one is left untouched.
func (s *Store) FinishGame(ctx context.Context, id int64, outcome model.GameOutcome) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE games SET status = ?, result = ?, notation = ?, finished_at = ?
		 WHERE id = ? AND finished_at IS NULL`,
		string(outcome.Status), outcome.Result, outcome.Notation, toMillis(outcome.FinishedAt), id,
	)
	if err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish game rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := s.GetGame(ctx, id); err != nil {
		return err
	}
	return model.ErrGameAlreadyFinished
}

const gameColumns = `id, white_player, black_player, status, result, notation, created_at, finished_at`

func (s *Store) GetGame(ctx context.Context, id int64) (*model.PersistedGame, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGameNotFound
	}
	return game, err
}

func (s *Store) ListGamesForPrincipal(ctx context.Context, id model.PrincipalID, limit int) ([]*model.PersistedGame, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games
		 WHERE white_player = ? OR black_player = ?
		 ORDER BY id DESC LIMIT ?`,
		string(id), string(id), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*model.PersistedGame
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*model.PersistedGame, error) {
	var (
		game       model.PersistedGame
		white      string
		black      string
		status     string
		result     sql.NullString
		notation   sql.NullString
		createdAt  int64
		finishedAt sql.NullInt64
	)
	if err := row.Scan(&game.ID, &white, &black, &status, &result, &notation, &createdAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan game: %w", err)
	}
	game.White = model.PrincipalID(white)
	game.Black = model.PrincipalID(black)
	game.Status = model.GameStatus(status)
	game.Result = result.String
	game.Notation = notation.String
	game.CreatedAt = fromMillis(createdAt)
	if finishedAt.Valid {
		t := fromMillis(finishedAt.Int64)
		game.FinishedAt = &t
	}
	return &game, nil
}

func isConstraintUnique(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
