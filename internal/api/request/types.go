package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strconv"
)

// History page bounds for GET /players/me/games
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Credentials is the body of register and login requests
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DecodeCredentials reads a credentials body and checks both fields are present.
// Format rules for usernames and passwords belong to the auth service.
func DecodeCredentials(body io.Reader) (Credentials, error) {
	var c Credentials
	if err := json.NewDecoder(body).Decode(&c); err != nil {
		return Credentials{}, errors.New("invalid request body")
	}
	if c.Username == "" {
		return Credentials{}, errors.New("username is required")
	}
	if c.Password == "" {
		return Credentials{}, errors.New("password is required")
	}
	return c, nil
}

// HistoryLimit parses the optional limit query parameter
func HistoryLimit(q url.Values) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return DefaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxHistoryLimit {
		return 0, errors.New("limit must be between 1 and 100")
	}
	return n, nil
}
