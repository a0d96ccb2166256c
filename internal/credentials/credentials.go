// Package credentials loads and persists KiteConnect API credentials.
// Values come from the environment first, then from an optional JSON
// credentials file; the file is also where a freshly generated access
// token gets written back, since tokens expire every morning.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	envAPIKey      = "KITE_API_KEY"
	envAPISecret   = "KITE_API_SECRET"
	envAccessToken = "KITE_ACCESS_TOKEN"
	envFile        = "KITE_CREDENTIALS_FILE"
)

// Credentials holds one API key's secrets. AccessToken may be empty
// before the first login of the day.
type Credentials struct {
	APIKey      string `json:"api_key"`
	APISecret   string `json:"api_secret"`
	AccessToken string `json:"access_token,omitempty"`
}

// Store reads and writes credentials at a fixed file path.
type Store struct {
	path string
}

// NewStore creates a store over the given path. An empty path falls
// back to $KITE_CREDENTIALS_FILE, then to ~/.kite/credentials.json.
func NewStore(path string) *Store {
	if path == "" {
		path = os.Getenv(envFile)
	}
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".kite", "credentials.json")
		}
	}
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load resolves credentials from the environment, falling back to the
// credentials file for anything the environment does not provide.
func (s *Store) Load() (*Credentials, error) {
	creds := &Credentials{
		APIKey:      os.Getenv(envAPIKey),
		APISecret:   os.Getenv(envAPISecret),
		AccessToken: os.Getenv(envAccessToken),
	}

	if creds.APIKey == "" || creds.APISecret == "" || creds.AccessToken == "" {
		fromFile, err := s.readFile()
		switch {
		case err == nil:
			if creds.APIKey == "" {
				creds.APIKey = fromFile.APIKey
			}
			if creds.APISecret == "" {
				creds.APISecret = fromFile.APISecret
			}
			if creds.AccessToken == "" {
				creds.AccessToken = fromFile.AccessToken
			}
		case errors.Is(err, os.ErrNotExist):
			log.Debug().Str("path", s.path).Msg("No credentials file, using environment only")
		default:
			return nil, err
		}
	}

	if creds.APIKey == "" {
		return nil, fmt.Errorf("no API key: set %s or create %s", envAPIKey, s.path)
	}
	return creds, nil
}

// SaveAccessToken persists a fresh token alongside the stored key and
// secret so later invocations can resume the session.
func (s *Store) SaveAccessToken(creds *Credentials, token string) error {
	if s.path == "" {
		return fmt.Errorf("no credentials file path configured")
	}

	out := *creds
	out.AccessToken = token

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	log.Info().Str("path", s.path).Msg("Access token saved")
	return nil
}

func (s *Store) readFile() (*Credentials, error) {
	if s.path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", s.path, err)
	}
	return &creds, nil
}
