package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrNoCredentials means no cached token exists yet; run the calendar-auth command
var ErrNoCredentials = errors.New("no cached calendar token")

// LoadOAuthConfig reads an OAuth client secret file downloaded from the
// Google console and scopes it to calendar events
func LoadOAuthConfig(clientSecretFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}
	return cfg, nil
}

// FileTokenStore caches an OAuth token as JSON on disk
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the cached token
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoCredentials
	}
	return &tok, nil
}

// Save writes tok through a temp file and rename so readers never see a partial file
func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// persistingSource writes every newly issued token back to the store
type persistingSource struct {
	base   oauth2.TokenSource
	store  *FileTokenStore
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.Save(tok); err != nil {
			p.logger.Warn("Failed to persist refreshed calendar token", slog.Any("error", err))
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}

// NewTokenSource loads the cached token and returns a source that
// refreshes it when expired and persists the refreshed token
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, store *FileTokenStore, logger *slog.Logger) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}

	src := &persistingSource{
		base:   cfg.TokenSource(ctx, tok),
		store:  store,
		logger: logger,
		last:   tok.AccessToken,
	}
	return oauth2.ReuseTokenSource(tok, src), nil
}

// NewClientFromFiles builds a GoogleClient authorized by the cached token
// in tokenFile, refreshed with the OAuth client in clientSecretFile
func NewClientFromFiles(ctx context.Context, clientSecretFile, tokenFile string, logger *slog.Logger) (*GoogleClient, error) {
	cfg, err := LoadOAuthConfig(clientSecretFile)
	if err != nil {
		return nil, err
	}

	src, err := NewTokenSource(ctx, cfg, NewFileTokenStore(tokenFile), logger)
	if err != nil {
		return nil, err
	}

	return NewGoogleClient(ctx, option.WithTokenSource(src))
}
