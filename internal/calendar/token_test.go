package calendar

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/cuongbtq/job-scheduling/shared/logger"
)

const clientSecretJSON = `{
  "installed": {
    "client_id": "123.apps.googleusercontent.com",
    "client_secret": "shh",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["urn:ietf:wg:oauth:2.0:oob", "http://localhost"]
  }
}`

func TestLoadOAuthConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(path, []byte(clientSecretJSON), 0o600))

	cfg, err := LoadOAuthConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "123.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, []string{gcal.CalendarEventsScope}, cfg.Scopes)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.Endpoint.TokenURL)

	_, err = LoadOAuthConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadOAuthConfig(bad)
	assert.Error(t, err)
}

func TestFileTokenStore(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
		_, err := store.Load()
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("empty token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

		_, err := NewFileTokenStore(path).Load()
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))

		_, err := NewFileTokenStore(path).Load()
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrNoCredentials))
	})

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets", "token.json")
		store := NewFileTokenStore(path)

		expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.Save(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		tok, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "access", tok.AccessToken)
		assert.Equal(t, "refresh", tok.RefreshToken)
		assert.True(t, expiry.Equal(tok.Expiry))

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp file must not be left behind")
	})
}

type sequenceSource struct {
	tokens []string
	calls  int
}

func (s *sequenceSource) Token() (*oauth2.Token, error) {
	tok := &oauth2.Token{AccessToken: s.tokens[s.calls], RefreshToken: "refresh"}
	if s.calls < len(s.tokens)-1 {
		s.calls++
	}
	return tok, nil
}

func TestPersistingSource_SavesNewTokensOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileTokenStore(path)

	src := &persistingSource{
		base:   &sequenceSource{tokens: []string{"first", "first", "second"}},
		store:  store,
		logger: logger.Discard(),
		last:   "first",
	}

	_, err := src.Token()
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "unchanged token is not written")

	_, err = src.Token()
	require.NoError(t, err)
	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "second", tok.AccessToken)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", saved.AccessToken)
}

func TestNewTokenSource_NoCredentials(t *testing.T) {
	cfg := &oauth2.Config{ClientID: "id"}
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))

	_, err := NewTokenSource(t.Context(), cfg, store, logger.Discard())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestNewClientFromFiles(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(secret, []byte(clientSecretJSON), 0o600))
	tokenFile := filepath.Join(dir, "token.json")

	_, err := NewClientFromFiles(t.Context(), secret, tokenFile, logger.Discard())
	assert.ErrorIs(t, err, ErrNoCredentials)

	require.NoError(t, NewFileTokenStore(tokenFile).Save(&oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}))
	client, err := NewClientFromFiles(t.Context(), secret, tokenFile, logger.Discard())
	require.NoError(t, err)
	assert.NotNil(t, client)
}
