package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"levelone/internal/common"
)

func writeTokenFile(t *testing.T, data TokenData) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))
	require.NoError(t, NewStore(path, zerolog.Nop()).Save(data))
	return path
}

func TestTokenUsesCachedAccess(t *testing.T) {
	now := Minute(time.Now())
	path := writeTokenFile(t, TokenData{
		AccessToken:    "cached-access",
		AccessCreated:  now,
		RefreshToken:   "refresh",
		RefreshCreated: now,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("token endpoint must not be called for a fresh access token")
	}))
	defer srv.Close()

	creds := New(Config{
		AppKey:    "app",
		SecretKey: "secret",
		TokenURL:  srv.URL,
		TokenFile: path,
	})
	token, err := creds.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "cached-access", token)
}

func TestTokenRefreshExchange(t *testing.T) {
	now := Minute(time.Now())
	path := writeTokenFile(t, TokenData{
		AccessToken:    "stale-access",
		AccessCreated:  now.Add(-2 * time.Hour),
		RefreshToken:   "refresh-xyz",
		RefreshCreated: now,
	})

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("app:secret"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, wantAuth, r.Header.Get("Authorization"))
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		require.Equal(t, "refresh-xyz", r.PostForm.Get("refresh_token"))
		fmt.Fprint(w, `{"access_token": "fresh-access"}`)
	}))
	defer srv.Close()

	creds := New(Config{
		AppKey:    "app",
		SecretKey: "secret",
		TokenURL:  srv.URL,
		TokenFile: path,
	}, common.OptionHTTPClient(srv.Client()))
	token, err := creds.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh-access", token)

	// The new access token and its issue time were persisted.
	data, err := NewStore(path, zerolog.Nop()).Load()
	require.NoError(t, err)
	require.Equal(t, "fresh-access", data.AccessToken)
	require.True(t, data.AccessValid(time.Now()))
	require.Equal(t, "refresh-xyz", data.RefreshToken)
}

func TestTokenRefreshFailureSurfaced(t *testing.T) {
	now := Minute(time.Now())
	path := writeTokenFile(t, TokenData{
		RefreshToken:   "refresh-xyz",
		RefreshCreated: now,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "refresh denied")
	}))
	defer srv.Close()

	creds := New(Config{
		AppKey:    "app",
		SecretKey: "secret",
		TokenURL:  srv.URL,
		TokenFile: path,
	})
	_, err := creds.Token(context.Background())
	require.ErrorIs(t, err, ErrRefreshFailed)
	require.Contains(t, err.Error(), "refresh denied")
	require.Contains(t, err.Error(), "401")
}

func TestAuthorizeCodeTimeout(t *testing.T) {
	creds := New(Config{
		AppKey:      "app",
		SecretKey:   "secret",
		TokenFile:   filepath.Join(t.TempDir(), "nope.json"),
		ListenAddr:  "127.0.0.1:0",
		CodeTimeout: 50 * time.Millisecond,
	})
	_, err := creds.Token(context.Background())
	require.ErrorIs(t, err, ErrNoAuthCode)
}

func TestAuthorizeCanceled(t *testing.T) {
	creds := New(Config{
		AppKey:     "app",
		SecretKey:  "secret",
		TokenFile:  filepath.Join(t.TempDir(), "nope.json"),
		ListenAddr: "127.0.0.1:0",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := creds.Token(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCallbackSingleSlotHandoff(t *testing.T) {
	l := newCodeListener("127.0.0.1:0", "", "", zerolog.Nop())

	rec := httptest.NewRecorder()
	l.handle(rec, httptest.NewRequest(http.MethodGet, "/?code=first", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Only the first code is handed off.
	l.handle(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?code=second", nil))

	select {
	case code := <-l.Codes():
		require.Equal(t, "first", code)
	default:
		t.Fatal("expected a captured code")
	}
	select {
	case code := <-l.Codes():
		t.Fatalf("unexpected second code: %s", code)
	default:
	}
}

func TestCallbackRejectsMissingCode(t *testing.T) {
	l := newCodeListener("127.0.0.1:0", "", "", zerolog.Nop())
	rec := httptest.NewRecorder()
	l.handle(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorizeURL(t *testing.T) {
	creds := New(Config{
		AppKey:      "app key",
		SecretKey:   "secret",
		AuthURL:     "https://example.com/oauth/authorize",
		CallbackURL: "https://127.0.0.1:8182",
	})
	require.Equal(t,
		"https://example.com/oauth/authorize?client_id=app+key&redirect_uri=https%3A%2F%2F127.0.0.1%3A8182",
		creds.AuthorizeURL())
}
