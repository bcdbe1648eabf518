package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/delivery/internal/service/auth"
	"github.com/nkiryanov/delivery/internal/testutil"
	"github.com/nkiryanov/delivery/tests/e2e"
)

const (
	LoginURL   = "/auth/login"
	RefreshURL = "/auth/refresh"
	LogoutURL  = "/auth/logout"
	SessionURL = "/auth/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func post(t *testing.T, url string, data string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(data))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	return resp, string(body)
}

func session(t *testing.T, url string, access string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	return resp, string(body)
}

type loginResponse struct {
	AccessToken  string          `json:"access_token"`
	TokenType    string          `json:"token_type"`
	RefreshToken json.RawMessage `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func Test_Auth(t *testing.T) {
	t.Parallel()

	mongo := testutil.StartMongoContainer(t)
	t.Cleanup(mongo.Terminate)

	login := func(t *testing.T, srvURL string) loginResponse {
		t.Helper()

		resp, body := post(t, srvURL+LoginURL, `{"username": "alice", "password": "correctpw"}`)
		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

		var data loginResponse
		require.NoError(t, json.Unmarshal([]byte(body), &data))
		return data
	}

	refresh := func(t *testing.T, srvURL string, refreshToken json.RawMessage) refreshResponse {
		t.Helper()

		resp, body := post(t, srvURL+RefreshURL, string(refreshToken))
		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

		var data refreshResponse
		require.NoError(t, json.Unmarshal([]byte(body), &data))
		return data
	}

	t.Run("login refresh and expire", func(t *testing.T) {
		clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}

		e2e.Serve(mongo.Database, t, auth.Config{Now: clock.Now}, func(srvURL string, s e2e.Services) {
			_, err := s.UserService.CreateUser(t.Context(), "alice", "correctpw")
			require.NoError(t, err)

			tokens := login(t, srvURL)
			require.Equal(t, "Bearer", tokens.TokenType)

			refreshed := refresh(t, srvURL, tokens.RefreshToken)
			require.Equal(t, "Bearer", refreshed.TokenType)

			resp, body := session(t, srvURL+SessionURL, refreshed.AccessToken)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "refreshed access token has to be valid. Body: %s", body)

			clock.Advance(5*24*time.Hour + time.Second)
			resp, body = post(t, srvURL+RefreshURL, string(tokens.RefreshToken))
			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{"error": "auth_failed", "message": "Invalid token"}`, body)
		})
	})

	t.Run("login with wrong password", func(t *testing.T) {
		e2e.Serve(mongo.Database, t, auth.Config{}, func(srvURL string, s e2e.Services) {
			_, err := s.UserService.CreateUser(t.Context(), "alice", "correctpw")
			require.NoError(t, err)

			resp, body := post(t, srvURL+LoginURL, `{"username": "alice", "password": "wrongpw"}`)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{"error": "auth_failed", "message": "Wrong credentials"}`, body)
			require.Equal(t, 0, s.Sessions.Len())
		})
	})

	t.Run("login unknown user", func(t *testing.T) {
		e2e.Serve(mongo.Database, t, auth.Config{}, func(srvURL string, _ e2e.Services) {
			resp, body := post(t, srvURL+LoginURL, `{"username": "bob", "password": "correctpw"}`)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("refresh subject username", func(t *testing.T) {
		e2e.Serve(mongo.Database, t, auth.Config{RefreshSubject: auth.RefreshSubjectUsername}, func(srvURL string, s e2e.Services) {
			_, err := s.UserService.CreateUser(t.Context(), "alice", "correctpw")
			require.NoError(t, err)

			refreshed := refresh(t, srvURL, login(t, srvURL).RefreshToken)

			resp, body := session(t, srvURL+SessionURL, refreshed.AccessToken)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"subject":"alice"`)
		})
	})

	t.Run("logout", func(t *testing.T) {
		e2e.Serve(mongo.Database, t, auth.Config{}, func(srvURL string, s e2e.Services) {
			_, err := s.UserService.CreateUser(t.Context(), "alice", "correctpw")
			require.NoError(t, err)
			tokens := login(t, srvURL)

			resp, body := post(t, srvURL+LogoutURL, string(tokens.RefreshToken))
			require.Equalf(t, http.StatusNoContent, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = post(t, srvURL+RefreshURL, string(tokens.RefreshToken))
			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "refresh after logout. Body: %s", body)
		})
	})
}
