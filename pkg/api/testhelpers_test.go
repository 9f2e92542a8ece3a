package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for testing
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nippo-hq/nippo/pkg/auth"
	"github.com/nippo-hq/nippo/pkg/middleware"
	"github.com/nippo-hq/nippo/pkg/observability"
	"github.com/nippo-hq/nippo/pkg/storage"
)

// testServer wires a Server over an in-memory database with the production
// middleware stack intact.
type testServer struct {
	*Server
	store    *storage.Store
	sessions *auth.SessionManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitSchema(db))

	store := storage.NewStore(db)
	sessions := auth.NewSessionManager(auth.NewMemorySessionStore(), time.Hour)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	server := NewServer(Options{
		Store:           store,
		Sessions:        sessions,
		Logger:          logger,
		LoginLimiter:    middleware.NewRateLimiter(middleware.LoginRateLimitConfig()),
		RegisterLimiter: middleware.NewRateLimiter(middleware.RegisterRateLimitConfig()),
	})

	return &testServer{Server: server, store: store, sessions: sessions}
}

// newTestServerWithMetrics is newTestServer with a live metrics registry
// and the /metrics endpoint routed.
func newTestServerWithMetrics(t *testing.T) *testServer {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitSchema(db))

	store := storage.NewStore(db)
	sessions := auth.NewSessionManager(auth.NewMemorySessionStore(), time.Hour)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	server := NewServer(Options{
		Store:           store,
		Sessions:        sessions,
		Logger:          logger,
		Metrics:         observability.NewMetrics(),
		LoginLimiter:    middleware.NewRateLimiter(middleware.LoginRateLimitConfig()),
		RegisterLimiter: middleware.NewRateLimiter(middleware.RegisterRateLimitConfig()),
	})

	return &testServer{Server: server, store: store, sessions: sessions}
}

// doJSON performs a JSON request against the server. A non-empty token is
// sent as the session cookie.
func (ts *testServer) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.0.0.1:54321"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates a user through the public API and returns the
// session token from the login cookie.
func (ts *testServer) registerAndLogin(t *testing.T, username, password, email string) string {
	t.Helper()

	rec := ts.doJSON(t, "POST", "/api/register", "", map[string]string{
		"username": username,
		"password": password,
		"email":    email,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register failed: %s", rec.Body.String())

	rec = ts.doJSON(t, "POST", "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("login response carried no session cookie")
	return ""
}

// jsonUnmarshal keeps list assertions terse
func jsonUnmarshal(data []byte, dest interface{}) error {
	return json.Unmarshal(data, dest)
}

// decodeBody unmarshals a JSON response body into a map
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
