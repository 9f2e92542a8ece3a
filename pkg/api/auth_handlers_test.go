package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippo-hq/nippo/pkg/middleware"
)

func TestRegister_Success(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, "POST", "/api/register", "", map[string]string{
		"username": "alice",
		"password": "Passw0rd!",
		"email":    "alice@x.com",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotZero(t, body["userId"])
}

func TestRegister_PolicyViolations(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		req  map[string]string
	}{
		{"short username", map[string]string{"username": "ab", "password": "Passw0rd!", "email": "a@b.co"}},
		{"bad email", map[string]string{"username": "alice", "password": "Passw0rd!", "email": "nope"}},
		{"weak password", map[string]string{"username": "alice", "password": "password", "email": "a@b.co"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.doJSON(t, "POST", "/api/register", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	ts := newTestServer(t)

	req := map[string]string{"username": "alice", "password": "Passw0rd!", "email": "alice@x.com"}
	rec := ts.doJSON(t, "POST", "/api/register", "", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.doJSON(t, "POST", "/api/register", "", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "already taken")
}

func TestLogin_Success(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "Passw0rd!", "alice@x.com")
	require.True(t, strings.HasPrefix(token, "nippo_"))

	rec := ts.doJSON(t, "GET", "/api/user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.NotZero(t, body["id"])
}

func TestLogin_SessionCookieAttributes(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.doJSON(t, "POST", "/api/register", "", map[string]string{
		"username": "alice", "password": "Passw0rd!", "email": "alice@x.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.doJSON(t, "POST", "/api/login", "", map[string]string{
		"username": "alice", "password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, middleware.SessionCookieName, c.Name)
	assert.True(t, c.HttpOnly, "session cookie must be HttpOnly")
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge, "cookie lifetime matches the session TTL")
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "alice", "Passw0rd!", "alice@x.com")

	rec := ts.doJSON(t, "POST", "/api/login", "", map[string]string{
		"username": "alice", "password": "WrongPass1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "no session on failed login")
}

func TestLogin_UnknownUserIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "alice", "Passw0rd!", "alice@x.com")

	wrongPass := ts.doJSON(t, "POST", "/api/login", "", map[string]string{
		"username": "alice", "password": "WrongPass1",
	})
	unknownUser := ts.doJSON(t, "POST", "/api/login", "", map[string]string{
		"username": "ghost", "password": "WrongPass1",
	})

	// Same status, same body: the endpoint must not reveal whether the
	// username exists.
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPass.Body.String(), unknownUser.Body.String())
	assert.Empty(t, unknownUser.Result().Cookies())
}

func TestLogin_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, "POST", "/api/login", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_OversizedFields(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, "POST", "/api/login", "", map[string]string{
		"username": "alice",
		"password": strings.Repeat("A", 1000),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Throttled(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "alice", "Passw0rd!", "alice@x.com")

	creds := map[string]string{"username": "alice", "password": "Passw0rd!"}

	// The login above consumed one attempt; four more fill the window
	for i := 0; i < 4; i++ {
		rec := ts.doJSON(t, "POST", "/api/login", "", creds)
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+2)
	}

	// 6th attempt is throttled even though the credentials are correct
	rec := ts.doJSON(t, "POST", "/api/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRegister_Throttled(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		// Invalid attempts count toward the limit too
		rec := ts.doJSON(t, "POST", "/api/register", "", map[string]string{"username": "ab"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := ts.doJSON(t, "POST", "/api/register", "", map[string]string{
		"username": "alice", "password": "Passw0rd!", "email": "alice@x.com",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice", "Passw0rd!", "alice@x.com")

	rec := ts.doJSON(t, "POST", "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The session is gone
	rec = ts.doJSON(t, "GET", "/api/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RequiresSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, "POST", "/api/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUser_NoSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, "GET", "/api/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.doJSON(t, "GET", "/api/user", "nippo_forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
