package server_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"pintu/internal/config"
	"pintu/internal/models"
	"pintu/internal/server"
	"pintu/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newRuntime(t *testing.T) *server.Runtime {
	t.Helper()
	cfg := &config.Config{
		ServiceName:  "pintu",
		RunMode:      config.ModeTest,
		SecretKey:    "test-secret-key",
		DatabaseURL:  config.InMemoryDatabaseURL(),
		LogLevel:     "error",
		SessionStore: config.SessionStoreMemory,
		SessionTTL:   time.Hour,
		BcryptCost:   bcrypt.MinCost,
	}
	rt, err := server.Bootstrap(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Shutdown() })
	return rt
}

// browser replays cookies between requests and can follow one redirect.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, app *fiber.App) *browser {
	return &browser{t: t, app: app, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	data, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(data)
}

func (b *browser) get(path string) (*http.Response, string) {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	return b.do(http.MethodPost, path, form)
}

// follow fetches the redirect target of resp, if it is a redirect.
func (b *browser) follow(resp *http.Response, body string) (*http.Response, string) {
	b.t.Helper()
	if resp.StatusCode != http.StatusFound && resp.StatusCode != http.StatusSeeOther {
		return resp, body
	}
	return b.get(resp.Header.Get("Location"))
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

// register creates an account and lands on the login page, which consumes
// the registration notice.
func (b *browser) register(username, password string) {
	b.t.Helper()
	resp, body := b.post("/register", credentials(username, password))
	require.Equal(b.t, http.StatusFound, resp.StatusCode)
	_, body = b.follow(resp, body)
	require.Contains(b.t, body, "Registration successful! Please log in.")
}

func (b *browser) login(username, password string) {
	b.t.Helper()
	resp, _ := b.post("/login", credentials(username, password))
	require.Equal(b.t, http.StatusFound, resp.StatusCode)
	require.Equal(b.t, "/", resp.Header.Get("Location"))
}

func storedUser(t *testing.T, rt *server.Runtime, username string) *models.User {
	t.Helper()
	var users []models.User
	require.NoError(t, rt.DB.Where("username = ?", username).Find(&users).Error)
	require.Len(t, users, 1)
	return &users[0]
}

func TestIndex(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)

	resp, body := b.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome")
	assert.Contains(t, body, "<title>Home - Pintu</title>")
}

func TestHealthAndStatic(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)

	resp, body := b.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"healthy"`)

	resp, body = b.get("/static/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".notice")

	resp, _ = b.get("/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegister_EndToEnd(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)

	resp, body := b.post("/register", credentials("testuser", "testpass123"))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, body = b.follow(resp, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Registration successful! Please log in.")

	user := storedUser(t, rt, "testuser")
	assert.NotEqual(t, "testpass123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("testpass123")))

	// The notice is shown only once.
	_, body = b.get("/login")
	assert.NotContains(t, body, "Registration successful")

	// Registering does not log in.
	_, body = b.get("/")
	assert.NotContains(t, body, "Welcome, testuser!")

	resp, body = b.post("/register", credentials("testuser", "another-pass"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Username already exists")
	assert.NotContains(t, body, "another-pass")
	assert.Equal(t, user.PasswordHash, storedUser(t, rt, "testuser").PasswordHash)
}

func TestRegister_RequiresFields(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)

	resp, body := b.post("/register", credentials("", "secret"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Username and password are required")

	_, body = b.post("/register", url.Values{"username": {"alice"}})
	assert.Contains(t, body, "Username and password are required")

	var count int64
	require.NoError(t, rt.DB.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegister_LongUsername(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)
	long := strings.Repeat("u", 300)
	renamed := strings.Repeat("r", 300)

	b.register(long, "secret1")
	assert.Equal(t, long, storedUser(t, rt, long).Username)

	b.login(long, "secret1")
	resp, body := b.post("/settings", url.Values{"action": {"change_username"}, "new_username": {renamed}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Username updated successfully.")
	storedUser(t, rt, renamed)
}

func TestRegister_WithoutContentType(t *testing.T) {
	rt := newRuntime(t)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("username=alice&password=secret1"))
	resp, err := rt.App.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Username and password are required")
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)
	b.register("alice", "secret1")

	resp, unknown := b.post("/login", credentials("nobody", "secret1"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, wrong := b.post("/login", credentials("alice", "wrong"))

	assert.NotContains(t, unknown, "Registration successful")

	assert.Contains(t, unknown, "Invalid username or password")
	assert.Contains(t, wrong, "Invalid username or password")
	assert.Equal(t, unknown, wrong)
}

func TestLoginLogout_SessionLifecycle(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)
	b.register("alice", "secret1")

	b.login("alice", "secret1")

	_, body := b.get("/")
	assert.Contains(t, body, "Welcome, alice!")
	_, body = b.get("/settings")
	assert.Contains(t, body, "Signed in as <strong>alice</strong>")

	// Already authenticated: login and register short-circuit home.
	resp, _ := b.get("/login")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	resp, _ = b.post("/login", credentials("alice", "wrong"))
	assert.Equal(t, "/", resp.Header.Get("Location"))
	resp, _ = b.get("/register")
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = b.get("/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = b.get("/")
	assert.NotContains(t, body, "Welcome, alice!")
	resp, _ = b.get("/settings")
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	rt := newRuntime(t)

	for _, path := range []string{"/logout", "/settings"} {
		b := newBrowser(t, rt.App)
		resp, body := b.get(path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)

		_, body = b.follow(resp, body)
		assert.Contains(t, body, "Please log in to see this page.", path)
	}

	b := newBrowser(t, rt.App)
	resp, _ := b.post("/settings", url.Values{"action": {"change_username"}, "new_username": {"x"}})
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestSettings_ChangeUsername(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)
	b.register("alice", "secret1")
	b.register("bob", "secret2")
	b.login("bob", "secret2")
	bobID := storedUser(t, rt, "bob").ID

	_, body := b.post("/settings", url.Values{"action": {"change_username"}, "new_username": {""}})
	assert.Contains(t, body, "Username is required")

	_, body = b.post("/settings", url.Values{"action": {"change_username"}, "new_username": {"alice"}})
	assert.Contains(t, body, "Username already exists")
	storedUser(t, rt, "alice")
	storedUser(t, rt, "bob")

	resp, body := b.post("/settings", url.Values{"action": {"change_username"}, "new_username": {"robert"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Username updated successfully.")
	assert.Contains(t, body, "Signed in as <strong>robert</strong>")
	assert.Equal(t, bobID, storedUser(t, rt, "robert").ID)

	// The session is still valid after the rename.
	_, body = b.get("/")
	assert.Contains(t, body, "Welcome, robert!")
}

func TestSettings_ChangePassword(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)
	b.register("alice", "secret1")
	b.login("alice", "secret1")
	original := storedUser(t, rt, "alice").PasswordHash

	change := func(current, next, confirm string) string {
		_, body := b.post("/settings", url.Values{
			"action":           {"change_password"},
			"current_password": {current},
			"new_password":     {next},
			"confirm_password": {confirm},
		})
		return body
	}

	assert.Contains(t, change("secret1", "", ""), "All password fields are required")
	assert.Contains(t, change("wrong", "newpass1", "newpass1"), "Current password is incorrect")
	assert.Contains(t, change("secret1", "newpass1", "newpass2"), "New passwords do not match")
	assert.Contains(t, change("secret1", "abc", "abc"), "Password must be at least 6 characters")
	assert.Equal(t, original, storedUser(t, rt, "alice").PasswordHash)

	assert.Contains(t, change("secret1", "newpass1", "newpass1"), "Password updated successfully.")
	updated := storedUser(t, rt, "alice").PasswordHash
	assert.NotEqual(t, original, updated)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated), []byte("newpass1")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(updated), []byte("secret1")))

	b.get("/logout")
	_, body := b.post("/login", credentials("alice", "secret1"))
	assert.Contains(t, body, "Invalid username or password")
	b.login("alice", "newpass1")
}

func TestSettings_UnknownAction(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	resp, body := b.post("/settings", url.Values{"action": {"delete_account"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Unknown settings action")
}

func TestMetricsCountWorkflows(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)
	b.register("alice", "secret1")
	b.post("/register", credentials("alice", "secret1"))

	_, body := b.get("/metrics")
	assert.Contains(t, body, `pintu_account_workflow_total{outcome="success",workflow="register"} 1`)
	assert.Contains(t, body, `pintu_account_workflow_total{outcome="duplicate_username",workflow="register"} 1`)
}

func TestSessionCookieIsEncrypted(t *testing.T) {
	rt := newRuntime(t)
	b := newBrowser(t, rt.App)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	cookie, ok := b.cookies["pintu_session"]
	require.True(t, ok)
	assert.True(t, cookie.HttpOnly)

	// A tampered cookie is not accepted as a session.
	cookie.Value = "tampered" + cookie.Value
	_, body := b.get("/")
	assert.NotContains(t, body, "Welcome, alice!")
}

func TestCookieKey(t *testing.T) {
	key := server.CookieKey("secret")
	assert.Len(t, key, 44)
	assert.Equal(t, key, server.CookieKey("secret"))
	assert.NotEqual(t, key, server.CookieKey("other"))
}
