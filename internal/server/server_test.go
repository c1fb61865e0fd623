package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/otp-todo/internal/config"
	"github.com/Tomlord1122/otp-todo/internal/database"
	"github.com/Tomlord1122/otp-todo/internal/mailer"
	"github.com/Tomlord1122/otp-todo/internal/repository"
	"github.com/Tomlord1122/otp-todo/internal/service"
	"github.com/Tomlord1122/otp-todo/internal/session"
)

const testOTP = "4821"

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *recordingSender) messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

type testApp struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
	sender *recordingSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tasks.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sender := &recordingSender{}
	deps := Dependencies{
		Tasks:    service.NewTaskService(repository.NewGormTaskRepository(db.GetDB()), sender, zerolog.Nop()),
		Auth:     service.NewAuthService(sender, func() string { return testOTP }, zerolog.Nop()),
		Sessions: session.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false),
		DB:       db,
		Logger:   zerolog.Nop(),
	}
	httpServer := NewServer(config.Config{Port: 8080, CORSOrigins: []string{"http://*"}}, deps)

	ts := httptest.NewServer(httpServer.Handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{t: t, server: ts, client: client, sender: sender}
}

func (a *testApp) do(req *http.Request) (*http.Response, string) {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, string(body)
}

func (a *testApp) get(path string) (*http.Response, string) {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

func (a *testApp) post(path string, form url.Values) (*http.Response, string) {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *testApp) login(email string) {
	a.t.Helper()
	resp, _ := a.post("/login", url.Values{"email": {email}})
	require.Equal(a.t, http.StatusFound, resp.StatusCode)
	resp, body := a.post("/verify", url.Values{"otp": {testOTP}})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	require.Contains(a.t, body, "Login successful")
}

func (a *testApp) apiTasks() []service.TaskResponse {
	a.t.Helper()
	resp, body := a.get("/api/tasks")
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	var tasks []service.TaskResponse
	require.NoError(a.t, json.Unmarshal([]byte(body), &tasks))
	return tasks
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestLoginScenario(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get("/")
	assertRedirect(t, resp, "/login")

	resp, body := app.get("/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="email"`)

	resp, body = app.post("/login", url.Values{"email": {""}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Email is required!")
	assert.Empty(t, app.sender.messages())

	resp, _ = app.post("/login", url.Values{"email": {"a@b.com"}})
	assertRedirect(t, resp, "/verify")

	sent := app.sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"a@b.com"}, sent[0].To)
	assert.Equal(t, "Your OTP for login is: "+testOTP, sent[0].Body)

	resp, body = app.get("/verify")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "OTP sent to your email!")
	assert.Contains(t, body, `name="otp"`)

	resp, body = app.post("/verify", url.Values{"otp": {"0000"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Invalid OTP")

	resp, _ = app.get("/")
	assertRedirect(t, resp, "/login")

	resp, body = app.post("/verify", url.Values{"otp": {testOTP}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Login successful")

	resp, body = app.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No tasks yet.")
	assert.Contains(t, body, "Signed in as a@b.com")
}

func TestLoginMailFailure(t *testing.T) {
	app := newTestApp(t)
	app.sender.fail(assert.AnError)

	resp, _ := app.post("/login", url.Values{"email": {"a@b.com"}})
	assertRedirect(t, resp, "/verify")

	_, body := app.get("/verify")
	assert.Contains(t, body, "Failed to send OTP. Try again later.")

	_, body = app.post("/verify", url.Values{"otp": {testOTP}})
	assert.Contains(t, body, "Login successful", "the code is stored even though mail failed")
}

func TestVerifyWithoutLogin(t *testing.T) {
	app := newTestApp(t)

	_, body := app.post("/verify", url.Values{"otp": {""}})
	assert.Contains(t, body, "Invalid OTP")

	resp, _ := app.get("/")
	assertRedirect(t, resp, "/login")
}

func TestTaskLifecycle(t *testing.T) {
	app := newTestApp(t)
	app.login("a@b.com")

	resp, _ := app.post("/", url.Values{"task_description": {"Buy milk"}, "due_date": {"2024-01-01"}})
	assertRedirect(t, resp, "/")

	resp, body := app.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Task added successfully!")
	assert.Contains(t, body, "Buy milk")
	assert.Contains(t, body, `href="/complete/1"`)

	sent := app.sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "📝 Task Added", sent[1].Subject)
	assert.Equal(t, []string{"a@b.com"}, sent[1].To)

	assert.Equal(t, []service.TaskResponse{{ID: 1, Description: "Buy milk", DueDate: "2024-01-01"}}, app.apiTasks())

	resp, _ = app.get("/complete/1")
	assertRedirect(t, resp, "/")
	assert.True(t, app.apiTasks()[0].Completed)

	resp, _ = app.get("/complete/1")
	assertRedirect(t, resp, "/")
	assert.False(t, app.apiTasks()[0].Completed)

	resp, _ = app.get("/delete/1")
	assertRedirect(t, resp, "/")
	assert.Empty(t, app.apiTasks())

	for _, path := range []string{"/complete/1", "/delete/1", "/complete/0", "/delete/abc", "/complete/99999999999999999999999"} {
		resp, _ = app.get(path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestDeleteKeepsOtherTasks(t *testing.T) {
	app := newTestApp(t)
	app.login("a@b.com")

	for _, desc := range []string{"one", "two", "three"} {
		resp, _ := app.post("/", url.Values{"task_description": {desc}, "due_date": {"friday"}})
		assertRedirect(t, resp, "/")
	}
	resp, _ := app.get("/complete/3")
	assertRedirect(t, resp, "/")

	resp, _ = app.get("/delete/2")
	assertRedirect(t, resp, "/")

	assert.Equal(t, []service.TaskResponse{
		{ID: 1, Description: "one", DueDate: "friday"},
		{ID: 3, Description: "three", DueDate: "friday", Completed: true},
	}, app.apiTasks())
}

func TestCreateTaskValidation(t *testing.T) {
	app := newTestApp(t)
	app.login("a@b.com")

	t.Run("incomplete input is ignored", func(t *testing.T) {
		for _, form := range []url.Values{
			{"task_description": {"Buy milk"}},
			{"due_date": {"2024-01-01"}},
			{"task_description": {""}, "due_date": {""}},
		} {
			resp, body := app.post("/", form)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotContains(t, body, "Task added successfully!")
		}
		assert.Empty(t, app.apiTasks())
	})

	t.Run("too long input is rejected with a notice", func(t *testing.T) {
		resp, body := app.post("/", url.Values{
			"task_description": {strings.Repeat("x", 201)},
			"due_date":         {"2024-01-01"},
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "at most 200 characters")
		assert.Empty(t, app.apiTasks())
	})
}

func TestCreateTaskMailFailure(t *testing.T) {
	app := newTestApp(t)
	app.login("a@b.com")
	app.sender.fail(assert.AnError)

	resp, _ := app.post("/", url.Values{"task_description": {"Buy milk"}, "due_date": {"2024-01-01"}})
	assertRedirect(t, resp, "/")

	_, body := app.get("/")
	assert.Contains(t, body, "Task added successfully!")
	assert.Len(t, app.apiTasks(), 1)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.login("a@b.com")

	resp, _ := app.post("/", url.Values{"task_description": {"Buy milk"}, "due_date": {"2024-01-01"}})
	assertRedirect(t, resp, "/")

	resp, _ = app.get("/logout")
	assertRedirect(t, resp, "/login")

	_, body := app.get("/login")
	assert.Contains(t, body, "logged out")

	for _, path := range []string{"/", "/complete/1", "/delete/1", "/api/tasks"} {
		resp, _ = app.get(path)
		assertRedirect(t, resp, "/login")
	}

	_, body = app.post("/verify", url.Values{"otp": {testOTP}})
	assert.Contains(t, body, "Invalid OTP", "old code no longer verifies")

	app.login("a@b.com")
	tasks := app.apiTasks()
	require.Len(t, tasks, 1, "logout does not touch the task table")
	assert.False(t, tasks[0].Completed)
}

func TestHealthHandler(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var stats map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	assert.Equal(t, "up", stats["status"])
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t)
	resp, _ := app.get("/login")
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}
