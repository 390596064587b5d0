package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/fixmycity/fixmycity/internal/handler"
	"github.com/fixmycity/fixmycity/internal/repository/sqlite"
	"github.com/fixmycity/fixmycity/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testEnv struct {
	deps   handler.Deps
	dbPath string
}

// newTestEnv wires the full stack on a fresh SQLite database in demo mode.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, filepath.Join(t.TempDir(), "test.db"))
}

// newTestEnvAt wires the stack on an existing database path, which is how a
// test simulates a server restart.
func newTestEnvAt(t *testing.T, dbPath string) *testEnv {
	t.Helper()
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	directory := service.NewDirectory(db.Records(), 4, service.DemoAccounts())
	if err := directory.Initialize(ctx); err != nil {
		t.Fatalf("Initialize directory: %v", err)
	}
	issues := service.NewIssueService(db.Issues())
	if err := issues.SeedMockIssues(ctx); err != nil {
		t.Fatalf("SeedMockIssues: %v", err)
	}

	center := service.NewNotificationCenter()
	sessions := service.NewSessions(service.SessionDeps{
		Directory: directory,
		Issuer:    service.NewOTPIssuer(true),
		Store:     db.Records(),
		Notifier:  center,
	}, time.Hour, center.Forget)

	return &testEnv{
		dbPath: dbPath,
		deps: handler.Deps{
			Tokens:        service.NewClientTokens(testJWTSecret),
			Sessions:      sessions,
			Notifications: center,
			Issues:        issues,
			AuthLimiter:   service.NewTokenBucket(100, 100),
			DemoMode:      true,
		},
	}
}

func (e *testEnv) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, e.deps)
	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv
}

// newClient returns a client with its own cookie jar that does not follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// doJSON sends body as JSON and decodes the response into out when non-nil.
func doJSON(t *testing.T, c *http.Client, method, url string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

// latestCode pulls the most recently issued code out of the client's notifications.
func latestCode(t *testing.T, c *http.Client, baseURL string) string {
	t.Helper()
	var body struct {
		Notifications []struct {
			Message string `json:"message"`
		} `json:"notifications"`
	}
	if code := doJSON(t, c, http.MethodGet, baseURL+"/api/notifications", nil, &body); code != http.StatusOK {
		t.Fatalf("list notifications: expected 200, got %d", code)
	}
	for _, n := range body.Notifications {
		if code := sixDigits.FindString(n.Message); code != "" {
			return code
		}
	}
	t.Fatal("no code found in notifications")
	return ""
}
