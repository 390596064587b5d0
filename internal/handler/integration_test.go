package handler_test

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func expectRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect to %s, got %d", want, resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != want {
		t.Fatalf("expected redirect to %s, got %s", want, loc)
	}
}

func TestIntegration_LoginVerifyDashboardRestartLogout(t *testing.T) {
	env := newTestEnv(t)
	srv := env.server(t)
	client := newClient(t)

	// 1. The sign-in page mints a client cookie.
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || !strings.Contains(body, `action="/login"`) {
		t.Fatalf("home: expected sign-in form, got %d", resp.StatusCode)
	}
	srvURL, _ := url.Parse(srv.URL)
	if len(client.Jar.Cookies(srvURL)) == 0 {
		t.Fatal("expected client cookie after first visit")
	}

	// 2. Submit credentials.
	resp, err = client.PostForm(srv.URL+"/login", url.Values{
		"email":    {"admin@solapur.gov"},
		"password": {"admin_password"},
		"role":     {"AUTHORITY"},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	expectRedirect(t, resp, "/verify")

	// 3. The verify page shows the pending email and the issued code.
	resp, err = client.Get(srv.URL + "/verify")
	if err != nil {
		t.Fatalf("GET /verify: %v", err)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "admin@solapur.gov") || !strings.Contains(body, "Identity Verification") {
		t.Fatal("verify: expected pending email and code notification")
	}

	// 4. A wrong code keeps the client on the verify page.
	resp, err = client.PostForm(srv.URL+"/verify", url.Values{"code": {"000000"}})
	if err != nil {
		t.Fatalf("POST /verify: %v", err)
	}
	if body := readBody(t, resp); resp.StatusCode != http.StatusUnauthorized || !strings.Contains(body, "Invalid verification code.") {
		t.Fatalf("wrong code: expected 401 with message, got %d", resp.StatusCode)
	}

	// 5. The demo bypass code completes the attempt.
	resp, err = client.PostForm(srv.URL+"/verify", url.Values{"code": {"123456"}})
	if err != nil {
		t.Fatalf("POST /verify: %v", err)
	}
	expectRedirect(t, resp, "/dashboard")

	resp, err = client.Get(srv.URL + "/dashboard")
	if err != nil {
		t.Fatalf("GET /dashboard: %v", err)
	}
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || !strings.Contains(body, "City overview") {
		t.Fatalf("dashboard: expected authority view, got %d", resp.StatusCode)
	}

	// 6. Switch to the citizen view.
	resp, err = client.PostForm(srv.URL+"/role", url.Values{"role": {"CITIZEN"}})
	if err != nil {
		t.Fatalf("POST /role: %v", err)
	}
	expectRedirect(t, resp, "/dashboard")

	// 7. A restarted server restores the session, role included.
	restarted := newTestEnvAt(t, env.dbPath).server(t)
	// Cookies are scoped by host, not port, so the jar carries over.
	resp, err = client.Get(restarted.URL + "/dashboard")
	if err != nil {
		t.Fatalf("GET /dashboard after restart: %v", err)
	}
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Report an issue") {
		t.Fatalf("restart: expected restored citizen dashboard, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Inspector Kulkarni") {
		t.Fatal("restart: expected restored identity on the dashboard")
	}

	// 8. Logout, after which the dashboard sends the client back to sign in.
	resp, err = client.PostForm(restarted.URL+"/logout", nil)
	if err != nil {
		t.Fatalf("POST /logout: %v", err)
	}
	expectRedirect(t, resp, "/")

	resp, err = client.Get(restarted.URL + "/dashboard")
	if err != nil {
		t.Fatalf("GET /dashboard after logout: %v", err)
	}
	expectRedirect(t, resp, "/")

	// The sign-in form remembers the last login.
	resp, err = client.Get(restarted.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	if body := readBody(t, resp); !strings.Contains(body, `value="admin@solapur.gov"`) {
		t.Fatal("expected remembered email on the sign-in form")
	}
}

func TestIntegration_RegistrationAndCancel(t *testing.T) {
	srv := newTestEnv(t).server(t)
	client := newClient(t)

	resp, err := client.PostForm(srv.URL+"/register", url.Values{
		"name":     {"Meera"},
		"email":    {"meera@solapur.in"},
		"password": {"pw"},
		"role":     {"CITIZEN"},
	})
	if err != nil {
		t.Fatalf("POST /register: %v", err)
	}
	expectRedirect(t, resp, "/verify")

	// Mid-attempt, the home page forwards to verification.
	resp, err = client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	expectRedirect(t, resp, "/verify")

	resp, err = client.PostForm(srv.URL+"/verify/cancel", nil)
	if err != nil {
		t.Fatalf("POST /verify/cancel: %v", err)
	}
	expectRedirect(t, resp, "/")

	// The cancelled registrant was never stored.
	resp, err = client.PostForm(srv.URL+"/login", url.Values{
		"email":    {"meera@solapur.in"},
		"password": {"pw"},
		"role":     {"CITIZEN"},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	if body := readBody(t, resp); resp.StatusCode != http.StatusUnauthorized || !strings.Contains(body, "Invalid email or password.") {
		t.Fatalf("login after cancel: expected 401, got %d", resp.StatusCode)
	}
}

func TestIntegration_IssuesByRole(t *testing.T) {
	srv := newTestEnv(t).server(t)

	anonymous := newClient(t)
	if code := doJSON(t, anonymous, http.MethodGet, srv.URL+"/api/issues", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous issues: expected 401, got %d", code)
	}

	citizen := newClient(t)
	if code := doJSON(t, citizen, http.MethodPost, srv.URL+"/api/auth/guest", nil, nil); code != http.StatusOK {
		t.Fatalf("guest: expected 200, got %d", code)
	}

	var created struct {
		Issue struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Priority int    `json:"priority"`
		} `json:"issue"`
	}
	code := doJSON(t, citizen, http.MethodPost, srv.URL+"/api/issues", map[string]any{
		"category": "WATER", "title": "Burst pipe", "severity": 9, "trafficImpact": "HIGH",
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("report: expected 201, got %d", code)
	}
	if created.Issue.Status != "OPEN" || created.Issue.Priority != 95 {
		t.Fatalf("unexpected issue: %+v", created.Issue)
	}

	issueURL := srv.URL + "/api/issues/" + created.Issue.ID
	if code := doJSON(t, citizen, http.MethodPost, issueURL+"/status", map[string]string{"status": "RESOLVED"}, nil); code != http.StatusForbidden {
		t.Fatalf("citizen status change: expected 403, got %d", code)
	}
	var votes struct {
		Upvotes int `json:"upvotes"`
	}
	if code := doJSON(t, citizen, http.MethodPost, issueURL+"/upvote", nil, &votes); code != http.StatusOK || votes.Upvotes != 1 {
		t.Fatalf("upvote: expected 200 with 1 vote, got %d (%d)", code, votes.Upvotes)
	}

	authority := newClient(t)
	doJSON(t, authority, http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"email": "admin@solapur.gov", "password": "admin_password", "role": "AUTHORITY",
	}, nil)
	if code := doJSON(t, authority, http.MethodPost, srv.URL+"/api/auth/verify", map[string]string{"code": "123456"}, nil); code != http.StatusOK {
		t.Fatalf("authority verify: expected 200, got %d", code)
	}
	if code := doJSON(t, authority, http.MethodPost, srv.URL+"/api/issues", map[string]any{"category": "ROAD"}, nil); code != http.StatusForbidden {
		t.Fatalf("authority report: expected 403, got %d", code)
	}
	if code := doJSON(t, authority, http.MethodPost, issueURL+"/status", map[string]string{"status": "RESOLVED"}, &created); code != http.StatusOK {
		t.Fatalf("authority status change: expected 200, got %d", code)
	}
	if created.Issue.Status != "RESOLVED" {
		t.Fatalf("expected RESOLVED, got %s", created.Issue.Status)
	}

	var stats struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"byStatus"`
	}
	if code := doJSON(t, authority, http.MethodGet, srv.URL+"/api/dashboard/stats", nil, &stats); code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", code)
	}
	if stats.Total != 10 || stats.ByStatus["RESOLVED"] != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestIntegration_NotificationStreamAndDismiss(t *testing.T) {
	srv := newTestEnv(t).server(t)
	client := newClient(t)

	if code := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/guest", nil, nil); code != http.StatusOK {
		t.Fatalf("guest: expected 200, got %d", code)
	}

	var list struct {
		Notifications []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"notifications"`
	}
	doJSON(t, client, http.MethodGet, srv.URL+"/api/notifications", nil, &list)
	if len(list.Notifications) != 1 || list.Notifications[0].Title != "Guest Access Granted" {
		t.Fatalf("unexpected notifications: %+v", list.Notifications)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/notifications/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET /notifications/stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream, got %q", ct)
	}

	// The first event patches the current feed.
	scanner := bufio.NewScanner(resp.Body)
	waitFor := func(want string) {
		t.Helper()
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), want) {
				return
			}
		}
		t.Fatalf("stream ended before %q: %v", want, scanner.Err())
	}
	waitFor("Guest Access Granted")

	// Dismissing re-patches the feed.
	id := list.Notifications[0].ID
	if code := doJSON(t, client, http.MethodDelete, srv.URL+"/api/notifications/"+id, nil, nil); code != http.StatusNoContent {
		t.Fatalf("dismiss: expected 204, got %d", code)
	}
	waitFor("No notifications.")

	if code := doJSON(t, client, http.MethodDelete, srv.URL+"/api/notifications/"+id, nil, nil); code != http.StatusNotFound {
		t.Fatalf("second dismiss: expected 404, got %d", code)
	}
}

func TestIntegration_PageIssueActionsRequireSignIn(t *testing.T) {
	srv := newTestEnv(t).server(t)

	upvotesOf := func(c *http.Client, id string) int {
		t.Helper()
		var list struct {
			Issues []struct {
				ID      string `json:"id"`
				Upvotes int    `json:"upvotes"`
			} `json:"issues"`
		}
		if code := doJSON(t, c, http.MethodGet, srv.URL+"/api/issues", nil, &list); code != http.StatusOK {
			t.Fatalf("list issues: expected 200, got %d", code)
		}
		for _, issue := range list.Issues {
			if issue.ID == id {
				return issue.Upvotes
			}
		}
		t.Fatalf("issue %s not listed", id)
		return 0
	}

	viewer := newClient(t)
	if code := doJSON(t, viewer, http.MethodPost, srv.URL+"/api/auth/guest", nil, nil); code != http.StatusOK {
		t.Fatalf("guest: expected 200, got %d", code)
	}
	before := upvotesOf(viewer, "iss_1")

	anonymous := newClient(t)
	for _, path := range []string{"/issues/iss_1/upvote", "/issues/iss_1/status", "/issues", "/role"} {
		resp, err := anonymous.PostForm(srv.URL+path, url.Values{"status": {"RESOLVED"}, "role": {"AUTHORITY"}})
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		expectRedirect(t, resp, "/")
	}

	if after := upvotesOf(viewer, "iss_1"); after != before {
		t.Fatalf("expected %d upvotes to be unchanged, got %d", before, after)
	}

	// A signed-in client's upvote still counts.
	resp, err := viewer.PostForm(srv.URL+"/issues/iss_1/upvote", nil)
	if err != nil {
		t.Fatalf("POST upvote: %v", err)
	}
	expectRedirect(t, resp, "/dashboard")
	if after := upvotesOf(viewer, "iss_1"); after != before+1 {
		t.Fatalf("expected %d upvotes, got %d", before+1, after)
	}
}
