// Package view renders the HTML pages and the fragments patched into them
// over datastar SSE.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/a-h/templ"
	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/fixmycity/fixmycity/internal/service"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
}

var (
	partials  = parse("partials.html")
	loginPage = parse("layout.html", "partials.html", "login.html")
	verify    = parse("layout.html", "partials.html", "verify.html")
	dashboard = parse("layout.html", "partials.html", "dashboard.html")
)

func parse(names ...string) *template.Template {
	patterns := make([]string, len(names))
	for i, name := range names {
		patterns[i] = "templates/" + name
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(files, patterns...))
}

// LoginData fills the sign-in and registration page.
type LoginData struct {
	Mode     string // "login" or "register"
	Name     string
	Email    string
	Role     domain.Role
	Error    string
	DemoMode bool
}

// VerifyData fills the one-time code page.
type VerifyData struct {
	Email         string
	ResendIn      int // seconds until a resend is allowed
	Error         string
	DemoMode      bool
	Notifications []domain.Notification
}

// NewVerifyData builds VerifyData from a session snapshot.
func NewVerifyData(snap domain.SessionSnapshot, now time.Time) VerifyData {
	return VerifyData{
		Email:    snap.PendingEmail,
		ResendIn: max(0, int(snap.ResendAfter.Sub(now).Seconds()+0.5)),
	}
}

// DashboardData fills the signed-in dashboard.
type DashboardData struct {
	User          domain.Identity
	Guest         bool
	IsAuthority   bool
	Issues        []domain.Issue
	Stats         *service.IssueStats
	Resolved      int
	Notifications []domain.Notification
	Error         string
}

// NewDashboardData builds DashboardData for the given session.
func NewDashboardData(record domain.SessionRecord, issues []domain.Issue, stats *service.IssueStats, notes []domain.Notification) DashboardData {
	data := DashboardData{
		User:          record.Identity,
		Guest:         record.Guest,
		IsAuthority:   record.Role == domain.RoleAuthority,
		Issues:        issues,
		Stats:         stats,
		Notifications: notes,
	}
	data.User.Role = record.Role
	if stats != nil {
		data.Resolved = stats.ByStatus[domain.StatusResolved]
	}
	return data
}

func LoginPage(data LoginData) templ.Component {
	return templ.FromGoHTML(loginPage.Lookup("layout"), data)
}

func VerifyPage(data VerifyData) templ.Component {
	return templ.FromGoHTML(verify.Lookup("layout"), data)
}

func DashboardPage(data DashboardData) templ.Component {
	return templ.FromGoHTML(dashboard.Lookup("layout"), data)
}

// NotificationList is the #notifications element, replaced whenever the feed changes.
func NotificationList(notes []domain.Notification) templ.Component {
	return templ.FromGoHTML(partials.Lookup("notifications"), notes)
}
