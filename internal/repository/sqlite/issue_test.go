package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/fixmycity/fixmycity/internal/repository/sqlite"
)

func newIssue(id string, created time.Time) *domain.Issue {
	return &domain.Issue{
		ID:            id,
		ReporterID:    "usr_001",
		ReporterName:  "Rahul Deshmukh",
		Category:      domain.CategoryRoad,
		Department:    "ROAD_MAINTENANCE",
		Title:         "Pothole " + id,
		Status:        domain.StatusOpen,
		Location:      domain.Location{Lat: 17.6599, Lng: 75.9064, Address: "Navi Peth"},
		Severity:      8,
		Priority:      85,
		TrafficImpact: domain.TrafficHigh,
		CreatedAt:     created,
	}
}

func TestIssueRepository_CreateAndGet(t *testing.T) {
	repo := sqlite.NewIssueRepository(newTestDB(t))
	ctx := context.Background()

	issue := newIssue("iss_1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := repo.Create(ctx, issue); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "iss_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != issue.Title || got.Location.Address != "Navi Peth" || got.Priority != 85 {
		t.Fatalf("unexpected issue: %+v", got)
	}
	if !got.CreatedAt.Equal(issue.CreatedAt) {
		t.Fatalf("expected CreatedAt %v, got %v", issue.CreatedAt, got.CreatedAt)
	}
}

func TestIssueRepository_CreateDuplicate(t *testing.T) {
	repo := sqlite.NewIssueRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, newIssue("iss_1", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, newIssue("iss_1", time.Now()))
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
}

func TestIssueRepository_GetMissing(t *testing.T) {
	repo := sqlite.NewIssueRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIssueRepository_ListFiltersNewestFirst(t *testing.T) {
	repo := sqlite.NewIssueRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := newIssue("iss_old", base)
	newer := newIssue("iss_new", base.Add(time.Hour))
	water := newIssue("iss_water", base.Add(2*time.Hour))
	water.Category = domain.CategoryWater
	water.Status = domain.StatusResolved
	water.ReporterID = "usr_002"

	for _, issue := range []*domain.Issue{older, newer, water} {
		if err := repo.Create(ctx, issue); err != nil {
			t.Fatalf("Create %s: %v", issue.ID, err)
		}
	}

	all, err := repo.List(ctx, domain.IssueFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "iss_water" || all[2].ID != "iss_old" {
		t.Fatalf("expected newest first, got %v", issueIDs(all))
	}

	tests := []struct {
		name   string
		filter domain.IssueFilter
		want   int
	}{
		{"by status", domain.IssueFilter{Status: domain.StatusOpen}, 2},
		{"by category", domain.IssueFilter{Category: domain.CategoryWater}, 1},
		{"by reporter", domain.IssueFilter{ReporterID: "usr_001"}, 2},
		{"combined", domain.IssueFilter{Status: domain.StatusOpen, ReporterID: "usr_002"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("expected %d issues, got %v", tc.want, issueIDs(got))
			}
		})
	}
}

func TestIssueRepository_UpdateStatus(t *testing.T) {
	repo := sqlite.NewIssueRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, newIssue("iss_1", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "iss_1", domain.StatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err := repo.GetByID(ctx, "iss_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", got.Status)
	}

	if err := repo.UpdateStatus(ctx, "nope", domain.StatusResolved); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIssueRepository_UpvoteAndCount(t *testing.T) {
	repo := sqlite.NewIssueRepository(newTestDB(t))
	ctx := context.Background()

	if n, err := repo.Count(ctx); err != nil || n != 0 {
		t.Fatalf("expected empty table, got %d (%v)", n, err)
	}
	if err := repo.Create(ctx, newIssue("iss_1", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for want := 1; want <= 2; want++ {
		got, err := repo.Upvote(ctx, "iss_1", nil)
		if err != nil {
			t.Fatalf("Upvote: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d upvotes, got %d", want, got)
		}
	}
	if _, err := repo.Upvote(ctx, "nope", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n, err := repo.Count(ctx); err != nil || n != 1 {
		t.Fatalf("expected 1 issue, got %d (%v)", n, err)
	}
}

func TestIssueRepository_UpvoteRescores(t *testing.T) {
	repo := sqlite.NewIssueRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, newIssue("iss_1", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var gotSeverity, gotUpvotes int
	var gotImpact domain.TrafficImpact
	rescore := func(severity int, impact domain.TrafficImpact, upvotes int) int {
		gotSeverity, gotImpact, gotUpvotes = severity, impact, upvotes
		return 42
	}
	if _, err := repo.Upvote(ctx, "iss_1", rescore); err != nil {
		t.Fatalf("Upvote: %v", err)
	}
	if gotSeverity != 8 || gotImpact != domain.TrafficHigh || gotUpvotes != 1 {
		t.Fatalf("unexpected rescore input: severity=%d impact=%s upvotes=%d", gotSeverity, gotImpact, gotUpvotes)
	}

	got, err := repo.GetByID(ctx, "iss_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Priority != 42 || got.Upvotes != 1 {
		t.Fatalf("expected priority 42 with 1 upvote, got %d with %d", got.Priority, got.Upvotes)
	}
}

func issueIDs(issues []domain.Issue) []string {
	ids := make([]string, len(issues))
	for i, issue := range issues {
		ids[i] = issue.ID
	}
	return ids
}
