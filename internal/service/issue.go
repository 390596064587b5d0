package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/google/uuid"
)

// highPriority is the priority from which an open issue counts as urgent on
// the authority dashboard.
const highPriority = 80

// defaultLocation is used when a report arrives without coordinates.
var defaultLocation = domain.Location{Lat: 17.6599, Lng: 75.9064, Address: "Solapur City Center"}

// departmentByCategory routes a report to a department when the reporter did not pick one.
var departmentByCategory = map[domain.IssueCategory]string{
	domain.CategoryRoad:    "ROAD_MAINTENANCE",
	domain.CategoryWater:   "WATER_DEPT",
	domain.CategoryGarbage: "WASTE_MGMT",
	domain.CategoryLights:  "ELECTRICAL",
}

// IssueService handles issue reporting, triage and dashboard aggregation.
type IssueService struct {
	issues domain.IssueRepository
}

// NewIssueService creates a new IssueService.
func NewIssueService(issues domain.IssueRepository) *IssueService {
	return &IssueService{issues: issues}
}

// ReportInput is what a citizen submits when posting an issue.
type ReportInput struct {
	Category      domain.IssueCategory
	Department    string
	Title         string
	Description   string
	Location      *domain.Location
	ImageURL      string
	Severity      int
	TrafficImpact domain.TrafficImpact
}

// IssueStats aggregates the issue feed for dashboards.
type IssueStats struct {
	Total            int
	ByStatus         map[domain.IssueStatus]int
	ByCategory       map[domain.IssueCategory]int
	HighPriorityOpen int
	ResolutionRate   float64 // 0..1
}

// Report files a new issue on behalf of a citizen.
func (s *IssueService) Report(ctx context.Context, reporter domain.Identity, in ReportInput) (*domain.Issue, error) {
	if reporter.Role != domain.RoleCitizen {
		return nil, fmt.Errorf("%w: only citizens can report issues", domain.ErrUnauthorized)
	}
	if !validCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidationFailed, in.Category)
	}
	if in.Severity == 0 {
		in.Severity = 5
	}
	if in.Severity < 1 || in.Severity > 10 {
		return nil, fmt.Errorf("%w: severity must be between 1 and 10", domain.ErrValidationFailed)
	}
	switch in.TrafficImpact {
	case "":
		in.TrafficImpact = domain.TrafficLow
	case domain.TrafficLow, domain.TrafficMedium, domain.TrafficHigh:
	default:
		return nil, fmt.Errorf("%w: unknown traffic impact %q", domain.ErrValidationFailed, in.TrafficImpact)
	}

	issue := &domain.Issue{
		ID:            "iss_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		ReporterID:    reporter.ID,
		ReporterName:  reporter.Name,
		Category:      in.Category,
		Department:    strings.TrimSpace(in.Department),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Status:        domain.StatusOpen,
		Location:      defaultLocation,
		ImageURL:      in.ImageURL,
		Severity:      in.Severity,
		TrafficImpact: in.TrafficImpact,
	}
	if issue.Title == "" {
		issue.Title = "New City Issue"
	}
	if issue.Department == "" {
		issue.Department = departmentByCategory[in.Category]
	}
	if in.Location != nil {
		issue.Location = *in.Location
	}
	issue.Priority = ComputePriority(issue.Severity, issue.TrafficImpact, 0)

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	slog.Info("issue reported", "issue", issue.ID, "reporter", reporter.ID, "category", issue.Category)
	return issue, nil
}

// Get returns a single issue.
func (s *IssueService) Get(ctx context.Context, id string) (*domain.Issue, error) {
	return s.issues.GetByID(ctx, id)
}

// List returns issues matching the filter, newest first.
func (s *IssueService) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	return s.issues.List(ctx, filter)
}

// Upvote adds one upvote, rescores the issue and returns the new total.
func (s *IssueService) Upvote(ctx context.Context, id string) (int, error) {
	return s.issues.Upvote(ctx, id, ComputePriority)
}

// UpdateStatus moves an issue through the triage workflow. Only authorities may do this.
func (s *IssueService) UpdateStatus(ctx context.Context, actor domain.Identity, id string, status domain.IssueStatus) error {
	if actor.Role != domain.RoleAuthority {
		return fmt.Errorf("%w: only municipal staff can change issue status", domain.ErrUnauthorized)
	}
	switch status {
	case domain.StatusOpen, domain.StatusAssigned, domain.StatusInProgress, domain.StatusResolved:
	default:
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidationFailed, status)
	}
	if err := s.issues.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	slog.Info("issue status changed", "issue", id, "status", status, "actor", actor.ID)
	return nil
}

// Stats aggregates every issue by status and category.
func (s *IssueService) Stats(ctx context.Context) (*IssueStats, error) {
	issues, err := s.issues.List(ctx, domain.IssueFilter{})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	stats := &IssueStats{
		Total:      len(issues),
		ByStatus:   make(map[domain.IssueStatus]int),
		ByCategory: make(map[domain.IssueCategory]int),
	}
	for _, issue := range issues {
		stats.ByStatus[issue.Status]++
		stats.ByCategory[issue.Category]++
		if issue.Status != domain.StatusResolved && issue.Priority >= highPriority {
			stats.HighPriorityOpen++
		}
	}
	if stats.Total > 0 {
		stats.ResolutionRate = float64(stats.ByStatus[domain.StatusResolved]) / float64(stats.Total)
	}
	return stats, nil
}

// SeedMockIssues installs the demo feed when no issues exist yet.
func (s *IssueService) SeedMockIssues(ctx context.Context) error {
	n, err := s.issues.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, issue := range mockIssues(time.Now().UTC()) {
		if err := s.issues.Create(ctx, &issue); err != nil {
			return fmt.Errorf("seed issue %s: %w", issue.ID, err)
		}
	}
	return nil
}

// ComputePriority scores an issue from 1 to 100. Severity dominates; traffic
// impact shifts the score by five points either way and community upvotes add
// one point per twenty votes.
func ComputePriority(severity int, impact domain.TrafficImpact, upvotes int) int {
	score := severity * 10
	switch impact {
	case domain.TrafficHigh:
		score += 5
	case domain.TrafficLow:
		score -= 5
	}
	score += upvotes / 20
	return max(1, min(score, 100))
}

func validCategory(c domain.IssueCategory) bool {
	_, ok := departmentByCategory[c]
	return ok
}
