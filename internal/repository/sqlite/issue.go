package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
)

// IssueRepository implements domain.IssueRepository using SQLite.
type IssueRepository struct {
	db *sql.DB
}

// NewIssueRepository creates a new SQLite-backed IssueRepository.
func NewIssueRepository(db *DB) *IssueRepository {
	return &IssueRepository{db: db.SqlDB}
}

const issueColumns = `id, reporter_id, reporter_name, category, department, title, description,
	status, lat, lng, address, image_url, resolved_image_url, upvotes, comments,
	severity, priority, traffic_impact, created_at, updated_at`

func (r *IssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO issues (`+issueColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.ReporterID, issue.ReporterName, issue.Category, issue.Department,
		issue.Title, issue.Description, issue.Status, issue.Location.Lat, issue.Location.Lng,
		issue.Location.Address, issue.ImageURL, issue.ResolvedImageURL, issue.Upvotes,
		issue.Comments, issue.Severity, issue.Priority, issue.TrafficImpact,
		issue.CreatedAt.UTC(), issue.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: issue %s already exists", domain.ErrValidationFailed, issue.ID)
		}
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func (r *IssueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query issue by id: %w", err)
	}
	return issue, nil
}

// List returns issues matching the filter, newest first.
func (r *IssueRepository) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.ReporterID != "" {
		where = append(where, "reporter_id = ?")
		args = append(args, filter.ReporterID)
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, *issue)
	}
	return issues, rows.Err()
}

func (r *IssueRepository) UpdateStatus(ctx context.Context, id string, status domain.IssueStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE issues SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update issue status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upvote increments the upvote counter and returns the new total. When rescore
// is set the stored priority is recomputed from the new count.
func (r *IssueRepository) Upvote(ctx context.Context, id string, rescore domain.PriorityFunc) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upvote: %w", err)
	}
	defer tx.Rollback()

	var (
		upvotes, severity int
		impact            domain.TrafficImpact
	)
	err = tx.QueryRowContext(ctx,
		"UPDATE issues SET upvotes = upvotes + 1, updated_at = ? WHERE id = ? RETURNING upvotes, severity, traffic_impact",
		time.Now().UTC(), id,
	).Scan(&upvotes, &severity, &impact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("upvote issue: %w", err)
	}

	if rescore != nil {
		priority := rescore(severity, impact, upvotes)
		if _, err := tx.ExecContext(ctx, "UPDATE issues SET priority = ? WHERE id = ?", priority, id); err != nil {
			return 0, fmt.Errorf("rescore issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upvote: %w", err)
	}
	return upvotes, nil
}

func (r *IssueRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM issues").Scan(&n); err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var issue domain.Issue
	err := row.Scan(
		&issue.ID, &issue.ReporterID, &issue.ReporterName, &issue.Category, &issue.Department,
		&issue.Title, &issue.Description, &issue.Status, &issue.Location.Lat, &issue.Location.Lng,
		&issue.Location.Address, &issue.ImageURL, &issue.ResolvedImageURL, &issue.Upvotes,
		&issue.Comments, &issue.Severity, &issue.Priority, &issue.TrafficImpact,
		&issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}
