package domain

import (
	"context"
	"time"
)

type IssueCategory string

const (
	CategoryRoad    IssueCategory = "ROAD"
	CategoryWater   IssueCategory = "WATER"
	CategoryGarbage IssueCategory = "GARBAGE"
	CategoryLights  IssueCategory = "LIGHTS"
)

type IssueStatus string

const (
	StatusOpen       IssueStatus = "OPEN"
	StatusAssigned   IssueStatus = "ASSIGNED"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusResolved   IssueStatus = "RESOLVED"
)

type TrafficImpact string

const (
	TrafficLow    TrafficImpact = "LOW"
	TrafficMedium TrafficImpact = "MEDIUM"
	TrafficHigh   TrafficImpact = "HIGH"
)

// Location is a point on the city map with an optional street address.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}

// Issue is a municipal problem reported by a citizen.
type Issue struct {
	ID               string
	ReporterID       string
	ReporterName     string
	Category         IssueCategory
	Department       string
	Title            string
	Description      string
	Status           IssueStatus
	Location         Location
	ImageURL         string
	ResolvedImageURL string
	Upvotes          int
	Comments         int
	Severity         int // 1-10
	Priority         int // 1-100
	TrafficImpact    TrafficImpact
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IssueFilter narrows an issue listing. Zero fields match everything.
type IssueFilter struct {
	Status     IssueStatus
	Category   IssueCategory
	ReporterID string
}

// PriorityFunc scores an issue from its severity, traffic impact and upvotes.
type PriorityFunc func(severity int, impact TrafficImpact, upvotes int) int

// IssueRepository defines persistence operations for issues.
type IssueRepository interface {
	Create(ctx context.Context, issue *Issue) error
	GetByID(ctx context.Context, id string) (*Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]Issue, error)
	UpdateStatus(ctx context.Context, id string, status IssueStatus) error
	// Upvote adds one vote and returns the new total. A non-nil rescore
	// recomputes the priority from the updated counts in the same transaction.
	Upvote(ctx context.Context, id string, rescore PriorityFunc) (int, error)
	Count(ctx context.Context) (int, error)
}
