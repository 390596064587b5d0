package handler

import (
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/fixmycity/fixmycity/internal/service"
)

// IdentityDTO is the JSON representation of a signed-in identity. It never
// carries credential material.
type IdentityDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Reputation int    `json:"reputation"`
	Avatar     string `json:"avatar"`
	Followers  int    `json:"followers"`
	Following  int    `json:"following"`
}

func toIdentityDTO(i domain.Identity) IdentityDTO {
	return IdentityDTO{
		ID:         i.ID,
		Name:       i.Name,
		Email:      i.Email,
		Role:       string(i.Role),
		Reputation: i.Reputation,
		Avatar:     i.Avatar,
		Followers:  i.Followers,
		Following:  i.Following,
	}
}

// SessionDTO is the JSON representation of a client's session.
type SessionDTO struct {
	State        string         `json:"state"`
	User         *IdentityDTO   `json:"user,omitempty"`
	Guest        bool           `json:"guest,omitempty"`
	PendingEmail string         `json:"pendingEmail,omitempty"`
	ResendAfter  string         `json:"resendAfter,omitempty"`
	Remembered   *RememberedDTO `json:"remembered,omitempty"`
}

// RememberedDTO pre-fills the login form.
type RememberedDTO struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toSessionDTO(snap domain.SessionSnapshot, remembered *domain.RememberedLogin) SessionDTO {
	dto := SessionDTO{
		State:        string(snap.State),
		Guest:        snap.Guest,
		PendingEmail: snap.PendingEmail,
	}
	if snap.Identity != nil {
		user := toIdentityDTO(*snap.Identity)
		dto.User = &user
	}
	if !snap.ResendAfter.IsZero() {
		dto.ResendAfter = snap.ResendAfter.UTC().Format(time.RFC3339)
	}
	if remembered != nil {
		dto.Remembered = &RememberedDTO{Email: remembered.Email, Role: string(remembered.Role)}
	}
	return dto
}

// NotificationDTO is the JSON representation of a notification.
type NotificationDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"createdAt"`
}

func toNotificationDTOs(notes []domain.Notification) []NotificationDTO {
	dtos := make([]NotificationDTO, len(notes))
	for i, n := range notes {
		dtos[i] = NotificationDTO{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Kind:      string(n.Kind),
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return dtos
}

// LocationDTO is the JSON representation of a map location.
type LocationDTO struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// IssueDTO is the JSON representation of an issue.
type IssueDTO struct {
	ID               string      `json:"id"`
	ReporterID       string      `json:"reporterId"`
	ReporterName     string      `json:"reporterName"`
	Category         string      `json:"category"`
	Department       string      `json:"department"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Status           string      `json:"status"`
	Location         LocationDTO `json:"location"`
	ImageURL         string      `json:"imageUrl,omitempty"`
	ResolvedImageURL string      `json:"resolvedImageUrl,omitempty"`
	Upvotes          int         `json:"upvotes"`
	Comments         int         `json:"comments"`
	Severity         int         `json:"severity"`
	Priority         int         `json:"priority"`
	TrafficImpact    string      `json:"trafficImpact"`
	CreatedAt        string      `json:"createdAt"`
	UpdatedAt        string      `json:"updatedAt"`
}

func toIssueDTO(i domain.Issue) IssueDTO {
	return IssueDTO{
		ID:               i.ID,
		ReporterID:       i.ReporterID,
		ReporterName:     i.ReporterName,
		Category:         string(i.Category),
		Department:       i.Department,
		Title:            i.Title,
		Description:      i.Description,
		Status:           string(i.Status),
		Location:         LocationDTO(i.Location),
		ImageURL:         i.ImageURL,
		ResolvedImageURL: i.ResolvedImageURL,
		Upvotes:          i.Upvotes,
		Comments:         i.Comments,
		Severity:         i.Severity,
		Priority:         i.Priority,
		TrafficImpact:    string(i.TrafficImpact),
		CreatedAt:        i.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        i.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toIssueDTOs(issues []domain.Issue) []IssueDTO {
	dtos := make([]IssueDTO, len(issues))
	for i, issue := range issues {
		dtos[i] = toIssueDTO(issue)
	}
	return dtos
}

// StatsDTO is the JSON representation of the dashboard aggregates.
type StatsDTO struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"byStatus"`
	ByCategory       map[string]int `json:"byCategory"`
	HighPriorityOpen int            `json:"highPriorityOpen"`
	ResolutionRate   float64        `json:"resolutionRate"`
}

func toStatsDTO(s *service.IssueStats) StatsDTO {
	dto := StatsDTO{
		Total:            s.Total,
		ByStatus:         make(map[string]int, len(s.ByStatus)),
		ByCategory:       make(map[string]int, len(s.ByCategory)),
		HighPriorityOpen: s.HighPriorityOpen,
		ResolutionRate:   s.ResolutionRate,
	}
	for k, v := range s.ByStatus {
		dto.ByStatus[string(k)] = v
	}
	for k, v := range s.ByCategory {
		dto.ByCategory[string(k)] = v
	}
	return dto
}
