package domain

import (
	"context"
	"time"
)

type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyWarning NotificationKind = "warning"
	NotifyError   NotificationKind = "error"
)

// Notification is a short message surfaced to one client.
type Notification struct {
	ID        string
	Title     string
	Message   string
	Kind      NotificationKind
	CreatedAt time.Time
}

// Notifier delivers notifications to a client.
type Notifier interface {
	Notify(ctx context.Context, clientID string, n Notification)
}
