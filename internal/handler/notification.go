package handler

import (
	"log/slog"
	"net/http"

	"github.com/fixmycity/fixmycity/internal/service"
	"github.com/fixmycity/fixmycity/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// NotificationHandler serves the client's notification feed.
type NotificationHandler struct {
	center *service.NotificationCenter
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(center *service.NotificationCenter) *NotificationHandler {
	return &NotificationHandler{center: center}
}

// HandleList returns the feed, newest first.
// GET /api/notifications
// Response: {"notifications": [...]}
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clientID := SessionFromContext(r.Context()).ClientID()
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": toNotificationDTOs(h.center.List(clientID)),
	})
}

// HandleDismiss removes one notification.
// DELETE /api/notifications/{id}
// Response: 204 No Content or 404
func (h *NotificationHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	clientID := SessionFromContext(r.Context()).ClientID()
	if !h.center.Dismiss(clientID, r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "Notification not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStream keeps an SSE connection open and re-patches #notifications
// every time the feed changes.
// GET /notifications/stream
func (h *NotificationHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	clientID := SessionFromContext(r.Context()).ClientID()

	changes, unsubscribe := h.center.Subscribe(clientID)
	defer unsubscribe()

	sse := datastar.NewSSE(w, r)
	patch := func() error {
		return sse.PatchElementTempl(view.NotificationList(h.center.List(clientID)))
	}

	if err := patch(); err != nil {
		slog.Debug("notification stream closed", "client", clientID, "error", err)
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-changes:
			if err := patch(); err != nil {
				slog.Debug("notification stream closed", "client", clientID, "error", err)
				return
			}
		}
	}
}
