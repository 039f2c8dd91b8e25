package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/badminton-pairing/internal/api/apierr"
	"github.com/mcoot/badminton-pairing/internal/api/response"
	"github.com/mcoot/badminton-pairing/internal/middleware"
	"github.com/mcoot/badminton-pairing/internal/services/session"
)

// SessionEvent is the event name carrying a full session view
const SessionEvent = "session"

// Publisher pushes the session view to the hub after every change
type Publisher struct {
	hub        *Hub
	controller session.ControllerInterface
	logger     *slog.Logger
}

// NewPublisher creates a new Publisher
func NewPublisher(hub *Hub, controller session.ControllerInterface, logger *slog.Logger) *Publisher {
	return &Publisher{
		hub:        hub,
		controller: controller,
		logger:     logger.With(slog.String("component", "events")),
	}
}

// sessionMessage renders the current session as an SSE message
func (p *Publisher) sessionMessage(ctx context.Context) ([]byte, error) {
	snap, err := p.controller.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(response.SessionFromSnapshot(snap, p.controller.Levels()))
	if err != nil {
		return nil, err
	}
	return formatMessage(SessionEvent, string(data)), nil
}

// PublishSession broadcasts the current session view
func (p *Publisher) PublishSession(ctx context.Context) {
	msg, err := p.sessionMessage(ctx)
	if err != nil {
		p.logger.Error("failed to render session event", slog.String("error", err.Error()))
		return
	}
	p.hub.Broadcast(msg)
}

// Stream handles GET /api/v1/events. The current session is sent first.
func (p *Publisher) Stream(w http.ResponseWriter, r *http.Request) {
	Serve(w, r, p.hub, func() []byte {
		msg, err := p.sessionMessage(r.Context())
		if err != nil {
			p.logger.Error("failed to render session event", slog.String("error", err.Error()))
			return nil
		}
		return msg
	})
}

// Middleware publishes the session after each successful write request.
// A stale start also changes the session since the court is cleared.
func (p *Publisher) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			wrapped := middleware.NewResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			if wrapped.Status() < http.StatusBadRequest ||
				wrapped.Header().Get(apierr.CodeHeader) == apierr.CodeStalePairing {
				p.PublishSession(r.Context())
			}
		})
	}
}
