package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

// AuditService records lifecycle events in the audit sink. Sink failures are
// logged and never reach the operation that raised the event.
type AuditService struct {
	dispatcher events.Dispatcher
	sink       repository.AuditRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, sink repository.AuditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every lifecycle event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handleEvent)
	}
}

func (a *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	entry := domain.AuditEntry{
		ID:         event.ID,
		ActorID:    event.ActorID,
		Action:     string(event.Type),
		TicketID:   event.TicketID,
		Detail:     describe(event),
		OccurredAt: event.Timestamp,
	}
	a.logger.Debug("audit", zap.String("action", entry.Action), zap.Int64("ticket_id", entry.TicketID), zap.String("actor_id", entry.ActorID))

	if a.sink == nil {
		return nil
	}
	if err := a.sink.Append(ctx, entry); err != nil {
		a.logger.Warn("audit append failed",
			zap.String("event_id", event.ID),
			zap.String("action", entry.Action),
			zap.Int64("ticket_id", entry.TicketID),
			zap.Error(err))
	}
	return nil
}

func describe(event events.Event) string {
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		detail := fmt.Sprintf("title=%q priority=%d", payload.Title, payload.PriorityID)
		if payload.Category != nil {
			detail += fmt.Sprintf(" category=%q", *payload.Category)
		}
		return detail
	case events.TicketUpdatedPayload:
		parts := make([]string, 0, len(payload.Changes))
		for _, change := range payload.Changes {
			parts = append(parts, fmt.Sprintf("%s: %q -> %q", change.Field, change.Old, change.New))
		}
		if len(parts) == 0 {
			return fmt.Sprintf("no changes (version %d)", payload.Version)
		}
		return fmt.Sprintf("%s (version %d)", strings.Join(parts, ", "), payload.Version)
	case events.TicketCommentAddedPayload:
		return fmt.Sprintf("comment %d: %s", payload.CommentID, payload.BodyPreview)
	case events.TicketDeletedPayload:
		return fmt.Sprintf("title=%q", payload.Title)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", payload)
	}
}
