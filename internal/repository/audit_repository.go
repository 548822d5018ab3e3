package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-desk/internal/domain"
)

// AuditRepository is the audit sink. Appends are best effort for callers.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
}

type auditRepository struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewAuditRepository writes entries to a capped Redis stream.
func NewAuditRepository(client *redis.Client, stream string, maxLen int64) AuditRepository {
	return &auditRepository{client: client, stream: stream, maxLen: maxLen}
}

func (r *auditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	if r.client == nil {
		return errors.New("redis client not configured")
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"id":          entry.ID,
			"actor":       entry.ActorID,
			"action":      entry.Action,
			"ticket_id":   strconv.FormatInt(entry.TicketID, 10),
			"detail":      entry.Detail,
			"occurred_at": entry.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	return r.client.XAdd(ctx, args).Err()
}
