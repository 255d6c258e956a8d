package ports

import (
	"context"

	"github.com/99minutos/authgate/internal/core/domain"
)

// AuditSink persists authentication events.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AuditPublisher accepts events for asynchronous recording. Publish must not block.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}
