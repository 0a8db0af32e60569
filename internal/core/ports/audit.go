package ports

import (
	"context"

	"github.com/vidstream/account-service/internal/core/domain"
)

// AuditRecorder accepts auth events for asynchronous recording. Record must
// not block the request path; a full queue drops the event.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

// AuditRepository persists auth events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
