// internal/domain/notification/entry.go
package notification

import (
	"database/sql"
	"time"
)

// Entry is one dispatch attempt.
// Corresponds to the 'notification_journal' table.
type Entry struct {
	ID        int64
	CycleID   string
	Kind      MessageKind
	ChatID    int64
	Message   string
	Delivered bool
	ErrorText sql.NullString // Delivery failure, if any
	CreatedAt time.Time
}
