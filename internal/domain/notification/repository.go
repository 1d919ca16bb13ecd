// internal/domain/notification/repository.go
package notification

import "context"

// Journal appends dispatch attempts. It is write-only: nothing is read back on
// startup, so poll state still starts empty after a restart.
type Journal interface {
	Record(ctx context.Context, entry *Entry) error
}
