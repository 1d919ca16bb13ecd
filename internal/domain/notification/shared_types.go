// internal/domain/notification/shared_types.go
package notification

// MessageKind tells a status notification from an error notification.
type MessageKind string

const (
	MessageKindStatus MessageKind = "STATUS"
	MessageKindError  MessageKind = "ERROR"
)
