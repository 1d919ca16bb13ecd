// internal/domain/homework/homework.go
package homework

import (
	"context"
	"time"
)

// Status is the review state of a homework as reported by the API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// Homework is a single status record from the API. Only Name and Status are
// needed to render a notification, the rest is kept for logging.
type Homework struct {
	ID              int64
	Name            string
	Status          Status
	LessonName      string
	ReviewerComment string
	UpdatedAt       time.Time
}

// Response is the validated body of a status request.
type Response struct {
	CurrentDate time.Time
	Homeworks   []Homework
}

// Latest returns the most recently updated homework. Records without a date
// keep API order, which lists the newest record first.
func (r *Response) Latest() Homework {
	latest := r.Homeworks[0]
	for _, hw := range r.Homeworks[1:] {
		if hw.UpdatedAt.After(latest.UpdatedAt) {
			latest = hw
		}
	}
	return latest
}

// Source fetches raw status responses updated since the given moment.
type Source interface {
	FetchStatuses(ctx context.Context, since time.Time) ([]byte, error)
}
