// Package events fans out attendance events to in-process listeners and,
// optionally, to a Redis pub/sub channel.
package events

import (
	"context"
	"errors"
	"time"
)

// Event types.
const (
	// TypeAttendanceMarked is published when a new attendance mark is created.
	TypeAttendanceMarked = "attendance.marked"
	// TypeRosterChanged is published when students are enrolled outside the server.
	TypeRosterChanged = "roster.changed"
)

// Event is a single notification.
type Event struct {
	Type      string    `json:"type"`
	StudentID string    `json:"student_id,omitempty"`
	Date      string    `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
