// Package attendance records at most one mark per student per calendar day.
package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/events"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/stats"
)

// Status is the outcome of MarkIfAbsent.
type Status int

const (
	Created Status = iota + 1
	AlreadyPresent
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case AlreadyPresent:
		return "already_present"
	default:
		return "unknown"
	}
}

// Options configures a Ledger. Zero values use the local zone, time.Now and
// no publisher.
type Options struct {
	Location  *time.Location
	Clock     func() time.Time
	Publisher events.Publisher
}

// Ledger is the attendance service used by the recognition loop and the API.
type Ledger struct {
	store     database.AttendanceWriter
	loc       *time.Location
	clock     func() time.Time
	publisher events.Publisher
	log       *logger.Logger
	counters  *stats.Counters

	// Students known to be marked on seenDate. Marks are never deleted so a
	// hit can skip the store.
	mu       sync.Mutex
	seenDate string
	seen     map[string]struct{}
}

// NewLedger creates a ledger over store.
func NewLedger(store database.AttendanceWriter, opts Options, log *logger.Logger, counters *stats.Counters) *Ledger {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if counters == nil {
		counters = &stats.Counters{}
	}
	return &Ledger{
		store:     store,
		loc:       opts.Location,
		clock:     opts.Clock,
		publisher: opts.Publisher,
		log:       log,
		counters:  counters,
		seen:      make(map[string]struct{}),
	}
}

// Location returns the zone calendar days are computed in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// DateOf returns the calendar day of t in the ledger's zone.
func (l *Ledger) DateOf(t time.Time) string {
	return t.In(l.loc).Format(database.DateLayout)
}

// Today returns the current calendar day.
func (l *Ledger) Today() string {
	return l.DateOf(l.clock())
}

// MarkIfAbsent records studentID as present today.
func (l *Ledger) MarkIfAbsent(ctx context.Context, studentID string) (Status, error) {
	return l.MarkIfAbsentAt(ctx, studentID, l.clock())
}

// MarkIfAbsentAt records studentID as present on the calendar day of at.
// Store failures are returned as *database.StorageError.
func (l *Ledger) MarkIfAbsentAt(ctx context.Context, studentID string, at time.Time) (Status, error) {
	date := l.DateOf(at)
	if l.cached(studentID, date) {
		return AlreadyPresent, nil
	}

	created, err := l.store.MarkIfAbsent(ctx, studentID, date, at)
	if err != nil {
		return 0, database.NewStorageError("mark attendance", err)
	}
	l.remember(studentID, date)

	if !created {
		return AlreadyPresent, nil
	}

	l.counters.MarksCreated.Add(1)
	l.log.Info("attendance marked", "student_id", studentID, "date", date)
	l.publish(ctx, events.Event{
		Type:      events.TypeAttendanceMarked,
		StudentID: studentID,
		Date:      date,
		Timestamp: at,
	})
	return Created, nil
}

func (l *Ledger) cached(studentID, date string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if date != l.seenDate {
		return false
	}
	_, ok := l.seen[studentID]
	return ok
}

func (l *Ledger) remember(studentID, date string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if date != l.seenDate {
		// Only the most recent day is cached.
		if date < l.seenDate {
			return
		}
		l.seenDate = date
		clear(l.seen)
	}
	l.seen[studentID] = struct{}{}
}

func (l *Ledger) publish(ctx context.Context, e events.Event) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, e); err != nil {
		l.counters.EventPublishErrors.Add(1)
		l.log.Warn("failed to publish attendance event", "student_id", e.StudentID, "error", err)
	}
}

// CountToday returns the number of marks for the current day.
func (l *Ledger) CountToday(ctx context.Context) (int, error) {
	n, err := l.store.CountByDate(ctx, l.Today())
	if err != nil {
		return 0, database.NewStorageError("count attendance", err)
	}
	return n, nil
}

// History returns marks most recent first. A limit <= 0 returns everything.
func (l *Ledger) History(ctx context.Context, limit int) ([]database.AttendanceRecord, error) {
	records, err := l.store.ListAttendance(ctx, limit)
	if err != nil {
		return nil, database.NewStorageError("list attendance", err)
	}
	return records, nil
}
