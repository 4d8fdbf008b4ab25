package database

import (
	"context"
	"time"
)

// StudentReader provides read-only access to enrolled students
type StudentReader interface {
	// GetStudent retrieves a student by ID, returns nil if not found
	GetStudent(ctx context.Context, id string) (*Student, error)
	// ListStudents returns all students ordered by ID
	ListStudents(ctx context.Context) ([]Student, error)
	// CountStudents returns the number of enrolled students
	CountStudents(ctx context.Context) (int, error)
	// LoadRoster reads every student's embedding in ID order.
	// Rows whose embedding cannot be decoded are skipped and reported.
	LoadRoster(ctx context.Context) (*RosterLoad, error)
}

// StudentWriter provides write access to students
type StudentWriter interface {
	StudentReader

	// CreateStudent stores a new student. Returns ErrStudentExists if the ID is taken;
	// existing students are never overwritten.
	CreateStudent(ctx context.Context, student Student) (*Student, error)
}

// AttendanceReader provides read-only access to the attendance ledger
type AttendanceReader interface {
	// CountByDate returns the number of marks recorded for a calendar day
	CountByDate(ctx context.Context, date string) (int, error)
	// ListAttendance returns marks joined with student identity, most recent first.
	// A limit <= 0 returns the full history.
	ListAttendance(ctx context.Context, limit int) ([]AttendanceRecord, error)
}

// AttendanceWriter provides write access to the attendance ledger
type AttendanceWriter interface {
	AttendanceReader

	// MarkIfAbsent records a mark for (studentID, date) unless one already exists.
	// Returns true when a new mark was created.
	MarkIfAbsent(ctx context.Context, studentID, date string, at time.Time) (bool, error)
}
