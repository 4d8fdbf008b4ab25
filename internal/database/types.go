package database

import (
	"time"
)

// Student is an enrolled student with the face embedding from their enrollment photo.
type Student struct {
	ID        string
	Name      string
	Course    string
	Embedding []float32
	CreatedAt time.Time
}

// AttendanceMark is a single attendance record for a student on a calendar day.
type AttendanceMark struct {
	ID        int64
	StudentID string
	Timestamp time.Time
	Date      string // YYYY-MM-DD in the ledger's time zone
}

// AttendanceRecord is an attendance mark joined with the student's identity.
type AttendanceRecord struct {
	AttendanceMark
	Name   string
	Course string
}

// RosterEntry is the part of a student the recognition roster needs.
type RosterEntry struct {
	StudentID string
	Name      string
	Embedding []float32
}

// SkippedRow describes a student row that could not be loaded into the roster.
type SkippedRow struct {
	StudentID string
	Err       error
}

// RosterLoad is the result of reading all roster entries from storage.
// Rows that fail to deserialize are reported in Skipped instead of failing the load.
type RosterLoad struct {
	Entries []RosterEntry
	Skipped []SkippedRow
}

// DateLayout is the layout of AttendanceMark.Date.
const DateLayout = "2006-01-02"
