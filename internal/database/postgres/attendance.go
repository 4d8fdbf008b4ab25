package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkIfAbsent inserts a mark unless (studentID, date) already has one.
// The unique index on (student_id, date_str) makes this safe under concurrent writers.
func (r *AttendanceRepository) MarkIfAbsent(ctx context.Context, studentID, date string, at time.Time) (bool, error) {
	query := `
		INSERT INTO attendance (student_id, timestamp, date_str)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, date_str) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, studentID, at, date)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return n > 0, nil
}

// CountByDate returns the number of marks for a calendar day.
func (r *AttendanceRepository) CountByDate(ctx context.Context, date string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attendance WHERE date_str = $1", date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}

// ListAttendance returns marks joined with the student, most recent first.
func (r *AttendanceRepository) ListAttendance(ctx context.Context, limit int) ([]database.AttendanceRecord, error) {
	query := `
		SELECT a.id, a.student_id, a.timestamp, a.date_str, s.name, s.course
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		ORDER BY a.timestamp DESC, a.id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Timestamp, &rec.Date, &rec.Name, &rec.Course); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}
