// Package report renders the attendance history for download.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/database"
)

// Header is the first row of every export.
var Header = []string{"Date", "Time", "Student ID", "Name", "Course"}

// WriteCSV writes one row per record in the given order. Times are rendered
// as HH:MM:SS in loc.
func WriteCSV(w io.Writer, records []database.AttendanceRecord, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date,
			r.Timestamp.In(loc).Format(time.TimeOnly),
			r.StudentID,
			r.Name,
			r.Course,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
