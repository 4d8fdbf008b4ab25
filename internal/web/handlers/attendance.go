package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/constants"
	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/report"
)

// Ledger is the read side of the attendance service.
type Ledger interface {
	Today() string
	Location() *time.Location
	CountToday(ctx context.Context) (int, error)
	History(ctx context.Context, limit int) ([]database.AttendanceRecord, error)
}

// AttendanceHandler serves the dashboard, history and CSV export.
type AttendanceHandler struct {
	ledger   Ledger
	students database.StudentReader
	log      *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(ledger Ledger, students database.StudentReader, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, students: students, log: log}
}

type attendanceResponse struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Course    string    `json:"course"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

type dashboardResponse struct {
	Today        string               `json:"today"`
	TodayCount   int                  `json:"today_count"`
	StudentCount int                  `json:"student_count"`
	Attendance   []attendanceResponse `json:"attendance"`
}

func (h *AttendanceHandler) toResponse(records []database.AttendanceRecord) []attendanceResponse {
	loc := h.ledger.Location()
	out := make([]attendanceResponse, len(records))
	for i, r := range records {
		out[i] = attendanceResponse{
			ID:        r.ID,
			StudentID: r.StudentID,
			Name:      r.Name,
			Course:    r.Course,
			Date:      r.Date,
			Time:      r.Timestamp.In(loc).Format(time.TimeOnly),
			Timestamp: r.Timestamp,
		}
	}
	return out
}

func (h *AttendanceHandler) respondStorageError(w http.ResponseWriter, op string, err error) {
	h.log.Error("attendance read failed", "op", op, "error", err)
	status, msg := errorStatus(err)
	respondError(w, status, msg)
}

// Dashboard returns today's count, the number of students and the full history.
func (h *AttendanceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	todayCount, err := h.ledger.CountToday(ctx)
	if err != nil {
		h.respondStorageError(w, "count today", err)
		return
	}
	studentCount, err := h.students.CountStudents(ctx)
	if err != nil {
		h.respondStorageError(w, "count students", database.NewStorageError("count students", err))
		return
	}
	history, err := h.ledger.History(ctx, 0)
	if err != nil {
		h.respondStorageError(w, "history", err)
		return
	}

	respondJSON(w, http.StatusOK, dashboardResponse{
		Today:        h.ledger.Today(),
		TodayCount:   todayCount,
		StudentCount: studentCount,
		Attendance:   h.toResponse(history),
	})
}

// List returns the most recent marks, bounded by ?limit.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, constants.DefaultHistoryLimit)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	history, err := h.ledger.History(r.Context(), limit)
	if err != nil {
		h.respondStorageError(w, "history", err)
		return
	}
	respondJSON(w, http.StatusOK, h.toResponse(history))
}

// Export downloads the full history as CSV.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	history, err := h.ledger.History(r.Context(), 0)
	if err != nil {
		h.respondStorageError(w, "export", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+constants.ExportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, history, h.ledger.Location()); err != nil {
		h.log.Warn("csv export interrupted", "error", err)
	}
}
