package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/campus-attendance/internal/logger"
)

func TestAttendanceHandler_Dashboard(t *testing.T) {
	stores := newTestStores(t)
	stores.mark(t, "S002", fixedNow.AddDate(0, 0, -1))
	stores.mark(t, "S001", fixedNow)

	h := NewAttendanceHandler(stores.ledger, stores.students, logger.Nop())
	req := httptest.NewRequest("GET", "/api/v1/dashboard", nil)
	recorder := httptest.NewRecorder()

	h.Dashboard(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var result dashboardResponse
	parseJSONResponse(t, recorder, &result)

	if result.Today != "2024-03-05" {
		t.Errorf("expected today '2024-03-05', got '%s'", result.Today)
	}
	if result.TodayCount != 1 {
		t.Errorf("expected today_count 1, got %d", result.TodayCount)
	}
	if result.StudentCount != 2 {
		t.Errorf("expected student_count 2, got %d", result.StudentCount)
	}
	if len(result.Attendance) != 2 {
		t.Fatalf("expected 2 attendance rows, got %d", len(result.Attendance))
	}
	first := result.Attendance[0]
	if first.StudentID != "S001" || first.Name != "Jiří Novák" || first.Time != "09:15:00" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if result.Attendance[1].Date != "2024-03-04" {
		t.Errorf("expected second row on 2024-03-04, got '%s'", result.Attendance[1].Date)
	}
}

func TestAttendanceHandler_DashboardStorageError(t *testing.T) {
	stores := newTestStores(t)
	stores.attendance.CountError = errors.New("connection refused")

	h := NewAttendanceHandler(stores.ledger, stores.students, logger.Nop())
	recorder := httptest.NewRecorder()
	h.Dashboard(recorder, httptest.NewRequest("GET", "/api/v1/dashboard", nil))

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	assertJSONError(t, recorder, "storage unavailable")
}

func TestAttendanceHandler_DashboardStudentCountError(t *testing.T) {
	stores := newTestStores(t)
	stores.students.CountError = errors.New("connection refused")

	h := NewAttendanceHandler(stores.ledger, stores.students, logger.Nop())
	recorder := httptest.NewRecorder()
	h.Dashboard(recorder, httptest.NewRequest("GET", "/api/v1/dashboard", nil))

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}

func TestAttendanceHandler_List(t *testing.T) {
	stores := newTestStores(t)
	stores.mark(t, "S001", fixedNow.AddDate(0, 0, -2))
	stores.mark(t, "S001", fixedNow.AddDate(0, 0, -1))
	stores.mark(t, "S002", fixedNow)

	h := NewAttendanceHandler(stores.ledger, stores.students, logger.Nop())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantRows   int
	}{
		{"default limit", "", http.StatusOK, 3},
		{"limit one", "?limit=1", http.StatusOK, 1},
		{"zero means all", "?limit=0", http.StatusOK, 3},
		{"not a number", "?limit=abc", http.StatusBadRequest, 0},
		{"negative", "?limit=-1", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			h.List(recorder, httptest.NewRequest("GET", "/api/v1/attendance"+tt.query, nil))

			assertStatusCode(t, recorder, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				assertJSONError(t, recorder, "invalid limit")
				return
			}
			var rows []attendanceResponse
			parseJSONResponse(t, recorder, &rows)
			if len(rows) != tt.wantRows {
				t.Errorf("expected %d rows, got %d", tt.wantRows, len(rows))
			}
			if len(rows) > 0 && rows[0].StudentID != "S002" {
				t.Errorf("expected most recent mark first, got %s", rows[0].StudentID)
			}
		})
	}
}

func TestAttendanceHandler_Export(t *testing.T) {
	stores := newTestStores(t)
	stores.mark(t, "S002", fixedNow.AddDate(0, 0, -1))
	stores.mark(t, "S001", fixedNow)

	h := NewAttendanceHandler(stores.ledger, stores.students, logger.Nop())
	recorder := httptest.NewRecorder()
	h.Export(recorder, httptest.NewRequest("GET", "/api/v1/attendance/export", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "text/csv; charset=utf-8")

	disposition := recorder.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, "attendance.csv") {
		t.Errorf("unexpected Content-Disposition '%s'", disposition)
	}

	lines := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), recorder.Body.String())
	}
	if lines[0] != "Date,Time,Student ID,Name,Course" {
		t.Errorf("unexpected header '%s'", lines[0])
	}
	if lines[1] != "2024-03-05,09:15:00,S001,Jiří Novák,CS" {
		t.Errorf("unexpected first row '%s'", lines[1])
	}
}

func TestAttendanceHandler_ExportStorageError(t *testing.T) {
	stores := newTestStores(t)
	stores.attendance.ListError = errors.New("connection refused")

	h := NewAttendanceHandler(stores.ledger, stores.students, logger.Nop())
	recorder := httptest.NewRecorder()
	h.Export(recorder, httptest.NewRequest("GET", "/api/v1/attendance/export", nil))

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	assertContentType(t, recorder, "application/json")
}
