package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/attendance"
	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/database/mock"
	"github.com/kozaktomas/campus-attendance/internal/logger"
)

// fixedNow is the clock used by handler tests: 2024-03-05 09:15:00 UTC.
var fixedNow = time.Date(2024, 3, 5, 9, 15, 0, 0, time.UTC)

// testStores holds in-memory stores shared by a handler under test.
type testStores struct {
	students   *mock.MockStudentStore
	attendance *mock.MockAttendanceStore
	ledger     *attendance.Ledger
}

// newTestStores creates stores with two enrolled students and a UTC ledger.
func newTestStores(t *testing.T) *testStores {
	t.Helper()
	students := mock.NewMockStudentStore()
	students.AddStudent(database.Student{ID: "S001", Name: "Jiří Novák", Course: "CS"})
	students.AddStudent(database.Student{ID: "S002", Name: "Anna Smith", Course: "Math"})

	att := mock.NewMockAttendanceStore(students)
	ledger := attendance.NewLedger(att, attendance.Options{
		Location: time.UTC,
		Clock:    func() time.Time { return fixedNow },
	}, logger.Nop(), nil)

	return &testStores{students: students, attendance: att, ledger: ledger}
}

// mark records an attendance mark for id at the given time.
func (s *testStores) mark(t *testing.T, id string, at time.Time) {
	t.Helper()
	if _, err := s.ledger.MarkIfAbsentAt(context.Background(), id, at); err != nil {
		t.Fatalf("mark %s: %v", id, err)
	}
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
