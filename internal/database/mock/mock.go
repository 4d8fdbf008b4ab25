// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/database"
)

// MockStudentStore is an in-memory implementation of database.StudentWriter
type MockStudentStore struct {
	mu       sync.RWMutex
	students map[string]database.Student
	corrupt  map[string]error

	// Error injection
	CreateError     error
	GetError        error
	ListError       error
	CountError      error
	LoadRosterError error

	// Call tracking
	CreateCalls     int
	LoadRosterCalls int
}

// NewMockStudentStore creates a new mock student store
func NewMockStudentStore() *MockStudentStore {
	return &MockStudentStore{
		students: make(map[string]database.Student),
		corrupt:  make(map[string]error),
	}
}

// AddStudent adds a student directly, bypassing conflict checks
func (m *MockStudentStore) AddStudent(s database.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.students[s.ID] = s
}

// AddCorruptRow registers a row that LoadRoster reports as skipped with err
func (m *MockStudentStore) AddCorruptRow(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corrupt[id] = err
}

// CreateStudent stores a student unless the ID is taken
func (m *MockStudentStore) CreateStudent(ctx context.Context, s database.Student) (*database.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	if _, ok := m.students[s.ID]; ok {
		return nil, database.ErrStudentExists
	}
	s.Embedding = slices.Clone(s.Embedding)
	s.CreatedAt = time.Now()
	m.students[s.ID] = s
	out := s
	return &out, nil
}

// GetStudent retrieves a student by ID, returns nil if not found
func (m *MockStudentStore) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// ListStudents returns all students ordered by ID
func (m *MockStudentStore) ListStudents(ctx context.Context) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Student, 0, len(m.students))
	for _, s := range m.students {
		s.Embedding = nil
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b database.Student) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// CountStudents returns the number of stored students
func (m *MockStudentStore) CountStudents(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// LoadRoster returns entries in ID order plus any registered corrupt rows
func (m *MockStudentStore) LoadRoster(ctx context.Context) (*database.RosterLoad, error) {
	m.mu.Lock()
	m.LoadRosterCalls++
	m.mu.Unlock()
	if m.LoadRosterError != nil {
		return nil, m.LoadRosterError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	load := &database.RosterLoad{}
	ids := make([]string, 0, len(m.students))
	for id := range m.students {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		s := m.students[id]
		load.Entries = append(load.Entries, database.RosterEntry{
			StudentID: s.ID,
			Name:      s.Name,
			Embedding: slices.Clone(s.Embedding),
		})
	}
	for id, err := range m.corrupt {
		load.Skipped = append(load.Skipped, database.SkippedRow{StudentID: id, Err: err})
	}
	return load, nil
}

// MockAttendanceStore is an in-memory implementation of database.AttendanceWriter
type MockAttendanceStore struct {
	mu       sync.RWMutex
	marks    []database.AttendanceMark
	nextID   int64
	students database.StudentReader

	// Error injection
	MarkError  error
	CountError error
	ListError  error

	// Call tracking
	MarkCalls int
}

// NewMockAttendanceStore creates a mock ledger store. students resolves names
// and courses for ListAttendance and may be nil.
func NewMockAttendanceStore(students database.StudentReader) *MockAttendanceStore {
	return &MockAttendanceStore{students: students}
}

// MarkIfAbsent records a mark unless (studentID, date) already exists
func (m *MockAttendanceStore) MarkIfAbsent(ctx context.Context, studentID, date string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkCalls++
	if m.MarkError != nil {
		return false, m.MarkError
	}
	for _, mk := range m.marks {
		if mk.StudentID == studentID && mk.Date == date {
			return false, nil
		}
	}
	m.nextID++
	m.marks = append(m.marks, database.AttendanceMark{
		ID:        m.nextID,
		StudentID: studentID,
		Timestamp: at,
		Date:      date,
	})
	return true, nil
}

// CountByDate returns the number of marks for a day
func (m *MockAttendanceStore) CountByDate(ctx context.Context, date string) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, mk := range m.marks {
		if mk.Date == date {
			n++
		}
	}
	return n, nil
}

// ListAttendance returns marks most recent first
func (m *MockAttendanceStore) ListAttendance(ctx context.Context, limit int) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	marks := slices.Clone(m.marks)
	m.mu.RUnlock()

	slices.SortFunc(marks, func(a, b database.AttendanceMark) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(marks) > limit {
		marks = marks[:limit]
	}

	records := make([]database.AttendanceRecord, 0, len(marks))
	for _, mk := range marks {
		rec := database.AttendanceRecord{AttendanceMark: mk}
		if m.students != nil {
			if s, err := m.students.GetStudent(ctx, mk.StudentID); err == nil && s != nil {
				rec.Name = s.Name
				rec.Course = s.Course
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Marks returns a copy of all stored marks in insertion order
func (m *MockAttendanceStore) Marks() []database.AttendanceMark {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.marks)
}
