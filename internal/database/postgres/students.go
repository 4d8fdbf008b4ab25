package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/pgvector/pgvector-go"
)

// StudentRepository provides PostgreSQL-backed student and embedding storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// CreateStudent inserts a student. An existing ID is never overwritten.
func (r *StudentRepository) CreateStudent(ctx context.Context, student database.Student) (*database.Student, error) {
	if len(student.Embedding) == 0 {
		return nil, errors.New("embedding is required")
	}

	query := `
		INSERT INTO students (id, name, course, embedding, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at
	`

	vec := pgvector.NewVector(student.Embedding)
	err := r.pool.QueryRow(ctx, query, student.ID, student.Name, student.Course, vec).Scan(&student.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrStudentExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}

	return &student, nil
}

// GetStudent retrieves a student by ID, returns nil if not found.
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	query := `
		SELECT id, name, course, embedding, created_at
		FROM students
		WHERE id = $1
	`

	var s database.Student
	var vec pgvector.Vector
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Course, &vec, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	s.Embedding = vec.Slice()
	return &s, nil
}

// ListStudents returns all students ordered by ID, without embeddings.
func (r *StudentRepository) ListStudents(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, course, created_at FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Course, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// CountStudents returns the number of enrolled students.
func (r *StudentRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// LoadRoster reads all embeddings in ID order. A row whose embedding cannot be
// decoded, or whose dimension differs from the first decoded row, is skipped.
func (r *StudentRepository) LoadRoster(ctx context.Context) (*database.RosterLoad, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, embedding FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	load := &database.RosterLoad{}
	dim := 0
	for rows.Next() {
		var id, name string
		var vec pgvector.Vector
		if err := rows.Scan(&id, &name, &vec); err != nil {
			load.Skipped = append(load.Skipped, database.SkippedRow{StudentID: id, Err: err})
			continue
		}

		emb := vec.Slice()
		if err := validateEmbedding(emb, dim); err != nil {
			load.Skipped = append(load.Skipped, database.SkippedRow{StudentID: id, Err: err})
			continue
		}
		dim = len(emb)

		load.Entries = append(load.Entries, database.RosterEntry{StudentID: id, Name: name, Embedding: emb})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}

	return load, nil
}
