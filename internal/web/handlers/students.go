package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/enrollment"
	"github.com/kozaktomas/campus-attendance/internal/facematch"
	"github.com/kozaktomas/campus-attendance/internal/logger"
)

// Enroller registers a student and publishes the new roster.
type Enroller interface {
	Enroll(ctx context.Context, req enrollment.Request) (*database.Student, error)
}

// StudentsHandler lists and enrolls students.
type StudentsHandler struct {
	enroller  Enroller
	students  database.StudentReader
	maxUpload int64
	log       *logger.Logger
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(enroller Enroller, students database.StudentReader, maxUpload int64, log *logger.Logger) *StudentsHandler {
	return &StudentsHandler{enroller: enroller, students: students, maxUpload: maxUpload, log: log}
}

type studentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Course    string    `json:"course"`
	CreatedAt time.Time `json:"created_at"`
}

func toStudentResponse(s *database.Student) studentResponse {
	return studentResponse{ID: s.ID, Name: s.Name, Course: s.Course, CreatedAt: s.CreatedAt}
}

// List returns all students. ?q= filters by name (diacritics-insensitive) or ID prefix.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.ListStudents(r.Context())
	if err != nil {
		h.log.Error("failed to list students", "error", err)
		status, msg := errorStatus(database.NewStorageError("list students", err))
		respondError(w, status, msg)
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("q"))
	nameQuery := facematch.NormalizeName(raw)
	idQuery := strings.ToLower(raw)
	out := make([]studentResponse, 0, len(students))
	for i := range students {
		s := &students[i]
		if raw != "" &&
			!strings.Contains(facematch.NormalizeName(s.Name), nameQuery) &&
			!strings.HasPrefix(strings.ToLower(s.ID), idQuery) {
			continue
		}
		out = append(out, toStudentResponse(s))
	}
	respondJSON(w, http.StatusOK, out)
}

// Create enrolls a student from a multipart form with student_id, name,
// course and a file part holding the photo.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := enrollment.Request{
		StudentID: r.FormValue("student_id"),
		Name:      r.FormValue("name"),
		Course:    r.FormValue("course"),
	}

	file, _, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid file upload")
		return
	default:
		req.Photo, err = io.ReadAll(file)
		file.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read file")
			return
		}
	}

	student, err := h.enroller.Enroll(r.Context(), req)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.log.Error("enrollment failed", "student_id", sanitizeForLog(req.StudentID), "error", err)
		} else {
			h.log.Info("enrollment rejected", "student_id", sanitizeForLog(req.StudentID), "reason", msg)
		}
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusCreated, toStudentResponse(student))
}
