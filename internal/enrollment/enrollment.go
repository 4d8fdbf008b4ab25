// Package enrollment registers new students from a single photo.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/campus-attendance/internal/config"
	"github.com/kozaktomas/campus-attendance/internal/constants"
	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/facematch"
	"github.com/kozaktomas/campus-attendance/internal/facemodel"
	"github.com/kozaktomas/campus-attendance/internal/imaging"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/roster"
)

// Validation failure reasons.
const (
	ReasonMissingField  = "missing field"
	ReasonInvalidImage  = "invalid image"
	ReasonNoFace        = "no face detected"
	ReasonMultipleFaces = "multiple faces detected"
)

// ErrFaceModel wraps failures of the face model during enrollment.
var ErrFaceModel = errors.New("face model unavailable")

// ValidationError reports a request that can never succeed as submitted.
type ValidationError struct {
	Reason string
	Field  string // set for ReasonMissingField
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Field)
	}
	return e.Reason
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Request is a single enrollment.
type Request struct {
	StudentID string
	Name      string
	Course    string
	Photo     []byte
}

// Reloader republishes the roster after a new student is stored.
type Reloader interface {
	Reload(ctx context.Context) (*roster.Snapshot, error)
}

// Options configures a Service.
type Options struct {
	MultiFacePolicy string // config.MultiFaceReject (default), MultiFaceLargest or MultiFaceFirst
	MaxImageSize    int
}

// Service validates photos, extracts the embedding and stores the student.
type Service struct {
	students database.StudentWriter
	model    facemodel.Model
	roster   Reloader
	opts     Options
	log      *logger.Logger
}

// NewService creates an enrollment service.
func NewService(students database.StudentWriter, model facemodel.Model, reloader Reloader, opts Options, log *logger.Logger) *Service {
	if opts.MultiFacePolicy == "" {
		opts.MultiFacePolicy = config.MultiFaceReject
	}
	if opts.MaxImageSize <= 0 {
		opts.MaxImageSize = constants.DefaultMaxImageSize
	}
	return &Service{students: students, model: model, roster: reloader, opts: opts, log: log}
}

// Enroll registers the student and reloads the roster before returning, so
// the student is recognizable as soon as Enroll succeeds.
func (s *Service) Enroll(ctx context.Context, req Request) (*database.Student, error) {
	student, err := s.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.roster.Reload(ctx); err != nil {
		return nil, err
	}
	return student, nil
}

// Register validates and stores the student without touching the roster.
func (s *Service) Register(ctx context.Context, req Request) (*database.Student, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Course = strings.TrimSpace(req.Course)
	if err := validateFields(req); err != nil {
		return nil, err
	}

	embedding, err := s.extractEmbedding(ctx, req.Photo)
	if err != nil {
		return nil, err
	}

	student, err := s.students.CreateStudent(ctx, database.Student{
		ID:        req.StudentID,
		Name:      req.Name,
		Course:    req.Course,
		Embedding: embedding,
	})
	if errors.Is(err, database.ErrStudentExists) {
		return nil, fmt.Errorf("enroll %s: %w", req.StudentID, err)
	}
	if err != nil {
		return nil, database.NewStorageError("create student", err)
	}

	s.log.Info("student enrolled", "student_id", student.ID, "course", student.Course, "dim", len(embedding))
	return student, nil
}

func validateFields(req Request) error {
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"student_id", req.StudentID == ""},
		{"name", req.Name == ""},
		{"course", req.Course == ""},
		{"file", len(req.Photo) == 0},
	} {
		if f.empty {
			return &ValidationError{Reason: ReasonMissingField, Field: f.name}
		}
	}
	return nil
}

func (s *Service) extractEmbedding(ctx context.Context, photo []byte) ([]float32, error) {
	img, err := imaging.Decode(photo)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonInvalidImage}
	}
	data, err := imaging.EncodeJPEG(imaging.FitWithin(img, s.opts.MaxImageSize), imaging.DefaultJPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("prepare photo: %w", err)
	}

	faces, err := s.model.Detect(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFaceModel, err)
	}

	face, err := s.pickFace(faces)
	if err != nil {
		return nil, err
	}
	return face.Embedding, nil
}

// pickFace applies the multi-face policy.
func (s *Service) pickFace(faces []facemodel.Face) (facemodel.Face, error) {
	switch {
	case len(faces) == 0:
		return facemodel.Face{}, &ValidationError{Reason: ReasonNoFace}
	case len(faces) == 1:
		return faces[0], nil
	}

	switch s.opts.MultiFacePolicy {
	case config.MultiFaceFirst:
		return faces[0], nil
	case config.MultiFaceLargest:
		best := 0
		for i := range faces {
			if facematch.BoxArea(faces[i].Box) > facematch.BoxArea(faces[best].Box) {
				best = i
			}
		}
		return faces[best], nil
	default:
		return facemodel.Face{}, &ValidationError{Reason: ReasonMultipleFaces}
	}
}
