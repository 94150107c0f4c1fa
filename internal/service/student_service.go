package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

type studentRepository interface {
	Save(ctx context.Context, student *models.Student) error
	Find(ctx context.Context, userID int64) (*models.Student, error)
	Delete(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]models.Student, error)
	GrantLecture(ctx context.Context, userID int64, lectureID string) error
	RevokeLecture(ctx context.Context, userID int64, lectureID string) error
}

type lectureFinder interface {
	Find(ctx context.Context, id string) (*models.Lecture, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	UserID   int64  `validate:"required,gt=0"`
	Username string `validate:"required"`
	Schedule string
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	lectures  lectureFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, lectures lectureFinder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, lectures: lectures, validator: validate, logger: logger}
}

// Create registers a new student. An existing record under the same ID
// is surfaced as a conflict instead of being silently overwritten.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid student payload")
	}

	if _, err := s.repo.Find(ctx, req.UserID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "student already exists")
	} else if !errors.Is(err, appErrors.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to check student")
	}

	student := &models.Student{
		UserID:    req.UserID,
		Username:  req.Username,
		Schedule:  req.Schedule,
		Lectures:  []string{},
		CreatedAt: time.Now(),
	}
	if err := s.repo.Save(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to create student")
	}

	s.logger.Info("student created", zap.Int64("user_id", req.UserID), zap.String("username", req.Username))
	return student, nil
}

// Get returns the student record.
func (s *StudentService) Get(ctx context.Context, userID int64) (*models.Student, error) {
	student, err := s.repo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load student")
	}
	return student, nil
}

// List returns all registered students.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to list students")
	}
	return students, nil
}

// UpdateSchedule replaces the schedule text; other fields keep their values.
func (s *StudentService) UpdateSchedule(ctx context.Context, userID int64, schedule string) error {
	return s.patch(ctx, userID, func(st *models.Student) {
		st.Schedule = schedule
	})
}

// UpdateHomework replaces the homework note; other fields keep their values.
func (s *StudentService) UpdateHomework(ctx context.Context, userID int64, homework string) error {
	return s.patch(ctx, userID, func(st *models.Student) {
		st.Homework = homework
	})
}

func (s *StudentService) patch(ctx context.Context, userID int64, apply func(*models.Student)) error {
	student, err := s.repo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load student")
	}

	apply(student)
	if err := s.repo.Save(ctx, student); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to update student")
	}
	return nil
}

// Delete removes the student record. Deleting an absent student succeeds.
func (s *StudentService) Delete(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.Int64("user_id", userID))
	return nil
}

// Grant gives the student access to a lecture. The lecture must exist;
// granting an already-held lecture is a no-op.
func (s *StudentService) Grant(ctx context.Context, userID int64, lectureID string) error {
	if _, err := s.lectures.Find(ctx, lectureID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load lecture")
	}

	if err := s.repo.GrantLecture(ctx, userID, lectureID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to grant lecture")
	}
	return nil
}

// Revoke removes a lecture from the student's list.
func (s *StudentService) Revoke(ctx context.Context, userID int64, lectureID string) error {
	if err := s.repo.RevokeLecture(ctx, userID, lectureID); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to revoke lecture")
	}
	return nil
}
