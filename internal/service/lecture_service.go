package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

type lectureRepository interface {
	Save(ctx context.Context, lecture *models.Lecture) error
	Find(ctx context.Context, id string) (*models.Lecture, error)
	UpdateCategory(ctx context.Context, id, category string) error
	Delete(ctx context.Context, id string) error
}

type categoryMembership interface {
	Ensure(ctx context.Context, name string) (string, error)
	All(ctx context.Context) ([]string, error)
	Members(ctx context.Context, name string) ([]string, error)
	AddMember(ctx context.Context, name, lectureID string) error
	RemoveMember(ctx context.Context, name, lectureID string) error
}

type studentRoster interface {
	List(ctx context.Context) ([]models.Student, error)
	RevokeLecture(ctx context.Context, userID int64, lectureID string) error
}

// AddLectureRequest holds payload for storing an uploaded lecture.
type AddLectureRequest struct {
	Name     string `validate:"required"`
	Filename string `validate:"required"`
	Filepath string `validate:"required"`
	Category string
}

// LectureService handles lecture use-cases, including the cross-entity
// cascades that keep category lists and student grants consistent.
type LectureService struct {
	lectures   lectureRepository
	categories categoryMembership
	students   studentRoster
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewLectureService constructs the lecture service.
func NewLectureService(lectures lectureRepository, categories categoryMembership, students studentRoster, validate *validator.Validate, logger *zap.Logger) *LectureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LectureService{lectures: lectures, categories: categories, students: students, validator: validate, logger: logger}
}

// NewLectureID generates a lecture identifier. The timestamp keeps IDs
// roughly ordered; the uuid suffix keeps same-second uploads distinct.
func NewLectureID() string {
	return fmt.Sprintf("lecture_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}

// Add stores a new lecture, creating its category on first use. An
// empty category falls back to the default one.
func (s *LectureService) Add(ctx context.Context, req AddLectureRequest) (*models.Lecture, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid lecture payload")
	}

	category := req.Category
	if category == "" {
		category = models.DefaultCategory
	}

	if _, err := s.categories.Ensure(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to ensure category")
	}

	lecture := &models.Lecture{
		ID:       NewLectureID(),
		Name:     req.Name,
		Category: category,
		File: models.LectureFile{
			Filename:  req.Filename,
			Filepath:  req.Filepath,
			CreatedAt: time.Now(),
		},
	}

	if err := s.lectures.Save(ctx, lecture); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to store lecture")
	}
	if err := s.categories.AddMember(ctx, category, lecture.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to file lecture")
	}

	s.logger.Info("lecture added", zap.String("id", lecture.ID), zap.String("name", lecture.Name), zap.String("category", category))
	return lecture, nil
}

// Get returns the lecture joined with its file descriptor.
func (s *LectureService) Get(ctx context.Context, id string) (*models.Lecture, error) {
	lecture, err := s.lectures.Find(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load lecture")
	}
	return lecture, nil
}

// ByCategory resolves the category's member list into id->name pairs.
// Dangling IDs left behind by out-of-band deletions are skipped.
func (s *LectureService) ByCategory(ctx context.Context, category string) (map[string]string, error) {
	ids, err := s.categories.Members(ctx, category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to list category")
	}

	result := make(map[string]string, len(ids))
	for _, id := range ids {
		lecture, err := s.lectures.Find(ctx, id)
		if err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load lecture")
		}
		result[id] = lecture.Name
	}

	return result, nil
}

// AllByCategory returns every lecture grouped by its category.
func (s *LectureService) AllByCategory(ctx context.Context) (map[string]map[string]string, error) {
	categories, err := s.categories.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to list categories")
	}

	result := make(map[string]map[string]string, len(categories))
	for _, category := range categories {
		lectures, err := s.ByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		result[category] = lectures
	}

	return result, nil
}

// All returns the flattened id->name view across all categories.
func (s *LectureService) All(ctx context.Context) (map[string]string, error) {
	byCategory, err := s.AllByCategory(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, lectures := range byCategory {
		for id, name := range lectures {
			result[id] = name
		}
	}

	return result, nil
}

// HoldersCount reports how many students currently hold the lecture.
func (s *LectureService) HoldersCount(ctx context.Context, id string) (int, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to list students")
	}

	count := 0
	for i := range students {
		if students[i].HasLecture(id) {
			count++
		}
	}
	return count, nil
}

// Delete removes the lecture and cascades: the category member list and
// every student's grant list drop the ID before the records go away.
// The student pass is a full roster scan.
func (s *LectureService) Delete(ctx context.Context, id string) (int, error) {
	lecture, err := s.lectures.Find(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load lecture")
	}

	if err := s.categories.RemoveMember(ctx, lecture.Category, id); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to unfile lecture")
	}

	students, err := s.students.List(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to list students")
	}

	revoked := 0
	for i := range students {
		if !students[i].HasLecture(id) {
			continue
		}
		if err := s.students.RevokeLecture(ctx, students[i].UserID, id); err != nil {
			s.logger.Warn("failed to revoke deleted lecture",
				zap.Int64("user_id", students[i].UserID), zap.String("lecture_id", id), zap.Error(err))
			continue
		}
		revoked++
	}

	if err := s.lectures.Delete(ctx, id); err != nil {
		return revoked, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to delete lecture")
	}

	s.logger.Info("lecture deleted", zap.String("id", id), zap.Int("revoked", revoked))
	return revoked, nil
}

// Move re-files the lecture under another category. Moving to the
// current category is a no-op success.
func (s *LectureService) Move(ctx context.Context, id, newCategory string) error {
	lecture, err := s.lectures.Find(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to load lecture")
	}

	if lecture.Category == newCategory {
		return nil
	}

	if _, err := s.categories.Ensure(ctx, newCategory); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to ensure category")
	}
	if err := s.categories.RemoveMember(ctx, lecture.Category, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to unfile lecture")
	}
	if err := s.categories.AddMember(ctx, newCategory, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to file lecture")
	}
	if err := s.lectures.UpdateCategory(ctx, id, newCategory); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to update lecture")
	}

	s.logger.Info("lecture moved", zap.String("id", id), zap.String("category", newCategory))
	return nil
}
