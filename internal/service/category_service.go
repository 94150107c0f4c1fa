package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

type categoryRepository interface {
	Ensure(ctx context.Context, name string) (string, error)
	All(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, name string) error
}

// CategoryService handles the lecture folder use-cases.
type CategoryService struct {
	repo   categoryRepository
	logger *zap.Logger
}

// NewCategoryService constructs the category service.
func NewCategoryService(repo categoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, logger: logger}
}

// Add creates a category. Creating one that already exists is a no-op.
func (s *CategoryService) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "category name is empty")
	}

	if _, err := s.repo.Ensure(ctx, name); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to create category")
	}

	s.logger.Info("category ensured", zap.String("name", name))
	return nil
}

// All returns every category name, sorted, default included.
func (s *CategoryService) All(ctx context.Context) ([]string, error) {
	names, err := s.repo.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to list categories")
	}
	return names, nil
}

// Resolve maps a callback token back to a category name; unknown tokens
// resolve to the default category.
func (s *CategoryService) Resolve(ctx context.Context, token string) (string, error) {
	name, err := s.repo.Resolve(ctx, token)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to resolve category")
	}
	return name, nil
}

// Delete removes a category; its lectures are absorbed by the default
// category. The default category itself cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		if errors.Is(err, appErrors.ErrProtectedCategory) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to delete category")
	}

	s.logger.Info("category deleted", zap.String("name", name))
	return nil
}
