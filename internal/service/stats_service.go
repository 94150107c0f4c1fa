package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

type studentCounter interface {
	Count(ctx context.Context) (int, error)
}

type legacyLectureCounter interface {
	LegacyCount(ctx context.Context) (int64, error)
}

type keyspace interface {
	Ping(ctx context.Context) error
	TotalKeys(ctx context.Context) (int64, error)
	FlushAll(ctx context.Context) error
}

// StatsService assembles store-wide counters and owns the destructive
// reset used by the admin console.
type StatsService struct {
	students studentCounter
	lectures legacyLectureCounter
	store    keyspace
	logger   *zap.Logger
}

// NewStatsService constructs the stats service.
func NewStatsService(students studentCounter, lectures legacyLectureCounter, store keyspace, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{students: students, lectures: lectures, store: store, logger: logger}
}

// Ping checks store connectivity.
func (s *StatsService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "store unreachable")
	}
	return nil
}

// Stats returns the student count, the legacy lecture hash length and
// the total key count.
func (s *StatsService) Stats(ctx context.Context) (*models.Stats, error) {
	students, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to count students")
	}
	lectures, err := s.lectures.LegacyCount(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to count lectures")
	}
	total, err := s.store.TotalKeys(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to count keys")
	}

	return &models.Stats{Students: students, Lectures: lectures, TotalKeys: total}, nil
}

// ClearAll wipes the entire store.
func (s *StatsService) ClearAll(ctx context.Context) error {
	if err := s.store.FlushAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to clear store")
	}
	return nil
}
