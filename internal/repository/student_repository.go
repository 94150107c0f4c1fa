package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(client *redis.Client, logger *zap.Logger) *StudentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentRepository{client: client, logger: logger}
}

// Save writes the whole record, replacing any previous value under the
// same user ID. Last write wins.
func (r *StudentRepository) Save(ctx context.Context, student *models.Student) error {
	payload, err := json.Marshal(student)
	if err != nil {
		return fmt.Errorf("marshal student %d: %w", student.UserID, err)
	}

	if err := r.client.Set(ctx, studentKey(student.UserID), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set student %d: %w", student.UserID, err)
	}

	return nil
}

// Find returns the student or ErrNotFound.
func (r *StudentRepository) Find(ctx context.Context, userID int64) (*models.Student, error) {
	raw, err := r.client.Get(ctx, studentKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get student %d: %w", userID, err)
	}

	var student models.Student
	if err := json.Unmarshal(raw, &student); err != nil {
		return nil, fmt.Errorf("unmarshal student %d: %w", userID, err)
	}
	if student.Lectures == nil {
		student.Lectures = []string{}
	}

	return &student, nil
}

// Delete removes the record unconditionally; deleting an absent student
// is not an error.
func (r *StudentRepository) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, studentKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete student %d: %w", userID, err)
	}
	return nil
}

// List scans all student keys. Order follows the keyspace scan and is
// not stable.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	students := make([]models.Student, 0, len(keys))
	for _, key := range keys {
		raw, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("redis get %s: %w", key, err)
		}

		var student models.Student
		if err := json.Unmarshal(raw, &student); err != nil {
			r.logger.Warn("skipping malformed student record", zap.String("key", key), zap.Error(err))
			continue
		}
		if student.Lectures == nil {
			student.Lectures = []string{}
		}
		students = append(students, student)
	}

	return students, nil
}

// Count returns the number of student keys in the store.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// GrantLecture appends the lecture to the student's list, keeping it
// free of duplicates. Granting an already-granted lecture is a no-op.
func (r *StudentRepository) GrantLecture(ctx context.Context, userID int64, lectureID string) error {
	student, err := r.Find(ctx, userID)
	if err != nil {
		return err
	}

	if student.HasLecture(lectureID) {
		return nil
	}

	student.Lectures = append(student.Lectures, lectureID)
	return r.Save(ctx, student)
}

// RevokeLecture removes the lecture from the student's list. Revoking a
// lecture the student does not hold is a no-op.
func (r *StudentRepository) RevokeLecture(ctx context.Context, userID int64, lectureID string) error {
	student, err := r.Find(ctx, userID)
	if err != nil {
		return err
	}

	kept := student.Lectures[:0]
	removed := false
	for _, id := range student.Lectures {
		if id == lectureID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	if !removed {
		return nil
	}

	student.Lectures = kept
	return r.Save(ctx, student)
}

func (r *StudentRepository) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, studentKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan students: %w", err)
	}
	return keys, nil
}
