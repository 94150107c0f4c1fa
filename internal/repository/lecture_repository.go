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

// lectureRecord is the stored metadata half of a lecture; the file
// descriptor lives under its own key and is joined on read.
type lectureRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// LectureRepository manages lecture metadata and file descriptor records.
type LectureRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewLectureRepository constructs a LectureRepository.
func NewLectureRepository(client *redis.Client, logger *zap.Logger) *LectureRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LectureRepository{client: client, logger: logger}
}

// Save writes both lecture records: metadata and file descriptor.
func (r *LectureRepository) Save(ctx context.Context, lecture *models.Lecture) error {
	meta, err := json.Marshal(lectureRecord{ID: lecture.ID, Name: lecture.Name, Category: lecture.Category})
	if err != nil {
		return fmt.Errorf("marshal lecture %s: %w", lecture.ID, err)
	}
	if err := r.client.Set(ctx, lectureKey(lecture.ID), meta, 0).Err(); err != nil {
		return fmt.Errorf("redis set lecture %s: %w", lecture.ID, err)
	}

	file, err := json.Marshal(lecture.File)
	if err != nil {
		return fmt.Errorf("marshal lecture file %s: %w", lecture.ID, err)
	}
	if err := r.client.Set(ctx, lectureFileKey(lecture.ID), file, 0).Err(); err != nil {
		return fmt.Errorf("redis set lecture file %s: %w", lecture.ID, err)
	}

	return nil
}

// Find joins the metadata record with its file descriptor. A missing
// file record is tolerated and reads as an empty descriptor.
func (r *LectureRepository) Find(ctx context.Context, id string) (*models.Lecture, error) {
	raw, err := r.client.Get(ctx, lectureKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get lecture %s: %w", id, err)
	}

	var record lectureRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal lecture %s: %w", id, err)
	}
	if record.Category == "" {
		record.Category = models.DefaultCategory
	}

	lecture := &models.Lecture{ID: id, Name: record.Name, Category: record.Category}

	fileRaw, err := r.client.Get(ctx, lectureFileKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			return nil, fmt.Errorf("redis get lecture file %s: %w", id, err)
		}
		return lecture, nil
	}
	if err := json.Unmarshal(fileRaw, &lecture.File); err != nil {
		return nil, fmt.Errorf("unmarshal lecture file %s: %w", id, err)
	}

	return lecture, nil
}

// UpdateCategory rewrites the stored category field of the metadata record.
func (r *LectureRepository) UpdateCategory(ctx context.Context, id, category string) error {
	raw, err := r.client.Get(ctx, lectureKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrNotFound
		}
		return fmt.Errorf("redis get lecture %s: %w", id, err)
	}

	var record lectureRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("unmarshal lecture %s: %w", id, err)
	}
	record.Category = category

	meta, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal lecture %s: %w", id, err)
	}
	if err := r.client.Set(ctx, lectureKey(id), meta, 0).Err(); err != nil {
		return fmt.Errorf("redis set lecture %s: %w", id, err)
	}

	return nil
}

// Delete removes both lecture records.
func (r *LectureRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, lectureKey(id), lectureFileKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete lecture %s: %w", id, err)
	}
	return nil
}

// LegacyCount reports the length of the old flat lectures hash, kept
// only for the stats screen.
func (r *LectureRepository) LegacyCount(ctx context.Context) (int64, error) {
	n, err := r.client.HLen(ctx, legacyLecturesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hlen lectures: %w", err)
	}
	return n, nil
}
