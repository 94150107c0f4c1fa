package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

func TestLectureRepository_SaveFind(t *testing.T) {
	repo := NewLectureRepository(testClient(t), nil)
	ctx := context.Background()

	lecture := &models.Lecture{
		ID:       "lecture_1700000000_deadbeef",
		Name:     "Органическая химия",
		Category: "Chem",
		File: models.LectureFile{
			Filename:  "organic.pdf",
			Filepath:  "/data/lectures/lecture_1700000000_deadbeef_organic.pdf",
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
	}
	require.NoError(t, repo.Save(ctx, lecture))

	got, err := repo.Find(ctx, lecture.ID)
	require.NoError(t, err)
	assert.Equal(t, lecture.ID, got.ID)
	assert.Equal(t, lecture.Name, got.Name)
	assert.Equal(t, "Chem", got.Category)
	assert.Equal(t, "organic.pdf", got.File.Filename)
	assert.Equal(t, lecture.File.Filepath, got.File.Filepath)
	assert.True(t, lecture.File.CreatedAt.Equal(got.File.CreatedAt))
}

func TestLectureRepository_FindMissing(t *testing.T) {
	repo := NewLectureRepository(testClient(t), nil)

	_, err := repo.Find(context.Background(), "lecture_0_missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLectureRepository_EmptyCategoryReadsAsDefault(t *testing.T) {
	client := testClient(t)
	repo := NewLectureRepository(client, nil)
	ctx := context.Background()

	// record written before categories existed
	require.NoError(t, client.Set(ctx, lectureKey("lec1"), `{"id":"lec1","name":"Старая лекция"}`, 0).Err())

	got, err := repo.Find(ctx, "lec1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategory, got.Category)
}

func TestLectureRepository_MissingFileRecordTolerated(t *testing.T) {
	client := testClient(t)
	repo := NewLectureRepository(client, nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Lecture{
		ID:       "lec1",
		Name:     "Лекция",
		Category: "Chem",
		File:     models.LectureFile{Filename: "a.pdf"},
	}))
	require.NoError(t, client.Del(ctx, lectureFileKey("lec1")).Err())

	got, err := repo.Find(ctx, "lec1")
	require.NoError(t, err)
	assert.Equal(t, "Лекция", got.Name)
	assert.Zero(t, got.File)
}

func TestLectureRepository_UpdateCategory(t *testing.T) {
	repo := NewLectureRepository(testClient(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Lecture{
		ID:       "lec1",
		Name:     "Лекция",
		Category: "Chem",
		File:     models.LectureFile{Filename: "a.pdf"},
	}))

	require.NoError(t, repo.UpdateCategory(ctx, "lec1", "Органика"))

	got, err := repo.Find(ctx, "lec1")
	require.NoError(t, err)
	assert.Equal(t, "Органика", got.Category)
	assert.Equal(t, "a.pdf", got.File.Filename)
}

func TestLectureRepository_UpdateCategoryMissing(t *testing.T) {
	repo := NewLectureRepository(testClient(t), nil)

	err := repo.UpdateCategory(context.Background(), "lecture_0_missing", "Chem")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLectureRepository_Delete(t *testing.T) {
	client := testClient(t)
	repo := NewLectureRepository(client, nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Lecture{ID: "lec1", Name: "Лекция"}))
	require.NoError(t, repo.Delete(ctx, "lec1"))

	_, err := repo.Find(ctx, "lec1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	exists, err := client.Exists(ctx, lectureFileKey("lec1")).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestLectureRepository_LegacyCount(t *testing.T) {
	client := testClient(t)
	repo := NewLectureRepository(client, nil)
	ctx := context.Background()

	n, err := repo.LegacyCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, client.HSet(ctx, legacyLecturesKey, "lec1", `{}`, "lec2", `{}`).Err())

	n, err = repo.LegacyCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
