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

func TestStudentRepository_SaveFind(t *testing.T) {
	repo := NewStudentRepository(testClient(t), nil)
	ctx := context.Background()

	student := &models.Student{
		UserID:    123,
		Username:  "testuser",
		Schedule:  "пн,ср 15:00",
		Lectures:  []string{"lec1"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Save(ctx, student))

	got, err := repo.Find(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, student.UserID, got.UserID)
	assert.Equal(t, "testuser", got.Username)
	assert.Equal(t, "пн,ср 15:00", got.Schedule)
	assert.Equal(t, []string{"lec1"}, got.Lectures)
	assert.True(t, student.CreatedAt.Equal(got.CreatedAt))
}

func TestStudentRepository_FindMissing(t *testing.T) {
	repo := NewStudentRepository(testClient(t), nil)

	_, err := repo.Find(context.Background(), 999999)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentRepository_NilLecturesReadAsEmpty(t *testing.T) {
	client := testClient(t)
	repo := NewStudentRepository(client, nil)
	ctx := context.Background()

	// record written without a lectures field
	require.NoError(t, client.Set(ctx, studentKey(7), `{"user_id":7,"username":"old"}`, 0).Err())

	got, err := repo.Find(ctx, 7)
	require.NoError(t, err)
	assert.NotNil(t, got.Lectures)
	assert.Empty(t, got.Lectures)
}

func TestStudentRepository_Delete(t *testing.T) {
	repo := NewStudentRepository(testClient(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Student{UserID: 123, Username: "testuser"}))
	require.NoError(t, repo.Delete(ctx, 123))

	_, err := repo.Find(ctx, 123)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	// deleting again is still fine
	require.NoError(t, repo.Delete(ctx, 123))
}

func TestStudentRepository_ListAndCount(t *testing.T) {
	repo := NewStudentRepository(testClient(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Student{UserID: 123, Username: "user1"}))
	require.NoError(t, repo.Save(ctx, &models.Student{UserID: 456, Username: "user2"}))

	students, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 2)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStudentRepository_GrantIdempotent(t *testing.T) {
	repo := NewStudentRepository(testClient(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Student{UserID: 123, Username: "testuser", Lectures: []string{}}))

	require.NoError(t, repo.GrantLecture(ctx, 123, "lec1"))
	require.NoError(t, repo.GrantLecture(ctx, 123, "lec1"))

	got, err := repo.Find(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, []string{"lec1"}, got.Lectures)
}

func TestStudentRepository_GrantMissingStudent(t *testing.T) {
	repo := NewStudentRepository(testClient(t), nil)

	err := repo.GrantLecture(context.Background(), 999, "lec1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentRepository_RevokeAbsentLecture(t *testing.T) {
	repo := NewStudentRepository(testClient(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Student{UserID: 123, Username: "testuser", Lectures: []string{"lec1"}}))

	require.NoError(t, repo.RevokeLecture(ctx, 123, "lec2"))
	got, err := repo.Find(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, []string{"lec1"}, got.Lectures)

	require.NoError(t, repo.RevokeLecture(ctx, 123, "lec1"))
	got, err = repo.Find(ctx, 123)
	require.NoError(t, err)
	assert.Empty(t, got.Lectures)
}
