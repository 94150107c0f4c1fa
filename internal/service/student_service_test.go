package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

type mockStudentRepo struct {
	students map[int64]*models.Student
	saveErr  error
	findErr  error
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[int64]*models.Student)}
}

func (m *mockStudentRepo) Save(_ context.Context, student *models.Student) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *student
	m.students[student.UserID] = &cp
	return nil
}

func (m *mockStudentRepo) Find(_ context.Context, userID int64) (*models.Student, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	st, ok := m.students[userID]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *mockStudentRepo) Delete(_ context.Context, userID int64) error {
	delete(m.students, userID)
	return nil
}

func (m *mockStudentRepo) List(_ context.Context) ([]models.Student, error) {
	out := make([]models.Student, 0, len(m.students))
	for _, st := range m.students {
		out = append(out, *st)
	}
	return out, nil
}

func (m *mockStudentRepo) GrantLecture(_ context.Context, userID int64, lectureID string) error {
	st, ok := m.students[userID]
	if !ok {
		return appErrors.ErrNotFound
	}
	if !st.HasLecture(lectureID) {
		st.Lectures = append(st.Lectures, lectureID)
	}
	return nil
}

func (m *mockStudentRepo) RevokeLecture(_ context.Context, userID int64, lectureID string) error {
	st, ok := m.students[userID]
	if !ok {
		return appErrors.ErrNotFound
	}
	kept := st.Lectures[:0]
	for _, id := range st.Lectures {
		if id != lectureID {
			kept = append(kept, id)
		}
	}
	st.Lectures = kept
	return nil
}

type mockLectureFinder struct {
	lectures map[string]*models.Lecture
}

func newMockLectureFinder() *mockLectureFinder {
	return &mockLectureFinder{lectures: make(map[string]*models.Lecture)}
}

func (m *mockLectureFinder) Find(_ context.Context, id string) (*models.Lecture, error) {
	lec, ok := m.lectures[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return lec, nil
}

func TestStudentService_Create(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, newMockLectureFinder(), nil, zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		UserID:   123456,
		Username: "vasya",
		Schedule: "Понедельник 18:00",
	})
	require.NoError(t, err)
	require.NotNil(t, student)

	assert.Equal(t, int64(123456), student.UserID)
	assert.Equal(t, "vasya", student.Username)
	assert.Equal(t, "Понедельник 18:00", student.Schedule)
	assert.NotNil(t, student.Lectures)
	assert.Empty(t, student.Lectures)
	assert.False(t, student.CreatedAt.IsZero())

	saved, ok := repo.students[123456]
	require.True(t, ok)
	assert.Equal(t, "vasya", saved.Username)
}

func TestStudentService_Create_Duplicate(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[123456] = &models.Student{UserID: 123456, Username: "vasya"}
	svc := NewStudentService(repo, newMockLectureFinder(), nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{UserID: 123456, Username: "vasya2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrAlreadyExists))

	// original record untouched
	assert.Equal(t, "vasya", repo.students[123456].Username)
}

func TestStudentService_Create_Validation(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), newMockLectureFinder(), nil, zap.NewNop())

	cases := []struct {
		name string
		req  CreateStudentRequest
	}{
		{"zero user id", CreateStudentRequest{UserID: 0, Username: "vasya"}},
		{"negative user id", CreateStudentRequest{UserID: -5, Username: "vasya"}},
		{"empty username", CreateStudentRequest{UserID: 123, Username: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestStudentService_Get_NotFound(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), newMockLectureFinder(), nil, zap.NewNop())

	_, err := svc.Get(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStudentService_UpdateSchedule(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[1] = &models.Student{UserID: 1, Username: "vasya", Schedule: "old", Homework: "hw"}
	svc := NewStudentService(repo, newMockLectureFinder(), nil, zap.NewNop())

	err := svc.UpdateSchedule(context.Background(), 1, "Вторник 19:00")
	require.NoError(t, err)

	assert.Equal(t, "Вторник 19:00", repo.students[1].Schedule)
	assert.Equal(t, "hw", repo.students[1].Homework)
	assert.Equal(t, "vasya", repo.students[1].Username)
}

func TestStudentService_UpdateHomework_NotFound(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), newMockLectureFinder(), nil, zap.NewNop())

	err := svc.UpdateHomework(context.Background(), 42, "параграф 5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStudentService_Grant(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[1] = &models.Student{UserID: 1, Username: "vasya", Lectures: []string{}}
	lectures := newMockLectureFinder()
	lectures.lectures["lec1"] = &models.Lecture{ID: "lec1", Name: "Атомы"}
	svc := NewStudentService(repo, lectures, nil, zap.NewNop())

	require.NoError(t, svc.Grant(context.Background(), 1, "lec1"))
	assert.Equal(t, []string{"lec1"}, repo.students[1].Lectures)

	// granting again stays a single entry
	require.NoError(t, svc.Grant(context.Background(), 1, "lec1"))
	assert.Equal(t, []string{"lec1"}, repo.students[1].Lectures)
}

func TestStudentService_Grant_UnknownLecture(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[1] = &models.Student{UserID: 1, Username: "vasya"}
	svc := NewStudentService(repo, newMockLectureFinder(), nil, zap.NewNop())

	err := svc.Grant(context.Background(), 1, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, repo.students[1].Lectures)
}

func TestStudentService_Revoke(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[1] = &models.Student{UserID: 1, Username: "vasya", Lectures: []string{"lec1", "lec2"}}
	svc := NewStudentService(repo, newMockLectureFinder(), nil, zap.NewNop())

	require.NoError(t, svc.Revoke(context.Background(), 1, "lec1"))
	assert.Equal(t, []string{"lec2"}, repo.students[1].Lectures)

	// revoking an absent lecture succeeds
	require.NoError(t, svc.Revoke(context.Background(), 1, "lec1"))
	assert.Equal(t, []string{"lec2"}, repo.students[1].Lectures)
}

func TestStudentService_Delete(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[1] = &models.Student{UserID: 1, Username: "vasya"}
	svc := NewStudentService(repo, newMockLectureFinder(), nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.NotContains(t, repo.students, int64(1))

	// deleting again is still fine
	require.NoError(t, svc.Delete(context.Background(), 1))
}
