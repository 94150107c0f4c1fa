package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

type mockLectureRepo struct {
	lectures map[string]*models.Lecture
}

func newMockLectureRepo() *mockLectureRepo {
	return &mockLectureRepo{lectures: make(map[string]*models.Lecture)}
}

func (m *mockLectureRepo) Save(_ context.Context, lecture *models.Lecture) error {
	cp := *lecture
	m.lectures[lecture.ID] = &cp
	return nil
}

func (m *mockLectureRepo) Find(_ context.Context, id string) (*models.Lecture, error) {
	lec, ok := m.lectures[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	cp := *lec
	return &cp, nil
}

func (m *mockLectureRepo) UpdateCategory(_ context.Context, id, category string) error {
	lec, ok := m.lectures[id]
	if !ok {
		return appErrors.ErrNotFound
	}
	lec.Category = category
	return nil
}

func (m *mockLectureRepo) Delete(_ context.Context, id string) error {
	delete(m.lectures, id)
	return nil
}

type mockCategoryRepo struct {
	members map[string][]string
	tokens  map[string]string
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{
		members: map[string][]string{models.DefaultCategory: {}},
		tokens:  make(map[string]string),
	}
}

func (m *mockCategoryRepo) Ensure(_ context.Context, name string) (string, error) {
	if _, ok := m.members[name]; !ok {
		m.members[name] = []string{}
	}
	token := models.CategoryToken(name)
	m.tokens[token] = name
	return token, nil
}

func (m *mockCategoryRepo) All(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.members))
	for name := range m.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockCategoryRepo) Resolve(_ context.Context, token string) (string, error) {
	name, ok := m.tokens[token]
	if !ok {
		return models.DefaultCategory, nil
	}
	return name, nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, name string) error {
	if name == models.DefaultCategory {
		return appErrors.ErrProtectedCategory
	}
	m.members[models.DefaultCategory] = append(m.members[models.DefaultCategory], m.members[name]...)
	delete(m.members, name)
	delete(m.tokens, models.CategoryToken(name))
	return nil
}

func (m *mockCategoryRepo) Members(_ context.Context, name string) ([]string, error) {
	return append([]string(nil), m.members[name]...), nil
}

func (m *mockCategoryRepo) AddMember(_ context.Context, name, lectureID string) error {
	for _, id := range m.members[name] {
		if id == lectureID {
			return nil
		}
	}
	m.members[name] = append(m.members[name], lectureID)
	return nil
}

func (m *mockCategoryRepo) RemoveMember(_ context.Context, name, lectureID string) error {
	kept := m.members[name][:0]
	for _, id := range m.members[name] {
		if id != lectureID {
			kept = append(kept, id)
		}
	}
	m.members[name] = kept
	return nil
}

func newLectureService(t *testing.T) (*LectureService, *mockLectureRepo, *mockCategoryRepo, *mockStudentRepo) {
	t.Helper()
	lectures := newMockLectureRepo()
	categories := newMockCategoryRepo()
	students := newMockStudentRepo()
	svc := NewLectureService(lectures, categories, students, nil, zap.NewNop())
	return svc, lectures, categories, students
}

func TestNewLectureID(t *testing.T) {
	id := NewLectureID()
	assert.True(t, strings.HasPrefix(id, "lecture_"))
	assert.NotContains(t, id, ":")
	assert.NotEqual(t, id, NewLectureID())
}

func TestLectureService_Add(t *testing.T) {
	svc, lectures, categories, _ := newLectureService(t)

	lecture, err := svc.Add(context.Background(), AddLectureRequest{
		Name:     "Кислоты",
		Filename: "acids.pdf",
		Filepath: "/data/lectures/acids.pdf",
		Category: "Chem",
	})
	require.NoError(t, err)
	require.NotNil(t, lecture)

	assert.Equal(t, "Кислоты", lecture.Name)
	assert.Equal(t, "Chem", lecture.Category)
	assert.Contains(t, lectures.lectures, lecture.ID)
	assert.Contains(t, categories.members["Chem"], lecture.ID)
}

func TestLectureService_Add_DefaultCategory(t *testing.T) {
	svc, _, categories, _ := newLectureService(t)

	lecture, err := svc.Add(context.Background(), AddLectureRequest{
		Name:     "Введение",
		Filename: "intro.pdf",
		Filepath: "/data/lectures/intro.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultCategory, lecture.Category)
	assert.Contains(t, categories.members[models.DefaultCategory], lecture.ID)
}

func TestLectureService_Add_Validation(t *testing.T) {
	svc, _, _, _ := newLectureService(t)

	_, err := svc.Add(context.Background(), AddLectureRequest{Name: "", Filename: "f.pdf", Filepath: "/f.pdf"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLectureService_ByCategory_SkipsDangling(t *testing.T) {
	svc, lectures, categories, _ := newLectureService(t)

	lectures.lectures["lec1"] = &models.Lecture{ID: "lec1", Name: "Атомы", Category: "Chem"}
	categories.members["Chem"] = []string{"lec1", "ghost"}

	got, err := svc.ByCategory(context.Background(), "Chem")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lec1": "Атомы"}, got)
}

func TestLectureService_AllByCategory(t *testing.T) {
	svc, lectures, categories, _ := newLectureService(t)

	lectures.lectures["lec1"] = &models.Lecture{ID: "lec1", Name: "Атомы", Category: "Chem"}
	lectures.lectures["lec2"] = &models.Lecture{ID: "lec2", Name: "Интро", Category: models.DefaultCategory}
	categories.members["Chem"] = []string{"lec1"}
	categories.members[models.DefaultCategory] = []string{"lec2"}

	got, err := svc.AllByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, map[string]string{"lec1": "Атомы"}, got["Chem"])
	assert.Equal(t, map[string]string{"lec2": "Интро"}, got[models.DefaultCategory])

	flat, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lec1": "Атомы", "lec2": "Интро"}, flat)
}

func TestLectureService_HoldersCount(t *testing.T) {
	svc, _, _, students := newLectureService(t)

	students.students[1] = &models.Student{UserID: 1, Lectures: []string{"lec1"}}
	students.students[2] = &models.Student{UserID: 2, Lectures: []string{"lec1", "lec2"}}
	students.students[3] = &models.Student{UserID: 3, Lectures: []string{"lec2"}}

	count, err := svc.HoldersCount(context.Background(), "lec1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLectureService_Delete_Cascades(t *testing.T) {
	svc, lectures, categories, students := newLectureService(t)

	lectures.lectures["lec1"] = &models.Lecture{ID: "lec1", Name: "Атомы", Category: "Chem"}
	categories.members["Chem"] = []string{"lec1"}
	students.students[1] = &models.Student{UserID: 1, Lectures: []string{"lec1", "lec2"}}
	students.students[2] = &models.Student{UserID: 2, Lectures: []string{"lec2"}}

	revoked, err := svc.Delete(context.Background(), "lec1")
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)

	assert.NotContains(t, lectures.lectures, "lec1")
	assert.Empty(t, categories.members["Chem"])
	assert.Equal(t, []string{"lec2"}, students.students[1].Lectures)
	assert.Equal(t, []string{"lec2"}, students.students[2].Lectures)
}

func TestLectureService_Delete_NotFound(t *testing.T) {
	svc, _, _, _ := newLectureService(t)

	_, err := svc.Delete(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestLectureService_Move(t *testing.T) {
	svc, lectures, categories, _ := newLectureService(t)

	lectures.lectures["lec1"] = &models.Lecture{ID: "lec1", Name: "Атомы", Category: models.DefaultCategory}
	categories.members[models.DefaultCategory] = []string{"lec1"}

	require.NoError(t, svc.Move(context.Background(), "lec1", "Chem"))

	assert.Equal(t, "Chem", lectures.lectures["lec1"].Category)
	assert.Empty(t, categories.members[models.DefaultCategory])
	assert.Equal(t, []string{"lec1"}, categories.members["Chem"])

	// moving to the current category is a no-op
	require.NoError(t, svc.Move(context.Background(), "lec1", "Chem"))
	assert.Equal(t, []string{"lec1"}, categories.members["Chem"])
}
