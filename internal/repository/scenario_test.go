package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtutor/chembot/internal/models"
	"github.com/chemtutor/chembot/internal/service"
)

// End-to-end cascade over live Redis: grant a lecture, delete it, and
// check the student list and category membership both drop it.
func TestScenario_LectureDeleteCascade(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	studentRepo := NewStudentRepository(client, nil)
	categoryRepo := NewCategoryRepository(client, nil)
	lectureRepo := NewLectureRepository(client, nil)

	require.NoError(t, categoryRepo.InitDefault(ctx))

	students := service.NewStudentService(studentRepo, lectureRepo, nil, nil)
	lectures := service.NewLectureService(lectureRepo, categoryRepo, studentRepo, nil, nil)

	_, err := students.Create(ctx, service.CreateStudentRequest{
		UserID:   123,
		Username: "vasya",
		Schedule: "пн 15:00",
	})
	require.NoError(t, err)

	lecture, err := lectures.Add(ctx, service.AddLectureRequest{
		Name:     "Basics",
		Filename: "basics.pdf",
		Filepath: "/data/lectures/basics.pdf",
		Category: "Chem",
	})
	require.NoError(t, err)

	require.NoError(t, students.Grant(ctx, 123, lecture.ID))

	student, err := students.Get(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, []string{lecture.ID}, student.Lectures)

	inChem, err := lectures.ByCategory(ctx, "Chem")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{lecture.ID: "Basics"}, inChem)

	revoked, err := lectures.Delete(ctx, lecture.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)

	student, err = students.Get(ctx, 123)
	require.NoError(t, err)
	assert.Empty(t, student.Lectures)

	inChem, err = lectures.ByCategory(ctx, "Chem")
	require.NoError(t, err)
	assert.Empty(t, inChem)
}

func TestMaintenanceRepository_Stats(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	studentRepo := NewStudentRepository(client, nil)
	lectureRepo := NewLectureRepository(client, nil)
	maintenanceRepo := NewMaintenanceRepository(client, nil)

	require.NoError(t, maintenanceRepo.Ping(ctx))

	require.NoError(t, studentRepo.Save(ctx, &models.Student{UserID: 123, Username: "vasya"}))
	require.NoError(t, lectureRepo.Save(ctx, &models.Lecture{ID: "lec1", Name: "Basics"}))

	total, err := maintenanceRepo.TotalKeys(ctx)
	require.NoError(t, err)
	// student record plus the two lecture records
	assert.EqualValues(t, 3, total)

	require.NoError(t, maintenanceRepo.FlushAll(ctx))

	total, err = maintenanceRepo.TotalKeys(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	count, err := studentRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
