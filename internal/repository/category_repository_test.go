package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

func TestCategoryRepository_InitDefault(t *testing.T) {
	repo := NewCategoryRepository(testClient(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.InitDefault(ctx))

	names, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, models.DefaultCategory)
}

func TestCategoryRepository_EnsureAndResolve(t *testing.T) {
	repo := NewCategoryRepository(testClient(t), nil)
	ctx := context.Background()

	token, err := repo.Ensure(ctx, "Chem")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryToken("Chem"), token)

	// a fresh repository resolves the persisted token
	name, err := repo.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Chem", name)

	// ensuring again keeps everything in place
	again, err := repo.Ensure(ctx, "Chem")
	require.NoError(t, err)
	assert.Equal(t, token, again)
}

func TestCategoryRepository_ResolveUnknownToken(t *testing.T) {
	repo := NewCategoryRepository(testClient(t), nil)

	name, err := repo.Resolve(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategory, name)
}

func TestCategoryRepository_AllSortedWithDefault(t *testing.T) {
	repo := NewCategoryRepository(testClient(t), nil)
	ctx := context.Background()

	_, err := repo.Ensure(ctx, "Органика")
	require.NoError(t, err)
	_, err = repo.Ensure(ctx, "Chem")
	require.NoError(t, err)

	names, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chem", models.DefaultCategory, "Органика"}, names)
}

func TestCategoryRepository_Members(t *testing.T) {
	repo := NewCategoryRepository(testClient(t), nil)
	ctx := context.Background()

	_, err := repo.Ensure(ctx, "Chem")
	require.NoError(t, err)

	members, err := repo.Members(ctx, "Chem")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, repo.AddMember(ctx, "Chem", "lec1"))
	require.NoError(t, repo.AddMember(ctx, "Chem", "lec2"))
	require.NoError(t, repo.AddMember(ctx, "Chem", "lec1"))

	members, err = repo.Members(ctx, "Chem")
	require.NoError(t, err)
	assert.Equal(t, []string{"lec1", "lec2"}, members)

	require.NoError(t, repo.RemoveMember(ctx, "Chem", "lec1"))
	require.NoError(t, repo.RemoveMember(ctx, "Chem", "ghost"))

	members, err = repo.Members(ctx, "Chem")
	require.NoError(t, err)
	assert.Equal(t, []string{"lec2"}, members)
}

func TestCategoryRepository_MembersOfUnknownCategory(t *testing.T) {
	repo := NewCategoryRepository(testClient(t), nil)

	members, err := repo.Members(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestCategoryRepository_DeleteMovesMembersToDefault(t *testing.T) {
	repo := NewCategoryRepository(testClient(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.InitDefault(ctx))
	_, err := repo.Ensure(ctx, "Chem")
	require.NoError(t, err)
	require.NoError(t, repo.AddMember(ctx, "Chem", "lec1"))
	require.NoError(t, repo.AddMember(ctx, "Chem", "lec2"))

	require.NoError(t, repo.Delete(ctx, "Chem"))

	names, err := repo.All(ctx)
	require.NoError(t, err)
	assert.NotContains(t, names, "Chem")

	members, err := repo.Members(ctx, models.DefaultCategory)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lec1", "lec2"}, members)

	// the persisted token goes with the category
	name, err := repo.Resolve(ctx, models.CategoryToken("Chem"))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategory, name)
}

func TestCategoryRepository_DeleteDefaultProtected(t *testing.T) {
	repo := NewCategoryRepository(testClient(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.InitDefault(ctx))

	err := repo.Delete(ctx, models.DefaultCategory)
	assert.ErrorIs(t, err, appErrors.ErrProtectedCategory)

	names, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, models.DefaultCategory)
}
