package foodrecipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.CreateUser(ctx, "  ala ", "kot")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "ala", user.Username)
	assert.NotEqual(t, "kot", user.PasswordHash)

	_, err = env.users.CreateUser(ctx, "ala", "other")
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	_, err = env.users.CreateUser(ctx, "", "kot")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.CreateUser(ctx, "ola", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_ListUsers(t *testing.T) {
	env := newTestEnv(t)

	env.createUser(t, "ola", "a")
	env.createUser(t, "ala", "b")

	users, err := env.users.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ola", users[0].Username)
	assert.Equal(t, "ala", users[1].Username)
}

func TestUserService_DeleteUserRemovesRatingsKeepsDishes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.createUser(t, "ala", "kot")
	rater := env.createUser(t, "ola", "pies")
	dish := env.createDish(t, author, "bigos")
	require.NoError(t, env.ratings.SubmitRating(ctx, rater.ID, dish.ID, 6))
	require.NoError(t, env.ratings.SubmitRating(ctx, author.ID, dish.ID, 8))

	require.NoError(t, env.users.DeleteUser(ctx, "ola"))
	assert.Equal(t, int64(0), countRatings(t, env, "user_id = ?", rater.ID))

	require.NoError(t, env.users.DeleteUser(ctx, "ala"))

	views, err := env.ratings.ListDishesWithRatings(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, dish.ID, views[0].ID)
	assert.Equal(t, author.ID, views[0].AuthorID)
	assert.Nil(t, views[0].AuthorUsername)
	assert.Empty(t, views[0].Ratings)

	err = env.users.DeleteUser(ctx, "ala")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUserService_DeleteAdminForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, testAdmin, "secret")

	err := env.users.DeleteUser(context.Background(), testAdmin)
	assert.ErrorIs(t, err, ErrAccessDenied)

	users, err := env.users.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_ResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "ala", "kot")

	require.NoError(t, env.users.ResetPassword(ctx, "ala", "pies"))

	_, err := env.users.Authenticate(ctx, "ala", "kot")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := env.users.Authenticate(ctx, "ala", "pies")
	require.NoError(t, err)
	assert.Equal(t, "ala", user.Username)

	err = env.users.ResetPassword(ctx, "ghost", "x")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	err = env.users.ResetPassword(ctx, "ala", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.users.EnsureAdmin(ctx, "secret"))
	require.NoError(t, env.users.EnsureAdmin(ctx, "other"))

	_, err := env.users.Authenticate(ctx, testAdmin, "secret")
	assert.NoError(t, err)

	assert.True(t, env.users.IsAdmin(testAdmin))
	assert.False(t, env.users.IsAdmin("ala"))
	assert.False(t, env.users.IsAdmin(""))
}
