package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"waterman/internal/types"
)

func TestUserRepository_GetByID(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()

	row := &mockRow{scanFn: func(dest ...any) error {
		*dest[0].(*string) = "user-1"
		*dest[1].(*string) = "rider@example.com"
		*dest[2].(*[]string) = []string{"tarifa", "lagoon"}
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"user-1"}).Return(row)

	user, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, []string{"tarifa", "lagoon"}, user.FavoriteSites)

	db.AssertExpectations(t)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.GetByID(ctx, "ghost")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundUser, appErr.Code)
}
