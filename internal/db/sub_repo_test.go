package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"waterman/internal/types"
)

func scanSubRow(id, userID, sport, prefix string, active bool) func(dest ...any) error {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	return func(dest ...any) error {
		*dest[0].(*string) = id
		*dest[1].(*string) = userID
		*dest[2].(*types.Sport) = types.Sport(sport)
		*dest[3].(*string) = prefix
		*dest[4].(*string) = "$2a$12$hash"
		*dest[5].(*bool) = active
		*dest[6].(*int64) = 7
		*dest[7].(**time.Time) = nil
		*dest[8].(*time.Time) = now
		return nil
	}
}

func TestSubscriptionRepository_GetByTokenPrefix_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	row := &mockRow{scanFn: scanSubRow("sub-1", "user-1", "wingfoil", "aBcDeFgH", true)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"aBcDeFgH"}).Return(row)

	sub, err := repo.GetByTokenPrefix(ctx, "aBcDeFgH")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", sub.ID)
	assert.Equal(t, types.SportWingfoil, sub.Sport)
	assert.True(t, sub.Active)
	assert.EqualValues(t, 7, sub.FetchCount)

	db.AssertExpectations(t)
}

func TestSubscriptionRepository_GetByTokenPrefix_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"zzzzzzzz"}).Return(row)

	_, err := repo.GetByTokenPrefix(ctx, "zzzzzzzz")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundSubscription, appErr.Code)

	db.AssertExpectations(t)
}

func TestSubscriptionRepository_Upsert(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	sub := &types.Subscription{
		ID:          "sub-1",
		UserID:      "user-1",
		Sport:       types.SportKitesurfing,
		TokenPrefix: "aBcDeFgH",
		TokenHash:   "$2a$12$hash",
		Active:      true,
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.Upsert(ctx, sub)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestSubscriptionRepository_RecordFetch(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"sub-1", at}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := repo.RecordFetch(ctx, "sub-1", at)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestSubscriptionRepository_RecordFetch_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"gone", at}).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := repo.RecordFetch(ctx, "gone", at)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundSubscription, appErr.Code)

	db.AssertExpectations(t)
}
