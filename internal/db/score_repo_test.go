package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"waterman/internal/types"
)

func scanScoreRow(siteID string, t time.Time, score int) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*string) = siteID
		*dest[1].(*types.Sport) = types.SportWingfoil
		*dest[2].(*time.Time) = t
		*dest[3].(*int) = score
		*dest[4].(*string) = "solid cross-shore breeze"
		return nil
	}
}

func TestScoreRepository_ListSystemScores(t *testing.T) {
	db := new(mockDBTX)
	repo := NewScoreRepository(db)
	ctx := context.Background()

	from := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)
	slotTime := from.Add(25 * time.Hour)

	rows := newMockRows(
		scanScoreRow("tarifa", slotTime, 92),
		scanScoreRow("lagoon", slotTime, 81),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), []any{"wingfoil", from, to, 75}).
		Return(rows, nil)

	scores, err := repo.ListSystemScores(ctx, types.SportWingfoil, from, to, 75)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "tarifa", scores[0].SiteID)
	assert.Equal(t, 92, scores[0].Score)
	assert.Nil(t, scores[0].UserID, "system scores carry no user")

	db.AssertExpectations(t)
}

func TestScoreRepository_ListSystemScores_Empty(t *testing.T) {
	db := new(mockDBTX)
	repo := NewScoreRepository(db)
	ctx := context.Background()

	from := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(), nil)

	scores, err := repo.ListSystemScores(ctx, types.SportSurfing, from, to, 75)
	require.NoError(t, err)
	assert.Empty(t, scores)

	db.AssertExpectations(t)
}

func TestScoreRepository_ListSystemScores_QueryError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewScoreRepository(db)
	ctx := context.Background()

	from := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, err := repo.ListSystemScores(ctx, types.SportWingfoil, from, from.Add(time.Hour), 75)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)

	db.AssertExpectations(t)
}
