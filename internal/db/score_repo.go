package db

import (
	"context"
	"time"

	"waterman/internal/types"
)

// ScoreRepository reads condition scores written by the external scoring
// process. This service never writes scores.
type ScoreRepository struct {
	db DBTX
}

// NewScoreRepository creates a ScoreRepository backed by the given database
// connection (pool or transaction).
func NewScoreRepository(db DBTX) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListSystemScores retrieves shared scores (user_id IS NULL) for a sport
// within [from, to] at or above minScore, ordered by time then site for
// deterministic selection.
func (r *ScoreRepository) ListSystemScores(ctx context.Context, sport types.Sport, from, to time.Time, minScore int) ([]*types.ConditionScore, error) {
	rows, err := r.db.Query(ctx,
		`SELECT site_id, sport, score_time, score, reasoning
		FROM condition_scores
		WHERE sport = $1
			AND user_id IS NULL
			AND score_time BETWEEN $2 AND $3
			AND score >= $4
		ORDER BY score_time, site_id`,
		string(sport), from, to, minScore)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query condition scores", err)
	}
	defer rows.Close()

	var scores []*types.ConditionScore
	for rows.Next() {
		var score types.ConditionScore
		if scanErr := rows.Scan(&score.SiteID, &score.Sport, &score.Time, &score.Score, &score.Reasoning); scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan condition score row", scanErr)
		}
		scores = append(scores, &score)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating condition score rows", err)
	}
	return scores, nil
}
