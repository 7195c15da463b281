package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"waterman/internal/types"
)

// UserRepository reads the account records backing feed personalization.
// Accounts are owned by the main application; this service only resolves
// token -> user -> favorite sites.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a UserRepository backed by the given database
// connection (pool or transaction).
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user with their favorite-site list.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*types.User, error) {
	var user types.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, favorite_sites FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Email, &user.FavoriteSites)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve user", err)
	}
	return &user, nil
}
