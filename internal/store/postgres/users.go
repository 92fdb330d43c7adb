package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibechat/vibe-server/internal/domain"
	"github.com/vibechat/vibe-server/internal/store"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Find(ctx context.Context, id domain.UserID) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, display_name FROM users WHERE id = $1
	`, id)

	var u domain.User
	if err := row.Scan(&u.ID, &u.DisplayName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
