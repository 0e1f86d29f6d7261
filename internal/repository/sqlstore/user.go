package sqlstore

import (
	"context"

	"github.com/jwalitptl/medrecords-api/internal/model"
)

type userRepository struct {
	baseRepository
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	id, err := r.insertReturningID(ctx, `
		INSERT INTO users (name, role, password_hash)
		VALUES (?, ?, ?)
		RETURNING id`,
		user.Name, user.Role, user.PasswordHash,
	)
	if err != nil {
		return err
	}
	return r.get(ctx, user, `SELECT id, name, role, password_hash FROM users WHERE id = ?`, id)
}

func (r *userRepository) GetByName(ctx context.Context, name string) (*model.User, error) {
	var user model.User
	if err := r.get(ctx, &user, `SELECT id, name, role, password_hash FROM users WHERE name = ?`, name); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	users := []*model.User{}
	if err := r.selectAll(ctx, &users, `SELECT id, name, role, password_hash FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	return users, nil
}
