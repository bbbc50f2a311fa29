package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "transpo/internal/db"
	"transpo/internal/domain/models"
)

type UserRepo struct {
	DB intdb.DBTX
}

// FindByLogin matches either email or username.
func (r UserRepo) FindByLogin(ctx context.Context, login string) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, username, email, password_hash, role, status
		FROM users
		WHERE email = ? OR username = ?
		LIMIT 1`, login, login,
	).Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
