package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
	"github.com/tonearmhq/tonearm/internal/bridge/store"
)

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	const query = `
		SELECT id, username, password_hash
		FROM users
		WHERE username = ?
	`

	var u domain.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	const query = `
		INSERT INTO users (id, username, password_hash)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash)
	return err
}

// mapNotFound converts sql.ErrNoRows into the store-level sentinel so
// callers never depend on database/sql.
func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
