package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ancestra.org/internal/ids"
)

// PGStore implements CredentialStore using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ CredentialStore = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) FindByName(ctx context.Context, name string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, password_hash, role, created_at, updated_at from users where name=$1`,
		normalizeName(name))
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}

func (s *PGStore) Create(ctx context.Context, u *User) error {
	name := normalizeName(u.Name)
	if name == "" {
		return ErrInvalidInput
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, name, password_hash, role) values($1,$2,$3,$4)`,
		u.ID, name, u.PasswordHash, u.Role.String(),
	)
	return err
}

func (s *PGStore) UpdatePassword(ctx context.Context, name, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash=$2, updated_at=$3 where name=$1`,
		normalizeName(name), passwordHash, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
