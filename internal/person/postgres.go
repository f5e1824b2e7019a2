package person

import (
	"context"
	"database/sql"
	"errors"
)

// PGStore reads person records out of PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const selectColumns = `handle, gramps_id, private, gender, change, name_given, name_surname`

func (s *PGStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+selectColumns+` from people order by handle asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, handle string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+selectColumns+` from people where handle=$1`, handle)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.Handle, &rec.GrampsID, &rec.Private, &rec.Gender, &rec.Change,
		&rec.Profile.NameGiven, &rec.Profile.NameSurname,
	)
	return rec, err
}
