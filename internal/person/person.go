package person

import (
	"context"
	"errors"

	"ancestra.org/internal/auth"
)

var ErrNotFound = errors.New("person: not found")

// Profile is the human-facing name block attached to a person record.
type Profile struct {
	NameGiven   string `json:"name_given"`
	NameSurname string `json:"name_surname"`
}

// Record is a person as stored in the genealogical database. The handle is
// the opaque storage key; the Gramps ID is the human-facing identifier.
type Record struct {
	Handle   string  `json:"handle"`
	GrampsID string  `json:"gramps_id"`
	Private  bool    `json:"private"`
	Gender   int     `json:"gender"`
	Change   int64   `json:"change"`
	Profile  Profile `json:"profile"`
}

// Store is the read surface of the external record database. Ownership of
// the records lies entirely with that database; this service only reads.
type Store interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, handle string) (Record, error)
}

// Visible reports whether a single record may be shown to the given role.
// Non-private records pass unconditionally; private ones require owner.
func Visible(role auth.Role, rec Record) bool {
	return !rec.Private || role.CanViewPrivate()
}

// Filter returns the subsequence of records visible to the role. It is a
// pure function and idempotent: filtering an already filtered slice changes
// nothing. Every record-returning path must go through Visible or Filter
// before the payload reaches a caller.
func Filter(role auth.Role, records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if Visible(role, rec) {
			out = append(out, rec)
		}
	}
	return out
}
