package auth

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the ordered privilege level attached to a user and to every token
// derived from that user's login. The ordering is total: a larger value may
// do everything a smaller one may.
type Role int

const (
	RoleGuest Role = iota
	RoleContributor
	RoleOwner
)

var roleNames = map[Role]string{
	RoleGuest:       "guest",
	RoleContributor: "contributor",
	RoleOwner:       "owner",
}

// ParseRole maps a role name to its Role value. Unknown names are an error so
// a token carrying a made-up role never validates.
func ParseRole(name string) (Role, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for role, n := range roleNames {
		if n == name {
			return role, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, name)
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// AtLeast reports whether r carries at least the privilege of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// CanViewPrivate reports whether the role may see records flagged private.
// Owner is the unique role with that privilege.
func (r Role) CanViewPrivate() bool {
	return r.AtLeast(RoleOwner)
}

// MarshalJSON encodes the role by name so tokens stay readable.
func (r Role) MarshalJSON() ([]byte, error) {
	n, ok := roleNames[r]
	if !ok {
		return nil, fmt.Errorf("%w: role %d has no name", ErrInvalidInput, int(r))
	}
	return json.Marshal(n)
}

// UnmarshalJSON decodes a role name, rejecting anything outside the ladder.
func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	role, err := ParseRole(name)
	if err != nil {
		return err
	}
	*r = role
	return nil
}
