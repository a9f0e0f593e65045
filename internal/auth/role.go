package auth

import (
	"fmt"
	"slices"
)

// Role is one of the closed set of account roles.
type Role int

const (
	RoleNoRights Role = iota
	RoleUser
	RoleAdmin
	RoleSuperAdmin
)

type roleEntry struct {
	name   string
	typeID int
	rights []Right
	set    map[Right]struct{}
}

var roleTable = [...]roleEntry{
	RoleNoRights:   newRoleEntry("NO_RIGHTS", 0, nil),
	RoleUser:       newRoleEntry("USER", 1, userRights),
	RoleAdmin:      newRoleEntry("ADMIN", 2, adminRights),
	RoleSuperAdmin: newRoleEntry("SUPER_ADMIN", 3, superAdminRights),
}

func newRoleEntry(name string, typeID int, rights []Right) roleEntry {
	return roleEntry{name: name, typeID: typeID, rights: rights, set: rightSet(rights)}
}

// ParseRole resolves a role name. Unknown names fail with ErrInvalidRole.
func ParseRole(name string) (Role, error) {
	for r, entry := range roleTable {
		if entry.name == name {
			return Role(r), nil
		}
	}
	return RoleNoRights, fmt.Errorf("%w: %q", ErrInvalidRole, name)
}

// AllRoles lists every role from least to most privileged.
func AllRoles() []Role {
	return []Role{RoleNoRights, RoleUser, RoleAdmin, RoleSuperAdmin}
}

func (r Role) valid() bool {
	return r >= RoleNoRights && int(r) < len(roleTable)
}

func (r Role) String() string {
	if !r.valid() {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleTable[r].name
}

// HasRight reports whether the role grants the right.
func (r Role) HasRight(right Right) bool {
	if !r.valid() {
		return false
	}
	_, ok := roleTable[r].set[right]
	return ok
}

// Rights returns the role's effective rights in catalog order.
func (r Role) Rights() []Right {
	if !r.valid() {
		return nil
	}
	return slices.Clone(roleTable[r].rights)
}

// TypeID is the numeric role marker carried in the token "type" claim.
func (r Role) TypeID() int {
	if !r.valid() {
		return 0
	}
	return roleTable[r].typeID
}
