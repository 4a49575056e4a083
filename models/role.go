package models

import "strings"

// Role is the closed set of roles the dispatch API issues in its tokens.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTecnico Role = "TECNICO"
	RoleCliente Role = "CLIENTE"
)

// rolePrefix is the Spring-style authority prefix some token variants carry.
const rolePrefix = "ROLE_"

// NormalizeRole maps a raw role string from a token claim onto the closed
// Role set. The prefix is stripped if present and anything unrecognized
// falls back to RoleCliente, so callers never see a role outside the set.
func NormalizeRole(raw string) Role {
	name := strings.ToUpper(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, rolePrefix)

	switch Role(name) {
	case RoleAdmin:
		return RoleAdmin
	case RoleTecnico:
		return RoleTecnico
	case RoleCliente:
		return RoleCliente
	default:
		return RoleCliente
	}
}

func (r Role) IsAdmin() bool   { return r == RoleAdmin }
func (r Role) IsTecnico() bool { return r == RoleTecnico }
func (r Role) IsCliente() bool { return r == RoleCliente }
