package domain

import "strings"

// Role is the closed set of approver roles recognized by the approval
// workflow. Role strings arrive from tokens and stored rows in
// inconsistent casing; NormalizeRole is the single conversion point and
// every comparison happens on the normalized value.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDirector Role = "director"
	RoleFinance  Role = "finance"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	// RoleUnknown matches nothing. Unrecognized input fails closed.
	RoleUnknown Role = ""
)

// NormalizeRole maps a raw role string to its canonical Role token.
// Anything not in the closed set normalizes to RoleUnknown.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "administrator":
		return RoleAdmin
	case "director":
		return RoleDirector
	case "finance":
		return RoleFinance
	case "manager":
		return RoleManager
	case "employee", "staff":
		return RoleEmployee
	default:
		return RoleUnknown
	}
}

// Covers reports whether an actor holding role r may act on a step that
// requires the given role. Admin covers everything; director also covers
// finance steps; every other role covers only itself. RoleUnknown covers
// nothing, including itself.
func (r Role) Covers(required Role) bool {
	if r == RoleUnknown || required == RoleUnknown {
		return r == RoleAdmin
	}
	switch r {
	case RoleAdmin:
		return true
	case RoleDirector:
		return required == RoleDirector || required == RoleFinance
	default:
		return r == required
	}
}
