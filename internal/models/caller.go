package models

import "github.com/google/uuid"

type Role string

const (
	RoleFieldExecutive Role = "field_executive"
	RoleReviewer       Role = "reviewer"
	RoleAdmin          Role = "admin"
)

// ParseRole maps a token claim to a Role. Unknown values get the least
// privileged role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleReviewer:
		return RoleReviewer
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleFieldExecutive
	}
}

func (r Role) Elevated() bool {
	return r == RoleReviewer || r == RoleAdmin
}

// Caller identifies the authenticated user behind a request.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

func (c Caller) Owns(s *PropertySurvey) bool {
	return s != nil && s.SurveyedBy == c.UserID
}
