// Package session owns the authenticated identity of the portal user: the
// access token issued by the Carely backend and the user profile that came
// with it. Both are persisted together and cleared together.
package session

import (
	"fmt"
	"strings"
)

// Role is the account type assigned by the backend.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCaregiver Role = "caregiver"
	RoleUser      Role = "user"
	RoleFamily    Role = "family"
	RolePatient   Role = "patient"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleCaregiver, RoleUser, RoleFamily, RolePatient}

// ParseRole normalizes s into a known role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// LinkedPatient is a patient a user or family member may book care for.
type LinkedPatient struct {
	ID           string `json:"_id,omitempty"`
	PatientID    string `json:"patientId,omitempty"`
	PatientName  string `json:"patientName,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// Key identifies the patient, preferring patientId over the record id.
func (p LinkedPatient) Key() string {
	if p.PatientID != "" {
		return p.PatientID
	}
	return p.ID
}

// User is the profile returned by the backend at login.
type User struct {
	ID             string          `json:"_id"`
	Role           Role            `json:"role"`
	FirstName      string          `json:"firstName,omitempty"`
	LastName       string          `json:"lastName,omitempty"`
	Email          string          `json:"email,omitempty"`
	Username       string          `json:"username,omitempty"`
	MobileNumber   string          `json:"mobileNumber,omitempty"`
	ProfilePicture string          `json:"profilePicture,omitempty"`
	LinkedPatients []LinkedPatient `json:"linkedPatients,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Session is the persisted identity.
type Session struct {
	Token string `json:"accessToken"`
	User  User   `json:"user"`
}

// Valid reports whether the session carries enough to be trusted locally.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.Token) != "" && s.User.Role.Valid()
}
