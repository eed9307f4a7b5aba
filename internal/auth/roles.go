package auth

import (
	"fmt"

	"github.com/wolfman30/carely-portal/internal/session"
)

// RegistrationRoles are the roles offered at sign-up. Admins are provisioned
// out of band.
var RegistrationRoles = []session.Role{
	session.RoleCaregiver,
	session.RoleUser,
	session.RoleFamily,
	session.RolePatient,
}

// LoginRoles are the roles offered at sign-in.
var LoginRoles = session.Roles

var landing = map[session.Role]string{
	session.RoleAdmin:     "/admin/dashboard",
	session.RoleCaregiver: "/caregiver/dashboard",
	session.RoleUser:      "/user/dashboard",
	session.RoleFamily:    "/user/dashboard",
	session.RolePatient:   "/patient/dashboard",
}

// LandingFor returns the first page a role sees after signing in.
func LandingFor(role session.Role) string {
	if path, ok := landing[role]; ok {
		return path
	}
	return "/"
}

func pickRole(raw string, offered []session.Role) (session.Role, error) {
	if raw == "" {
		return "", ErrRoleRequired
	}
	role, err := session.ParseRole(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrRoleNotOffered, raw)
	}
	for _, r := range offered {
		if r == role {
			return role, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrRoleNotOffered, raw)
}
