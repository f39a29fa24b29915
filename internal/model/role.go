package model

import "fmt"

// Role selects which portal the client signs into. The same notification
// UI serves all three; only the endpoint prefix differs.
type Role string

const (
	RoleUser  Role = "user"
	RoleDosen Role = "dosen"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role string from config or flags.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleDosen, RoleAdmin:
		return Role(s), nil
	case "mahasiswa":
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q (want user, dosen or admin)", s)
	}
}

// DefaultNotificationConfig returns the endpoint set the portal injects for
// the given role.
func DefaultNotificationConfig(r Role) NotificationConfig {
	switch r {
	case RoleDosen:
		return NotificationConfig{
			BaseURL: "/dosen/notifications",
			AllURL:  "/dosen/notifications",
		}
	case RoleAdmin:
		return NotificationConfig{
			BaseURL: "/admin/notifications",
			AllURL:  "/admin/notification-center",
		}
	default:
		return NotificationConfig{
			BaseURL: "/user/notifications",
			AllURL:  "/user/notifications",
		}
	}
}

// DefaultPagePath is the landing page whose props carry the header
// notifications for the role.
func DefaultPagePath(r Role) string {
	switch r {
	case RoleDosen:
		return "/dosen/dashboard"
	case RoleAdmin:
		return "/dashboard"
	default:
		return "/user/dashboard"
	}
}
