package arbiter

import "github.com/Incognitol07/event-management-system-sub001/internal/domain"

// AutoApprove reports whether a resource request by role skips admin review
func AutoApprove(role domain.Role) bool {
	return role == domain.RoleAdmin
}
