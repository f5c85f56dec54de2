package auth

import (
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/model"
)

// RequireRole fails Forbidden unless the caller's role is one of allowed.
func RequireRole(rc RequestContext, allowed ...model.Role) error {
	for _, r := range allowed {
		if rc.Role() == r {
			return nil
		}
	}
	return apperr.Denied("Insufficient role")
}
