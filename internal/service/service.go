// Package service implements tenant registration and login, and the
// tenant-scoped user, project and task operations. Every exported method
// returns either nil or an *apperr.Error.
package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/workspace-service/internal/apperr"
)

// PasswordHasher is implemented by *crypto.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// internal logs err and returns an Internal error carrying only msg.
func internal(ctx context.Context, err error, msg string) error {
	log.Ctx(ctx).Error().Err(err).Msg(msg)
	return apperr.Wrap(err, msg)
}

// outcome labels a metric with the kind of err, or "success".
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return apperr.KindOf(err).String()
}

// isValidSubdomain checks if the subdomain matches ^[a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?$
func isValidSubdomain(subdomain string) bool {
	if len(subdomain) < 1 || len(subdomain) > 63 {
		return false
	}
	last := len(subdomain) - 1
	for i, r := range subdomain {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if (i == 0 || i == last) && !alnum {
			return false
		}
		if !alnum && r != '-' {
			return false
		}
	}
	return true
}

// isValidEmail performs a basic email validation
func isValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if len(email) < 3 || at < 1 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}

// blank reports whether any of values is empty after trimming.
func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
