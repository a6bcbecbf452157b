package middleware

import (
	"context"

	"github.com/kozaktomas/portfolio/internal/portfolio"
)

// UserFromContext returns the acting admin for project actions, or nil when
// the request carries no session.
func UserFromContext(ctx context.Context) *portfolio.User {
	session := GetSessionFromContext(ctx)
	if session == nil || session.Subject == "" {
		return nil
	}
	return &portfolio.User{Subject: session.Subject}
}
