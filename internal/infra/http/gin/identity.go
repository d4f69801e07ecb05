package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/domain/shared/failure"
	"staybook/internal/domain/user"
)

const principalContextKey = "staybook.principal"

var (
	ErrUnknownRole   = failure.New(failure.KindValidation, "identity: unknown role")
	ErrUnknownStatus = failure.New(failure.KindValidation, "identity: unknown account status")
	ErrSignInNeeded  = failure.New(failure.KindAuthorization, "identity: authenticated user required")
)

// IdentityResolver turns a request into the principal acting on it.
// Authentication happens upstream.
type IdentityResolver interface {
	Resolve(r *http.Request) (user.Principal, error)
}

// HeaderIdentity trusts the identity headers set by the API gateway.
type HeaderIdentity struct{}

func (HeaderIdentity) Resolve(r *http.Request) (user.Principal, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		return user.Principal{}, nil
	}
	p := user.Principal{UserID: id, Role: user.RoleCustomer, AccountStatus: user.StatusActive}
	if raw := strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Role"))); raw != "" {
		switch role := user.Role(raw); role {
		case user.RoleCustomer, user.RoleHost, user.RoleAdmin:
			p.Role = role
		default:
			return user.Principal{}, ErrUnknownRole
		}
	}
	if raw := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Account-Status"))); raw != "" {
		switch st := user.AccountStatus(raw); st {
		case user.StatusActive, user.StatusInactive, user.StatusVerified, user.StatusSuspended, user.StatusDeleted:
			p.AccountStatus = st
		default:
			return user.Principal{}, ErrUnknownStatus
		}
	}
	return p, nil
}

// Identity stores the resolved principal on the gin context. Anonymous
// requests continue; the buses reject them where a user is required.
func Identity(resolver IdentityResolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := resolver.Resolve(c.Request)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.Set(principalContextKey, p)
		c.Next()
	}
}

func principalFrom(c *gin.Context) user.Principal {
	if v, ok := c.Get(principalContextKey); ok {
		if p, ok := v.(user.Principal); ok {
			return p
		}
	}
	return user.Principal{}
}
