package middleware

import (
	"context"

	"staybook/internal/domain/shared/failure"
	"staybook/internal/domain/user"
)

var (
	ErrUnauthenticated = failure.New(failure.KindAuthorization, "middleware: authenticated principal required")
	ErrAdminOnly       = failure.New(failure.KindAuthorization, "middleware: administrator role required")
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Actor is implemented by messages issued on behalf of a user.
type Actor interface {
	Principal() user.Principal
}

// AdminOnly marks messages reserved to administrators.
type AdminOnly interface {
	AdminOnly()
}

// PrincipalAuthorizer rejects user-issued messages without a principal and
// admin-only messages from other roles. Messages that are not Actors, such
// as internally dispatched ones, pass through.
type PrincipalAuthorizer struct{}

func (PrincipalAuthorizer) Authorize(_ context.Context, message any) error {
	actor, ok := message.(Actor)
	if !ok {
		return nil
	}
	p := actor.Principal()
	if p.IsAnonymous() {
		return ErrUnauthenticated
	}
	if _, adminOnly := message.(AdminOnly); adminOnly && !p.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardCommands(a.Authorize)
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardQueries(a.Authorize)
}
