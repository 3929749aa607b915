package authorize

import (
	"context"
	"errors"

	"github.com/healthplus/backend/pkg/reqctx"
)

var ErrNoSubjectInContext = errors.New("no subject found in context")

// RoleFromContext returns the policy subject for the authenticated caller.
func RoleFromContext(ctx context.Context) (Role, error) {
	_, role, ok := reqctx.UserIDFromContext(ctx)
	if !ok || role == "" {
		return "", ErrNoSubjectInContext
	}
	return RoleFor(role), nil
}

// Can checks the caller in ctx against object/action.
func Can(ctx context.Context, auth IAuthorization, object Resource, action Action) error {
	role, err := RoleFromContext(ctx)
	if err != nil {
		return err
	}
	return auth.MustEnforce(ctx, role, object, action)
}
