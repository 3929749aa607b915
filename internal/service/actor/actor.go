// Package actor identifies who is calling a service operation.
package actor

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/pkg/reqctx"
)

var ErrUnauthenticated = errors.New("no authenticated caller")

type Actor struct {
	ID   primitive.ObjectID
	Role repo.Role
}

func (a Actor) IsAdmin() bool   { return a.Role == repo.RoleAdmin }
func (a Actor) IsDoctor() bool  { return a.Role == repo.RoleDoctor }
func (a Actor) IsPatient() bool { return a.Role == repo.RolePatient }

// FromContext builds the Actor from the token claims stored on ctx.
func FromContext(ctx context.Context) (Actor, error) {
	id, role, ok := reqctx.UserIDFromContext(ctx)
	if !ok {
		return Actor{}, ErrUnauthenticated
	}
	oid, err := repo.ParseID(id)
	if err != nil {
		return Actor{}, ErrUnauthenticated
	}
	return Actor{ID: oid, Role: repo.Role(role)}, nil
}
