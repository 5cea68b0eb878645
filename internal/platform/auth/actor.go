package auth

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated user performing a request.
type Actor struct {
	// ID is uuid.Nil when the token subject is not a user_account id.
	ID    uuid.UUID
	Name  string
	Email string
	Role  string
}

var rolePrecedence = []string{RoleUrologist, RoleNurse, RoleGP, RoleAdmin}

// ActorFromContext builds the Actor from identity values placed by the auth
// middlewares. With several roles the clinical one wins.
func ActorFromContext(ctx context.Context) Actor {
	a := Actor{}
	if id, err := uuid.Parse(UserIDFromContext(ctx)); err == nil {
		a.ID = id
	}
	a.Name, _ = ctx.Value(UserNameKey).(string)
	a.Email, _ = ctx.Value(UserEmailKey).(string)
	a.Role = primaryRole(RolesFromContext(ctx))
	if a.Name == "" {
		a.Name = a.Email
	}
	return a
}

func primaryRole(roles []string) string {
	for _, want := range rolePrecedence {
		for _, r := range roles {
			if r == want {
				return r
			}
		}
	}
	if len(roles) > 0 {
		return roles[0]
	}
	return ""
}
