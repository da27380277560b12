package middleware

import (
	"fmt"

	"greenledger-backend/internal/constants"
	"greenledger-backend/internal/pkg/response"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const rbacModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act
`

// Authorizer answers whether a role holds a permission.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer loads constants.PermissionRoles into an in-memory casbin enforcer.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for perm, roles := range constants.PermissionRoles {
		for _, role := range roles {
			if _, err := e.AddPolicy(role, perm); err != nil {
				return nil, fmt.Errorf("rbac policy %s/%s: %w", role, perm, err)
			}
		}
	}
	return &Authorizer{enforcer: e}, nil
}

// Allowed reports whether role may perform permission. Enforcer errors deny.
func (a *Authorizer) Allowed(role, permission string) bool {
	ok, err := a.enforcer.Enforce(role, permission)
	if err != nil {
		log.Error().Err(err).Str("permission", permission).Msg("RBAC enforce failed")
		return false
	}
	return ok
}

// AuthorizePermission checks the principal's role against the permission.
// Unknown permission -> 500 "Permission configuration error"; role not allowed -> 403.
func (a *Authorizer) AuthorizePermission(permission string) fiber.Handler {
	_, configured := constants.PermissionRoles[permission]
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !configured {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if p.Role == "" || !a.Allowed(p.Role, permission) {
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}
