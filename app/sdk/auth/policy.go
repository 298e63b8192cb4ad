package auth

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/jcpaschoal/tenantauth/business/types/actions"
	"github.com/jcpaschoal/tenantauth/business/types/resource"
	"github.com/jcpaschoal/tenantauth/business/types/role"
)

const casbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Roles inherit every permission of the role below them.
var hierarchy = [][2]role.Role{
	{role.Admin, role.Editor},
	{role.Editor, role.Viewer},
}

var policies = []struct {
	role role.Role
	res  resource.Resource
	act  actions.Action
}{
	{role.Viewer, resource.Users, actions.Get},
	{role.Viewer, resource.Sessions, actions.List},
	{role.Admin, resource.Users, actions.List},
}

func newEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	for _, link := range hierarchy {
		if _, err := e.AddGroupingPolicy(subject(link[0]), subject(link[1])); err != nil {
			return nil, fmt.Errorf("add role %s: %w", link[0], err)
		}
	}

	for _, p := range policies {
		if _, err := e.AddPolicy(subject(p.role), p.res.String(), p.act.String()); err != nil {
			return nil, fmt.Errorf("add policy %s %s %s: %w", p.role, p.res, p.act, err)
		}
	}

	return e, nil
}

// Authorize checks if the role may perform the action on the resource.
func (a *Auth) Authorize(ctx context.Context, r role.Role, res resource.Resource, act actions.Action) error {
	ok, err := a.enforcer.Enforce(subject(r), res.String(), act.String())
	if err != nil {
		return fmt.Errorf("enforce: %w", err)
	}

	if !ok {
		a.log.Info(ctx, "**Authorize-DENIED**", "role", r, "resource", res, "action", act)
		return fmt.Errorf("%w: role %q cannot %s %s", ErrForbidden, r, act, res)
	}

	return nil
}

func subject(r role.Role) string {
	return "ROLE:" + r.String()
}
