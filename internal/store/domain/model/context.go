package model

// ActorContext identifies who performs an operation. Only the uid is
// mandatory; TenantID supports cross-tenant attribution (an auditor from
// tenant A acting on tenant B's data keeps their home tenant here).
type ActorContext struct {
	UID      string `json:"uid"`
	Email    string `json:"email,omitempty"`
	Rol      string `json:"rol,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
}

// ServiceContext is the per-call request context consumed by every service
// operation. An empty TenantID means "absent"; Actor is nil when the call is
// anonymous. Validation happens in the consuming service, never here.
type ServiceContext struct {
	TenantID string        `json:"tenantId,omitempty"`
	Actor    *ActorContext `json:"actor,omitempty"`
}

// ActorUID returns the acting user's uid, or "" when there is no actor.
func (c ServiceContext) ActorUID() string {
	if c.Actor == nil {
		return ""
	}
	return c.Actor.UID
}

// AuthUser is the authenticated-user shape the context builder accepts. It
// mirrors what the authentication layer (out of scope here) resolves from a
// session or token.
type AuthUser struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

// BuildServiceContext assembles a ServiceContext from an authenticated user
// and a tenant id. Pure: a nil user yields no actor, and tenantID passes
// through unchanged, including empty.
func BuildServiceContext(user *AuthUser, tenantID string) ServiceContext {
	var actor *ActorContext
	if user != nil {
		actor = &ActorContext{
			UID:   user.UID,
			Email: user.Email,
		}
	}
	return ServiceContext{
		TenantID: tenantID,
		Actor:    actor,
	}
}
