package auth

import (
	"context"

	"github.com/shuleapp/shule/core/session"
	"github.com/shuleapp/shule/core/user"
)

// LoginEntryPoint is where unauthenticated visitors are sent.
const LoginEntryPoint = "/login"

type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonWrongRole
	ReasonPending // the session has not been resolved yet (client side only)
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnauthenticated:
		return OutcomeUnauthenticated
	case ReasonWrongRole:
		return OutcomeWrongRole
	case ReasonPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Decision is the outcome of an authorization check. When Admit is false, Redirect names the
// entry point the visitor should be sent to.
type Decision struct {
	Admit    bool
	Reason   Reason
	User     *user.Profile
	Redirect string
}

// EntryPoint returns the landing page of role.
func EntryPoint(role user.Role) string {
	switch role {
	case user.RoleAdmin:
		return "/admin-dashboard"
	case user.RoleTeacher:
		return "/teacher-dashboard"
	case user.RoleStudent:
		return "/student-dashboard"
	default:
		return LoginEntryPoint
	}
}

// Evaluate decides whether profile may reach an area reserved to required. A nil profile is
// an unauthenticated visitor.
func Evaluate(profile *user.Profile, required user.Role) Decision {
	if profile == nil {
		return Decision{Reason: ReasonUnauthenticated, Redirect: LoginEntryPoint}
	}
	if !required.IsValid() || profile.Role != required {
		return Decision{Reason: ReasonWrongRole, User: profile, Redirect: EntryPoint(profile.Role)}
	}
	return Decision{Admit: true, User: profile}
}

// Authorize resolves the session held by carrier and evaluates it against required.
func (a *Authenticator) Authorize(ctx context.Context, carrier session.Carrier, required user.Role) Decision {
	var d Decision
	if profile, ok := a.CurrentUser(ctx, carrier); ok {
		d = Evaluate(&profile, required)
	} else {
		d = Evaluate(nil, required)
	}
	if d.Admit {
		a.rec.Gate(required, OutcomeSuccess)
	} else {
		a.rec.Gate(required, d.Reason.String())
	}
	return d
}
