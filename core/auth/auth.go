// Package auth authenticates users and decides what an authenticated user may reach.
package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/session"
	"github.com/shuleapp/shule/core/user"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Outcomes passed to the Recorder.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalid         = "invalid"
	OutcomeRejected        = "rejected"
	OutcomeError           = "error"
	OutcomeAbsent          = "absent"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeWrongRole       = "wrong_role"
)

type (
	// Users is the part of the user service the Authenticator needs.
	Users interface {
		Create(ctx context.Context, nu user.NewUser) (user.User, error)
		GetByID(ctx context.Context, id string) (user.User, error)
		GetByEmail(ctx context.Context, email string) (user.User, error)
	}

	// Recorder observes authentication outcomes, typically to export metrics.
	Recorder interface {
		Login(outcome string)
		Signup(outcome string)
		SignOut()
		Session(outcome string)
		Gate(required user.Role, outcome string)
	}

	Deps struct {
		Users     Users
		Tokens    *session.Tokens
		Revoker   session.Revoker // optional
		Validator *core.Validator
		Logger    core.Logger
		Recorder  Recorder // optional
	}

	Authenticator struct {
		users    Users
		tokens   *session.Tokens
		revoker  session.Revoker
		validate *core.Validator
		logger   core.Logger
		rec      Recorder
	}
)

func NewAuthenticator(deps Deps) *Authenticator {
	rec := deps.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Authenticator{
		users:    deps.Users,
		tokens:   deps.Tokens,
		revoker:  deps.Revoker,
		validate: deps.Validator,
		logger:   deps.Logger,
		rec:      rec,
	}
}

// Login checks the credentials and starts a session on carrier.
func (a *Authenticator) Login(ctx context.Context, carrier session.Carrier, email, password string) (user.Profile, error) {
	email = core.CleanString(email)
	if email == "" || password == "" {
		a.rec.Login(OutcomeInvalid)
		return user.Profile{}, missingCredentials(email, password)
	}

	usr, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			user.BurnVerification(password)
			a.rec.Login(OutcomeRejected)
			return user.Profile{}, ErrInvalidCredentials
		}
		a.rec.Login(OutcomeError)
		return user.Profile{}, errors.Wrap(err, "finding user by email")
	}
	if !usr.CheckPassword(password) {
		a.rec.Login(OutcomeRejected)
		return user.Profile{}, ErrInvalidCredentials
	}

	if err := a.startSession(carrier, usr); err != nil {
		a.rec.Login(OutcomeError)
		return user.Profile{}, err
	}
	a.rec.Login(OutcomeSuccess)
	return usr.Profile(), nil
}

// Signup creates an account and starts a session on carrier. Nothing is persisted when it fails.
func (a *Authenticator) Signup(ctx context.Context, carrier session.Carrier, nu user.NewUser) (user.Profile, error) {
	if err := nu.Validate(a.validate); err != nil {
		a.rec.Signup(OutcomeInvalid)
		return user.Profile{}, err
	}

	switch _, err := a.users.GetByEmail(ctx, nu.Email); {
	case err == nil:
		a.rec.Signup(OutcomeRejected)
		return user.Profile{}, user.ErrEmailExists
	case !errors.Is(err, user.ErrNotFound):
		a.rec.Signup(OutcomeError)
		return user.Profile{}, errors.Wrap(err, "checking email uniqueness")
	}

	usr, err := a.users.Create(ctx, nu)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			a.rec.Signup(OutcomeRejected)
			return user.Profile{}, user.ErrEmailExists
		}
		a.rec.Signup(OutcomeError)
		return user.Profile{}, errors.Wrap(err, "creating user")
	}

	if err := a.startSession(carrier, usr); err != nil {
		a.rec.Signup(OutcomeError)
		return user.Profile{}, err
	}
	a.rec.Signup(OutcomeSuccess)
	return usr.Profile(), nil
}

// SignOut ends the session held by carrier. It always succeeds.
func (a *Authenticator) SignOut(ctx context.Context, carrier session.Carrier) {
	if token, ok := carrier.Retrieve(); ok && a.revoker != nil {
		if claims, err := a.tokens.Parse(token); err == nil {
			if err := a.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				a.logger.Error("revoking session token", errors.Wrap(err, "revoker.Revoke"))
			}
		}
	}
	carrier.Clear()
	a.rec.SignOut()
}

// CurrentUser resolves the user of the session held by carrier. It never fails: any problem
// with the session yields false. The carrier is left untouched.
func (a *Authenticator) CurrentUser(ctx context.Context, carrier session.Carrier) (user.Profile, bool) {
	token, ok := carrier.Retrieve()
	if !ok {
		a.rec.Session(OutcomeAbsent)
		return user.Profile{}, false
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		a.logger.Debug("session token rejected", err)
		a.rec.Session(OutcomeRejected)
		return user.Profile{}, false
	}

	if a.revoker != nil {
		revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			a.logger.Error("checking session revocation", errors.Wrap(err, "revoker.IsRevoked"))
			a.rec.Session(OutcomeError)
			return user.Profile{}, false
		}
		if revoked {
			a.rec.Session(OutcomeRejected)
			return user.Profile{}, false
		}
	}

	usr, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			a.rec.Session(OutcomeRejected)
		} else {
			a.logger.Error("loading session user", errors.Wrap(err, "users.GetByID"))
			a.rec.Session(OutcomeError)
		}
		return user.Profile{}, false
	}
	a.rec.Session(OutcomeSuccess)
	return usr.Profile(), true
}

func (a *Authenticator) startSession(carrier session.Carrier, usr user.User) error {
	token, _, err := a.tokens.Issue(usr.ID)
	if err != nil {
		return errors.Wrap(err, "issuing session token")
	}
	return errors.Wrap(carrier.Store(token), "storing session token")
}

func missingCredentials(email, password string) error {
	var flds []core.FieldError
	if email == "" {
		flds = append(flds, core.FieldError{Field: "email", Error: "this field is required"})
	}
	if password == "" {
		flds = append(flds, core.FieldError{Field: "password", Error: "this field is required"})
	}
	return core.NewValidationError(core.ErrMissingFields, flds...)
}

type nopRecorder struct{}

func (nopRecorder) Login(string)           {}
func (nopRecorder) Signup(string)          {}
func (nopRecorder) SignOut()               {}
func (nopRecorder) Session(string)         {}
func (nopRecorder) Gate(user.Role, string) {}
