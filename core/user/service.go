package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
	ErrInvalidRole = errors.New("invalid role, please select admin, teacher or student")
)

type (
	// Repository persists users. Email lookups and uniqueness are case-insensitive;
	// CreateUser returns ErrEmailExists when the email is taken, including on concurrent inserts.
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// UpdateUser updates everything but the email and the role.
		UpdateUser(ctx context.Context, usr User) (User, error)
		CountUsersByRole(ctx context.Context) (map[Role]int, error)
	}

	Service struct {
		repo        Repository
		mailSvc     core.EmailService
		resetTokens *resetTokenGenerator
		nowFunc     func() time.Time
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:        repo,
		mailSvc:     mailSvc,
		resetTokens: newResetTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		nowFunc:     time.Now,
	}
}

// Create hashes the password and persists a validated NewUser.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	role, err := ParseRole(nu.Role)
	if err != nil {
		return User{}, err
	}
	now := svc.nowFunc().UTC()
	usr := User{
		Email:     nu.Email,
		FullName:  nu.FullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nu.Phone != "" {
		usr.Phone.SetValid(nu.Phone)
	}
	if nu.AvatarURL != "" {
		usr.AvatarURL.SetValid(nu.AvatarURL)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, wrapHashErr(err)
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email))
}

func (svc *Service) CountByRole(ctx context.Context) (map[Role]int, error) {
	return svc.repo.CountUsersByRole(ctx)
}

// SetPassword replaces the password of the user identified by email.
func (svc *Service) SetPassword(ctx context.Context, email string, sp SetUserPassword) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err := checkPasswordSimilarity(sp.Password, usr); err != nil {
		return User{}, err
	}
	return svc.updatePassword(ctx, usr, sp.Password)
}

// wrapHashErr passes validation errors through untouched.
func wrapHashErr(err error) error {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return errors.Wrap(err, "hashing password")
}

func (svc *Service) updatePassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, wrapHashErr(err)
	}
	usr.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset mails a reset link when the email belongs to a user.
// It returns ErrNotFound otherwise; callers must not reveal that to the client.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.FullName,
			"UID":   EncodeUID(usr),
			"Token": svc.resetTokens.makeToken(usr),
		},
	})
}

// ResetPassword sets a new password after checking the reset token. The role is left untouched.
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) (User, error) {
	invalid := func() error {
		return core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "token", Error: "invalid or expired token"})
	}

	id, err := decodeUID(data.UID)
	if err != nil {
		return User{}, invalid()
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, invalid()
		}
		return User{}, err
	}
	if err := svc.resetTokens.verifyToken(usr, data.Token); err != nil {
		return User{}, invalid()
	}
	if err := checkPasswordSimilarity(data.Password, usr); err != nil {
		return User{}, err
	}
	return svc.updatePassword(ctx, usr, data.Password)
}
