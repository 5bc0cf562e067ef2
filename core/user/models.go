package user

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shuleapp/shule/core"
)

type Role string

// Roles
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole returns ErrInvalidRole for anything outside AllRoles. Matching is exact.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

type User struct {
	ID           string      `db:"id"`
	Email        string      `db:"email"`
	PasswordHash []byte      `db:"password_hash"`
	FullName     string      `db:"full_name"`
	Role         Role        `db:"role"`
	Phone        null.String `db:"phone"`
	AvatarURL    null.String `db:"avatar_url"`
	CreatedAt    time.Time   `db:"created_at"` // UTC
	UpdatedAt    time.Time   `db:"updated_at"` // UTC
}

// Profile is the public projection of a User. It never carries the password hash.
type Profile struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name"`
	Role      Role        `json:"role"`
	Phone     null.String `json:"phone"`
	AvatarURL null.String `json:"avatar_url"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
	}
}

func (u *User) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) bool {
	return VerifyPassword(pwd, u.PasswordHash)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,pwdmaxbytes"`
	FullName  string `json:"full_name" validate:"required"`
	Role      string `json:"role" validate:"required"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

// Validate cleans the input then checks it. An unknown role is reported before missing fields.
func (nu *NewUser) Validate(v *core.Validator) error {
	nu.Email = core.CleanString(nu.Email)
	nu.FullName = core.CleanString(nu.FullName)
	nu.Role = core.CleanString(nu.Role)
	nu.Phone = core.CleanString(nu.Phone)
	nu.AvatarURL = core.CleanString(nu.AvatarURL)

	if nu.Role != "" && !Role(nu.Role).IsValid() {
		return ErrInvalidRole
	}
	return v.Struct(nu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required,pwdmaxbytes"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(v *core.Validator) error { return v.Struct(rp) }

// SetUserPassword is used by administrators to force a new password.
type SetUserPassword struct {
	Password        string `json:"password" validate:"required,pwdmaxbytes"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (sp SetUserPassword) Validate(v *core.Validator) error { return v.Struct(sp) }
