package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/session"
	"github.com/shuleapp/shule/core/user"
)

const passwordResetSentMsg = "if the email is registered, a password reset link has been sent"

type (
	authApi struct {
		authn    *auth.Authenticator
		users    *user.Service
		validate *core.Validator
		cookie   session.CookieConfig
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	UserResponse struct {
		User user.Profile `json:"user"`
	}

	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
	}
)

func registerAuthAPI(g *echo.Group, api *authApi) {
	ag := g.Group("/auth")

	ag.POST("/login", api.login)
	ag.POST("/signup", api.signup)
	ag.POST("/logout", api.logout)
	ag.GET("/me", api.me)

	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	profile, err := api.authn.Login(ctx.Request().Context(), newCarrier(ctx, api.cookie), data.Email, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UserResponse{User: profile})
}

func (api *authApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	profile, err := api.authn.Signup(ctx.Request().Context(), newCarrier(ctx, api.cookie), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UserResponse{User: profile})
}

func (api *authApi) logout(ctx echo.Context) error {
	api.authn.SignOut(ctx.Request().Context(), newCarrier(ctx, api.cookie))
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (api *authApi) me(ctx echo.Context) error {
	profile, ok := api.authn.CurrentUser(ctx.Request().Context(), newCarrier(ctx, api.cookie))
	if !ok {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, UserResponse{User: profile})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	data.Email = core.CleanString(data.Email)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	// unknown emails get the same answer
	if err := api.users.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil && !errors.Is(err, user.ErrNotFound) {
		return errors.Wrap(err, "requesting password reset")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: passwordResetSentMsg})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if _, err := api.users.ResetPassword(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "your password has been reset"})
}
