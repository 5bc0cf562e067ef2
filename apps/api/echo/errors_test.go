package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/class"
	"github.com/shuleapp/shule/core/user"
)

type spyLogger struct {
	errors [][]interface{}
}

func (l *spyLogger) Debug(string, ...interface{}) {}
func (l *spyLogger) Info(string, ...interface{})  {}
func (l *spyLogger) Warn(string, ...interface{})  {}
func (l *spyLogger) Error(_ string, args ...interface{}) {
	l.errors = append(l.errors, args)
}
func (l *spyLogger) Fatal(string, ...interface{}) {}

func TestAppHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
		wantLog  bool
	}{
		{
			name:     "validation",
			err:      core.NewValidationError(core.ErrMissingFields, core.FieldError{Field: "email", Error: "this field is required"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "all fields are required", "fields": {"email": "this field is required"}}`,
		},
		{
			name:     "validation without fields",
			err:      errors.Wrap(core.NewValidationError(core.ErrInvalidInput), "validating"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "invalid input"}`,
		},
		{name: "credentials", err: auth.ErrInvalidCredentials, wantCode: http.StatusUnauthorized, wantBody: `{"error": "invalid email or password"}`},
		{name: "role", err: user.ErrInvalidRole, wantCode: http.StatusBadRequest, wantBody: `{"error": "invalid role, please select admin, teacher or student"}`},
		{name: "email exists", err: errors.Wrap(user.ErrEmailExists, "creating user"), wantCode: http.StatusConflict, wantBody: `{"error": "email already exists"}`},
		{name: "class not found", err: class.ErrNotFound, wantCode: http.StatusNotFound, wantBody: `{"error": "class not found"}`},
		{name: "unauthorized", err: errUnauthorized, wantCode: http.StatusUnauthorized, wantBody: `{"error": "unauthorized"}`},
		{name: "echo not found", err: echo.ErrNotFound, wantCode: http.StatusNotFound, wantBody: `{"error": "Not Found"}`},
		{
			name:     "internal",
			err:      errors.New("connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error": "Internal Server Error"}`,
			wantLog:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &spyLogger{}
			var shutdown bool
			handler := newAppHTTPErrorHandler(logger, func() { shutdown = true })

			e := echo.New()
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			handler(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantLog, len(logger.errors) == 1)
			assert.False(t, shutdown)
		})
	}
}

func TestAppHTTPErrorHandlerShutdown(t *testing.T) {
	logger := &spyLogger{}
	var shutdown bool
	handler := newAppHTTPErrorHandler(logger, func() { shutdown = true })

	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	profile := user.Profile{ID: "u1", Role: user.RoleAdmin}
	ctx.Set(contextUserKey, profile)

	handler(errors.Wrap(core.NewShutdownError("integrity issue"), "handling"), ctx)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, shutdown)
	if assert.Len(t, logger.errors, 1) {
		assert.Contains(t, logger.errors[0], profile)
	}
}
