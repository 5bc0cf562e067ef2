package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/class"
	"github.com/shuleapp/shule/core/user"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		message := echo.Map{}

		var verr *core.ValidationError
		var herr *echo.HTTPError
		switch {
		case errors.As(err, &verr):
			code = http.StatusBadRequest
			message["error"] = verr.Error()
			if flds := verr.FieldsMap(); flds != nil {
				message["fields"] = flds
			}
		case errors.Is(err, auth.ErrInvalidCredentials):
			code = http.StatusUnauthorized
			message["error"] = auth.ErrInvalidCredentials.Error()
		case errors.Is(err, user.ErrInvalidRole):
			code = http.StatusBadRequest
			message["error"] = user.ErrInvalidRole.Error()
		case errors.Is(err, user.ErrEmailExists):
			code = http.StatusConflict
			message["error"] = user.ErrEmailExists.Error()
		case errors.Is(err, user.ErrNotFound), errors.Is(err, class.ErrNotFound):
			code = http.StatusNotFound
			message["error"] = errors.Cause(err).Error()
		case errors.As(err, &herr):
			if herr.Internal != nil {
				if ierr, ok := herr.Internal.(*echo.HTTPError); ok {
					herr = ierr
				}
			}
			code = herr.Code
			message["error"] = fmt.Sprint(herr.Message)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)

			args := []interface{}{errors.Wrap(err, msg)}
			if usr, ok := getContextUser(ctx); ok {
				args = append(args, usr)
			}
			logger.Error(msg, args...)

			if ctx.Echo().Debug {
				msg = err.Error()
			}
			message["error"] = msg

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
