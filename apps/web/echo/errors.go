package echoweb

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/user"
)

var (
	errNotAuthenticated = echo.NewHTTPError(http.StatusUnauthorized, "please log in")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound     = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTooManyRequests  = echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later")
)

type errorPage struct {
	Code    int
	Message string
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func (s *server) newAppHTTPErrorHandler(signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var code int
		var message string

		switch origErr := errors.Cause(err); {
		case origErr == errNotAuthenticated, origErr == core.ErrNoToken, core.IsUnauthorized(origErr):
			// missing or rejected token: start over from the login page
			if cErr := s.clearSession(ctx); cErr != nil {
				s.deps.Logger.Error("clearing session", cErr)
			}
			s.respond(ctx, redirect(ctx, "/login"))
			return
		case origErr == errHttpForbidden:
			if sess := currentSession(ctx); sess.IsAuthenticated() {
				s.respond(ctx, redirect(ctx, user.HomePath(sess.Role)))
				return
			}
			code, message = http.StatusForbidden, errHttpForbidden.Message.(string)
		default:
			if he, ok := origErr.(*echo.HTTPError); ok {
				if he.Internal != nil {
					if herr, ok := he.Internal.(*echo.HTTPError); ok {
						he = herr
					}
				}
				code = he.Code
				message = fmt.Sprintf("%v", he.Message)
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
			s.deps.Logger.Error(message, errors.Wrap(err, message), person(currentSession(ctx)))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		if ctx.Request().Method == http.MethodHead { // Issue #608
			s.respond(ctx, ctx.NoContent(code))
			return
		}
		s.respond(ctx, s.render(ctx, code, "error", strconv.Itoa(code), errorPage{Code: code, Message: message}))
	}
}

func (s *server) respond(ctx echo.Context, err error) {
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}

func person(sess session.Session) core.Person {
	return core.Person{ID: strconv.Itoa(sess.UserID), Username: sess.Username, Email: sess.Email}
}
