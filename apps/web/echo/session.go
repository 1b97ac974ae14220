package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core/session"
)

const contextSessionKey = "session"

// sessionMiddleware loads the browser's session, or starts an anonymous one.
// Expired sessions are dropped: the user is treated as logged out.
func (s *server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess, err := s.loadSession(ctx)
		if err != nil {
			return err
		}
		setSession(ctx, sess)
		return next(ctx)
	}
}

func (s *server) loadSession(ctx echo.Context) (session.Session, error) {
	cookie, err := ctx.Cookie(s.deps.Conf.Session.CookieName)
	if err != nil || cookie.Value == "" {
		return session.New(s.deps.Conf.Session.MaxAge), nil
	}

	reqCtx := ctx.Request().Context()
	sess, err := s.deps.Sessions.Get(reqCtx, cookie.Value)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return session.New(s.deps.Conf.Session.MaxAge), nil
	case err != nil:
		return session.Session{}, errors.Wrap(err, "loading session")
	case sess.Expired():
		if err = s.deps.Sessions.Delete(reqCtx, sess.ID); err != nil {
			return session.Session{}, errors.Wrap(err, "deleting expired session")
		}
		return session.New(s.deps.Conf.Session.MaxAge), nil
	}
	return sess, nil
}

// setSession exposes sess to handlers and to the backend client through the request context.
func setSession(ctx echo.Context, sess session.Session) {
	ctx.Set(contextSessionKey, sess)
	ctx.SetRequest(ctx.Request().WithContext(session.NewContext(ctx.Request().Context(), sess)))
}

func currentSession(ctx echo.Context) session.Session {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess
	}
	return session.Session{}
}

func (s *server) saveSession(ctx echo.Context, sess session.Session) error {
	if err := s.deps.Sessions.Save(ctx.Request().Context(), sess); err != nil {
		return errors.Wrap(err, "saving session")
	}
	setSession(ctx, sess)
	ctx.SetCookie(&http.Cookie{
		Name:     s.deps.Conf.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(sess.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.deps.Conf.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clearSession deletes the session and its cookie.
func (s *server) clearSession(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.ID != "" {
		if err := s.deps.Sessions.Delete(ctx.Request().Context(), sess.ID); err != nil {
			return errors.Wrap(err, "deleting session")
		}
	}
	setSession(ctx, session.New(s.deps.Conf.Session.MaxAge))
	ctx.SetCookie(&http.Cookie{
		Name:     s.deps.Conf.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.Conf.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// flash queues a banner for the next rendered page.
func (s *server) flash(ctx echo.Context, kind, msg string) error {
	sess := currentSession(ctx)
	sess.AddBanner(kind, msg)
	return s.saveSession(ctx, sess)
}

// requireRole lets authenticated users of one of roles through. Anonymous users are sent to
// the login page, others to their own home.
func requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := currentSession(ctx)
			if !sess.IsAuthenticated() {
				return errNotAuthenticated
			}
			if len(roles) == 0 {
				return next(ctx)
			}
			for _, role := range roles {
				if sess.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
