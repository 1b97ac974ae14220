package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/user"
)

type loginPage struct {
	Username string
	Error    string
	Fields   map[string]string
}

func (s *server) loginForm(ctx echo.Context) error {
	if sess := currentSession(ctx); sess.IsAuthenticated() {
		return redirect(ctx, user.HomePath(sess.Role))
	}
	return s.render(ctx, http.StatusOK, "login", "Log in", loginPage{})
}

func (s *server) login(ctx echo.Context) error {
	creds := new(user.Credentials)
	if err := ctx.Bind(creds); err != nil {
		return err
	}
	if err := creds.Validate(s.deps.Validate); err != nil {
		return s.render(ctx, http.StatusBadRequest, "login", "Log in", loginPage{
			Username: creds.Username,
			Fields:   core.FieldMessages(err, s.deps.Translator),
		})
	}

	tokens, usr, err := s.deps.UserSvc.Login(ctx.Request().Context(), *creds)
	if err != nil {
		if errors.Is(err, user.ErrAuthenticationFailed) {
			return s.render(ctx, http.StatusUnauthorized, "login", "Log in", loginPage{
				Username: creds.Username,
				Error:    err.Error(),
			})
		}
		s.deps.Logger.Error("login failed", err, map[string]interface{}{"username": creds.Username})
		return s.render(ctx, http.StatusBadGateway, "login", "Log in", loginPage{
			Username: creds.Username,
			Error:    "Login is unavailable right now, please try again later.",
		})
	}

	// a fresh session id on every login
	if old := currentSession(ctx); old.ID != "" {
		if err = s.deps.Sessions.Delete(ctx.Request().Context(), old.ID); err != nil {
			return errors.Wrap(err, "dropping anonymous session")
		}
	}
	sess := session.New(s.deps.Conf.Session.MaxAge)
	sess.SetTokens(tokens.Access, tokens.Refresh)
	sess.Role = usr.Role
	sess.UserID = usr.ID
	sess.Username = usr.Username
	sess.Email = usr.Email
	sess.GroupID = usr.GroupID
	if usr.IsParent() {
		sess.AddBanner(session.BannerSuccess, "Parent accounts have no dashboard yet.")
	}
	if err = s.saveSession(ctx, sess); err != nil {
		return err
	}
	return redirect(ctx, user.HomePath(usr.Role))
}

func (s *server) logout(ctx echo.Context) error {
	if err := s.clearSession(ctx); err != nil {
		return err
	}
	return redirect(ctx, "/login")
}
