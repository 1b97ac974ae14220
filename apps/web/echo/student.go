package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/ranking"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
)

type studentPage struct {
	Profile       user.User
	ProfileFailed bool
	Board         ranking.Board
	RankingFailed bool
	Window        task.Window
	TasksFailed   bool
}

func registerStudentPages(g *echo.Group, s *server) {
	g.GET("", s.studentDashboard)
	g.POST("/tasks/:id/submit", s.studentSubmit)
}

// studentDashboard fetches profile, ranking and tasks concurrently. A failed section renders
// its own placeholder; only an expired token aborts the page.
func (s *server) studentDashboard(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess := currentSession(ctx)
	showAll := ctx.QueryParam("all") == "1"

	var (
		page                         studentPage
		profileErr, rankErr, taskErr error
		tasks                        []task.Task
	)
	var g errgroup.Group
	g.Go(func() error {
		page.Profile, profileErr = s.deps.UserSvc.Me(reqCtx)
		return nil
	})
	g.Go(func() error {
		page.Board, rankErr = s.deps.RankingSvc.ForStudent(reqCtx, sess.GroupID, sess.UserID)
		return nil
	})
	g.Go(func() error {
		tasks, taskErr = s.deps.TaskSvc.Mine(reqCtx)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{profileErr, rankErr, taskErr} {
		if core.IsUnauthorized(err) {
			return err
		}
	}
	page.ProfileFailed = s.sectionFailed(ctx, "profile", profileErr)
	page.RankingFailed = s.sectionFailed(ctx, "ranking", rankErr)
	page.TasksFailed = s.sectionFailed(ctx, "tasks", taskErr)
	page.Window = task.NewWindow(tasks, showAll, s.deps.Conf.UI.TaskPreview)

	return s.render(ctx, http.StatusOK, "student", "Dashboard", page)
}

// sectionFailed logs a failed section fetch. A missing token is an empty state, not a failure.
func (s *server) sectionFailed(ctx echo.Context, section string, err error) bool {
	if err == nil || errors.Cause(err) == core.ErrNoToken {
		return false
	}
	s.deps.Logger.Error("loading "+section, err, person(currentSession(ctx)))
	return true
}

func (s *server) studentSubmit(ctx echo.Context) error {
	back := "/student"
	if ctx.FormValue("all") == "1" {
		back += "?all=1"
	}

	taskID, err := atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		if fErr := s.flash(ctx, session.BannerError, "Choose a file to upload first."); fErr != nil {
			return fErr
		}
		return redirect(ctx, back)
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	err = s.deps.SubmissionSvc.Submit(ctx.Request().Context(), submission.Upload{
		TaskID: taskID,
		File:   &core.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Content: f},
	})
	switch {
	case err == nil:
		err = s.flash(ctx, session.BannerSuccess, "File uploaded.")
	case core.IsUnauthorized(err):
		return err
	default:
		s.deps.Logger.Error("uploading submission", err, person(currentSession(ctx)))
		err = s.flash(ctx, session.BannerError, "Upload failed, please try again.")
	}
	if err != nil {
		return err
	}
	return redirect(ctx, back)
}
