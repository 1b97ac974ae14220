package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/comment"
)

type commentsPartial struct {
	SubmissionID int
	Comments     []comment.Comment
	Failed       bool
}

func registerCommentPartials(g *echo.Group, s *server) {
	g.GET("/:id/comments", s.comments)
	g.POST("/:id/comments", s.addComment)
}

// comments renders the thread of a submission. It is only requested when the thread is opened.
func (s *server) comments(ctx echo.Context) error {
	id, err := atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	thread, err := s.deps.CommentSvc.List(ctx.Request().Context(), id)
	if core.IsUnauthorized(err) {
		return err
	}
	return ctx.Render(http.StatusOK, "comments", commentsPartial{
		SubmissionID: id,
		Comments:     thread,
		Failed:       s.sectionFailed(ctx, "comments", err),
	})
}

// addComment appends to the thread and answers with the re-fetched thread.
// Blank text changes nothing.
func (s *server) addComment(ctx echo.Context) error {
	id, err := atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	thread, err := s.deps.CommentSvc.Add(ctx.Request().Context(), id, ctx.FormValue("text"))
	switch {
	case err == comment.ErrEmptyText:
		return ctx.NoContent(http.StatusNoContent)
	case core.IsUnauthorized(err):
		return err
	case err != nil:
		s.deps.Logger.Error("adding comment", errors.Wrap(err, "adding comment"), person(currentSession(ctx)))
		return ctx.Render(http.StatusBadGateway, "comments", commentsPartial{SubmissionID: id, Failed: true})
	}
	return ctx.Render(http.StatusOK, "comments", commentsPartial{SubmissionID: id, Comments: thread})
}
