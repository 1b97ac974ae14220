package echoweb

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
)

type (
	studentsPage struct {
		Students []user.Student
		Failed   bool
	}

	submissionsPage struct {
		StudentID   int
		Student     user.Student
		Submissions []submission.Submission
		Failed      bool
	}

	newTaskPage struct {
		Form         task.NewTask
		Fields       map[string]string
		Groups       []task.Group
		GroupsFailed bool
	}
)

func registerTeacherPages(g *echo.Group, s *server) {
	g.GET("", s.teacherStudents)
	g.GET("/students/:id", s.teacherSubmissions)
	g.POST("/students/:sid/submissions/:id/approve", s.teacherApprove)
	g.POST("/students/:sid/submissions/:id/grade", s.teacherGrade)
	g.GET("/tasks/new", s.newTaskForm)
	g.POST("/tasks/new", s.createTask)
}

func (s *server) teacherStudents(ctx echo.Context) error {
	students, err := s.deps.UserSvc.Students(ctx.Request().Context())
	if core.IsUnauthorized(err) {
		return err
	}
	return s.render(ctx, http.StatusOK, "teacher_students", "Students", studentsPage{
		Students: students,
		Failed:   s.sectionFailed(ctx, "students", err),
	})
}

func (s *server) teacherSubmissions(ctx echo.Context) error {
	studentID, err := atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	reqCtx := ctx.Request().Context()

	page := submissionsPage{StudentID: studentID}
	var students []user.Student
	var subsErr, studentsErr error
	var g errgroup.Group
	g.Go(func() error {
		page.Submissions, subsErr = s.deps.SubmissionSvc.ListForStudent(reqCtx, studentID)
		return nil
	})
	g.Go(func() error {
		students, studentsErr = s.deps.UserSvc.Students(reqCtx)
		return nil
	})
	_ = g.Wait()

	if core.IsUnauthorized(subsErr) {
		return subsErr
	}
	page.Failed = s.sectionFailed(ctx, "submissions", subsErr)
	if studentsErr == nil {
		page.Student, _ = lo.Find(students, func(st user.Student) bool { return st.ID == studentID })
	}
	return s.render(ctx, http.StatusOK, "teacher_submissions", "Submissions", page)
}

// reviewTarget reads the student and submission ids of a review route.
func reviewTarget(ctx echo.Context) (studentID, id int, err error) {
	if studentID, err = atoi(ctx.Param("sid")); err != nil {
		return 0, 0, errHttpNotFound
	}
	if id, err = atoi(ctx.Param("id")); err != nil {
		return 0, 0, errHttpNotFound
	}
	return studentID, id, nil
}

func (s *server) teacherApprove(ctx echo.Context) error {
	studentID, id, err := reviewTarget(ctx)
	if err != nil {
		return err
	}
	_, err = s.deps.SubmissionSvc.Approve(ctx.Request().Context(), studentID, id)
	return s.afterReview(ctx, studentID, err, "Submission approved.")
}

func (s *server) teacherGrade(ctx echo.Context) error {
	studentID, id, err := reviewTarget(ctx)
	if err != nil {
		return err
	}
	grade, err := atoi(ctx.FormValue("grade"))
	if err != nil {
		return s.afterReview(ctx, studentID,
			core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "enter a grade between 0 and 6"}), "")
	}
	approve := ctx.FormValue("approve") == "1"

	_, err = s.deps.SubmissionSvc.Review(ctx.Request().Context(), studentID, id, grade, approve)
	msg := "Grade saved."
	if approve {
		msg = "Grade saved and submission approved."
	}
	return s.afterReview(ctx, studentID, err, msg)
}

// afterReview turns the outcome of a review mutation into a banner, then reloads the student's list.
func (s *server) afterReview(ctx echo.Context, studentID int, err error, successMsg string) error {
	var partial *submission.PartialReviewError
	kind, msg := session.BannerSuccess, successMsg
	switch {
	case err == nil:
	case core.IsUnauthorized(err):
		return err
	case errors.As(err, &partial):
		s.deps.Logger.Error("approving submission", err, person(currentSession(ctx)))
		kind, msg = session.BannerError, "Grade saved, but the approval failed."
	case errors.Cause(err) == submission.ErrNotFound:
		return errHttpNotFound
	default:
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
			kind, msg = session.BannerError, fieldMessage(vErr.Error())
			break
		}
		s.deps.Logger.Error("reviewing submission", err, person(currentSession(ctx)))
		kind, msg = session.BannerError, "Saving the review failed, please try again."
	}
	if err = s.flash(ctx, kind, msg); err != nil {
		return err
	}
	return redirect(ctx, fmt.Sprintf("/teacher/students/%d", studentID))
}

func (s *server) newTaskForm(ctx echo.Context) error {
	return s.renderTaskForm(ctx, http.StatusOK, task.NewTask{}, nil)
}

func (s *server) renderTaskForm(ctx echo.Context, code int, form task.NewTask, fields map[string]string) error {
	groups, err := s.deps.TaskSvc.Groups(ctx.Request().Context())
	if core.IsUnauthorized(err) {
		return err
	}
	return s.render(ctx, code, "task_new", "New task", newTaskPage{
		Form:         form,
		Fields:       fields,
		Groups:       groups,
		GroupsFailed: s.sectionFailed(ctx, "groups", err),
	})
}

func (s *server) createTask(ctx echo.Context) error {
	groupID, _ := atoi(ctx.FormValue("group"))
	form := task.NewTask{
		Name:        ctx.FormValue("name"),
		Description: ctx.FormValue("description"),
		Deadline:    ctx.FormValue("deadline"),
		GroupID:     groupID,
	}
	if fh, err := ctx.FormFile("file"); err == nil {
		var f multipart.File
		if f, err = fh.Open(); err != nil {
			return errors.Wrap(err, "opening task file")
		}
		defer f.Close()
		form.File = &core.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Content: f}
	}

	_, err := s.deps.TaskSvc.Create(ctx.Request().Context(), form)
	if err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			return s.renderTaskForm(ctx, http.StatusBadRequest, form, core.FieldMessages(err, s.deps.Translator))
		}
		if core.IsUnauthorized(err) {
			return err
		}
		s.deps.Logger.Error("creating task", err, person(currentSession(ctx)))
		sess := currentSession(ctx)
		sess.AddBanner(session.BannerError, "Failed to create task.")
		setSession(ctx, sess)
		return s.renderTaskForm(ctx, http.StatusBadGateway, form, nil)
	}

	if err = s.flash(ctx, session.BannerSuccess, "Task created successfully."); err != nil {
		return err
	}
	return redirect(ctx, "/teacher/tasks/new")
}
