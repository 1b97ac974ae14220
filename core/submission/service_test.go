package submission_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
	"github.com/trezcool/classboard/storage/backend/inmem"
)

type fixture struct {
	db         *inmembackend.DB
	svc        *submission.Service
	student    user.User
	teacherCtx context.Context
	studentCtx context.Context
	tasks      []task.Task
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := inmembackend.NewDB()
	teacher := db.AddUser("kowalski", "x", user.RoleTeacher, 0)
	grp := db.AddGroup("1A", teacher.ID)
	student := db.AddUser("ania", "x", user.RoleStudent, grp.ID)

	tasks := make([]task.Task, 0, 3)
	for _, name := range []string{"Fractions", "Essay", "Maps"} {
		tasks = append(tasks, db.AddTask(task.Task{Name: name, Deadline: "2024-05-01", Group: grp.ID}))
	}
	return fixture{
		db:         db,
		svc:        submission.NewService(inmembackend.NewBackend(db)),
		student:    student,
		teacherCtx: session.WithToken(context.Background(), db.TokenFor(teacher.ID)),
		studentCtx: session.WithToken(context.Background(), db.TokenFor(student.ID)),
		tasks:      tasks,
	}
}

func (f fixture) add(taskIdx int, status submission.Status, file string, grade *int) submission.Submission {
	return f.db.AddSubmission(submission.Submission{
		Task:     f.tasks[taskIdx].ID,
		TaskName: f.tasks[taskIdx].Name,
		Student:  f.student.ID,
		Status:   status,
		File:     file,
		Grade:    grade,
	})
}

func intPtr(i int) *int { return &i }

func isValidationErr(err error) bool {
	_, ok := errors.Cause(err).(*core.ValidationError)
	return ok
}

func TestService_ListForStudent(t *testing.T) {
	f := setup(t)
	f.add(0, submission.StatusSubmitted, "", nil) // no file
	f.add(1, "reviewing", "a.pdf", intPtr(4))     // unknown status
	f.add(2, submission.StatusApproved, "b.pdf", intPtr(6))

	subs, err := f.svc.ListForStudent(f.teacherCtx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, submission.StatusUnsubmitted, subs[0].Status)
	assert.False(t, subs[0].GradeVisible())
	assert.Equal(t, submission.StatusSubmitted, subs[1].Status)
	assert.True(t, subs[1].GradeVisible())
	assert.Equal(t, submission.StatusApproved, subs[2].Status)

	t.Run("no token", func(t *testing.T) {
		subs, err := f.svc.ListForStudent(context.Background(), f.student.ID)
		assert.Equal(t, core.ErrNoToken, errors.Cause(err))
		assert.NotNil(t, subs)
		assert.Empty(t, subs)
	})
}

func TestService_Approve(t *testing.T) {
	f := setup(t)
	graded := f.add(0, submission.StatusSubmitted, "a.pdf", intPtr(5))
	empty := f.add(1, submission.StatusUnsubmitted, "", nil)

	t.Run("keeps the grade", func(t *testing.T) {
		subs, err := f.svc.Approve(f.teacherCtx, f.student.ID, graded.ID)
		require.NoError(t, err)
		assert.Equal(t, submission.StatusApproved, subs[0].Status)
		require.NotNil(t, subs[0].Grade)
		assert.Equal(t, 5, *subs[0].Grade)
	})

	t.Run("only from submitted", func(t *testing.T) {
		before := f.db.Calls("UpdateSubmissionStatus")
		for _, id := range []int{graded.ID, empty.ID} {
			_, err := f.svc.Approve(f.teacherCtx, f.student.ID, id)
			assert.True(t, isValidationErr(err), "approve #%d: %v", id, err)
		}
		assert.Equal(t, before, f.db.Calls("UpdateSubmissionStatus"), "no PATCH issued")
	})

	t.Run("unknown submission", func(t *testing.T) {
		_, err := f.svc.Approve(f.teacherCtx, f.student.ID, 999)
		assert.Equal(t, submission.ErrNotFound, err)
	})
}

func TestService_SetGrade(t *testing.T) {
	f := setup(t)
	sub := f.add(0, submission.StatusSubmitted, "a.pdf", nil)
	empty := f.add(1, submission.StatusUnsubmitted, "", nil)

	tests := []struct {
		name      string
		id        int
		grade     int
		wantValid bool
	}{
		{name: "below range", id: sub.ID, grade: -1},
		{name: "above range", id: sub.ID, grade: 7},
		{name: "unsubmitted", id: empty.ID, grade: 3},
		{name: "lowest", id: sub.ID, grade: 0, wantValid: true},
		{name: "highest", id: sub.ID, grade: 6, wantValid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.db.Calls("SetSubmissionGrade")
			subs, err := f.svc.SetGrade(f.teacherCtx, f.student.ID, tt.id, tt.grade)
			if !tt.wantValid {
				assert.True(t, isValidationErr(err), "got %v", err)
				assert.Equal(t, before, f.db.Calls("SetSubmissionGrade"))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, subs[0].Grade)
			assert.Equal(t, tt.grade, *subs[0].Grade)
			assert.Equal(t, submission.StatusSubmitted, subs[0].Status, "status untouched")
		})
	}
}

func TestService_Review(t *testing.T) {
	t.Run("grade and approve", func(t *testing.T) {
		f := setup(t)
		sub := f.add(0, submission.StatusSubmitted, "a.pdf", nil)

		subs, err := f.svc.Review(f.teacherCtx, f.student.ID, sub.ID, 4, true)
		require.NoError(t, err)
		assert.Equal(t, submission.StatusApproved, subs[0].Status)
		assert.Equal(t, 4, *subs[0].Grade)
	})

	t.Run("approval fails after the grade was saved", func(t *testing.T) {
		f := setup(t)
		sub := f.add(0, submission.StatusSubmitted, "a.pdf", nil)
		f.db.Fail("UpdateSubmissionStatus", errors.New("boom"))

		_, err := f.svc.Review(f.teacherCtx, f.student.ID, sub.ID, 4, true)
		var partial *submission.PartialReviewError
		require.True(t, errors.As(err, &partial), "got %v", err)

		stored, _ := f.db.Submission(sub.ID)
		assert.Equal(t, submission.StatusSubmitted, stored.Status)
		require.NotNil(t, stored.Grade)
		assert.Equal(t, 4, *stored.Grade, "grade is not rolled back")
	})
}

func TestService_Submit(t *testing.T) {
	f := setup(t)

	err := f.svc.Submit(f.studentCtx, submission.Upload{TaskID: f.tasks[0].ID})
	assert.True(t, isValidationErr(err))
	assert.Equal(t, 0, f.db.Calls("SubmitTask"), "nothing sent without a file")

	err = f.svc.Submit(f.studentCtx, submission.Upload{
		TaskID: f.tasks[0].ID,
		File:   &core.File{Name: "work.pdf", Content: strings.NewReader("%PDF")},
	})
	require.NoError(t, err)

	subs, err := f.svc.ListForStudent(f.teacherCtx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, submission.StatusSubmitted, subs[0].Status)
	assert.NotNil(t, subs[0].SubmittedAt)
}
