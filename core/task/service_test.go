package task_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
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

func newValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

func TestService_Mine(t *testing.T) {
	db := inmembackend.NewDB()
	teacher := db.AddUser("kowalski", "x", user.RoleTeacher, 0)
	grp := db.AddGroup("1A", teacher.ID)
	other := db.AddGroup("1B", teacher.ID)
	student := db.AddUser("ania", "x", user.RoleStudent, grp.ID)

	fractions := db.AddTask(task.Task{Name: "Fractions", Group: grp.ID})
	db.AddTask(task.Task{Name: "Essay", Group: grp.ID})
	db.AddTask(task.Task{Name: "Not mine", Group: other.ID})
	db.AddSubmission(submission.Submission{Task: fractions.ID, Student: student.ID, Status: submission.StatusApproved})

	svc := task.NewService(inmembackend.NewBackend(db), newValidator())

	tasks, err := svc.Mine(session.WithToken(context.Background(), db.TokenFor(student.ID)))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Fractions", tasks[0].Name)
	assert.Equal(t, submission.StatusUnsubmitted, tasks[0].Status(), "no file means unsubmitted")
	assert.True(t, tasks[0].CanUpload())
	assert.Nil(t, tasks[1].Submission)
	assert.Equal(t, submission.StatusUnsubmitted, tasks[1].Status())

	tasks, err = svc.Mine(context.Background())
	assert.Equal(t, core.ErrNoToken, errors.Cause(err))
	assert.NotNil(t, tasks)
}

func TestService_Create(t *testing.T) {
	db := inmembackend.NewDB()
	teacher := db.AddUser("kowalski", "x", user.RoleTeacher, 0)
	grp := db.AddGroup("1A", teacher.ID)
	svc := task.NewService(inmembackend.NewBackend(db), newValidator())
	ctx := session.WithToken(context.Background(), db.TokenFor(teacher.ID))

	valid := task.NewTask{Name: " Fractions ", Description: "Ex. 1-5", Deadline: "2024-05-01", GroupID: grp.ID}

	tests := []struct {
		name       string
		modify     func(nt *task.NewTask)
		wantFields []string
	}{
		{name: "missing name", modify: func(nt *task.NewTask) { nt.Name = "  " }, wantFields: []string{"name"}},
		{name: "missing description", modify: func(nt *task.NewTask) { nt.Description = "" }, wantFields: []string{"description"}},
		{name: "bad deadline", modify: func(nt *task.NewTask) { nt.Deadline = "01/05/2024" }, wantFields: []string{"deadline"}},
		{name: "no group", modify: func(nt *task.NewTask) { nt.GroupID = 0 }, wantFields: []string{"group"}},
		{
			name:       "everything missing",
			modify:     func(nt *task.NewTask) { *nt = task.NewTask{} },
			wantFields: []string{"name", "description", "deadline", "group"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt := valid
			tt.modify(&nt)
			_, err := svc.Create(ctx, nt)
			require.Error(t, err)

			msgs := core.FieldMessages(err, core.NewTranslator())
			for _, field := range tt.wantFields {
				assert.Contains(t, msgs, field, fmt.Sprintf("%v", msgs))
			}
			assert.Equal(t, 0, db.Calls("CreateTask"), "no request issued")
		})
	}

	t.Run("created", func(t *testing.T) {
		created, err := svc.Create(ctx, valid)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Fractions", created.Name)
		assert.Equal(t, grp.ID, created.Group)
	})

	t.Run("group of another teacher", func(t *testing.T) {
		nt := valid
		nt.GroupID = 999
		_, err := svc.Create(ctx, nt)
		apiErr, ok := errors.Cause(err).(*core.APIError)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, 400, apiErr.Status)
	})
}

func TestService_Groups(t *testing.T) {
	db := inmembackend.NewDB()
	teacher := db.AddUser("kowalski", "x", user.RoleTeacher, 0)
	db.AddGroup("1A", teacher.ID)
	db.AddGroup("1B", teacher.ID)
	db.AddGroup("2A", db.AddUser("nowak", "x", user.RoleTeacher, 0).ID)
	svc := task.NewService(inmembackend.NewBackend(db), newValidator())

	groups, err := svc.Groups(session.WithToken(context.Background(), db.TokenFor(teacher.ID)))
	require.NoError(t, err)
	assert.Equal(t, []string{"1A", "1B"}, []string{groups[0].Name, groups[1].Name})
	assert.Len(t, groups, 2)
}
