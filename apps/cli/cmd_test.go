package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/classboard/core/ranking"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
	"github.com/trezcool/classboard/storage/backend/inmem"
)

const password = "Pass123!"

func setup(t *testing.T) (*commandLine, *bytes.Buffer, *inmembackend.DB) {
	t.Helper()
	db := inmembackend.NewDB()
	teacher := db.AddUser("kowalski", password, user.RoleTeacher, 0)
	grp := db.AddGroup("1A", teacher.ID)
	ania := db.AddUser("ania", password, user.RoleStudent, grp.ID)
	bartek := db.AddUser("bartek", password, user.RoleStudent, grp.ID)

	var first task.Task
	for i, name := range []string{"Fractions", "Essay", "Poem", "Map"} {
		tsk := db.AddTask(task.Task{Name: name, Deadline: "2024-05-01", Group: grp.ID})
		if i == 0 {
			first = tsk
		}
	}
	four, six := 4, 6
	db.AddSubmission(submission.Submission{Task: first.ID, Student: ania.ID, File: "a.pdf", Status: submission.StatusApproved, Grade: &four})
	db.AddSubmission(submission.Submission{Task: first.ID, Student: bartek.ID, File: "b.pdf", Grade: &six})

	be := inmembackend.NewBackend(db)
	out := new(bytes.Buffer)
	return &commandLine{
		out:        out,
		preview:    3,
		usrSvc:     user.NewService(be),
		taskSvc:    task.NewService(be, nil),
		rankingSvc: ranking.NewService(be, 3),
	}, out, db
}

type cliTest struct {
	name      string
	args      []string // without program name
	pwd       string
	wantErr   error
	wantOut   []string
	wantNoOut []string
}

func runTests(t *testing.T, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out, _ := setup(t)
			readPasswordFunc = func(fd int) ([]byte, error) {
				return []byte(tt.pwd), nil
			}
			args := append([]string{"classboard"}, tt.args...)

			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
			for _, unwanted := range tt.wantNoOut {
				assert.NotContains(t, out.String(), unwanted)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	runTests(t, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no username", args: []string{"tasks"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"ranking", "-lol"}, wantErr: errHelp},
		{name: "no password", args: []string{"tasks", "-username", "ania"}, wantErr: errHelp},
		{name: "wrong password", args: []string{"tasks", "-username", "ania"}, pwd: "lol", wantErr: user.ErrAuthenticationFailed},
	})
}

func Test_commandLine_tasks(t *testing.T) {
	runTests(t, []cliTest{
		{
			name:      "preview",
			args:      []string{"tasks", "-username", "ania"},
			pwd:       password,
			wantOut:   []string{"Fractions", "approved", "4", "Poem", "3 of 4 tasks"},
			wantNoOut: []string{"Map"},
		},
		{
			name:      "all",
			args:      []string{"tasks", "-username", "ania", "-all"},
			pwd:       password,
			wantOut:   []string{"Map", "unsubmitted"},
			wantNoOut: []string{"of 4 tasks"},
		},
		{name: "teacher", args: []string{"tasks", "-username", "kowalski"}, pwd: password, wantErr: errNotAStudent},
	})
}

func Test_commandLine_ranking(t *testing.T) {
	runTests(t, []cliTest{
		{name: "student", args: []string{"ranking", "-username", "ania"}, pwd: password, wantOut: []string{"1  bartek", "6", "ania (you)"}},
		{name: "teacher", args: []string{"ranking", "-username", "kowalski"}, pwd: password, wantOut: []string{"bartek"}, wantNoOut: []string{"(you)"}},
	})
}
