package inmembackend

import (
	"time"

	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "demo1234"

// Seed fills db with one teacher, a group of five students and a few tasks.
// Accounts: "teacher", "student1" .. "student5".
func Seed(db *DB) {
	teacher := db.AddUser("teacher", DemoPassword, user.RoleTeacher, 0)
	grp := db.AddGroup("1A", teacher.ID)
	db.AddUser("parent", DemoPassword, user.RoleParent, 0)

	students := make([]user.User, 0, 5)
	for _, name := range []string{"student1", "student2", "student3", "student4", "student5"} {
		students = append(students, db.AddUser(name, DemoPassword, user.RoleStudent, grp.ID))
	}

	today := db.now().UTC()
	tasks := make([]task.Task, 0, 5)
	for i, name := range []string{"Fractions", "Essay: my town", "Photosynthesis", "Times tables", "Map of Europe"} {
		tasks = append(tasks, db.AddTask(task.Task{
			Name:        name,
			Description: "Homework: " + name,
			Deadline:    today.AddDate(0, 0, 7*(i+1)).Format(task.DateLayout),
			Group:       grp.ID,
		}))
	}

	submitted := today.Add(-24 * time.Hour)
	for i, stud := range students {
		for j, t := range tasks[:3] {
			if (i+j)%3 == 2 {
				continue
			}
			sub := submission.Submission{
				Task:        t.ID,
				TaskName:    t.Name,
				Student:     stud.ID,
				Status:      submission.StatusSubmitted,
				File:        "submissions/demo/" + stud.Username + ".pdf",
				SubmittedAt: &submitted,
			}
			if j == 0 {
				grade := (i + 2) % (submission.MaxGrade + 1)
				sub.Grade = &grade
				sub.Status = submission.StatusApproved
			}
			db.AddSubmission(sub)
		}
	}
}
