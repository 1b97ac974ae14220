// Package inmembackend is an in-memory stand-in for the classroom REST API,
// used by the demo mode and by tests.
package inmembackend

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/comment"
	"github.com/trezcool/classboard/core/ranking"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
)

// TopN is the length of the top list returned by the ranking endpoints.
const TopN = 3

type Backend struct {
	db *DB
}

var (
	_ user.Backend       = (*Backend)(nil)
	_ task.Backend       = (*Backend)(nil)
	_ submission.Backend = (*Backend)(nil)
	_ comment.Backend    = (*Backend)(nil)
	_ ranking.Backend    = (*Backend)(nil)
)

func NewBackend(db *DB) *Backend {
	return &Backend{db: db}
}

func apiError(method, p string, status int, body string) error {
	return &core.APIError{Method: method, Path: p, Status: status, Body: body}
}

// begin records the call and returns the injected failure, if any. Callers hold the lock.
func (b *Backend) begin(op string) error {
	b.db.calls[op]++
	return b.db.failures[op]
}

// auth resolves the requester from the token carried by ctx. Callers hold the lock.
func (b *Backend) auth(ctx context.Context, method, p string) (*userRow, error) {
	token, ok := session.Token(ctx)
	if !ok {
		return nil, core.ErrNoToken
	}
	row, ok := b.db.users[b.db.tokens[token]]
	if !ok {
		return nil, apiError(method, p, http.StatusUnauthorized, `{"detail":"Given token not valid for any token type"}`)
	}
	return row, nil
}

func (b *Backend) authRole(ctx context.Context, method, p, role string) (*userRow, error) {
	row, err := b.auth(ctx, method, p)
	if err != nil {
		return nil, err
	}
	if row.Role != role {
		return nil, apiError(method, p, http.StatusForbidden, `{"detail":"You do not have permission to perform this action."}`)
	}
	return row, nil
}

func (b *Backend) ObtainToken(_ context.Context, creds user.Credentials) (user.Tokens, error) {
	const p = "/api/token/"
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("ObtainToken"); err != nil {
		return user.Tokens{}, err
	}

	for _, row := range b.db.users {
		if row.Username == creds.Username && row.Password == creds.Password {
			return user.Tokens{
				Access:  b.db.issueToken(row.ID),
				Refresh: "refresh-" + uuid.NewString(),
			}, nil
		}
	}
	return user.Tokens{}, apiError(http.MethodPost, p, http.StatusUnauthorized,
		`{"detail":"No active account found with the given credentials"}`)
}

func (b *Backend) CurrentUser(ctx context.Context) (user.User, error) {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("CurrentUser"); err != nil {
		return user.User{}, err
	}

	row, err := b.auth(ctx, http.MethodGet, "/api/me/")
	if err != nil {
		return user.User{}, err
	}
	return row.User, nil
}

func (b *Backend) MyStudents(ctx context.Context) ([]user.Student, error) {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("MyStudents"); err != nil {
		return nil, err
	}

	teacher, err := b.authRole(ctx, http.MethodGet, "/api/teacher/my-students/", user.RoleTeacher)
	if err != nil {
		return nil, err
	}
	students := lo.Map(b.db.studentsOfGroups(b.teacherGroupIDs(teacher.ID)...), func(row *userRow, _ int) user.Student {
		return user.Student{ID: row.ID, FullName: row.FullName, Email: row.Email}
	})
	return students, nil
}

func (b *Backend) teacherGroupIDs(teacherID int) []int {
	ids := make([]int, 0)
	for _, grp := range b.db.groups {
		if grp.TeacherID == teacherID {
			ids = append(ids, grp.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

func (b *Backend) MyGroups(ctx context.Context) ([]task.Group, error) {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("MyGroups"); err != nil {
		return nil, err
	}

	teacher, err := b.authRole(ctx, http.MethodGet, "/api/teacher/my-groups/", user.RoleTeacher)
	if err != nil {
		return nil, err
	}
	return lo.Map(b.teacherGroupIDs(teacher.ID), func(id int, _ int) task.Group {
		return b.db.groups[id].Group
	}), nil
}

func (b *Backend) CreateTask(ctx context.Context, nt task.NewTask) (task.Task, error) {
	const p = "/api/teacher/tasks/create/"
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("CreateTask"); err != nil {
		return task.Task{}, err
	}

	teacher, err := b.authRole(ctx, http.MethodPost, p, user.RoleTeacher)
	if err != nil {
		return task.Task{}, err
	}
	if grp, ok := b.db.groups[nt.GroupID]; !ok || grp.TeacherID != teacher.ID {
		return task.Task{}, apiError(http.MethodPost, p, http.StatusBadRequest, `{"group":["Invalid pk - object does not exist."]}`)
	}

	t := task.Task{
		ID:          b.db.nextPK(),
		Name:        nt.Name,
		Description: nt.Description,
		Deadline:    nt.Deadline,
		Group:       nt.GroupID,
		CreatedAt:   b.db.now().UTC(),
	}
	if nt.File != nil && nt.File.Content != nil {
		t.File = path.Join("tasks", uuid.NewString(), path.Base(nt.File.Name))
		if err = b.db.storeFile(t.File, nt.File.Content); err != nil {
			return task.Task{}, err
		}
	}
	b.db.tasks[t.ID] = &t
	return t, nil
}

func (b *Backend) MyTasks(ctx context.Context) ([]task.Task, error) {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("MyTasks"); err != nil {
		return nil, err
	}

	student, err := b.authRole(ctx, http.MethodGet, "/api/my-tasks/", user.RoleStudent)
	if err != nil {
		return nil, err
	}

	tasks := make([]task.Task, 0)
	for _, t := range b.db.tasks {
		if t.Group != student.GroupID {
			continue
		}
		cp := *t
		cp.Submission = nil
		if sub := b.submissionOf(student.ID, t.ID); sub != nil {
			s := copySubmission(sub)
			cp.Submission = &s
		}
		tasks = append(tasks, cp)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (b *Backend) submissionOf(studentID, taskID int) *submission.Submission {
	for _, sub := range b.db.submissions {
		if sub.Student == studentID && sub.Task == taskID {
			return sub
		}
	}
	return nil
}

func (b *Backend) SubmitTask(ctx context.Context, taskID int, file core.File) error {
	const p = "/api/submit-task/"
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("SubmitTask"); err != nil {
		return err
	}

	student, err := b.authRole(ctx, http.MethodPost, p, user.RoleStudent)
	if err != nil {
		return err
	}
	t, ok := b.db.tasks[taskID]
	if !ok || t.Group != student.GroupID {
		return apiError(http.MethodPost, p, http.StatusNotFound, `{"detail":"Not found."}`)
	}

	if file.Content == nil {
		return apiError(http.MethodPost, p, http.StatusBadRequest, `{"file":["No file was submitted."]}`)
	}
	sub := b.submissionOf(student.ID, taskID)
	if sub != nil && !sub.AllowsUpload() {
		return apiError(http.MethodPost, p, http.StatusBadRequest, `{"detail":"Submission already approved."}`)
	}
	if sub == nil {
		sub = &submission.Submission{ID: b.db.nextPK(), Task: taskID, TaskName: t.Name, Student: student.ID}
		b.db.submissions[sub.ID] = sub
	}

	filePath := path.Join("submissions", uuid.NewString(), path.Base(file.Name))
	if err = b.db.storeFile(filePath, file.Content); err != nil {
		return err
	}
	now := b.db.now().UTC()
	sub.File = filePath
	sub.Status = submission.StatusSubmitted
	sub.SubmittedAt = &now
	return nil
}

func (b *Backend) StudentSubmissions(ctx context.Context, studentID int) ([]submission.Submission, error) {
	p := fmt.Sprintf("/api/submissions/?student=%d", studentID)
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("StudentSubmissions"); err != nil {
		return nil, err
	}

	if _, err := b.authRole(ctx, http.MethodGet, p, user.RoleTeacher); err != nil {
		return nil, err
	}
	subs := make([]submission.Submission, 0)
	for _, sub := range b.db.submissions {
		if sub.Student == studentID {
			subs = append(subs, copySubmission(sub))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

// teacherSubmission looks up a submission for a PATCH. Callers hold the lock.
func (b *Backend) teacherSubmission(ctx context.Context, op, p string, id int) (*submission.Submission, error) {
	if err := b.begin(op); err != nil {
		return nil, err
	}
	if _, err := b.authRole(ctx, http.MethodPatch, p, user.RoleTeacher); err != nil {
		return nil, err
	}
	sub, ok := b.db.submissions[id]
	if !ok {
		return nil, apiError(http.MethodPatch, p, http.StatusNotFound, `{"detail":"Not found."}`)
	}
	return sub, nil
}

// UpdateSubmissionStatus patches the status only.
func (b *Backend) UpdateSubmissionStatus(ctx context.Context, id int, status submission.Status) error {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()

	p := fmt.Sprintf("/api/submissions/%d/", id)
	sub, err := b.teacherSubmission(ctx, "UpdateSubmissionStatus", p, id)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return apiError(http.MethodPatch, p, http.StatusBadRequest,
			fmt.Sprintf(`{"status":["\"%s\" is not a valid choice."]}`, status))
	}
	sub.Status = status
	return nil
}

// SetSubmissionGrade patches the grade only.
func (b *Backend) SetSubmissionGrade(ctx context.Context, id int, grade int) error {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()

	p := fmt.Sprintf("/api/submissions/%d/set_grade/", id)
	sub, err := b.teacherSubmission(ctx, "SetSubmissionGrade", p, id)
	if err != nil {
		return err
	}
	if grade < submission.MinGrade || grade > submission.MaxGrade {
		return apiError(http.MethodPatch, p, http.StatusBadRequest,
			`{"grade":["Ensure this value is between 0 and 6."]}`)
	}
	sub.Grade = &grade
	return nil
}

// commentable checks the requester is the owner of the submission or a teacher. Callers hold the lock.
func (b *Backend) commentable(ctx context.Context, method, p string, id int) (*userRow, error) {
	row, err := b.auth(ctx, method, p)
	if err != nil {
		return nil, err
	}
	sub, ok := b.db.submissions[id]
	if !ok {
		return nil, apiError(method, p, http.StatusNotFound, `{"detail":"Not found."}`)
	}
	if !row.IsTeacher() && sub.Student != row.ID {
		return nil, apiError(method, p, http.StatusForbidden, `{"detail":"You do not have permission to perform this action."}`)
	}
	return row, nil
}

func (b *Backend) SubmissionComments(ctx context.Context, submissionID int) ([]comment.Comment, error) {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("SubmissionComments"); err != nil {
		return nil, err
	}

	if _, err := b.commentable(ctx, http.MethodGet, fmt.Sprintf("/api/submissions/%d/comments/", submissionID), submissionID); err != nil {
		return nil, err
	}
	comments := make([]comment.Comment, 0)
	for _, row := range b.db.comments {
		if row.SubmissionID == submissionID {
			comments = append(comments, row.Comment)
		}
	}
	return comments, nil
}

func (b *Backend) AddSubmissionComment(ctx context.Context, submissionID int, text string) error {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("AddSubmissionComment"); err != nil {
		return err
	}

	p := fmt.Sprintf("/api/submissions/%d/add_comment/", submissionID)
	author, err := b.commentable(ctx, http.MethodPatch, p, submissionID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return apiError(http.MethodPatch, p, http.StatusBadRequest, `{"text":["This field may not be blank."]}`)
	}
	b.db.comments = append(b.db.comments, commentRow{
		SubmissionID: submissionID,
		Comment: comment.Comment{
			ID:         b.db.nextPK(),
			AuthorName: author.FullName,
			Role:       author.Role,
			Text:       text,
			CreatedAt:  b.db.now().UTC(),
		},
	})
	return nil
}

func (b *Backend) GroupRanking(ctx context.Context, groupID int) (ranking.Response, error) {
	p := fmt.Sprintf("/api/ranking/group/%d", groupID)
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("GroupRanking"); err != nil {
		return ranking.Response{}, err
	}

	requester, err := b.auth(ctx, http.MethodGet, p)
	if err != nil {
		return ranking.Response{}, err
	}
	if _, ok := b.db.groups[groupID]; !ok {
		return ranking.Response{}, apiError(http.MethodGet, p, http.StatusNotFound, `{"detail":"Not found."}`)
	}
	return b.rank(b.db.studentsOfGroups(groupID), requester), nil
}

func (b *Backend) TopRanking(ctx context.Context) (ranking.Response, error) {
	b.db.mutex.Lock()
	defer b.db.mutex.Unlock()
	if err := b.begin("TopRanking"); err != nil {
		return ranking.Response{}, err
	}

	requester, err := b.auth(ctx, http.MethodGet, "/api/top-ranking/")
	if err != nil {
		return ranking.Response{}, err
	}
	students := make([]*userRow, 0)
	for _, row := range b.db.users {
		if row.IsStudent() {
			students = append(students, row)
		}
	}
	return b.rank(students, requester), nil
}

// rank orders students by the sum of their grades, ties by name.
// my_position is only set for a student requester.
func (b *Backend) rank(students []*userRow, requester *userRow) ranking.Response {
	entries := lo.Map(students, func(row *userRow, _ int) ranking.Entry {
		return ranking.Entry{StudentID: row.ID, StudentName: row.FullName, Points: b.db.points(row.ID)}
	})
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].StudentName < entries[j].StudentName
	})

	resp := ranking.Response{Top: entries}
	if len(entries) > TopN {
		resp.Top = entries[:TopN]
	}
	if requester.IsStudent() {
		if _, idx, ok := lo.FindIndexOf(entries, func(e ranking.Entry) bool { return e.StudentID == requester.ID }); ok {
			resp.MyPosition = &ranking.Position{Rank: idx + 1, Data: entries[idx]}
		}
	}
	return resp
}
