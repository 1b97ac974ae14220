package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/comment"
	"github.com/trezcool/classboard/core/ranking"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
)

var (
	_ user.Backend       = (*Client)(nil)
	_ task.Backend       = (*Client)(nil)
	_ submission.Backend = (*Client)(nil)
	_ comment.Backend    = (*Client)(nil)
	_ ranking.Backend    = (*Client)(nil)
)

func (c *Client) ObtainToken(ctx context.Context, creds user.Credentials) (user.Tokens, error) {
	var tokens user.Tokens
	err := c.do(ctx, request{
		endpoint:  "ObtainToken",
		method:    http.MethodPost,
		path:      "/api/token/",
		body:      creds,
		anonymous: true,
	}, &tokens)
	return tokens, err
}

func (c *Client) CurrentUser(ctx context.Context) (user.User, error) {
	var usr user.User
	err := c.do(ctx, request{endpoint: "CurrentUser", method: http.MethodGet, path: "/api/me/"}, &usr)
	return usr, err
}

func (c *Client) MyStudents(ctx context.Context) ([]user.Student, error) {
	var students []user.Student
	err := c.do(ctx, request{endpoint: "MyStudents", method: http.MethodGet, path: "/api/teacher/my-students/"}, &students)
	return students, err
}

func (c *Client) MyGroups(ctx context.Context) ([]task.Group, error) {
	var groups []task.Group
	err := c.do(ctx, request{endpoint: "MyGroups", method: http.MethodGet, path: "/api/teacher/my-groups/"}, &groups)
	return groups, err
}

type newTaskBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Group       int    `json:"group"`
}

// CreateTask sends JSON, or multipart/form-data when a file is attached.
func (c *Client) CreateTask(ctx context.Context, nt task.NewTask) (task.Task, error) {
	r := request{endpoint: "CreateTask", method: http.MethodPost, path: "/api/teacher/tasks/create/"}
	if nt.File != nil && nt.File.Content != nil {
		r.file = nt.File
		r.fields = map[string]string{
			"name":        nt.Name,
			"description": nt.Description,
			"deadline":    nt.Deadline,
			"group":       strconv.Itoa(nt.GroupID),
		}
	} else {
		r.body = newTaskBody{Name: nt.Name, Description: nt.Description, Deadline: nt.Deadline, Group: nt.GroupID}
	}

	var t task.Task
	err := c.do(ctx, r, &t)
	return t, err
}

func (c *Client) StudentSubmissions(ctx context.Context, studentID int) ([]submission.Submission, error) {
	var subs []submission.Submission
	err := c.do(ctx, request{
		endpoint: "StudentSubmissions",
		method:   http.MethodGet,
		path:     "/api/submissions/",
		query:    url.Values{"student": {strconv.Itoa(studentID)}},
	}, &subs)
	return subs, err
}

// UpdateSubmissionStatus patches the status field only.
func (c *Client) UpdateSubmissionStatus(ctx context.Context, id int, status submission.Status) error {
	return c.do(ctx, request{
		endpoint: "UpdateSubmissionStatus",
		method:   http.MethodPatch,
		path:     fmt.Sprintf("/api/submissions/%d/", id),
		body:     map[string]string{"status": status.String()},
	}, nil)
}

// SetSubmissionGrade patches the grade field only.
func (c *Client) SetSubmissionGrade(ctx context.Context, id int, grade int) error {
	return c.do(ctx, request{
		endpoint: "SetSubmissionGrade",
		method:   http.MethodPatch,
		path:     fmt.Sprintf("/api/submissions/%d/set_grade/", id),
		body:     map[string]int{"grade": grade},
	}, nil)
}

func (c *Client) SubmissionComments(ctx context.Context, submissionID int) ([]comment.Comment, error) {
	var comments []comment.Comment
	err := c.do(ctx, request{
		endpoint: "SubmissionComments",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/api/submissions/%d/comments/", submissionID),
	}, &comments)
	return comments, err
}

func (c *Client) AddSubmissionComment(ctx context.Context, submissionID int, text string) error {
	return c.do(ctx, request{
		endpoint: "AddSubmissionComment",
		method:   http.MethodPatch,
		path:     fmt.Sprintf("/api/submissions/%d/add_comment/", submissionID),
		body:     map[string]string{"text": text},
	}, nil)
}

func (c *Client) MyTasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	err := c.do(ctx, request{endpoint: "MyTasks", method: http.MethodGet, path: "/api/my-tasks/"}, &tasks)
	return tasks, err
}

// SubmitTask uploads the student's work as multipart/form-data.
func (c *Client) SubmitTask(ctx context.Context, taskID int, file core.File) error {
	return c.do(ctx, request{
		endpoint: "SubmitTask",
		method:   http.MethodPost,
		path:     "/api/submit-task/",
		file:     &file,
		fields: map[string]string{
			"task":   strconv.Itoa(taskID),
			"status": submission.StatusSubmitted.String(),
		},
	}, nil)
}

func (c *Client) GroupRanking(ctx context.Context, groupID int) (ranking.Response, error) {
	var resp ranking.Response
	err := c.do(ctx, request{
		endpoint: "GroupRanking",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/api/ranking/group/%d", groupID),
	}, &resp)
	return resp, err
}

func (c *Client) TopRanking(ctx context.Context) (ranking.Response, error) {
	var resp ranking.Response
	err := c.do(ctx, request{endpoint: "TopRanking", method: http.MethodGet, path: "/api/top-ranking/"}, &resp)
	return resp, err
}
