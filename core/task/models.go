package task

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/submission"
)

// DateLayout is the wire format of deadlines.
const DateLayout = "2006-01-02"

// DefaultPreviewSize is the number of tasks shown before "See all".
const DefaultPreviewSize = 3

// Toggle labels of the task list.
const (
	LabelSeeAll   = "See all"
	LabelShowLess = "Show less"
)

// Group is a named set of students tasks are assigned to.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Deadline    string    `json:"deadline"`
	File        string    `json:"file,omitempty"`
	Group       int       `json:"group,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Submission of the current student, only in the student's own task list.
	Submission *submission.Submission `json:"submission,omitempty"`
}

func (t Task) DeadlineDate() (time.Time, bool) {
	d, err := time.Parse(DateLayout, t.Deadline)
	return d, err == nil
}

// Status is the state of the current student's work on the task.
func (t Task) Status() submission.Status {
	if t.Submission == nil {
		return submission.StatusUnsubmitted
	}
	return t.Submission.Status
}

func (t Task) CanUpload() bool {
	return t.Submission == nil || t.Submission.AllowsUpload()
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Name        string     `form:"name" validate:"required"`
	Description string     `form:"description" validate:"required"`
	Deadline    string     `form:"deadline" validate:"required,datetime=2006-01-02"`
	GroupID     int        `form:"group" validate:"required,min=1"`
	File        *core.File `form:"-"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Description = core.CleanString(nt.Description)
	nt.Deadline = core.CleanString(nt.Deadline)
	return validate.Struct(nt)
}

// Window is the visible part of a task list: a preview of the first tasks,
// or all of them once the toggle was used.
type Window struct {
	Tasks       []Task
	Total       int
	ShowAll     bool
	HasToggle   bool
	ToggleLabel string
}

func NewWindow(tasks []Task, showAll bool, previewSize int) Window {
	if previewSize <= 0 {
		previewSize = DefaultPreviewSize
	}
	w := Window{
		Total:     len(tasks),
		ShowAll:   showAll,
		HasToggle: len(tasks) > previewSize,
	}
	if showAll {
		w.Tasks = tasks
		w.ToggleLabel = LabelShowLess
		return w
	}

	w.ToggleLabel = LabelSeeAll
	visible := lo.Filter(tasks, func(t Task, _ int) bool { return t.ID != 0 })
	if len(visible) > previewSize {
		visible = visible[:previewSize]
	}
	w.Tasks = visible
	return w
}
