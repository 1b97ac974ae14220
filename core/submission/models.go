package submission

import (
	"time"

	"github.com/trezcool/classboard/core"
)

// Grades are small integers set by the teacher.
const (
	MinGrade = 0
	MaxGrade = 6
)

// Status of a Submission. It only moves forward:
// unsubmitted -> submitted (student upload) -> approved (teacher approval).
type Status string

const (
	StatusUnsubmitted Status = "unsubmitted"
	StatusSubmitted   Status = "submitted"
	StatusApproved    Status = "approved"
)

var transitions = map[Status]Status{
	StatusUnsubmitted: StatusSubmitted,
	StatusSubmitted:   StatusApproved,
}

func (s Status) Valid() bool {
	switch s {
	case StatusUnsubmitted, StatusSubmitted, StatusApproved:
		return true
	}
	return false
}

// CanTransitionTo reports whether next directly follows s.
func (s Status) CanTransitionTo(next Status) bool {
	want, ok := transitions[s]
	return ok && want == next
}

func (s Status) String() string { return string(s) }

type Submission struct {
	ID          int        `json:"id"`
	Task        int        `json:"task"`
	TaskName    string     `json:"task_name,omitempty"`
	Student     int        `json:"student"`
	Status      Status     `json:"status"`
	Grade       *int       `json:"grade"`
	File        string     `json:"file,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// Normalize enforces the invariants on data coming from the backend:
// a submission without a file is unsubmitted, unknown statuses are derived from the file.
func (s *Submission) Normalize() {
	switch {
	case s.File == "":
		s.Status = StatusUnsubmitted
	case !s.Status.Valid() || s.Status == StatusUnsubmitted:
		s.Status = StatusSubmitted
	}
}

// GradeVisible reports whether a grade exists and may be shown.
func (s Submission) GradeVisible() bool {
	return s.Grade != nil && s.Status != StatusUnsubmitted
}

func (s Submission) CanApprove() bool {
	return s.Status.CanTransitionTo(StatusApproved)
}

func (s Submission) CanGrade() bool {
	return s.Status == StatusSubmitted || s.Status == StatusApproved
}

// AllowsUpload is false once the teacher approved the work.
func (s Submission) AllowsUpload() bool {
	return s.Status != StatusApproved
}

// Upload is a student's file for a task (POST /api/submit-task/).
type Upload struct {
	TaskID int
	File   *core.File
}
