package submission

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
)

var (
	ErrNotFound = errors.New("submission not found")

	errNoFile        = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "choose a file to upload"})
	errGradeRange    = core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "grade must be between 0 and 6"})
	errNotGradable   = core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "only submitted work can be graded"})
	errNotApprovable = core.NewValidationError(nil, core.FieldError{Field: "status", Error: "only submitted work can be approved"})
)

// PartialReviewError is returned by Review when the grade was saved but the approval failed.
// The grade is not rolled back.
type PartialReviewError struct {
	Err error
}

func (err *PartialReviewError) Error() string {
	return "grade saved, approval failed: " + err.Err.Error()
}

func (err *PartialReviewError) Cause() error { return err.Err }

type (
	Backend interface {
		StudentSubmissions(ctx context.Context, studentID int) ([]Submission, error)
		UpdateSubmissionStatus(ctx context.Context, id int, status Status) error
		SetSubmissionGrade(ctx context.Context, id int, grade int) error
		SubmitTask(ctx context.Context, taskID int, file core.File) error
	}

	Service struct {
		backend Backend
	}
)

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// ListForStudent returns all submissions of a student, normalized.
func (svc *Service) ListForStudent(ctx context.Context, studentID int) ([]Submission, error) {
	subs, err := svc.backend.StudentSubmissions(ctx, studentID)
	if err != nil {
		return []Submission{}, errors.Wrap(err, "listing submissions")
	}
	for i := range subs {
		subs[i].Normalize()
	}
	if subs == nil {
		subs = []Submission{}
	}
	return subs, nil
}

func (svc *Service) find(ctx context.Context, studentID, id int) (Submission, error) {
	subs, err := svc.ListForStudent(ctx, studentID)
	if err != nil {
		return Submission{}, err
	}
	for _, sub := range subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return Submission{}, ErrNotFound
}

// Approve moves a submitted work to approved. The grade is left untouched.
// The student's submissions are re-fetched afterwards.
func (svc *Service) Approve(ctx context.Context, studentID, id int) ([]Submission, error) {
	sub, err := svc.find(ctx, studentID, id)
	if err != nil {
		return nil, err
	}
	if !sub.CanApprove() {
		return nil, errNotApprovable
	}
	if err = svc.backend.UpdateSubmissionStatus(ctx, id, StatusApproved); err != nil {
		return nil, errors.Wrap(err, "approving submission")
	}
	return svc.ListForStudent(ctx, studentID)
}

// SetGrade sets the grade of a submitted or approved work. The status is left untouched.
// The student's submissions are re-fetched afterwards.
func (svc *Service) SetGrade(ctx context.Context, studentID, id, grade int) ([]Submission, error) {
	if grade < MinGrade || grade > MaxGrade {
		return nil, errGradeRange
	}
	sub, err := svc.find(ctx, studentID, id)
	if err != nil {
		return nil, err
	}
	if !sub.CanGrade() {
		return nil, errNotGradable
	}
	if err = svc.backend.SetSubmissionGrade(ctx, id, grade); err != nil {
		return nil, errors.Wrap(err, "setting grade")
	}
	return svc.ListForStudent(ctx, studentID)
}

// Review grades then optionally approves, as two independent backend calls.
// If approving fails the grade stays saved and a *PartialReviewError is returned.
func (svc *Service) Review(ctx context.Context, studentID, id, grade int, approve bool) ([]Submission, error) {
	subs, err := svc.SetGrade(ctx, studentID, id, grade)
	if err != nil || !approve {
		return subs, err
	}
	for _, sub := range subs {
		if sub.ID == id && !sub.CanApprove() {
			return subs, nil // already approved
		}
	}
	if err = svc.backend.UpdateSubmissionStatus(ctx, id, StatusApproved); err != nil {
		return subs, &PartialReviewError{Err: err}
	}
	return svc.ListForStudent(ctx, studentID)
}

// Submit uploads a student's file. Nothing is sent without a file.
func (svc *Service) Submit(ctx context.Context, upload Upload) error {
	if upload.File == nil || upload.File.Content == nil {
		return errNoFile
	}
	return errors.Wrap(svc.backend.SubmitTask(ctx, upload.TaskID, *upload.File), "submitting task")
}
