// Package comment is the discussion thread attached to a submission.
package comment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
)

var ErrEmptyText = core.NewValidationError(nil, core.FieldError{Field: "text", Error: "write a comment first"})

type Comment struct {
	ID         int       `json:"id"`
	AuthorName string    `json:"author_name"`
	Role       string    `json:"role"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type (
	Backend interface {
		SubmissionComments(ctx context.Context, submissionID int) ([]Comment, error)
		AddSubmissionComment(ctx context.Context, submissionID int, text string) error
	}

	Service struct {
		backend Backend
	}
)

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

func (svc *Service) List(ctx context.Context, submissionID int) ([]Comment, error) {
	comments, err := svc.backend.SubmissionComments(ctx, submissionID)
	if comments == nil {
		comments = []Comment{}
	}
	return comments, errors.Wrap(err, "listing comments")
}

// Add appends a comment then returns the re-fetched thread.
// Blank text is rejected before anything is sent.
func (svc *Service) Add(ctx context.Context, submissionID int, text string) ([]Comment, error) {
	text = core.CleanString(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := svc.backend.AddSubmissionComment(ctx, submissionID, text); err != nil {
		return nil, errors.Wrap(err, "adding comment")
	}
	return svc.List(ctx, submissionID)
}
