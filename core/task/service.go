package task

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type (
	Backend interface {
		MyTasks(ctx context.Context) ([]Task, error)
		MyGroups(ctx context.Context) ([]Group, error)
		CreateTask(ctx context.Context, nt NewTask) (Task, error)
	}

	Service struct {
		backend  Backend
		validate *validator.Validate
	}
)

func NewService(backend Backend, validate *validator.Validate) *Service {
	return &Service{backend: backend, validate: validate}
}

// Mine lists the tasks assigned to the current student.
func (svc *Service) Mine(ctx context.Context) ([]Task, error) {
	tasks, err := svc.backend.MyTasks(ctx)
	if err != nil {
		return []Task{}, errors.Wrap(err, "listing my tasks")
	}
	for _, t := range tasks {
		if t.Submission != nil {
			t.Submission.Normalize()
		}
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// Groups lists the teacher's groups, for the task creation form.
func (svc *Service) Groups(ctx context.Context) ([]Group, error) {
	groups, err := svc.backend.MyGroups(ctx)
	if groups == nil {
		groups = []Group{}
	}
	return groups, errors.Wrap(err, "listing my groups")
}

// Create validates then creates a task. Nothing is sent when a required field is missing.
func (svc *Service) Create(ctx context.Context, nt NewTask) (Task, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Task{}, err
	}
	t, err := svc.backend.CreateTask(ctx, nt)
	return t, errors.Wrap(err, "creating task")
}
