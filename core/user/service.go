package user

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/session"
)

var ErrAuthenticationFailed = errors.New("invalid username or password")

type (
	Backend interface {
		ObtainToken(ctx context.Context, creds Credentials) (Tokens, error)
		CurrentUser(ctx context.Context) (User, error)
		MyStudents(ctx context.Context) ([]Student, error)
	}

	Service struct {
		backend Backend
	}
)

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Login exchanges credentials for tokens, then fetches the profile with the new access token.
func (svc *Service) Login(ctx context.Context, creds Credentials) (Tokens, User, error) {
	tokens, err := svc.backend.ObtainToken(ctx, creds)
	if err != nil {
		if apiErr, ok := errors.Cause(err).(*core.APIError); ok &&
			(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return Tokens{}, User{}, ErrAuthenticationFailed
		}
		return Tokens{}, User{}, errors.Wrap(err, "obtaining token")
	}

	usr, err := svc.backend.CurrentUser(session.WithToken(ctx, tokens.Access))
	if err != nil {
		return Tokens{}, User{}, errors.Wrap(err, "fetching current user")
	}
	return tokens, usr, nil
}

func (svc *Service) Me(ctx context.Context) (User, error) {
	return svc.backend.CurrentUser(ctx)
}

func (svc *Service) Students(ctx context.Context) ([]Student, error) {
	students, err := svc.backend.MyStudents(ctx)
	if students == nil {
		students = []Student{}
	}
	return students, err
}
