package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/core/user"
	"github.com/trezcool/classboard/storage/backend/inmem"
)

func TestService_Login(t *testing.T) {
	db := inmembackend.NewDB()
	teacher := db.AddUser("kowalski", "Pass123!", user.RoleTeacher, 0)
	svc := user.NewService(inmembackend.NewBackend(db))

	tests := []struct {
		name     string
		creds    user.Credentials
		wantErr  error
		wantUser user.User
	}{
		{name: "unknown user", creds: user.Credentials{Username: "nobody", Password: "x"}, wantErr: user.ErrAuthenticationFailed},
		{name: "wrong password", creds: user.Credentials{Username: "kowalski", Password: "x"}, wantErr: user.ErrAuthenticationFailed},
		{name: "ok", creds: user.Credentials{Username: "kowalski", Password: "Pass123!"}, wantUser: teacher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, usr, err := svc.Login(context.Background(), tt.creds)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tokens.Access)
			assert.NotEmpty(t, tokens.Refresh)
			assert.Equal(t, tt.wantUser, usr)
		})
	}
}

func TestService_Me(t *testing.T) {
	db := inmembackend.NewDB()
	student := db.AddUser("ania", "Pass123!", user.RoleStudent, 1)
	svc := user.NewService(inmembackend.NewBackend(db))

	_, err := svc.Me(context.Background())
	assert.Equal(t, core.ErrNoToken, err)

	usr, err := svc.Me(session.WithToken(context.Background(), db.TokenFor(student.ID)))
	require.NoError(t, err)
	assert.Equal(t, student, usr)
	assert.True(t, usr.IsStudent())
	assert.Equal(t, "/student", user.HomePath(usr.Role))
}

func TestCredentials_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	creds := user.Credentials{Username: "  ania ", Password: "pwd"}
	require.NoError(t, creds.Validate(validate))
	assert.Equal(t, "ania", creds.Username)

	creds = user.Credentials{Username: "   "}
	err := creds.Validate(validate)
	require.Error(t, err)
	msgs := core.FieldMessages(err, core.NewTranslator())
	assert.Contains(t, msgs, "username")
	assert.Contains(t, msgs, "password")
}
