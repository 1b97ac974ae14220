package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classboard/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
)

var Roles = []Role{
	{Name: "Student", Value: RoleStudent},
	{Name: "Teacher", Value: RoleTeacher},
	{Name: "Parent", Value: RoleParent},
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HomePath is the landing page of a role.
func HomePath(role string) string {
	switch role {
	case RoleStudent:
		return "/student"
	case RoleTeacher:
		return "/teacher"
	default:
		return "/"
	}
}

// User is the profile of the logged in user (GET /api/me/).
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	GroupID  int    `json:"group_id,omitempty"`
}

func (u User) IsStudent() bool { return u.Role == RoleStudent }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsParent() bool  { return u.Role == RoleParent }

// Student is a row of the teacher's student list.
type Student struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Tokens is the pair issued by POST /api/token/.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Credentials struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Username = core.CleanString(c.Username)
	return validate.Struct(c)
}
