package core

import (
	"io"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// File is an upload forwarded to the backend as a multipart part.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

type (
	// Logger is any service that can log and report application events.
	// args may contain errors, maps of extra data and at most one Person.
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Person identifies the user an event is reported for.
	Person struct {
		ID       string
		Username string
		Email    string
	}
)
