package echoweb

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var errNotDecimal = errors.New("not a decimal integer")

// fieldMessage turns "grade: must be ..." into "Must be ...", for banners.
func fieldMessage(s string) string {
	if i := strings.Index(s, ": "); i >= 0 {
		s = s[i+2:]
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// atoi reads a base 10 integer from a path or form value.
// Leading zeros are not an octal prefix and hex input is rejected.
func atoi(s string) (int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, errNotDecimal
	}
	if digits = strings.TrimLeft(digits, "0"); digits == "" {
		digits = "0"
	}
	n, err := cast.ToIntE(digits)
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return n, nil
}
