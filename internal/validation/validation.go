package validation

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// Errors maps a field name to the list of messages describing what is wrong
// with it. It is returned by the per-entity validation functions in the
// service layer and rendered as the body of a 400 response.
type Errors map[string][]string

// Add appends a message for the given field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Error implements the error interface.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ValidEmail reports whether s is a syntactically valid email address on its
// own (no display name, no angle brackets).
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}
