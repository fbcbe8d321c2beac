package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint failure.
// With a constraintName it matches that specific constraint; otherwise it
// matches the generic postgres and sqlite violation messages (sqlite backs
// the in-memory test databases).
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
