package records

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"adoptm3/pkg/storage"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrImageRequired   = errors.New("at least one image is required")
	ErrInvalidImage    = storage.ErrInvalidImage
	ErrStaleOwner      = errors.New("relic owner changed since the transfer was prepared")
	ErrEmailInUse      = errors.New("email already in use")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrInUse           = errors.New("record is still referenced")
	ErrProvisionFailed = errors.New("failed to create client profile")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrNoActor         = errors.New("no authenticated user")
)

// ValidationError carries per field messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Err returns nil when no field was flagged.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
