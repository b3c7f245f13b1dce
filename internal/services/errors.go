package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrForbidden        = errors.New("forbidden")
	ErrEmptyCart        = errors.New("shopping cart is empty")
	ErrBadCredentials   = errors.New("bad credentials")

	// ErrRelationMissing is returned when removing a favorite, cart entry or
	// subscription that does not exist. It matches ErrNotFound too.
	ErrRelationMissing = fmt.Errorf("relation %w", ErrNotFound)
)

// Error carries a kind plus a message meant for the API client.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func notFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func relationMissing(format string, args ...any) error {
	return &Error{Kind: ErrRelationMissing, Msg: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

func invalidOperation(format string, args ...any) error {
	return &Error{Kind: ErrInvalidOperation, Msg: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Msg: fmt.Sprintf(format, args...)}
}

// ValidationError collects messages per input field.
type ValidationError struct {
	Fields map[string][]string
}

func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

func (v *ValidationError) Empty() bool { return len(v.Fields) == 0 }

// Err returns nil when nothing was added, so callers can write
// `if err := v.Err(); err != nil`.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite reports constraint failures as plain text when translation is off
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
