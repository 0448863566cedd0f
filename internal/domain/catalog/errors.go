package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies pipeline failures. Configuration errors are fatal for a run;
// every other code is isolated to the record or album being processed.
type ErrorCode string

const (
	CodeConfiguration ErrorCode = "configuration"
	CodeUpstreamFetch ErrorCode = "upstream_fetch"
	CodeStorage       ErrorCode = "storage"
	CodeNotFound      ErrorCode = "not_found"
	CodePersistence   ErrorCode = "persistence"
	CodeValidation    ErrorCode = "validation"
)

// Error is the canonical pipeline error. Subject names the entity (track, album,
// genre) the failure concerns so the record can be replayed by hand.
type Error struct {
	Code    ErrorCode
	Op      string
	Subject string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if e.Subject != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%q", e.Subject)
	}
	if e.Message != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Message)
	}
	if b.Len() == 0 {
		return string(e.Code)
	}
	fmt.Fprintf(&b, " (%s)", e.Code)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, subject, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Subject: strings.TrimSpace(subject),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with a code. An err that already carries a code keeps it,
// but gains the subject when it had none.
func Wrap(code ErrorCode, op, subject string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Subject == "" && strings.TrimSpace(subject) != "" {
			clone := *existing
			clone.Subject = strings.TrimSpace(subject)
			return &clone
		}
		return err
	}
	return NewError(code, op, subject, err.Error(), err)
}

func ConfigurationError(op, message string) error {
	return NewError(CodeConfiguration, op, "", message, nil)
}

func ValidationError(op, subject, message string) error {
	return NewError(CodeValidation, op, subject, message, nil)
}

func NotFoundError(op, subject, message string) error {
	return NewError(CodeNotFound, op, subject, message, nil)
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// IsFatal reports whether err must stop the whole run rather than one record.
func IsFatal(err error) bool {
	return IsCode(err, CodeConfiguration)
}
