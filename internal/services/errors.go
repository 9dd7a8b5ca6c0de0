// Package services holds the contact-form business logic: the submission
// pipeline (token guard, input validation, threading, notification) and the
// module surface that renders the widget and handles admin settings.
//
// This file defines the user-facing error taxonomy. Each ErrorCode maps to
// exactly one translatable message; translation happens at render time.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-contactform/internal/i18n"
)

// ErrorCode identifies one user-facing submission failure.
type ErrorCode string

const (
	CodeInvalidEmail        ErrorCode = "invalid_email"
	CodeEmptyMessage        ErrorCode = "empty_message"
	CodeUnsafeContent       ErrorCode = "unsafe_content"
	CodeInvalidSubject      ErrorCode = "invalid_subject"
	CodeUploadFailed        ErrorCode = "upload_failed"
	CodeDisallowedExtension ErrorCode = "disallowed_extension"
	CodeTokenInvalid        ErrorCode = "token_invalid"
	CodePersistenceError    ErrorCode = "persistence_error"
	CodeSendFailed          ErrorCode = "send_failed"
)

var codeMessages = map[ErrorCode]string{
	CodeInvalidEmail:        i18n.MsgInvalidEmail,
	CodeEmptyMessage:        i18n.MsgEmptyMessage,
	CodeUnsafeContent:       i18n.MsgUnsafeContent,
	CodeInvalidSubject:      i18n.MsgInvalidSubject,
	CodeUploadFailed:        i18n.MsgUploadFailed,
	CodeDisallowedExtension: i18n.MsgDisallowedExtension,
	CodeTokenInvalid:        i18n.MsgTokenInvalid,
	CodePersistenceError:    i18n.MsgPersistenceError,
	CodeSendFailed:          i18n.MsgSendFailed,
}

// MessageKey returns the catalog key of the code's user-facing message.
func (c ErrorCode) MessageKey() string {
	if m, ok := codeMessages[c]; ok {
		return m
	}
	return string(c)
}

// Localize returns the message for c in tr's language.
func (c ErrorCode) Localize(tr i18n.Translator) string {
	if tr == nil {
		return c.MessageKey()
	}
	return tr.T(c.MessageKey())
}

// IsValidation reports whether c is produced before any side effect.
func (c ErrorCode) IsValidation() bool {
	return c != CodePersistenceError && c != CodeSendFailed
}

// SubmitError carries an ErrorCode and the underlying cause, if any.
type SubmitError struct {
	Code ErrorCode
	Err  error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Is matches another *SubmitError with the same code, so the sentinels
// below work with errors.Is regardless of the wrapped cause.
func (e *SubmitError) Is(target error) bool {
	var t *SubmitError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

func fail(code ErrorCode, cause error) *SubmitError {
	return &SubmitError{Code: code, Err: cause}
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidEmail        = &SubmitError{Code: CodeInvalidEmail}
	ErrEmptyMessage        = &SubmitError{Code: CodeEmptyMessage}
	ErrUnsafeContent       = &SubmitError{Code: CodeUnsafeContent}
	ErrInvalidSubject      = &SubmitError{Code: CodeInvalidSubject}
	ErrUploadFailed        = &SubmitError{Code: CodeUploadFailed}
	ErrDisallowedExtension = &SubmitError{Code: CodeDisallowedExtension}
	ErrTokenInvalid        = &SubmitError{Code: CodeTokenInvalid}
	ErrPersistence         = &SubmitError{Code: CodePersistenceError}
	ErrSendFailed          = &SubmitError{Code: CodeSendFailed}
)

// Non-submission errors.
var (
	// ErrContactNotFound is returned when a contact id does not resolve.
	ErrContactNotFound = errors.New("contact not found")

	// ErrThreadNotFound is returned when a thread id/token pair does not match.
	ErrThreadNotFound = errors.New("customer thread not found")
)
