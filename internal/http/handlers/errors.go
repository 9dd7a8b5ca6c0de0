// Package handlers defines HTTP-layer error codes used across all endpoints.
//
// These codes give clients a stable, machine-readable error taxonomy next to
// the human-readable message. Submission failures are not listed here: the
// contact form reports them with the services.ErrorCode values
// (invalid_email, token_invalid, ...) in its own response shape.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "payload_too_large",
//	  "message": "request body too large"
//	}
package handlers

const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeNotFound        = "not_found"
	ErrCodeRateLimited     = "too_many_requests"
	ErrCodePayloadTooLarge = "payload_too_large"
	ErrCodeInternal        = "internal_error"

	// Domain-specific:
	ErrCodeRenderFailed     = "render_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeSaveFailed       = "save_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
