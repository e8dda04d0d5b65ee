package qr

import "errors"

var (
	// ErrMissingField means a required field for the active payload variant
	// is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidFormat means a supplied field is present but malformed.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrUnsafeContent means the sanitizer rejected a protocol, host or
	// script-like pattern.
	ErrUnsafeContent = errors.New("unsafe content")

	// ErrLengthExceeded means the encoded content is too long for the QR
	// type's practical limit.
	ErrLengthExceeded = errors.New("content length exceeded")

	// ErrRenderFailed means the underlying symbol encoder rejected the
	// content.
	ErrRenderFailed = errors.New("render failed")

	// ErrCodeTaken is reported by the persistence layer when a short code
	// insert hits the uniqueness constraint.
	ErrCodeTaken = errors.New("short code already taken")

	// ErrAllocationExhausted means short-code minting collided on every
	// attempt.
	ErrAllocationExhausted = errors.New("short code allocation exhausted")
)
