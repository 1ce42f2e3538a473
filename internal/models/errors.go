package models

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrRateLimited       = errors.New("rate limited by provider")
	ErrQuotaExceeded     = errors.New("provider quota exceeded")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrTimedOut          = errors.New("provider call timed out")

	// ErrNoImage means the image provider answered successfully but without an image reference.
	ErrNoImage = errors.New("no image in provider response")
)
