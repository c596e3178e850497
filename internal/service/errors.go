package service

import "errors"

var (
	ErrUnauthorized = errors.New("Unauthorized")
	ErrMalformedKey = errors.New("Malformed API key")
	ErrKeyExpired   = errors.New("API key is expired")
	ErrMissingScope = errors.New("API key lacks the required scope")
	ErrKeyLimit     = errors.New("Only 5 API keys can be active at once.")
	ErrUserNotFound = errors.New("User not found")
	ErrValidation   = errors.New("invalid request")

	ErrDuplicateAccount = errors.New("This account is already connected.")
	ErrAccountNotFound  = errors.New("Connected account not found")
	ErrNoActiveAccount  = errors.New("No active account for this platform")

	ErrContentNotFound = errors.New("Content not found")
	ErrPostNotFound    = errors.New("Post not found")
)
