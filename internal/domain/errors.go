package domain

import "errors"

// Common errors
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrTrendingNotFound = errors.New("trending record not found")
)
