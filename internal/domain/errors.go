package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmptySource     = errors.New("source must not be empty")
	ErrUnknownReaction = errors.New("unknown reaction type")
)
