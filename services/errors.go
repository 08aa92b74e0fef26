package services

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid prize status transition")
	ErrPrizeNotFound     = errors.New("prize not found")
	ErrPrizeNotRevealed  = errors.New("prize has not been revealed yet")
	ErrUserNotRegistered = errors.New("user is not registered")
	ErrInvalidAmount     = errors.New("amount must be positive")
)
