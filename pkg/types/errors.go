package types

import "errors"

// ARCHITECTURAL DISCOVERY: Specific error types enable proper error handling
// and user-friendly error messages throughout the system
var (
	ErrInvalidUserID    = errors.New("user ID must be 1-64 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidRole      = errors.New("invalid role: must be 'student', 'teacher' or 'parent'")
	ErrInvalidEmotion   = errors.New("invalid emotion")
	ErrInvalidIntensity = errors.New("intensity must be between 1 and 10")
	ErrInvalidDayOfWeek = errors.New("day of week must be between 0 and 6")
	ErrInvalidClockTime = errors.New("time must use HH:MM format")
)
