package session

import (
	"errors"
	"fmt"

	"schoolhub/pkg/interfaces"
)

// Session management errors
var (
	ErrNilStore         = errors.New("session store cannot be nil")
	ErrInvalidRole      = errors.New("invalid role: must be 'student', 'teacher' or 'parent'")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// ErrInvalidCredentials and ErrSessionExpired both unwrap to interfaces.ErrUnauthorized
// so transport layers can map them to 401 without knowing this package
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", interfaces.ErrUnauthorized)
	ErrSessionExpired     = fmt.Errorf("%w: session expired or unknown", interfaces.ErrUnauthorized)
)
