package errors

import (
	"errors"
)

var (
	ErrEmptyAuth      = errors.New("missing authorization")
	ErrEmptySubject   = errors.New("missing subject")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrNotAccessToken = errors.New("token is not an access token")
	ErrMissingToken   = errors.New("no token in context")
)
