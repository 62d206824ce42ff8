package exception

import "errors"

// Session errors
var (
	ErrSessionExists   = errors.New("session: already exists")
	ErrSessionNotFound = errors.New("session: not found")
	ErrSessionFull     = errors.New("session: full")
	ErrSessionDone     = errors.New("session: done")
	ErrBadTransaction  = errors.New("session: bad transaction message")
)
