package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrSyntax        = errors.New("syntax error")
	ErrDuplicateRule = errors.New("duplicate rule id")
	ErrContradictory = errors.New("contradictory conditions")
	ErrSelfReference = errors.New("rule conclusion appears in its own conditions")
	ErrDuplicateBind = errors.New("duplicate binding")
	ErrSessionMisuse = errors.New("session misuse")
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrSessionFinished is the misuse of driving a session after its run
// ended; it matches ErrSessionMisuse under errors.Is.
var ErrSessionFinished = fmt.Errorf("session finished: %w", ErrSessionMisuse)
