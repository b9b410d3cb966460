package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidDocument = errors.New("invalid document")
	ErrGitNotFound     = errors.New("git executable not found")
	ErrNotRepository   = errors.New("not a git repository")
)
