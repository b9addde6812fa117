package trust

import "errors"

var (
	ErrNotFound      = errors.New("trust: not found")
	ErrAlreadyExists = errors.New("trust: already exists")
	ErrInvalidInput  = errors.New("trust: invalid input")
)
