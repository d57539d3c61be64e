package llm

import "errors"

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// PermanentError indicates an error that will not resolve with retries
// (bad request, auth failure, safety block). Anything else is treated as
// transient by the retry middleware.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError anywhere in its
// chain.
func IsPermanent(err error) bool {
	var pErr *PermanentError
	return errors.As(err, &pErr)
}
