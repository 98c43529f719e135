package gql

import (
	"errors"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

// Error codes reported in the extensions of field errors.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeMissingVariable = "MISSING_VARIABLE"
	CodeConfiguration   = "CONFIGURATION_ERROR"
	CodeInternal        = "INTERNAL"
)

// fieldError carries a classification code into the GraphQL error extensions.
type fieldError struct {
	err  error
	code string
}

func (e *fieldError) Error() string { return e.err.Error() }

func (e *fieldError) Unwrap() error { return e.err }

func (e *fieldError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, model.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, model.ErrMissingVariable):
		return CodeMissingVariable
	case errors.Is(err, model.ErrConfiguration):
		return CodeConfiguration
	default:
		return CodeInternal
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	return &fieldError{err: err, code: errorCode(err)}
}
