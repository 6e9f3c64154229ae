package service

import (
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ValidationError collects every problem found in a request before it
// reaches the store.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems(), "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.errs
}

// Problems returns the individual messages.
func (e *ValidationError) Problems() []string {
	out := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		out = append(out, err.Error())
	}
	return out
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type validator struct {
	errs *multierror.Error
}

func (v *validator) check(ok bool, msg string) {
	if !ok {
		v.errs = multierror.Append(v.errs, errors.New(msg))
	}
}

func (v *validator) err() error {
	if v.errs == nil {
		return nil
	}
	return &ValidationError{errs: v.errs}
}
