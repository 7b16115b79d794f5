/**
 * Filename: /Users/htang/code/hicomp/errors.go
 * Path: /Users/htang/code/hicomp
 * Created Date: Monday, March 2nd 2020, 11:40:02 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package hicomp

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotImplemented marks option combinations that are recognized but not supported
var ErrNotImplemented = errors.New("not implemented")

// ParameterError is a user-facing error about a command line value
type ParameterError struct {
	Param   string
	Message string
}

func (e *ParameterError) Error() string {
	if e.Param == "" {
		return "Invalid value: " + e.Message
	}
	return fmt.Sprintf("Invalid value for %q: %s", e.Param, e.Message)
}

// badParameter builds a ParameterError for the given option
func badParameter(param, format string, args ...interface{}) error {
	return &ParameterError{Param: param, Message: fmt.Sprintf(format, args...)}
}

// IsParameterError reports whether the cause of err is a ParameterError
func IsParameterError(err error) bool {
	_, ok := errors.Cause(err).(*ParameterError)
	return ok
}
