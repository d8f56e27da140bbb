package apperr

import (
	"github.com/pkg/errors"
)

// HandleAppErr calls every callback when the root cause of err is an AppError.
func HandleAppErr(err error, callback ...func(err AppError)) {
	if appErr, ok := AsAppError(err); ok {
		for _, cb := range callback {
			cb(appErr)
		}
	}
}

// AsAppError unwraps pkg/errors wrappers and returns the AppError at the root.
func AsAppError(err error) (AppError, bool) {
	if err == nil {
		return nil, false
	}
	appErr, ok := errors.Cause(err).(AppError)
	return appErr, ok
}
