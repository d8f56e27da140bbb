package apperr

import "fmt"

const (
	CodeBadParam       = 400
	CodeNotFound       = 404
	CodeListenerPanic  = 500
	CodeDBFail         = 501
	CodePublishRefused = 409
)

func BizError(code int, message string, parent ...error) AppError {
	return newAppError(ErrTypeBiz, code, message, parent...)
}

func SysError(code int, message string, parent ...error) AppError {
	return newAppError(ErrTypeSys, code, message, parent...)
}

func ErrBadParam(msg string, v interface{}) AppError {
	return BizError(CodeBadParam, msg).With("params", v)
}

func ErrNotFound(msg string, k string, v interface{}) AppError {
	return BizError(CodeNotFound, msg).With(k, v)
}

func ErrDBFail(ori error, msg string) AppError {
	return SysError(CodeDBFail, msg, ori)
}

// ErrListenerPanic reports a listener that panicked while an event of
// eventType was being dispatched. An error panic value becomes the parent.
func ErrListenerPanic(eventType string, value interface{}) AppError {
	msg := fmt.Sprintf("listener panicked: %v", value)
	if err, ok := value.(error); ok {
		return SysError(CodeListenerPanic, msg, err).With("eventType", eventType)
	}
	return SysError(CodeListenerPanic, msg).With("eventType", eventType)
}

// ErrPublishRefused reports a domain event the dispatcher did not deliver.
func ErrPublishRefused(ori error, event fmt.Stringer) AppError {
	return BizError(CodePublishRefused, "domain event not published", ori).With("event", event.String())
}
