package apperr

import (
	"fmt"
	"sort"
	"strings"
)

type ErrType string

const (
	ErrTypeOther ErrType = "UNKNOWN_ERROR"
	ErrTypeBiz   ErrType = "BIZ_ERROR"
	ErrTypeSys   ErrType = "SYS_ERROR"
)

type AppError interface {
	error
	Code() int
	Message() string
	Parent() error
	// With records context about the failure, e.g. With("eventType", typ)
	With(k string, v interface{}) AppError
	Context() map[string]interface{}
	ErrType() ErrType
}

// appError is the only AppError implementation; errType tells biz errors
// (caller mistakes) from sys errors (failures of a dependency or a listener).
type appError struct {
	errType ErrType
	code    int
	message string
	parent  error
	errCtx  map[string]interface{}
}

func newAppError(errType ErrType, code int, message string, es ...error) *appError {
	e := &appError{
		errType: errType,
		code:    code,
		message: message,
	}
	if len(es) > 0 {
		e.parent = es[0]
	}
	return e
}

func (e *appError) With(k string, v interface{}) AppError {
	if e.errCtx == nil {
		e.errCtx = make(map[string]interface{})
	}
	e.errCtx[k] = v
	return e
}

func (e *appError) Context() map[string]interface{} {
	return e.errCtx
}

func (e *appError) ErrType() ErrType {
	if e.errType == "" {
		return ErrTypeOther
	}
	return e.errType
}

func (e *appError) Code() int {
	return e.code
}

func (e *appError) Message() string {
	if e.message != "" {
		return e.message
	}
	if e.parent != nil {
		if pe, ok := e.parent.(AppError); ok {
			return pe.Message()
		}
		return e.parent.Error()
	}
	return ""
}

func (e *appError) Parent() error {
	return e.parent
}

// Unwrap exposes the parent to errors.Is and errors.As. appError has no
// Cause method, so errors.Cause stops at the AppError.
func (e *appError) Unwrap() error {
	return e.parent
}

func (e *appError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s-%d] %s", e.ErrType(), e.code, e.message)
	if e.parent != nil {
		fmt.Fprintf(&sb, ", parent error is %v", e.parent)
	}
	if len(e.errCtx) > 0 {
		keys := make([]string, 0, len(e.errCtx))
		for k := range e.errCtx {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("; ctx is")
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, e.errCtx[k])
		}
	}
	return sb.String()
}
