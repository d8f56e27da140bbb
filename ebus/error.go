package ebus

import "github.com/pkg/errors"

var (
	ErrTypeNotFound     = errors.New("event type not found")
	ErrDispatchRejected = errors.New("dispatch rejected, dispatcher is not pending")
	ErrNilListener      = errors.New("listener callback is nil")
)
