package store

import (
	"context"
)

// Event is published by a [Watcher] to its subscribers.
type Event interface {
	GetContext() context.Context
}

// EventReload is published after rules were reloaded successfully.
type EventReload struct {
	ctx   context.Context //nolint:containedctx // Carries trace context to subscribers.
	Store *Store
}

// NewEventReload creates a new [EventReload].
func NewEventReload(ctx context.Context, s *Store) EventReload {
	return EventReload{ctx: ctx, Store: s}
}

func (e EventReload) GetContext() context.Context {
	return e.ctx
}

// EventError is published when a reload failed. The previous [Store]
// remains current.
type EventError struct {
	ctx context.Context //nolint:containedctx // Carries trace context to subscribers.
	Err error
}

// NewEventError creates a new [EventError].
func NewEventError(ctx context.Context, err error) EventError {
	return EventError{ctx: ctx, Err: err}
}

func (e EventError) GetContext() context.Context {
	return e.ctx
}
