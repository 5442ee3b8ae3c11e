// Package signal carries payload-free "something changed for this user"
// notices between the process that writes a notification and the sessions
// that display them. Every bus is at-least-once and makes no ordering
// promise; receivers re-fetch state on each signal.
package signal

import (
	"context"
	"errors"
)

var ErrBusClosed = errors.New("signal bus closed")

type Bus interface {
	Publish(ctx context.Context, userID string) error
	// Subscribe registers fn for signals addressed to userID. The returned
	// function removes the registration and may be called any number of times.
	Subscribe(ctx context.Context, userID string, fn func()) (unsubscribe func(), err error)
	Close() error
}
