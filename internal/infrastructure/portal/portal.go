package portal

import (
	"context"
	"errors"
	"time"
)

// Mode selects the time view of the operations board. Both views show the
// same physical day; the UTC view only back-fills UTC time pairs.
type Mode string

const (
	ModeLocal Mode = "Local time"
	ModeUTC   Mode = "UTC"
)

// ErrAuthFailed means the portal rejected the configured credentials.
// Not retriable; the caller must supply corrected credentials.
var ErrAuthFailed = errors.New("portal: authentication failed")

// ErrSessionLost means the portal session was destroyed mid-sweep. The
// sweep controller recreates the session and retries the current date.
var ErrSessionLost = errors.New("portal: session lost")

// BoardSource produces raw operations-board HTML for a (date, mode) pair.
// It is an opaque, possibly slow, possibly failing external collaborator.
type BoardSource interface {
	Login(ctx context.Context) error
	Fetch(ctx context.Context, day time.Time, mode Mode) (string, error)
	// Restart discards the session state so the next Login starts clean.
	Restart(ctx context.Context) error
}
