package shell

import (
	"context"
)

// Channel is the single order-sensitive command session to the controller.
// Implementations must guarantee that only one command is ever in flight and
// that a timed-out command does not leave the session stuck.
type Channel interface {
	Execute(ctx context.Context, command string) (output string, err error)
	Close() error
}
