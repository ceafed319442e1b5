package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers a short operator-facing message. Implementations must
// keep latency bounded; callers treat delivery as best-effort.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}
