package sqlbroker

import (
	"context"

	"github.com/coregx/sqlbroker/model"
)

// Send publishes payload on channel by inserting a row into the shared table.
//
// Send on a stopped broker does nothing and returns nil. The row is written
// whether or not any instance subscribes to channel, and the sending instance
// receives its own message on its next poll when it is subscribed.
//
// Storage failures are returned with ErrCodeIO. An empty or oversized channel
// name is rejected with ErrCodeValidation.
func (b *Broker) Send(ctx context.Context, channel string, payload []byte) error {
	if !b.enabled.Load() {
		return nil
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	if !b.enabled.Load() {
		return nil
	}

	msg := model.NewMessage(channel, b.codec.Encode(payload), b.now())
	if err := msg.Validate(); err != nil {
		return NewErrorWithCause(ErrCodeValidation, "invalid message", err)
	}

	lease, err := b.source.Acquire(ctx)
	if err != nil {
		return NewErrorWithCause(ErrCodeIO, "cannot acquire sql connection", err)
	}
	defer b.release(lease)

	if err := b.repos(lease.DB(), b.tableName()).Insert(ctx, &msg); err != nil {
		return NewErrorWithCause(ErrCodeIO, "cannot send message", err)
	}

	b.logger.Debugf("Message sent: id=%d, channel=%s", msg.ID, channel)
	return nil
}
