package sqlbroker

import (
	"context"
	"fmt"
)

// delivery is a decoded row waiting for the handler.
type delivery struct {
	id      int64
	channel string
	payload []byte
}

// Poll reads the rows inserted since the last poll and hands the ones on
// subscribed channels to the handler, in id order.
//
// Only rows younger than VisibilityWindow are read, so an instance that was
// not polling for longer than the window skips what it missed.
// The watermark advances past every row read, delivered or not. A row that
// cannot be decoded or handled is logged and skipped. A read failure ends the
// poll; the next poll resumes from the last row read.
//
// Poll is scheduled by Start and does nothing on a stopped broker.
func (b *Broker) Poll(ctx context.Context) {
	if !b.active() {
		return
	}

	b.pollMu.Lock()
	defer b.pollMu.Unlock()

	for {
		deliveries, more := b.readBatch(ctx)
		b.deliver(ctx, deliveries)
		if !more {
			return
		}
	}
}

// readBatch reads up to batchSize rows past the watermark under the read lock
// and reports whether a full batch was read.
func (b *Broker) readBatch(ctx context.Context) ([]delivery, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if !b.active() {
		return nil, false
	}

	lease, err := b.source.Acquire(ctx)
	if err != nil {
		b.pollFailed(ctx, fmt.Errorf("acquiring connection: %w", err))
		return nil, false
	}
	defer b.release(lease)

	since := b.now().UTC().Add(-VisibilityWindow)
	rows, err := b.repos(lease.DB(), b.tableName()).FindAfter(ctx, b.currentID.Load(), since, b.batchSize)
	if err != nil {
		b.pollFailed(ctx, err)
		return nil, false
	}

	deliveries := make([]delivery, 0, len(rows))
	for _, row := range rows {
		b.advance(row.ID)

		if !b.subscriptions.Contains(row.Channel) {
			continue
		}

		payload, err := b.codec.Decode(row.Msg)
		if err != nil {
			b.dropped(ctx, row.ID, row.Channel, err)
			continue
		}

		deliveries = append(deliveries, delivery{id: row.ID, channel: row.Channel, payload: payload})
	}

	return deliveries, len(rows) == b.batchSize
}

func (b *Broker) deliver(ctx context.Context, deliveries []delivery) {
	for _, d := range deliveries {
		if b.handler == nil {
			b.logger.Debugf("Message discarded, no handler: id=%d, channel=%s", d.id, d.channel)
			continue
		}
		if err := b.handler(ctx, d.channel, d.payload); err != nil {
			b.dropped(ctx, d.id, d.channel, fmt.Errorf("handler: %w", err))
		}
	}
}

// advance must be called with pollMu held.
func (b *Broker) advance(id int64) {
	if id > b.currentID.Load() {
		b.currentID.Store(id)
	}
}

func (b *Broker) pollFailed(ctx context.Context, err error) {
	watermark := b.currentID.Load()
	b.logger.Errorf("Cannot read messages from SQL database: watermark=%d, error=%v", watermark, err)
	b.notify(func() error { return b.notifications.NotifyPollFailed(ctx, watermark, err) })
}

func (b *Broker) dropped(ctx context.Context, id int64, channel string, err error) {
	b.logger.Errorf("Cannot process message: id=%d, channel=%s, error=%v", id, channel, err)
	b.notify(func() error { return b.notifications.NotifyMessageDropped(ctx, id, channel, err) })
}
