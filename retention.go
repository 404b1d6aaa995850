package sqlbroker

import (
	"context"
)

// Clean deletes rows older than RetentionThreshold.
//
// Clean is scheduled by Start every RetentionMultiplier poll intervals and
// does nothing on a stopped broker. Failures are logged; the broker keeps
// running and the next run retries.
func (b *Broker) Clean(ctx context.Context) {
	if !b.active() {
		return
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	if !b.active() {
		return
	}

	lease, err := b.source.Acquire(ctx)
	if err != nil {
		b.logger.Errorf("Cannot clean old messages from SQL database: %v", err)
		return
	}
	defer b.release(lease)

	cutoff := b.now().UTC().Add(-RetentionThreshold)
	deleted, err := b.repos(lease.DB(), b.tableName()).DeleteOlderThan(ctx, cutoff)
	if err != nil {
		b.logger.Errorf("Cannot clean old messages from SQL database: %v", err)
		return
	}

	if deleted > 0 {
		b.logger.Infof("Deleted %d old messages (older than %s)", deleted, cutoff.Format("2006-01-02 15:04:05"))
	}
}
