package sqlbroker

import (
	"fmt"
	"time"
)

// Option is a function that configures a Broker.
//
// Example:
//
//	broker, err := sqlbroker.NewBroker(
//	    sqlbroker.WithSource(sqlbroker.WrapDB(db)),
//	    sqlbroker.WithRepositories(relica.NewFactory("mysql")),
//	    sqlbroker.WithLogger(logger),
//	    sqlbroker.WithTablePrefix("app_"), // optional
//	)
type Option func(*Broker) error

// WithSource sets the connection provider.
// This is a required option for NewBroker.
func WithSource(source Source) Option {
	return func(b *Broker) error {
		if source == nil {
			return fmt.Errorf("source cannot be nil")
		}
		b.source = source
		return nil
	}
}

// WithRepositories sets the factory binding the messenger table repository
// to leased handles. Use relica.NewFactory for MySQL, PostgreSQL and SQLite.
//
// This is a required option for NewBroker.
func WithRepositories(factory RepositoryFactory) Option {
	return func(b *Broker) error {
		if factory == nil {
			return fmt.Errorf("repository factory cannot be nil")
		}
		b.repos = factory
		return nil
	}
}

// WithLogger sets the logger instance for the broker.
// Logger is required and must not be nil.
//
// Use NoopLogger for silent operation, NewSlogLogger for log/slog, or implement
// Logger to integrate with your logging system.
func WithLogger(logger Logger) Option {
	return func(b *Broker) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		b.logger = logger
		return nil
	}
}

// WithCodec sets the payload codec. Default is Base64Codec.
// Every instance sharing the table must use the same codec.
func WithCodec(codec Codec) Option {
	return func(b *Broker) error {
		if codec == nil {
			return fmt.Errorf("codec cannot be nil")
		}
		b.codec = codec
		return nil
	}
}

// WithScheduler sets the scheduler running the poll and retention tasks.
// Default is a TickerScheduler.
func WithScheduler(scheduler Scheduler) Option {
	return func(b *Broker) error {
		if scheduler == nil {
			return fmt.Errorf("scheduler cannot be nil")
		}
		b.scheduler = scheduler
		return nil
	}
}

// WithSubscriptions sets the subscription registry. Default is an empty ChannelSet.
func WithSubscriptions(subscriptions Subscriptions) Option {
	return func(b *Broker) error {
		if subscriptions == nil {
			return fmt.Errorf("subscriptions cannot be nil")
		}
		b.subscriptions = subscriptions
		return nil
	}
}

// WithHandler sets the callback receiving messages on subscribed channels.
// Without a handler, subscribed messages are read and discarded.
func WithHandler(handler Handler) Option {
	return func(b *Broker) error {
		if handler == nil {
			return fmt.Errorf("handler cannot be nil")
		}
		b.handler = handler
		return nil
	}
}

// WithNotifications sets an optional notification service.
// Default is NoOpNotificationService.
func WithNotifications(service NotificationService) Option {
	return func(b *Broker) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		b.notifications = service
		return nil
	}
}

// WithTablePrefix sets the prefix placed before the messenger table name.
// Default is empty. Only letters, digits and underscores are allowed.
func WithTablePrefix(prefix string) Option {
	return func(b *Broker) error {
		b.tablePrefix = prefix
		return nil
	}
}

// WithPollInterval sets how often the table is polled for new messages.
// This is the maximum delivery delay between instances.
// Old rows are deleted every 30 intervals, so every instance sharing a table
// should use the same interval.
//
// Default is 10 seconds. Must be at least one millisecond.
func WithPollInterval(interval time.Duration) Option {
	return func(b *Broker) error {
		b.pollInterval = interval
		return nil
	}
}

// WithBatchSize sets the maximum number of rows read or deleted per query.
// A poll keeps reading batches until a short one is returned.
//
// Default is 100. Must be > 0.
func WithBatchSize(size int) Option {
	return func(b *Broker) error {
		if size <= 0 {
			return fmt.Errorf("batch size must be > 0, got %d", size)
		}
		b.batchSize = size
		return nil
	}
}

// WithInstanceID sets the identifier reported in logs. Default is a random UUID.
func WithInstanceID(id string) Option {
	return func(b *Broker) error {
		if id == "" {
			return fmt.Errorf("instance id cannot be empty")
		}
		b.instanceID = id
		return nil
	}
}

// WithClock replaces the clock used to timestamp rows and compute the
// visibility and retention cutoffs. Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Broker) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		b.now = now
		return nil
	}
}
