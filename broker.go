package sqlbroker

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/coregx/sqlbroker/model"
)

const (
	// NoWatermark is the watermark of an empty table.
	// Auto-increment ids start at 1, so every row is newer than it.
	NoWatermark int64 = 0

	// VisibilityWindow bounds how old a row may be and still be delivered by a poll.
	VisibilityWindow = 30 * time.Second

	// RetentionThreshold is the age after which rows are deleted.
	RetentionThreshold = 60 * time.Second

	// RetentionMultiplier is the number of poll intervals between retention runs.
	RetentionMultiplier = 30

	// DefaultPollInterval is used when WithPollInterval is not given.
	DefaultPollInterval = 10 * time.Second

	// DefaultBatchSize is used when WithBatchSize is not given.
	DefaultBatchSize = 100
)

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Handler receives a decoded payload published on a subscribed channel.
// A returned error is logged and the message is not redelivered.
//
// Handlers run on the poll goroutine. They may call Send but must not call
// Start or Close.
type Handler func(ctx context.Context, channel string, payload []byte) error

// Broker emulates a publish/subscribe channel on a shared SQL table.
//
// Every instance pointed at the same table inserts rows on Send and polls for
// rows newer than its own watermark. Rows are never removed on read, so every
// instance sees every message (broadcast). A retention task deletes rows older
// than RetentionThreshold.
//
// Lifecycle:
//
//	Stopped --Start--> Enabled --Close--> Stopped
//
// A failed Start leaves the broker stopped; the caller may call Start again.
//
// Thread safety: Send, Poll and Clean may run concurrently with each other.
// Start and Close wait for in-flight I/O and exclude it while they run.
type Broker struct {
	source        Source
	repos         RepositoryFactory
	codec         Codec
	scheduler     Scheduler
	subscriptions Subscriptions
	handler       Handler
	logger        Logger
	notifications NotificationService
	now           func() time.Time
	instanceID    string

	tablePrefix  string
	pollInterval time.Duration
	batchSize    int

	// lock is the lifecycle guard. I/O paths hold the read side, Start and
	// Close hold the write side.
	lock    sync.RWMutex
	enabled atomic.Bool

	// pollMu keeps the watermark single-writer.
	pollMu    sync.Mutex
	currentID atomic.Int64

	pollTask  Task
	cleanTask Task
}

// NewBroker creates a stopped broker with the provided options.
//
// Required options:
//   - WithSource: connection provider
//   - WithRepositories: messenger table repository factory
//   - WithLogger: logger instance
//
// Optional options:
//   - WithTablePrefix (default: "")
//   - WithPollInterval (default: 10s)
//   - WithBatchSize (default: 100)
//   - WithCodec (default: Base64Codec)
//   - WithScheduler (default: TickerScheduler)
//   - WithSubscriptions (default: empty ChannelSet)
//   - WithHandler (default: discard)
//   - WithNotifications (default: NoOpNotificationService)
//   - WithClock (default: time.Now)
//   - WithInstanceID (default: random UUID)
//
// Call Start to create the table and begin polling.
func NewBroker(opts ...Option) (*Broker, error) {
	b := &Broker{
		codec:         Base64Codec{},
		subscriptions: NewChannelSet(),
		notifications: &NoOpNotificationService{},
		now:           time.Now,
		pollInterval:  DefaultPollInterval,
		batchSize:     DefaultBatchSize,
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply option", err)
		}
	}

	if b.source == nil {
		return nil, NewError(ErrCodeConfiguration, "Source is required (use WithSource)")
	}
	if b.repos == nil {
		return nil, NewError(ErrCodeConfiguration, "RepositoryFactory is required (use WithRepositories)")
	}
	if b.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithLogger)")
	}

	if err := validation.ValidateStruct(b,
		validation.Field(&b.tablePrefix, validation.Match(tablePrefixPattern).Error("must contain only letters, digits and underscores")),
		validation.Field(&b.pollInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&b.batchSize, validation.Required, validation.Min(1)),
	); err != nil {
		return nil, NewErrorWithCause(ErrCodeConfiguration, "invalid broker settings", err)
	}

	if b.scheduler == nil {
		b.scheduler = NewTickerScheduler()
	}
	if b.instanceID == "" {
		b.instanceID = uuid.NewString()
	}
	b.currentID.Store(NoWatermark)

	return b, nil
}

// Start creates the messenger table if needed, seeds the watermark with the
// highest existing id and schedules the poll and retention tasks.
//
// Start is idempotent: calling it on a running broker does not schedule the
// tasks twice. On failure the broker stays stopped and the error carries
// ErrCodeStartup.
func (b *Broker) Start(ctx context.Context) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if !b.enabled.Load() {
		watermark, err := b.prepareTable(ctx)
		if err != nil {
			err = NewErrorWithCause(ErrCodeStartup, "cannot start sql broker", err)
			b.logger.Errorf("Cannot start sql connection: table=%s, error=%v", b.tableName(), err)
			b.notify(func() error { return b.notifications.NotifyStartFailed(ctx, err) })
			return err
		}

		b.currentID.Store(watermark)
		b.enabled.Store(true)

		b.logger.Infof("SQL broker started: instance=%s, table=%s, watermark=%d, interval=%s",
			b.instanceID, b.tableName(), watermark, b.pollInterval)
		b.notify(func() error { return b.notifications.NotifyStarted(ctx, watermark) })
	}

	b.scheduleTasks()
	return nil
}

// prepareTable runs the DDL and reads the starting watermark on one lease.
func (b *Broker) prepareTable(ctx context.Context) (int64, error) {
	lease, err := b.source.Acquire(ctx)
	if err != nil {
		return NoWatermark, fmt.Errorf("acquiring connection: %w", err)
	}
	defer b.release(lease)

	repo := b.repos(lease.DB(), b.tableName())
	if err := repo.EnsureTable(ctx); err != nil {
		return NoWatermark, err
	}

	watermark, err := repo.LatestID(ctx)
	if err != nil {
		return NoWatermark, fmt.Errorf("reading watermark: %w", err)
	}
	return watermark, nil
}

// scheduleTasks must be called with the write lock held.
func (b *Broker) scheduleTasks() {
	if b.pollTask == nil {
		b.pollTask = b.scheduler.Schedule(b.Poll, b.pollInterval, b.pollInterval)
	}
	if b.cleanTask == nil {
		period := b.pollInterval * RetentionMultiplier
		b.cleanTask = b.scheduler.Schedule(b.Clean, period, period)
	}
}

// Close stops the broker: it disables every I/O path, closes the source and
// cancels the periodic tasks. Operations already holding the guard finish first.
//
// Source close errors are logged, never returned. Close on a stopped broker
// only releases the source again.
func (b *Broker) Close() {
	b.lock.Lock()
	wasEnabled := b.enabled.Swap(false)
	pollTask, cleanTask := b.pollTask, b.cleanTask
	b.pollTask, b.cleanTask = nil, nil
	if err := b.source.Close(); err != nil {
		b.logger.Warnf("Cannot close sql connection: %v", err)
	}
	b.lock.Unlock()

	// A running task may be waiting on the read lock, so it is cancelled
	// only after the write lock is released.
	for _, task := range []Task{pollTask, cleanTask} {
		if task != nil {
			task.Cancel()
		}
	}

	if wasEnabled {
		b.logger.Infof("SQL broker stopped: instance=%s, watermark=%d", b.instanceID, b.currentID.Load())
	}
}

// Subscribe adds channels to the subscription registry.
// It fails with ErrCodeConfiguration when the registry is read-only.
func (b *Broker) Subscribe(channels ...string) error {
	registry, ok := b.subscriptions.(channelRegistry)
	if !ok {
		return NewError(ErrCodeConfiguration, "subscription registry is read-only")
	}
	for _, channel := range channels {
		if err := validation.Validate(channel, validation.Required, validation.RuneLength(1, model.MaxChannelLength)); err != nil {
			return NewErrorWithCause(ErrCodeValidation, fmt.Sprintf("invalid channel %q", channel), err)
		}
	}
	registry.Add(channels...)
	return nil
}

// Unsubscribe removes channels from the subscription registry.
// It fails with ErrCodeConfiguration when the registry is read-only.
func (b *Broker) Unsubscribe(channels ...string) error {
	registry, ok := b.subscriptions.(channelRegistry)
	if !ok {
		return NewError(ErrCodeConfiguration, "subscription registry is read-only")
	}
	registry.Remove(channels...)
	return nil
}

// Channels returns the subscribed channels, or nil when the registry cannot list them.
func (b *Broker) Channels() []string {
	if registry, ok := b.subscriptions.(channelRegistry); ok {
		return registry.List()
	}
	return nil
}

// TablePrefix returns the configured table prefix.
func (b *Broker) TablePrefix() string {
	return b.tablePrefix
}

// TableName returns the messenger table name.
func (b *Broker) TableName() string {
	return b.tableName()
}

// PollInterval returns the delay between two polls.
func (b *Broker) PollInterval() time.Duration {
	return b.pollInterval
}

// Source returns the connection provider.
func (b *Broker) Source() Source {
	return b.source
}

// Watermark returns the highest row id observed by this instance.
func (b *Broker) Watermark() int64 {
	return b.currentID.Load()
}

// Enabled reports whether the broker is started.
func (b *Broker) Enabled() bool {
	return b.enabled.Load()
}

// InstanceID returns the identifier used in logs.
func (b *Broker) InstanceID() string {
	return b.instanceID
}

func (b *Broker) tableName() string {
	return model.TableName(b.tablePrefix)
}

// active reports whether an I/O path may run.
func (b *Broker) active() bool {
	return b.enabled.Load() && b.source.Running()
}

func (b *Broker) release(lease *Lease) {
	if err := lease.Release(); err != nil {
		b.logger.Warnf("Cannot close sql connection: %v", err)
	}
}

func (b *Broker) notify(fn func() error) {
	if err := fn(); err != nil {
		b.logger.Warnf("Failed to send notification: %v", err)
	}
}

// channelRegistry is implemented by mutable registries such as ChannelSet.
type channelRegistry interface {
	Subscriptions
	Add(channels ...string)
	Remove(channels ...string)
	List() []string
}
