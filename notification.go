package sqlbroker

import (
	"context"
)

// NotificationService defines an optional interface for observing broker events
// (lifecycle changes, failed polls, dropped messages).
//
// Implementations might export metrics, page an operator or log to monitoring systems.
// Notifications are informational: their errors are logged and never change broker state.
type NotificationService interface {
	// NotifyStarted is called once the table exists and the watermark is seeded.
	NotifyStarted(ctx context.Context, watermark int64) error

	// NotifyStartFailed is called when Start aborts. The broker stays stopped.
	NotifyStartFailed(ctx context.Context, err error) error

	// NotifyPollFailed is called when a poll tick is abandoned after a read failure.
	NotifyPollFailed(ctx context.Context, watermark int64, err error) error

	// NotifyMessageDropped is called when a subscribed row could not be decoded
	// or handled. The row is not delivered again.
	NotifyMessageDropped(ctx context.Context, id int64, channel string, err error) error
}

// NoOpNotificationService is a no-op implementation of NotificationService.
// Use this when notifications are not needed.
type NoOpNotificationService struct{}

// NotifyStarted does nothing.
func (n *NoOpNotificationService) NotifyStarted(_ context.Context, _ int64) error {
	return nil
}

// NotifyStartFailed does nothing.
func (n *NoOpNotificationService) NotifyStartFailed(_ context.Context, _ error) error {
	return nil
}

// NotifyPollFailed does nothing.
func (n *NoOpNotificationService) NotifyPollFailed(_ context.Context, _ int64, _ error) error {
	return nil
}

// NotifyMessageDropped does nothing.
func (n *NoOpNotificationService) NotifyMessageDropped(_ context.Context, _ int64, _ string, _ error) error {
	return nil
}

// LoggingNotificationService is a simple implementation that logs notifications.
type LoggingNotificationService struct {
	logger Logger
}

// NewLoggingNotificationService creates a new LoggingNotificationService.
func NewLoggingNotificationService(logger Logger) *LoggingNotificationService {
	return &LoggingNotificationService{logger: logger}
}

// NotifyStarted logs a successful start.
func (n *LoggingNotificationService) NotifyStarted(_ context.Context, watermark int64) error {
	n.logger.Infof("Broker started: watermark=%d", watermark)
	return nil
}

// NotifyStartFailed logs an aborted start.
func (n *LoggingNotificationService) NotifyStartFailed(_ context.Context, err error) error {
	n.logger.Warnf("Broker start failed: error=%v", err)
	return nil
}

// NotifyPollFailed logs an abandoned poll tick.
func (n *LoggingNotificationService) NotifyPollFailed(_ context.Context, watermark int64, err error) error {
	n.logger.Warnf("Poll failed: watermark=%d, error=%v", watermark, err)
	return nil
}

// NotifyMessageDropped logs a dropped row.
func (n *LoggingNotificationService) NotifyMessageDropped(_ context.Context, id int64, channel string, err error) error {
	n.logger.Warnf("Message dropped: id=%d, channel=%s, error=%v", id, channel, err)
	return nil
}
