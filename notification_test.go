package sqlbroker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// bufferLogger records formatted messages per level.
type bufferLogger struct {
	NoopLogger
	infos []string
	warns []string
}

func (l *bufferLogger) Infof(format string, args ...interface{}) {
	l.infos = append(l.infos, format)
}

func (l *bufferLogger) Warnf(format string, args ...interface{}) {
	l.warns = append(l.warns, format)
}

func TestLoggingNotificationService(t *testing.T) {
	logger := &bufferLogger{}
	service := NewLoggingNotificationService(logger)
	ctx := context.Background()
	boom := errors.New("boom")

	assert.NoError(t, service.NotifyStarted(ctx, 7))
	assert.NoError(t, service.NotifyStartFailed(ctx, boom))
	assert.NoError(t, service.NotifyPollFailed(ctx, 7, boom))
	assert.NoError(t, service.NotifyMessageDropped(ctx, 8, "chat", boom))

	assert.Len(t, logger.infos, 1)
	assert.Len(t, logger.warns, 3)
}

func TestNoOpNotificationService(t *testing.T) {
	var service NotificationService = &NoOpNotificationService{}
	ctx := context.Background()

	assert.NoError(t, service.NotifyStarted(ctx, 0))
	assert.NoError(t, service.NotifyStartFailed(ctx, nil))
	assert.NoError(t, service.NotifyPollFailed(ctx, 0, nil))
	assert.NoError(t, service.NotifyMessageDropped(ctx, 0, "", nil))
}
