// Package model contains the persisted row types of the broker.
package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TableSuffix is appended to the configured prefix to form the messenger table name.
const TableSuffix = "messenger"

// MaxChannelLength is the width of the channel column.
const MaxChannelLength = 255

// Message is one row of the shared messenger table.
//
// Rows are written by every participating instance and are never removed on read:
// each instance keeps its own watermark and sees every row newer than it.
// Only the retention path deletes rows, by age.
type Message struct {
	ID      int64     `json:"id" db:"id"`           // Auto-assigned, strictly increasing
	Time    time.Time `json:"time" db:"time"`       // Creation time (UTC)
	Channel string    `json:"channel" db:"channel"` // Channel name
	Msg     string    `json:"msg" db:"msg"`         // Codec-encoded payload
}

// TableName returns the messenger table name for prefix.
func TableName(prefix string) string {
	return prefix + TableSuffix
}

// NewMessage creates a row ready for insertion. The time is truncated to
// microseconds and stored in UTC so every dialect compares it the same way.
func NewMessage(channel, msg string, now time.Time) Message {
	return Message{
		ID:      0,
		Time:    now.UTC().Truncate(time.Microsecond),
		Channel: channel,
		Msg:     msg,
	}
}

// Validate checks the row fits the messenger table.
func (m Message) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Channel, validation.Required, validation.RuneLength(1, MaxChannelLength)),
		validation.Field(&m.Time, validation.Required),
	)
}
