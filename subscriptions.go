package sqlbroker

import (
	"sort"
	"sync"
)

// Subscriptions is the set of channels delivered to this instance.
// Rows on other channels are still read (they advance the watermark) but never handed to the Handler.
type Subscriptions interface {
	// Contains reports whether channel is subscribed.
	Contains(channel string) bool
}

// ChannelSet is a concurrency-safe Subscriptions implementation.
//
// Thread safety: Safe for concurrent use.
type ChannelSet struct {
	mu       sync.RWMutex
	channels map[string]struct{}
}

// NewChannelSet creates a set holding channels.
func NewChannelSet(channels ...string) *ChannelSet {
	s := &ChannelSet{channels: make(map[string]struct{}, len(channels))}
	s.Add(channels...)
	return s
}

// Add subscribes channels. Empty names are ignored.
func (s *ChannelSet) Add(channels ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, channel := range channels {
		if channel == "" {
			continue
		}
		s.channels[channel] = struct{}{}
	}
}

// Remove unsubscribes channels.
func (s *ChannelSet) Remove(channels ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, channel := range channels {
		delete(s.channels, channel)
	}
}

// Contains implements Subscriptions.
func (s *ChannelSet) Contains(channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.channels[channel]
	return ok
}

// List returns the subscribed channels in lexical order.
func (s *ChannelSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]string, 0, len(s.channels))
	for channel := range s.channels {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}

// Len returns the number of subscribed channels.
func (s *ChannelSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.channels)
}
