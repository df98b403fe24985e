package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrEmptyInvalidation = errors.New("invalidation names no keys and does not clear all")

// CacheInvalidationMessage asks consumers to drop cache gate entries. Either
// All is set or Keys names at least one key.
type CacheInvalidationMessage struct {
	Keys      []string  `json:"keys,omitempty"`
	All       bool      `json:"all,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	// Origin identifies the publishing instance so it can skip its own clears.
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCacheInvalidationMessage invalidates the given keys.
func NewCacheInvalidationMessage(reason string, keys ...string) *CacheInvalidationMessage {
	return &CacheInvalidationMessage{
		Keys:      keys,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// NewClearAllMessage invalidates every cache entry.
func NewClearAllMessage(reason string) *CacheInvalidationMessage {
	return &CacheInvalidationMessage{
		All:       true,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *CacheInvalidationMessage) Validate() error {
	if m.All {
		return nil
	}
	n := 0
	for _, k := range m.Keys {
		if strings.TrimSpace(k) != "" {
			n++
		}
	}
	if n == 0 {
		return ErrEmptyInvalidation
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *CacheInvalidationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CacheInvalidationMessageFromJSON decodes and validates a message.
func CacheInvalidationMessageFromJSON(data []byte) (*CacheInvalidationMessage, error) {
	var msg CacheInvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
