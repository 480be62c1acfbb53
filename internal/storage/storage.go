package storage

import (
	"context"
	"time"
)

// Storage is a durable key-value slot store. Values are JSON encoded.
type Storage interface {
	// Get decodes the value stored under key into value. It reports false
	// without error when the key is absent or expired.
	Get(ctx context.Context, key string, value any) (bool, error)
	// Set overwrites key. A ttl <= 0 uses the store's default.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	SessionKeyPrefix = "session"
	// OrderKey is the slot holding a session's order.
	OrderKey = "pedido"
)

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

// SessionKey is the order slot of a browser session.
func SessionKey(sessionID string) string {
	return Key(Key(SessionKeyPrefix, sessionID), OrderKey)
}
