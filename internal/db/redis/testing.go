package redis

import "github.com/redis/rueidis"

// NewStoreForTest creates a Store around the provided client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}
