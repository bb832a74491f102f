package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrNotFound is returned when a credential is not configured.
var ErrNotFound = errors.New("credential not found")

// Store resolves named credentials for provider transports.
type Store interface {
	Get(name string) (string, error)
}

// EnvStore reads credentials from environment variables.
type EnvStore struct{}

// Get returns the credential stored in the environment variable name.
func (EnvStore) Get(name string) (string, error) {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return "", fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return val, nil
}

// Cached wraps a Store so each credential is resolved once per process lifetime.
// Lookup failures are not cached, so a later call can retry.
type Cached struct {
	base Store

	mu     sync.Mutex
	values map[string]string
}

// NewCached constructs a caching decorator over base.
func NewCached(base Store) *Cached {
	return &Cached{
		base:   base,
		values: make(map[string]string),
	}
}

// Get returns the cached credential or resolves and caches it.
func (c *Cached) Get(name string) (string, error) {
	c.mu.Lock()
	if val, ok := c.values[name]; ok {
		c.mu.Unlock()
		return val, nil
	}
	c.mu.Unlock()

	val, err := c.base.Get(name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.values[name] = val
	c.mu.Unlock()
	return val, nil
}
