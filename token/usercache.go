package token

import (
	"sync"
	"time"

	"github.com/skylens/go-api-client/users"
)

// UserDataTTL is how long a cached profile stays valid after a write.
const UserDataTTL = 13 * time.Minute

// UserCache is a short-lived in-memory cache of the authenticated user's
// profile, independent of the session store. Reads past the expiry treat the
// entry as absent.
type UserCache struct {
	mu        sync.RWMutex
	data      *users.User
	expiresAt time.Time
	ttl       time.Duration
	nowFunc   func() time.Time
}

// NewUserCache creates an empty profile cache with the default TTL.
func NewUserCache() *UserCache {
	return &UserCache{
		ttl:     UserDataTTL,
		nowFunc: time.Now,
	}
}

// Set stores the profile and restarts its TTL.
func (c *UserCache) Set(data *users.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.expiresAt = c.nowFunc().Add(c.ttl)
}

// Get returns the cached profile, or nil when nothing is cached or the entry
// has expired.
func (c *UserCache) Get() *users.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || c.nowFunc().After(c.expiresAt) {
		return nil
	}
	return c.data
}

// Clear drops the cached profile.
func (c *UserCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.expiresAt = time.Time{}
}
