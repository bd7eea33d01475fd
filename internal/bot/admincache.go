package bot

import (
	"sync"
	"time"

	"horse.fit/polyglot/internal/globaltime"
)

// adminCacheTTL bounds how long a membership lookup is trusted. Cache
// entries are also dropped eagerly when a membership update arrives for
// the chat, so a demoted admin loses access at the next event rather
// than at TTL expiry.
const adminCacheTTL = 60 * time.Second

type adminCacheKey struct {
	chatID int64
	userID int64
}

type adminCacheEntry struct {
	isAdmin bool
	expires time.Time
}

type adminCache struct {
	mu      sync.Mutex
	entries map[adminCacheKey]adminCacheEntry
}

func newAdminCache() *adminCache {
	return &adminCache{
		entries: make(map[adminCacheKey]adminCacheEntry),
	}
}

func (c *adminCache) get(chatID, userID int64) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[adminCacheKey{chatID: chatID, userID: userID}]
	if !ok || globaltime.Now().After(entry.expires) {
		return false, false
	}
	return entry.isAdmin, true
}

func (c *adminCache) set(chatID, userID int64, isAdmin bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[adminCacheKey{chatID: chatID, userID: userID}] = adminCacheEntry{
		isAdmin: isAdmin,
		expires: globaltime.Now().Add(adminCacheTTL),
	}
}

// invalidateChat drops every cached entry for a chat.
func (c *adminCache) invalidateChat(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.chatID == chatID {
			delete(c.entries, key)
		}
	}
}
