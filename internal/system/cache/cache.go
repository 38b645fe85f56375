/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package cache

import (
	"sync"
	"time"

	"github.com/wso2/identity-consent-enforcement-service/internal/system/log"
)

type item[V any] struct {
	value      V
	expiration time.Time
}

// Cache is a TTL map safe for concurrent use.
type Cache[V any] struct {
	items map[string]item[V]
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewCache creates a new cache with a TTL (time-to-live)
func NewCache[V any](defaultTTL time.Duration) *Cache[V] {
	return &Cache[V]{
		items: make(map[string]item[V]),
		ttl:   defaultTTL,
		now:   time.Now,
	}
}

// Set adds an item to the cache
func (c *Cache[V]) Set(key string, value V) {

	log.GetLogger().Debug("Setting cache entry", log.String("key", key))
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = item[V]{
		value:      value,
		expiration: c.now().Add(c.ttl),
	}
}

// Get retrieves a live item from the cache.
func (c *Cache[V]) Get(key string) (V, bool) {

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var zero V
	entry, found := c.items[key]
	if !found {
		return zero, false
	}
	if c.now().After(entry.expiration) {
		log.GetLogger().Debug("Cache entry expired", log.String("key", key))
		return zero, false
	}
	return entry.value, true
}

// GetStale returns the item even if it has expired.
func (c *Cache[V]) GetStale(key string) (V, bool) {

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, found := c.items[key]
	return entry.value, found
}

// Delete removes an item from the cache
func (c *Cache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}
