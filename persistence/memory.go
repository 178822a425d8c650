// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"sync"

	"github.com/CrawX/go-mail-receptionist/domain"

	"github.com/golang/groupcache/lru"
)

const DefaultMemoryCacheSize = 4096

// MemoryCache keeps the most recently used embeddings of the running process.
type MemoryCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

type memoryKey struct {
	model    string
	textHash string
}

func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	return &MemoryCache{
		cache: lru.New(size),
	}
}

func (m *MemoryCache) Get(model string, textHash string) (domain.Vector, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.cache.Get(memoryKey{model, textHash})
	if !ok {
		return nil, false, nil
	}
	return v.(domain.Vector), true, nil
}

func (m *MemoryCache) Put(model string, textHash string, vector domain.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Add(memoryKey{model, textHash}, vector)
	return nil
}

func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cache.Len()
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Clear()
	return nil
}
