package nodes

import (
	"fmt"
	"sync"
	"time"

	"github.com/loomrun/loom/pkg/config"
	"github.com/loomrun/loom/pkg/registry"
)

// CacheStore is a process-wide, RWMutex-guarded TTL cache shared by every
// Cache node call, since registry.ExecutionContext (unlike the teacher's
// ExecutionContext) has no GetCache/SetCache methods of its own. Grounded
// on the teacher's CacheExecutor get/set/delete contract and default TTL;
// bounded by cfg.MaxCacheSize with naive oldest-first eviction once full.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	maxSize int
	order   []string
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewCacheStore returns an empty store bounded to maxSize entries.
func NewCacheStore(maxSize int) *CacheStore {
	return &CacheStore{entries: make(map[string]cacheEntry), maxSize: maxSize}
}

func (s *CacheStore) get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *CacheStore) set(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	if _, exists := s.entries[key]; !exists {
		if s.maxSize > 0 && len(s.entries) >= s.maxSize && len(s.order) > 0 {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.entries, oldest)
		}
		s.order = append(s.order, key)
	}
	s.entries[key] = cacheEntry{value: value, expiresAt: expiresAt}
}

func (s *CacheStore) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Cache implements a config-driven get/set/delete against a shared
// CacheStore, giving workflows a scoped place to memoize results (e.g. a
// fetchApi response) across node calls within or across executions.
type Cache struct {
	store      *CacheStore
	defaultTTL time.Duration
}

// NewCache returns a Cache node backed by store, using cfg's default TTL
// when a call doesn't specify one.
func NewCache(cfg *config.Config, store *CacheStore) *Cache {
	return &Cache{store: store, defaultTTL: cfg.DefaultCacheTTL}
}

// Metadata implements registry.Node.
func (Cache) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "cache",
		Name:    "Cache",
		Version: "1.0.0",
		Inputs:  []string{"operation", "key", "value", "ttl"},
		Outputs: []string{},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (n *Cache) Execute(ctx registry.ExecutionContext, nodeCfg map[string]interface{}) (registry.EdgeMap, error) {
	op, err := configString(nodeCfg, "operation")
	if err != nil {
		return nil, err
	}
	key, err := configString(nodeCfg, "key")
	if err != nil {
		return nil, err
	}

	switch op {
	case "set":
		value, ok := nodeCfg["value"]
		if !ok {
			return nil, fmt.Errorf("%w: value", ErrMissingField)
		}
		ttl := n.defaultTTL
		if d := configDuration(nodeCfg, "ttl", 0); d > 0 {
			ttl = d
		}
		n.store.set(key, value, ttl)
		return registry.EdgeMap{"result": map[string]interface{}{"operation": "set", "key": key}}, nil

	case "get":
		value, found := n.store.get(key)
		return registry.EdgeMap{"result": map[string]interface{}{"operation": "get", "key": key, "found": found, "value": value}}, nil

	case "delete":
		n.store.delete(key)
		return registry.EdgeMap{"result": map[string]interface{}{"operation": "delete", "key": key}}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}
