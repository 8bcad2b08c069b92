package state

import (
	"strconv"
	"strings"
	"sync"

	"github.com/loomrun/loom/pkg/types"
)

// Manager owns one execution's state mapping and resolves dotted paths
// against it. The zero value is not usable; construct with New.
type Manager struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

// New returns an empty state manager.
func New() *Manager {
	return &Manager{data: make(map[string]interface{})}
}

// ApplyInitial seeds state from a workflow's initialState. It must be
// called, if at all, before any node runs: it is the execution's first
// mutation, not a merge against later writes.
func (m *Manager) ApplyInitial(initial map[string]interface{}) {
	if len(initial) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range initial {
		m.data[k] = deepCopy(v)
	}
}

// Get returns the value at path, or (nil, false) if any segment along the
// way is absent. An empty path returns the whole state mapping.
func (m *Manager) Get(path string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if path == "" {
		return deepCopy(m.data), true
	}
	segments := strings.Split(path, ".")

	var cur interface{} = m.data
	for _, seg := range segments {
		switch container := cur.(type) {
		case map[string]interface{}:
			v, ok := container[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(container) {
				return nil, false
			}
			cur = container[idx]
		default:
			return nil, false
		}
	}
	return deepCopy(cur), true
}

// Set writes value at path, creating intermediate mappings as needed. A
// numeric segment addresses an existing sequence position; it cannot grow
// or create an array, since intermediate creation only produces mappings.
func (m *Manager) Set(path string, value interface{}) error {
	if !types.ValidStatePath(path) {
		return ErrInvalidPath
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	segments := strings.Split(path, ".")
	return setInMap(m.data, segments, deepCopy(value))
}

// setInMap writes value at the path named by segments, rooted at m.
// Intermediate segments missing from m are created as fresh maps; an
// intermediate segment that already holds a slice is descended into by
// index instead.
func setInMap(m map[string]interface{}, segments []string, value interface{}) error {
	seg := segments[0]
	if len(segments) == 1 {
		m[seg] = value
		return nil
	}
	rest := segments[1:]
	next, ok := m[seg]
	if !ok {
		fresh := make(map[string]interface{})
		m[seg] = fresh
		return setInMap(fresh, rest, value)
	}
	switch typed := next.(type) {
	case map[string]interface{}:
		return setInMap(typed, rest, value)
	case []interface{}:
		return setInSlice(typed, rest, value)
	default:
		return ErrNotAMapping
	}
}

// setInSlice descends into an existing sequence by numeric index. It never
// grows the slice: an out-of-range index is an error, matching the
// contract that only mappings are created implicitly.
func setInSlice(s []interface{}, segments []string, value interface{}) error {
	idx, err := strconv.Atoi(segments[0])
	if err != nil {
		return ErrNotAnIndex
	}
	if idx < 0 || idx >= len(s) {
		return ErrIndexOutOfRange
	}
	if len(segments) == 1 {
		s[idx] = value
		return nil
	}
	rest := segments[1:]
	switch typed := s[idx].(type) {
	case map[string]interface{}:
		return setInMap(typed, rest, value)
	case []interface{}:
		return setInSlice(typed, rest, value)
	default:
		return ErrNotAMapping
	}
}

// Snapshot returns a deep copy of the entire state mapping, safe to persist
// or hand across goroutine boundaries without aliasing live state.
func (m *Manager) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return deepCopy(m.data).(map[string]interface{})
}

// deepCopy recursively copies maps and slices so callers can never observe
// or corrupt state through a value returned from Get or Snapshot.
func deepCopy(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, val := range typed {
			out[k] = deepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, val := range typed {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
