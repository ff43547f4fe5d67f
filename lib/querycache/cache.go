// Package querycache keeps named query results until a mutation marks them stale.
package querycache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

const (
	RequestsKey = "requests"
	incomingKey = "incoming-requests"
	requestKey  = "request"
	workspaces  = "workspaces"
)

func IncomingKey(userID string) string {
	return incomingKey + ":" + userID
}

func IncomingPrefix() string {
	return incomingKey + ":"
}

func RequestKey(requestID string) string {
	return requestKey + ":" + requestID
}

func WorkspacesKey(userID string) string {
	return workspaces + ":" + userID
}

func WorkspacesPrefix() string {
	return workspaces + ":"
}

// KeyOwner returns the user a per-user key belongs to, empty for shared keys
func KeyOwner(key string) string {
	key, _, _ = strings.Cut(key, "?")
	for _, prefix := range []string{IncomingPrefix(), WorkspacesPrefix()} {
		if strings.HasPrefix(key, prefix) {
			return strings.TrimPrefix(key, prefix)
		}
	}
	return ""
}

// WithParams builds the key of a parameterized variant of key.
// Invalidating key also invalidates all of its variants
func WithParams(key, params string) string {
	if params == "" {
		return key
	}
	return key + "?" + params
}

type Provider interface {
	GetOrFetch(key string, fetch func() (any, error)) (any, error)
	Invalidate(keys ...string)
	InvalidatePrefix(prefix string)
	IsStale(key string) bool
	// OnInvalidate registers a listener called with the keys marked stale
	OnInvalidate(listener func(keys []string))
}

var Instance Provider

func NewHandler(ttl time.Duration) {
	Instance = New(ttl)
}

func New(ttl time.Duration) Provider {
	return &impl{
		cache: gocache.New(ttl, 10*time.Minute),
		gens:  map[string]uint64{},
	}
}

type entry struct {
	data  any
	stale bool
}

type impl struct {
	cache     *gocache.Cache
	mu        sync.RWMutex
	listeners []func(keys []string)

	// gens counts invalidations per base key, a fetch that overlaps one is not stored
	genMu       sync.Mutex
	gens        map[string]uint64
	prefixEpoch uint64
}

type generation struct {
	key    uint64
	prefix uint64
}

func baseKey(key string) string {
	key, _, _ = strings.Cut(key, "?")
	return key
}

func (i *impl) generation(key string) generation {
	i.genMu.Lock()
	defer i.genMu.Unlock()
	return generation{key: i.gens[baseKey(key)], prefix: i.prefixEpoch}
}

func (i *impl) bump(key string) {
	i.genMu.Lock()
	defer i.genMu.Unlock()
	i.gens[baseKey(key)]++
}

func (i *impl) GetOrFetch(key string, fetch func() (any, error)) (any, error) {
	if cached, found := i.cache.Get(key); found {
		if e, ok := cached.(entry); ok && !e.stale {
			return e.data, nil
		}
	}
	gen := i.generation(key)
	data, err := fetch()
	if err != nil {
		return nil, err
	}
	if i.generation(key) != gen {
		// invalidated while fetching, the result may predate the mutation
		return data, nil
	}
	i.cache.SetDefault(key, entry{data: data})
	return data, nil
}

func (i *impl) Invalidate(keys ...string) {
	if len(keys) == 0 {
		return
	}
	unique := make([]string, 0, len(keys))
	seen := map[string]bool{}
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, key)
		i.bump(key)
		i.markStale(key)
		for variant := range i.cache.Items() {
			if strings.HasPrefix(variant, key+"?") {
				i.markStale(variant)
			}
		}
	}
	log.WithField("keys", strings.Join(unique, ",")).Debug("query cache invalidated")
	i.notify(unique)
}

func (i *impl) InvalidatePrefix(prefix string) {
	i.genMu.Lock()
	i.prefixEpoch++
	i.genMu.Unlock()
	keys := []string{}
	for key := range i.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	i.Invalidate(keys...)
}

func (i *impl) IsStale(key string) bool {
	cached, found := i.cache.Get(key)
	if !found {
		return true
	}
	e, ok := cached.(entry)
	return !ok || e.stale
}

func (i *impl) OnInvalidate(listener func(keys []string)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listeners = append(i.listeners, listener)
}

func (i *impl) markStale(key string) {
	cached, found := i.cache.Get(key)
	if !found {
		return
	}
	e, ok := cached.(entry)
	if !ok {
		i.cache.Delete(key)
		return
	}
	e.stale = true
	i.cache.SetDefault(key, e)
}

func (i *impl) notify(keys []string) {
	i.mu.RLock()
	listeners := append([]func(keys []string){}, i.listeners...)
	i.mu.RUnlock()
	for _, listener := range listeners {
		listener(keys)
	}
}

// Fetch is a typed GetOrFetch
func Fetch[T any](cache Provider, key string, fetch func() (T, error)) (T, error) {
	var zero T
	data, err := cache.GetOrFetch(key, func() (any, error) {
		value, err := fetch()
		return value, err
	})
	if err != nil {
		return zero, err
	}
	typed, ok := data.(T)
	if !ok {
		cache.Invalidate(key)
		return fetch()
	}
	return typed, nil
}
