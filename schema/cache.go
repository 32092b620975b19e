package schema

import (
	"reflect"
	"sync"

	"github.com/tidwall/btree"
	"go.uber.org/atomic"
)

// Cache memoizes resolver lookups.
type Cache interface {
	Type(qn QName) (reflect.Type, bool)
	SetType(qn QName, t reflect.Type)
	Mapping(t reflect.Type) (TypeMapping, bool)
	SetMapping(t reflect.Type, m TypeMapping)
	Mappings(xmlns string) ([]TypeMapping, bool)
	SetMappings(xmlns string, ms []TypeMapping)
}

// LocalCache is the default session cache. It is not synchronized.
type LocalCache struct {
	types    btree.Map[string, reflect.Type]
	mappings btree.Map[string, TypeMapping]
	xmlns    btree.Map[string, []TypeMapping]
}

var _ Cache = (*LocalCache)(nil)

func NewCache() *LocalCache {
	return &LocalCache{}
}

func (c *LocalCache) Type(qn QName) (reflect.Type, bool) {
	return c.types.Get(qn.String())
}

func (c *LocalCache) SetType(qn QName, t reflect.Type) {
	c.types.Set(qn.String(), t)
}

func (c *LocalCache) Mapping(t reflect.Type) (TypeMapping, bool) {
	return c.mappings.Get(FullName(t))
}

func (c *LocalCache) SetMapping(t reflect.Type, m TypeMapping) {
	c.mappings.Set(FullName(t), m)
}

func (c *LocalCache) Mappings(xmlns string) ([]TypeMapping, bool) {
	return c.xmlns.Get(xmlns)
}

func (c *LocalCache) SetMappings(xmlns string, ms []TypeMapping) {
	c.xmlns.Set(xmlns, ms)
}

// Len returns the number of memoized type lookups.
func (c *LocalCache) Len() int {
	return c.types.Len()
}

// SharedCache is a lock-guarded cache shared by concurrent sessions.
type SharedCache struct {
	sync.RWMutex
	local LocalCache

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Cache = (*SharedCache)(nil)

func NewSharedCache() *SharedCache {
	return &SharedCache{}
}

func (c *SharedCache) Type(qn QName) (reflect.Type, bool) {
	c.RLock()
	t, ok := c.local.Type(qn)
	c.RUnlock()
	c.count(ok)
	return t, ok
}

func (c *SharedCache) SetType(qn QName, t reflect.Type) {
	c.Lock()
	c.local.SetType(qn, t)
	c.Unlock()
}

func (c *SharedCache) Mapping(t reflect.Type) (TypeMapping, bool) {
	c.RLock()
	m, ok := c.local.Mapping(t)
	c.RUnlock()
	c.count(ok)
	return m, ok
}

func (c *SharedCache) SetMapping(t reflect.Type, m TypeMapping) {
	c.Lock()
	c.local.SetMapping(t, m)
	c.Unlock()
}

func (c *SharedCache) Mappings(xmlns string) ([]TypeMapping, bool) {
	c.RLock()
	ms, ok := c.local.Mappings(xmlns)
	c.RUnlock()
	c.count(ok)
	return ms, ok
}

func (c *SharedCache) SetMappings(xmlns string, ms []TypeMapping) {
	c.Lock()
	c.local.SetMappings(xmlns, ms)
	c.Unlock()
}

func (c *SharedCache) count(hit bool) {
	if hit {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
}

// Stats returns the lookup hit and miss counts.
func (c *SharedCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
