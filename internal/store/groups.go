package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Groups maps group names to values and remembers the order in which names
// were first added. It marshals as a JSON object with keys in that order.
type Groups[V any] struct {
	keys   []string
	values map[string]V
}

func newGroups[V any]() *Groups[V] {
	return &Groups[V]{values: map[string]V{}}
}

// Keys returns the group names in insertion order.
func (g *Groups[V]) Keys() []string {
	if g == nil {
		return nil
	}
	return g.keys
}

// Get returns the value stored under key, or the zero value. A nil Groups
// is empty, so lookups can be chained.
func (g *Groups[V]) Get(key string) V {
	var zero V
	if g == nil {
		return zero
	}
	if v, ok := g.values[key]; ok {
		return v
	}
	return zero
}

// Len returns the number of groups.
func (g *Groups[V]) Len() int {
	if g == nil {
		return 0
	}
	return len(g.keys)
}

func (g *Groups[V]) set(key string, v V) {
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] = v
}

// child returns the value under key, creating it with init first if needed.
func (g *Groups[V]) child(key string, init func() V) V {
	if v, ok := g.values[key]; ok {
		return v
	}
	v := init()
	g.set(key, v)
	return v
}

func (g *Groups[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range g.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("encoding group name: %w", err)
		}
		v, err := json.Marshal(g.values[key])
		if err != nil {
			return nil, fmt.Errorf("encoding group %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
