// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package container

// Pair holds a key and value of a Map.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// Clone copies the pair, cloning the key and value when they implement
// Cloner.
func (p Pair[K, V]) Clone() Pair[K, V] {
	return Pair[K, V]{Key: cloneElement(p.Key), Value: cloneElement(p.Value)}
}

// Destroy destroys the key and value.
func (p *Pair[K, V]) Destroy() {
	destroyAt(&p.Key)
	destroyAt(&p.Value)
}

// pairHasher hashes and compares pairs by their key only.
type pairHasher[K, V any] struct {
	keys Hasher[K]
}

func (h pairHasher[K, V]) Hash(p Pair[K, V]) uint64 {
	return h.keys.Hash(p.Key)
}

func (h pairHasher[K, V]) Equal(a, b Pair[K, V]) bool {
	return h.keys.Equal(a.Key, b.Key)
}

// Map is an unordered map from keys to values. It is a Set of Pairs whose
// hashing and equality look at the key only; all of the table mechanics
// are the Set's.
//
// A Map is NOT goroutine-safe. The zero value is not usable; use NewMap or
// Init.
type Map[K, V any] struct {
	keys  Hasher[K]
	pairs Set[Pair[K, V]]
}

// NewMap constructs a new Map using keys to hash and compare keys, with
// room for at least initialCapacity entries.
func NewMap[K, V any](
	keys Hasher[K], initialCapacity int, options ...SetOption[Pair[K, V]],
) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(keys, initialCapacity, options...)
	return m
}

// Init initializes a Map, closing whatever the map held before.
func (m *Map[K, V]) Init(keys Hasher[K], initialCapacity int, options ...SetOption[Pair[K, V]]) {
	m.keys = keys
	m.pairs.Init(pairHasher[K, V]{keys: keys}, initialCapacity, options...)
}

// Close destroys every entry and releases the bucket array. Close is
// idempotent.
func (m *Map[K, V]) Close() {
	m.pairs.Close()
}

// Clear destroys every entry, leaving the capacity unchanged.
func (m *Map[K, V]) Clear() {
	m.pairs.Clear()
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.pairs.Len()
}

// Cap returns the number of buckets in the map.
func (m *Map[K, V]) Cap() int {
	return m.pairs.Cap()
}

// Reserve grows the map to the smallest table prime >= minCount buckets if
// it currently has fewer.
func (m *Map[K, V]) Reserve(minCount int) {
	m.pairs.Reserve(minCount)
}

// Add inserts an entry for key. If the key is already present the map is
// left unchanged and false is returned.
func (m *Map[K, V]) Add(key K, value V) bool {
	return m.pairs.Add(Pair[K, V]{Key: key, Value: value})
}

// Put inserts an entry for key, overwriting (and destroying) the existing
// value if the key is already present.
func (m *Map[K, V]) Put(key K, value V) {
	if p := m.find(key); p != nil {
		destroyAt(&p.Value)
		p.Value = value
		return
	}
	m.pairs.insert(m.hashOf(key), Pair[K, V]{Key: key, Value: value})
}

// Find returns a pointer to the value stored for key. The pointer is
// invalidated by the next insertion.
func (m *Map[K, V]) Find(key K) (*V, bool) {
	if p := m.find(key); p != nil {
		return &p.Value, true
	}
	return nil, false
}

// Get returns the value stored for key, reporting ok=false if the key is
// not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if p := m.find(key); p != nil {
		return p.Value, true
	}
	return value, false
}

// ContainsKey reports whether key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	return m.find(key) != nil
}

// Remove destroys the entry for key. It returns false if the key is not
// present.
func (m *Map[K, V]) Remove(key K) bool {
	return m.pairs.removeFunc(m.hashOf(key), m.matcher(key))
}

// MustGet returns the value stored for key. It panics with ErrKeyNotFound
// if the key is not present.
func (m *Map[K, V]) MustGet(key K) V {
	p := m.find(key)
	if p == nil {
		fail(ErrKeyNotFound, "key %v", key)
	}
	return p.Value
}

// At returns a pointer to the value stored for key, first inserting an
// entry with a default-constructed value if the key is not present. The
// pointer is invalidated by the next insertion.
func (m *Map[K, V]) At(key K) *V {
	if p := m.find(key); p != nil {
		return &p.Value
	}
	pair := Pair[K, V]{Key: key}
	constructDefaultAt(&pair.Value)
	return &m.pairs.insert(m.hashOf(key), pair).Value
}

// All calls yield sequentially for each key and value present in the map,
// in bucket order. If yield returns false, iteration stops.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	m.pairs.All(func(p Pair[K, V]) bool {
		return yield(p.Key, p.Value)
	})
}

// Clone returns a deep copy of the map.
func (m *Map[K, V]) Clone() *Map[K, V] {
	return &Map[K, V]{keys: m.keys, pairs: *m.pairs.Clone()}
}

// MapFindSimilar looks up the value stored for a key of m using a query of
// a different type, e.g. a string key using a []byte.
func MapFindSimilar[K, V, Q any](m *Map[K, V], q Q, h SimilarHasher[K, Q]) (*V, bool) {
	p, ok := m.pairs.FindFunc(h.Hash(q), func(p *Pair[K, V]) bool {
		return h.Equal(p.Key, q)
	})
	if !ok {
		return nil, false
	}
	return &p.Value, true
}

func (m *Map[K, V]) hashOf(key K) uint64 {
	return validHash(m.keys.Hash(key))
}

func (m *Map[K, V]) matcher(key K) func(p *Pair[K, V]) bool {
	return func(p *Pair[K, V]) bool {
		return m.keys.Equal(p.Key, key)
	}
}

func (m *Map[K, V]) find(key K) *Pair[K, V] {
	i := m.pairs.findIndex(m.hashOf(key), m.matcher(key))
	if i == IndexNone {
		return nil
	}
	return &m.pairs.buckets.Ptr(i).value
}
