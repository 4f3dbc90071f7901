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

// Package container implements the generic containers the rest of the
// engine is built on: a growable contiguous sequence (Array), an
// open-addressing hash set (Set) and a key/value map built on the set
// (Map).
//
// # Element lifecycle
//
// The containers distinguish allocated slots from constructed elements.
// Element types can hook default construction, copying and destruction by
// implementing Defaulter, Cloner and Destroyer. See lifecycle.go.
//
// # Sets
//
// A Set stores its values in a bucket array whose capacity is always an
// entry of an ascending table of primes. Each bucket is either empty or
// holds a value together with its cached hash. InvalidHash is the cached
// hash of an empty bucket.
//
// To place a value with hash h, probing starts at bucket h mod capacity.
// When a bucket is taken the running hash is rehashed (Rehash hashes the
// bytes of the previous hash) and the next bucket is the new hash mod
// capacity. The probe sequence is therefore a pseudo-random walk rather
// than a fixed stride. A rehash that lands back on the starting bucket is
// nudged forward by one bucket the first time; the second time ends the
// rehash phase early. After rehashProbes rehashes the sequence falls back
// to linear probing from the last bucket, visiting every remaining bucket
// exactly once, so a probe sequence always reaches every bucket.
//
// Removal simply empties the bucket; nothing is compacted and there are
// no tombstones. Lookups therefore cannot stop at the first empty bucket.
// Instead the set tracks the deepest probe position any placement has
// used since the bucket array was last rebuilt, and a lookup examines at
// most that many probes. Lookup and insertion walk the same sequence, so
// every stored value is found.
//
// The set grows when an insertion finds it full, and when an insertion
// into a set that is at least half full runs past stormProbes probes
// without finding an empty bucket. Growing picks the smallest table prime
// >= 2*capacity+1, allocates a fresh bucket array and re-inserts every
// value from its raw value. The old bucket array is never grown in place.
package container

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// rehashProbes is the number of probes which pick their bucket by
	// rehashing before a probe sequence falls back to linear probing.
	rehashProbes = 8
	// stormProbes is the probe position past which an insertion into a
	// set that is at least half full grows the set rather than probing
	// further.
	stormProbes = rehashProbes + 16
)

// Bucket is a slot of the bucket array of a Set. It is exported so that
// an Allocator[Bucket[T]] can be supplied with WithBucketAllocator.
type Bucket[T any] struct {
	// hash is the cached hash of value, or InvalidHash if the bucket is
	// empty.
	hash  uint64
	value T
}

// SetDefaults marks the bucket empty.
func (b *Bucket[T]) SetDefaults() {
	b.hash = InvalidHash
}

// Destroy destroys the value held by the bucket, if any, and marks the
// bucket empty.
func (b *Bucket[T]) Destroy() {
	if b.hash != InvalidHash {
		destroyAt(&b.value)
	}
	b.hash = InvalidHash
}

// Clone copies the bucket, cloning its value if it is occupied.
func (b Bucket[T]) Clone() Bucket[T] {
	if b.hash == InvalidHash {
		return b
	}
	return Bucket[T]{hash: b.hash, value: cloneElement(b.value)}
}

// Set is an unordered set of values stored in an open-addressing hash
// table. Hashing and equality are supplied by a Hasher[T], so values need
// not be comparable.
//
// Values must not be modified in a way that changes their hash or
// equality while they are stored in the set.
//
// A Set is NOT goroutine-safe. The zero value is not usable; use NewSet
// or Init.
type Set[T any] struct {
	hasher Hasher[T]
	// The bucket array. Its length is the capacity of the set; every
	// bucket is constructed (empty or occupied).
	buckets Array[Bucket[T]]
	// The number of occupied buckets.
	used int
	// maxDepth is the largest probe position at which a value has been
	// placed since the bucket array was last rebuilt. Lookups do not probe
	// past it.
	maxDepth int
	logger   *zap.Logger
	// rebuilding is set while the bucket array is being rebuilt.
	rebuilding bool
}

// NewSet constructs a new Set using hasher with room for at least
// initialCapacity values. If initialCapacity is 0 the set will start out
// with no buckets and will allocate on the first insert.
func NewSet[T any](hasher Hasher[T], initialCapacity int, options ...SetOption[T]) *Set[T] {
	s := &Set[T]{}
	s.Init(hasher, initialCapacity, options...)
	return s
}

// Init initializes a Set, closing whatever the set held before.
func (s *Set[T]) Init(hasher Hasher[T], initialCapacity int, options ...SetOption[T]) {
	checkCount(initialCapacity)
	s.Close()
	*s = Set[T]{
		hasher: hasher,
		logger: zap.NewNop(),
	}
	for _, op := range options {
		op.apply(s)
	}
	if initialCapacity > 0 {
		s.Reserve(initialCapacity)
	}
	s.checkInvariants()
}

// Close destroys every value and releases the bucket array back to the
// configured allocator. The set is empty and usable afterwards. Close is
// idempotent.
func (s *Set[T]) Close() {
	s.buckets.Close()
	s.used = 0
	s.maxDepth = 0
}

// Clear destroys every value, leaving the capacity unchanged.
func (s *Set[T]) Clear() {
	buckets := s.buckets.Slice()
	for i := range buckets {
		if buckets[i].hash != InvalidHash {
			buckets[i].Destroy()
		}
	}
	s.used = 0
	s.maxDepth = 0
	s.checkInvariants()
}

// Len returns the number of values in the set.
func (s *Set[T]) Len() int {
	return s.used
}

// Cap returns the number of buckets in the set.
func (s *Set[T]) Cap() int {
	return s.buckets.Len()
}

// Add inserts v into the set. If an equal value is already present the
// set is left unchanged and false is returned.
func (s *Set[T]) Add(v T) bool {
	h := s.hashOf(v)
	if s.findIndex(h, s.matcher(v)) != IndexNone {
		return false
	}
	s.insert(h, v)
	return true
}

// Contains reports whether a value equal to v is in the set.
func (s *Set[T]) Contains(v T) bool {
	return s.findIndex(s.hashOf(v), s.matcher(v)) != IndexNone
}

// Find returns a pointer to the stored value equal to v. The pointer is
// invalidated by the next insertion.
func (s *Set[T]) Find(v T) (*T, bool) {
	return s.FindFunc(s.hashOf(v), s.matcher(v))
}

// FindFunc returns a pointer to the stored value for which match returns
// true, probing the buckets of hash. hash must be the hash the set's
// Hasher computes for the value being looked up.
func (s *Set[T]) FindFunc(hash uint64, match func(v *T) bool) (*T, bool) {
	i := s.findIndex(validHash(hash), match)
	if i == IndexNone {
		return nil, false
	}
	return &s.buckets.Ptr(i).value, true
}

// FindSimilar looks up a value of s using a query of a different type.
func FindSimilar[T, Q any](s *Set[T], q Q, h SimilarHasher[T, Q]) (*T, bool) {
	return s.FindFunc(h.Hash(q), func(v *T) bool {
		return h.Equal(*v, q)
	})
}

// Remove destroys the value equal to v and empties its bucket. It returns
// false if no such value is present.
func (s *Set[T]) Remove(v T) bool {
	return s.removeFunc(s.hashOf(v), s.matcher(v))
}

// Reserve grows the set to the smallest table prime >= minCount buckets if
// it currently has fewer.
func (s *Set[T]) Reserve(minCount int) {
	checkCount(minCount)
	if minCount > s.buckets.Len() {
		s.rebuild(nextPrime(minCount), growReserve)
	}
}

// All calls yield sequentially for each value in the set, in bucket
// order. If yield returns false, iteration stops. The set can be mutated
// during iteration, though there is no guarantee that the mutations will
// be visible to the iteration.
func (s *Set[T]) All(yield func(v T) bool) {
	// Snapshot the buckets so that iteration remains valid if the set is
	// rebuilt during iteration.
	buckets := s.buckets.Slice()
	for i := range buckets {
		if buckets[i].hash == InvalidHash {
			continue
		}
		if !yield(buckets[i].value) {
			return
		}
	}
}

// Clone returns a deep copy of the set with the same bucket layout.
func (s *Set[T]) Clone() *Set[T] {
	c := &Set[T]{
		hasher:   s.hasher,
		used:     s.used,
		maxDepth: s.maxDepth,
		logger:   s.logger,
	}
	c.buckets.MoveFrom(s.buckets.Clone())
	c.checkInvariants()
	return c
}

func (s *Set[T]) hashOf(v T) uint64 {
	return validHash(s.hasher.Hash(v))
}

func (s *Set[T]) matcher(v T) func(e *T) bool {
	return func(e *T) bool {
		return s.hasher.Equal(*e, v)
	}
}

// findIndex returns the index of the bucket caching hash h whose value
// satisfies match, or IndexNone.
func (s *Set[T]) findIndex(h uint64, match func(v *T) bool) int {
	if s.used == 0 {
		return IndexNone
	}
	buckets := s.buckets.Slice()
	for seq := makeProbeSeq(h, len(buckets)); seq.index <= s.maxDepth && !seq.done(); seq = seq.next() {
		b := &buckets[seq.offset]
		if b.hash == h && match(&b.value) {
			return int(seq.offset)
		}
	}
	return IndexNone
}

// removeFunc destroys the value found by findIndex(h, match).
func (s *Set[T]) removeFunc(h uint64, match func(v *T) bool) bool {
	i := s.findIndex(h, match)
	if i == IndexNone {
		return false
	}
	s.buckets.Ptr(i).Destroy()
	s.used--
	s.checkInvariants()
	return true
}

// insert adds v, which must not already be present, and returns a pointer
// to the stored value.
func (s *Set[T]) insert(h uint64, v T) *T {
	if s.used >= s.buckets.Len() {
		s.grow(growFull)
	}
	for {
		if i := s.place(h, v, true); i != IndexNone {
			s.used++
			s.checkInvariants()
			return &s.buckets.Ptr(i).value
		}
		s.grow(growCollisions)
	}
}

// place stores v in the first empty bucket of its probe sequence and
// returns the bucket index. If storm is true and the set is at least half
// full, place gives up with IndexNone once the probe position exceeds
// stormProbes. IndexNone is also returned if no bucket is empty.
func (s *Set[T]) place(h uint64, v T, storm bool) int {
	buckets := s.buckets.Slice()
	capacity := len(buckets)
	for seq := makeProbeSeq(h, capacity); !seq.done(); seq = seq.next() {
		if storm && seq.index > stormProbes && 2*s.used >= capacity {
			return IndexNone
		}
		b := &buckets[seq.offset]
		if b.hash == InvalidHash {
			b.hash = h
			b.value = v
			s.maxDepth = max(s.maxDepth, seq.index)
			return int(seq.offset)
		}
	}
	return IndexNone
}

func (s *Set[T]) grow(reason growReason) {
	capacity := s.buckets.Len()
	target := maxPrime
	if capacity <= (maxPrime-1)/2 {
		target = nextPrime(2*capacity + 1)
	}
	s.rebuild(target, reason)
}

// rebuild replaces the bucket array with a fresh one of the given
// capacity and re-inserts every value into it.
func (s *Set[T]) rebuild(capacity int, reason growReason) {
	if s.rebuilding {
		fail(ErrInvalidGrow, "re-entrant rebuild to %d buckets", capacity)
	}
	oldCapacity := s.buckets.Len()
	if capacity <= oldCapacity {
		fail(ErrInvalidGrow, "rebuild from %d to %d buckets", oldCapacity, capacity)
	}
	s.rebuilding = true
	defer func() {
		s.rebuilding = false
	}()

	s.logger.Debug("rebuilding hash set",
		zap.Stringer("reason", reason),
		zap.Int("used", s.used),
		zap.Int("old-capacity", oldCapacity),
		zap.Int("new-capacity", capacity))

	var old Array[Bucket[T]]
	old.MoveFrom(&s.buckets)
	s.buckets.Reserve(capacity)
	s.buckets.SetLen(capacity)
	s.maxDepth = 0

	oldBuckets := old.Slice()
	for i := range oldBuckets {
		b := &oldBuckets[i]
		if b.hash == InvalidHash {
			continue
		}
		// Re-hash the raw value rather than trusting the cached hash.
		if s.place(s.hashOf(b.value), b.value, false) == IndexNone {
			panic(fmt.Sprintf("no empty bucket for %v while rebuilding\n%s", b.value, s.debugString()))
		}
	}

	// Every value has moved to the new bucket array. Drop the old buckets
	// without destroying them, leaving their contents intact for any
	// iteration still walking them.
	old.length = 0
	old.Close()

	s.checkInvariants()
}

type growReason int

const (
	growFull growReason = iota
	growCollisions
	growReserve
)

func (r growReason) String() string {
	switch r {
	case growFull:
		return "full"
	case growCollisions:
		return "collisions"
	case growReserve:
		return "reserve"
	}
	return fmt.Sprintf("growReason(%d)", int(r))
}

func (s *Set[T]) checkInvariants() {
	if invariants {
		s.buckets.checkInvariants()
		capacity := s.buckets.Len()
		if capacity != 0 && !isTableCapacity(capacity) {
			panic(fmt.Sprintf("invariant failed: capacity %d is not a table prime", capacity))
		}
		if s.used > capacity {
			panic(fmt.Sprintf("invariant failed: used %d > capacity %d", s.used, capacity))
		}

		// For every occupied bucket, verify the cached hash and that the value
		// can be found. Count the number of occupied buckets.
		var used int
		buckets := s.buckets.Slice()
		for i := range buckets {
			b := &buckets[i]
			if b.hash == InvalidHash {
				continue
			}
			used++
			if h := s.hashOf(b.value); h != b.hash {
				panic(fmt.Sprintf("invariant failed: bucket(%d): cached hash %016x, value hashes to %016x\n%s",
					i, b.hash, h, s.debugString()))
			}
			if j := s.findIndex(b.hash, s.matcher(b.value)); j != i {
				panic(fmt.Sprintf("invariant failed: bucket(%d): %v found at %d\n%s",
					i, b.value, j, s.debugString()))
			}
		}
		if used != s.used {
			panic(fmt.Sprintf("invariant failed: found %d used buckets, but used count is %d\n%s",
				used, s.used, s.debugString()))
		}
	}
}

func (s *Set[T]) debugString() string {
	var buf strings.Builder
	buckets := s.buckets.Slice()
	fmt.Fprintf(&buf, "capacity=%d  used=%d  max-depth=%d\n", len(buckets), s.used, s.maxDepth)
	for i := range buckets {
		b := &buckets[i]
		if b.hash == InvalidHash {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		} else {
			fmt.Fprintf(&buf, "  %4d: %v [hash=%016x]\n", i, b.value, b.hash)
		}
	}
	return buf.String()
}

// probeSeq maintains the state for a probe sequence over a bucket array of
// the given capacity. The first probe is hash mod capacity. The following
// rehashProbes probes rehash the running hash; a rehash landing back on
// the first bucket is nudged forward once and ends the rehash phase the
// second time. The sequence then probes linearly from the last bucket
// until every bucket has been visited.
type probeSeq struct {
	hash     uint64
	capacity uint64
	start    uint64
	offset   uint64
	// index is the probe position: 0 for the first probe.
	index int
	// linear is the number of linear probes taken so far.
	linear int
	nudged bool
	// rehashed is set once the rehash phase has ended.
	rehashed bool
}

func makeProbeSeq(hash uint64, capacity int) probeSeq {
	c := uint64(capacity)
	var offset uint64
	if c > 0 {
		offset = hash % c
	}
	return probeSeq{
		hash:     hash,
		capacity: c,
		start:    offset,
		offset:   offset,
	}
}

func (s probeSeq) next() probeSeq {
	s.index++
	if !s.rehashed && s.index <= rehashProbes {
		s.hash = Rehash(s.hash)
		s.offset = s.hash % s.capacity
		if s.offset != s.start {
			return s
		}
		if !s.nudged {
			s.nudged = true
			s.offset = (s.offset + 1) % s.capacity
			return s
		}
	}
	s.rehashed = true
	s.linear++
	s.offset = (s.offset + 1) % s.capacity
	return s
}

// done reports whether every bucket has been visited.
func (s probeSeq) done() bool {
	return s.capacity == 0 || s.linear >= int(s.capacity)
}

func (s probeSeq) String() string {
	return fmt.Sprintf("capacity=%d offset=%d index=%d linear=%d", s.capacity, s.offset, s.index, s.linear)
}
