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

import (
	"bytes"
	"encoding/binary"
	"hash/maphash"
	"math"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/constraints"
)

// InvalidHash is the hash cached in an unoccupied bucket. Hashes computed
// for values are never equal to InvalidHash.
const InvalidHash uint64 = math.MaxUint64

// Hasher defines a hash function and an equivalence relation over values
// of type T. The following requirements are the implementer's
// responsibility:
//   - Equal(a, b) => Hash(a) == Hash(b)
//   - Hash is deterministic and pure.
//   - For good performance Hash should return uniformly distributed data
//     across the entire 64-bits of the value.
type Hasher[T any] interface {
	Hash(v T) uint64
	Equal(a, b T) bool
}

// SimilarHasher allows a table of T to be queried with a value of a
// different type Q, e.g. a table of strings queried with a []byte. For
// every v and q where Equal(v, q) holds, Hash(q) must equal the hash the
// table's Hasher[T] computes for v.
type SimilarHasher[T, Q any] interface {
	Hash(q Q) uint64
	Equal(v T, q Q) bool
}

// Rehash derives a new hash from the bytes of h. It is used to advance the
// probe sequence when a bucket is taken.
func Rehash(h uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h)
	return xxhash.Sum64(buf[:])
}

// validHash maps h onto the range of hashes which can be cached in a
// bucket.
func validHash(h uint64) uint64 {
	if h == InvalidHash {
		return InvalidHash - 1
	}
	return h
}

// StringHasher hashes strings with xxhash.
type StringHasher struct{}

func (StringHasher) Hash(v string) uint64   { return xxhash.Sum64String(v) }
func (StringHasher) Equal(a, b string) bool { return a == b }

// BytesHasher hashes byte slices by content with xxhash.
type BytesHasher struct{}

func (BytesHasher) Hash(v []byte) uint64   { return xxhash.Sum64(v) }
func (BytesHasher) Equal(a, b []byte) bool { return bytes.Equal(a, b) }

// StringBytesHasher looks up string keys using []byte queries without
// converting the query to a string. It hashes consistently with
// StringHasher.
type StringBytesHasher struct{}

func (StringBytesHasher) Hash(q []byte) uint64          { return xxhash.Sum64(q) }
func (StringBytesHasher) Equal(v string, q []byte) bool { return v == string(q) }

// IntegerHasher hashes integers by mixing their 64-bit representation.
type IntegerHasher[T constraints.Integer] struct{}

func (IntegerHasher[T]) Hash(v T) uint64   { return Rehash(uint64(v)) }
func (IntegerHasher[T]) Equal(a, b T) bool { return a == b }

// comparableSeed is shared by every ComparableHasher so that hashes are
// stable for the lifetime of the process.
var comparableSeed = maphash.MakeSeed()

// ComparableHasher hashes any comparable type using the same algorithm as
// Go's builtin map. Hashes are stable within a process but not across
// processes. Its Equal(a, b) method is consistent with a == b.
type ComparableHasher[T comparable] struct{}

func (ComparableHasher[T]) Hash(v T) uint64   { return maphash.Comparable(comparableSeed, v) }
func (ComparableHasher[T]) Equal(a, b T) bool { return a == b }

// HasherFuncs adapts a pair of functions to the Hasher interface.
type HasherFuncs[T any] struct {
	HashFunc  func(v T) uint64
	EqualFunc func(a, b T) bool
}

func (h HasherFuncs[T]) Hash(v T) uint64   { return h.HashFunc(v) }
func (h HasherFuncs[T]) Equal(a, b T) bool { return h.EqualFunc(a, b) }
