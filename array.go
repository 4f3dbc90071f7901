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
	"fmt"
	"math"
)

const (
	// IndexNone is returned in place of an index when there is none to
	// return.
	IndexNone = -1

	// initialCapacity is the smallest capacity of a non-empty Array.
	initialCapacity = 4
	// minGrowCapacity is added to the geometric growth so that small
	// arrays grow by a useful amount.
	minGrowCapacity = 4
)

// Array is a growable, contiguous, index-addressable sequence of elements
// that owns its backing storage. Slots in [0, Len()) hold constructed
// elements; slots in [Len(), Cap()) are allocated but not constructed and
// are always zero.
//
// Storage is allocated lazily on first growth and never shrinks on its
// own. The zero value is an empty Array ready to use.
//
// An Array is NOT goroutine-safe.
type Array[T any] struct {
	// data holds the backing allocation. len(data) is the capacity.
	data []T
	// The number of constructed elements at the front of data.
	length int
	// The allocator to use for data. A nil allocator is the default
	// allocator.
	allocator Allocator[T]
}

// NewArray constructs a new Array with the specified initial capacity. If
// initialCapacity is 0 the array will start out with no storage and will
// allocate on the first append.
func NewArray[T any](initialCapacity int, options ...ArrayOption[T]) *Array[T] {
	a := &Array[T]{}
	a.Init(initialCapacity, options...)
	return a
}

// Init initializes an Array with the specified initial capacity and
// options, closing whatever the array held before.
func (a *Array[T]) Init(initialCapacity int, options ...ArrayOption[T]) {
	checkCount(initialCapacity)
	a.Close()
	*a = Array[T]{}
	for _, op := range options {
		op.apply(a)
	}
	if initialCapacity > 0 {
		a.Reserve(initialCapacity)
	}
	a.checkInvariants()
}

// Close destroys every element and releases the storage back to the
// configured allocator. The Array is empty and usable afterwards. Close is
// idempotent.
func (a *Array[T]) Close() {
	a.Clear()
	if a.data != nil {
		a.alloc().Free(a.data)
		a.data = nil
	}
}

// Clear destroys every element, leaving the capacity unchanged.
func (a *Array[T]) Clear() {
	destroy(a.data[:a.length])
	a.length = 0
}

// Len returns the number of elements in the array.
func (a *Array[T]) Len() int {
	return a.length
}

// Cap returns the number of elements the array can hold without
// reallocating.
func (a *Array[T]) Cap() int {
	return len(a.data)
}

// At returns the element at index i.
func (a *Array[T]) At(i int) T {
	checkIndex(i, a.length)
	return a.data[i]
}

// Ptr returns a pointer to the element at index i. The pointer is
// invalidated by any operation which changes the capacity of the array or
// moves elements.
func (a *Array[T]) Ptr(i int) *T {
	checkIndex(i, a.length)
	return &a.data[i]
}

// Set destroys the element at index i and replaces it with v.
func (a *Array[T]) Set(i int, v T) {
	checkIndex(i, a.length)
	destroyAt(&a.data[i])
	a.data[i] = v
}

// Slice returns the elements of the array. The slice aliases the backing
// storage and is only valid until the next mutation of the array.
func (a *Array[T]) Slice() []T {
	return a.data[:a.length:a.length]
}

// Append adds v to the end of the array, growing it if necessary, and
// returns the index assigned to v.
func (a *Array[T]) Append(v T) int {
	i := a.length
	if i == len(a.data) {
		a.release(a.grow(1))
	}
	a.data[i] = v
	a.length++
	a.checkInvariants()
	return i
}

// AppendSlice copy-constructs vs at the end of the array and returns the
// index of the first of them, or IndexNone if vs is empty.
func (a *Array[T]) AppendSlice(vs ...T) int {
	n := len(vs)
	if n == 0 {
		return IndexNone
	}
	i := a.length
	// vs may alias the current storage so it is only released after the
	// copies have been constructed.
	old := a.grow(n)
	constructCopy(a.data[i:i+n], vs)
	a.length += n
	a.release(old)
	a.checkInvariants()
	return i
}

// AppendUninitialized adds count slots to the end of the array without
// constructing elements in them and returns the index of the first new
// slot, or IndexNone if count is 0. The caller must construct every new
// slot (e.g. via Ptr) before reading it.
func (a *Array[T]) AppendUninitialized(count int) int {
	checkCount(count)
	if count == 0 {
		return IndexNone
	}
	a.release(a.grow(count))
	i := a.length
	a.length += count
	a.checkInvariants()
	return i
}

// AppendDefault adds count default-constructed elements to the end of the
// array and returns the index of the first, or IndexNone if count is 0.
func (a *Array[T]) AppendDefault(count int) int {
	i := a.AppendUninitialized(count)
	if i != IndexNone {
		constructDefault(a.data[i : i+count])
	}
	return i
}

// AppendZeroed adds count zero-valued elements to the end of the array and
// returns the index of the first, or IndexNone if count is 0. Unlike
// AppendDefault, Defaulter is not consulted.
func (a *Array[T]) AppendZeroed(count int) int {
	i := a.AppendUninitialized(count)
	if i != IndexNone {
		constructZero(a.data[i : i+count])
	}
	return i
}

// Reserve grows the capacity of the array to at least minCapacity. It
// never shrinks the array.
func (a *Array[T]) Reserve(minCapacity int) {
	checkCount(minCapacity)
	if minCapacity > len(a.data) {
		a.release(a.reallocate(minCapacity))
	}
	a.checkInvariants()
}

// Insert inserts v at index i, shifting the elements at and after i one
// position to the right. i may be equal to Len(), in which case Insert
// behaves like Append.
func (a *Array[T]) Insert(i int, v T) {
	a.checkInsertIndex(i)
	a.release(a.grow(1))
	relocate(a.data, i+1, i, a.length-i)
	a.data[i] = v
	a.length++
	a.checkInvariants()
}

// InsertSlice copy-constructs vs at index i, shifting the elements at and
// after i len(vs) positions to the right.
func (a *Array[T]) InsertSlice(i int, vs ...T) {
	a.checkInsertIndex(i)
	n := len(vs)
	if n == 0 {
		return
	}
	// Construct the copies up front: vs may alias the range that is about
	// to be shifted.
	copies := make([]T, n)
	constructCopy(copies, vs)

	a.release(a.grow(n))
	relocate(a.data, i+n, i, a.length-i)
	copy(a.data[i:i+n], copies)
	a.length += n
	a.checkInvariants()
}

// InsertUninitialized opens a gap of count unconstructed slots at index i.
// The caller must construct every slot in the gap before reading it.
func (a *Array[T]) InsertUninitialized(i, count int) {
	a.checkInsertIndex(i)
	checkCount(count)
	if count == 0 {
		return
	}
	a.release(a.grow(count))
	relocate(a.data, i+count, i, a.length-i)
	a.length += count
	a.checkInvariants()
}

// RemoveAt destroys the count elements starting at index i and shifts the
// remaining tail left to close the gap.
func (a *Array[T]) RemoveAt(i, count int) {
	checkCount(count)
	if i < 0 || i > a.length || count > a.length-i {
		fail(ErrIndexOutOfRange, "remove [%d,%d+%d), length %d", i, i, count, a.length)
	}
	if count == 0 {
		return
	}
	destroy(a.data[i : i+count])
	relocate(a.data, i, i+count, a.length-i-count)
	a.length -= count
	a.checkInvariants()
}

// RemoveFunc removes every element for which pred returns true and returns
// the number of elements removed. The array is walked from the back so
// that pred sees every element exactly once.
func (a *Array[T]) RemoveFunc(pred func(v T) bool) int {
	var removed int
	for i := a.length - 1; i >= 0; i-- {
		if pred(a.data[i]) {
			a.RemoveAt(i, 1)
			removed++
		}
	}
	return removed
}

// Pop removes the last element and returns it. Ownership of the element
// passes to the caller, it is not destroyed.
func (a *Array[T]) Pop() T {
	if a.length == 0 {
		fail(ErrEmpty, "pop")
	}
	a.length--
	v := a.data[a.length]
	var zero T
	a.data[a.length] = zero
	a.checkInvariants()
	return v
}

// SetLen sets the length of the array. Growing default-constructs the
// newly exposed elements; shrinking destroys the truncated ones.
func (a *Array[T]) SetLen(n int) {
	checkCount(n)
	switch {
	case n > a.length:
		a.release(a.grow(n - a.length))
		constructDefault(a.data[a.length:n])
	case n < a.length:
		destroy(a.data[n:a.length])
	}
	a.length = n
	a.checkInvariants()
}

// Find returns a pointer to the first element for which pred returns true.
func (a *Array[T]) Find(pred func(v T) bool) (*T, bool) {
	if i := a.IndexFunc(pred); i != IndexNone {
		return &a.data[i], true
	}
	return nil, false
}

// IndexFunc returns the index of the first element for which pred returns
// true, or IndexNone.
func (a *Array[T]) IndexFunc(pred func(v T) bool) int {
	for i := 0; i < a.length; i++ {
		if pred(a.data[i]) {
			return i
		}
	}
	return IndexNone
}

// ContainsFunc reports whether pred returns true for some element.
func (a *Array[T]) ContainsFunc(pred func(v T) bool) bool {
	return a.IndexFunc(pred) != IndexNone
}

// Index returns the index of the first element of a equal to v, or
// IndexNone.
func Index[T comparable](a *Array[T], v T) int {
	return a.IndexFunc(func(e T) bool { return e == v })
}

// Contains reports whether a holds an element equal to v.
func Contains[T comparable](a *Array[T], v T) bool {
	return Index(a, v) != IndexNone
}

// All calls yield sequentially for each index and element in the array.
// If yield returns false, iteration stops.
func (a *Array[T]) All(yield func(i int, v T) bool) {
	for i := 0; i < a.length; i++ {
		if !yield(i, a.data[i]) {
			return
		}
	}
}

// Clone returns a deep copy of the array in a freshly sized allocation
// from the same allocator. Elements are copied with Cloner when they
// implement it.
func (a *Array[T]) Clone() *Array[T] {
	c := &Array[T]{allocator: a.allocator}
	if a.length > 0 {
		c.data = c.alloc().Alloc(a.length)
		constructCopy(c.data, a.data[:a.length])
		c.length = a.length
	}
	c.checkInvariants()
	return c
}

// MoveFrom closes a and transfers the storage and elements of src to it.
// src is left empty with no storage.
func (a *Array[T]) MoveFrom(src *Array[T]) {
	if a == src {
		return
	}
	a.Close()
	*a = *src
	*src = Array[T]{allocator: src.allocator}
	a.checkInvariants()
}

// String implements fmt.Stringer.
func (a *Array[T]) String() string {
	return fmt.Sprint(a.Slice())
}

// NextCapacity returns the capacity an array of capacity current grows to
// when it needs room for additional more elements. Growth is geometric at
// roughly 1.6x once the array is non-trivially sized, and always at least
// current+additional.
func NextCapacity(current, additional int) int {
	checkCount(current)
	checkCount(additional)
	if current == 0 {
		return max(additional, initialCapacity)
	}
	if additional > math.MaxInt-current {
		return math.MaxInt
	}
	// floor(3*current/5) without overflowing.
	growth := current/5*3 + current%5*3/5
	desired := math.MaxInt
	if current <= math.MaxInt-growth-minGrowCapacity {
		desired = current + growth + minGrowCapacity
	}
	return max(desired, current+additional)
}

func (a *Array[T]) alloc() Allocator[T] {
	if a.allocator == nil {
		return defaultAllocator[T]{}
	}
	return a.allocator
}

func (a *Array[T]) checkInsertIndex(i int) {
	if i < 0 || i > a.length {
		fail(ErrIndexOutOfRange, "insert at %d, length %d", i, a.length)
	}
}

// grow makes room for count more elements, returning the replaced storage
// (if any) which the caller must pass to release once it is done reading
// from it.
func (a *Array[T]) grow(count int) []T {
	if count > math.MaxInt-a.length {
		fail(ErrCapacityOverflow, "length %d + %d", a.length, count)
	}
	if a.length+count <= len(a.data) {
		return nil
	}
	return a.reallocate(NextCapacity(len(a.data), count))
}

// reallocate moves the elements into a fresh allocation of the given
// capacity and returns the previous storage.
func (a *Array[T]) reallocate(capacity int) []T {
	data := a.alloc().Alloc(capacity)
	if len(data) != capacity {
		panic(fmt.Sprintf("allocator returned %d slots, expected %d", len(data), capacity))
	}
	copy(data, a.data[:a.length])
	old := a.data
	a.data = data
	return old
}

// release returns storage replaced by grow or reallocate to the allocator.
// The elements it held have been moved, so they are zeroed rather than
// destroyed.
func (a *Array[T]) release(old []T) {
	if old == nil {
		return
	}
	clear(old)
	a.alloc().Free(old)
}

func (a *Array[T]) checkInvariants() {
	if invariants {
		if a.length < 0 || a.length > len(a.data) {
			panic(fmt.Sprintf("invariant failed: length %d, capacity %d", a.length, len(a.data)))
		}
		if (a.data == nil) != (len(a.data) == 0) {
			panic(fmt.Sprintf("invariant failed: storage present=%t with capacity %d",
				a.data != nil, len(a.data)))
		}
	}
}
