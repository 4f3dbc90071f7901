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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingAllocator[T any] struct {
	alloc int
	free  int
}

func (a *countingAllocator[T]) Alloc(n int) []T {
	a.alloc++
	return make([]T, n)
}

func (a *countingAllocator[T]) Free(_ []T) {
	a.free++
}

func arrayOf[T any](vs ...T) *Array[T] {
	a := &Array[T]{}
	a.AppendSlice(vs...)
	return a
}

func TestNextCapacity(t *testing.T) {
	testCases := []struct {
		current, additional int
		expected            int
	}{
		{0, 0, 4},
		{0, 1, 4},
		{0, 4, 4},
		{0, 9, 9},
		{4, 1, 10},
		{5, 1, 12},
		{10, 1, 20},
		{10, 50, 60},
		{36, 1, 61},
		{61, 1, 101},
		{math.MaxInt - 1, 10, math.MaxInt},
		{math.MaxInt / 4 * 3, 1, math.MaxInt},
	}
	for _, c := range testCases {
		t.Run(fmt.Sprintf("%d+%d", c.current, c.additional), func(t *testing.T) {
			require.Equal(t, c.expected, NextCapacity(c.current, c.additional))
		})
	}

	for current := 0; current < 1000; current++ {
		for additional := 0; additional < 50; additional++ {
			next := NextCapacity(current, additional)
			require.GreaterOrEqual(t, next, current+additional)
			if current == 0 {
				require.GreaterOrEqual(t, next, max(additional, initialCapacity))
			} else {
				require.Greater(t, next, current)
			}
		}
	}

	requirePanicsWith(t, ErrNegativeCount, func() { NextCapacity(-1, 0) })
	requirePanicsWith(t, ErrNegativeCount, func() { NextCapacity(0, -1) })
}

func TestArrayZeroValue(t *testing.T) {
	var a Array[int]
	require.Equal(t, 0, a.Len())
	require.Equal(t, 0, a.Cap())
	require.Nil(t, a.data)
	require.Empty(t, a.Slice())

	a.Close()
	require.Equal(t, 0, a.Cap())
}

func TestArrayAppend(t *testing.T) {
	var a Array[int]
	var capacities []int
	for i := 0; i < 100; i++ {
		idx := a.Append(i * 10)
		require.Equal(t, i, idx)
		require.Equal(t, i+1, a.Len())
		require.Equal(t, i*10, a.At(idx))
		if n := len(capacities); n == 0 || capacities[n-1] != a.Cap() {
			capacities = append(capacities, a.Cap())
		}
	}
	require.Equal(t, []int{4, 10, 20, 36, 61, 101}, capacities)
}

func TestArrayReserve(t *testing.T) {
	for _, n := range []int{1, 4, 7, 100, 1000} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			alloc := &countingAllocator[int]{}
			a := NewArray[int](0, WithAllocator[int](alloc))
			a.Reserve(n)
			require.Equal(t, n, a.Cap())
			require.Equal(t, 1, alloc.alloc)

			for i := 0; i < n; i++ {
				a.Append(i)
			}
			require.Equal(t, n, a.Cap())
			require.Equal(t, 1, alloc.alloc)

			// Reserve never shrinks.
			a.Reserve(n / 2)
			require.Equal(t, n, a.Cap())
			require.Equal(t, 1, alloc.alloc)
		})
	}
}

func TestArrayInitialCapacity(t *testing.T) {
	a := NewArray[string](7)
	require.Equal(t, 7, a.Cap())
	require.Equal(t, 0, a.Len())

	a.Append("x")
	a.Init(0)
	require.Equal(t, 0, a.Cap())
	require.Equal(t, 0, a.Len())
}

func TestArrayAllocator(t *testing.T) {
	alloc := &countingAllocator[int]{}
	a := NewArray[int](0, WithAllocator[int](alloc))
	for i := 0; i < 100; i++ {
		a.Append(i)
	}

	// 4 -> 10 -> 20 -> 36 -> 61 -> 101
	const expected = 6
	require.EqualValues(t, expected, alloc.alloc)
	require.EqualValues(t, expected-1, alloc.free)

	a.Close()
	require.EqualValues(t, expected, alloc.free)
	a.Close()
	require.EqualValues(t, expected, alloc.free)
}

func TestArrayInsert(t *testing.T) {
	a := arrayOf(1, 2, 4, 5)
	a.Insert(2, 3)
	require.Equal(t, []int{1, 2, 3, 4, 5}, a.Slice())

	a.Insert(0, 0)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, a.Slice())

	a.Insert(a.Len(), 6)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, a.Slice())

	var empty Array[int]
	empty.Insert(0, 42)
	require.Equal(t, []int{42}, empty.Slice())

	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.Insert(-1, 0) })
	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.Insert(a.Len()+1, 0) })
}

func TestArrayInsertSlice(t *testing.T) {
	a := arrayOf(1, 5)
	a.InsertSlice(1, 2, 3, 4)
	require.Equal(t, []int{1, 2, 3, 4, 5}, a.Slice())

	a.InsertSlice(2)
	require.Equal(t, []int{1, 2, 3, 4, 5}, a.Slice())

	// Inserting an array into itself.
	b := arrayOf(1, 2, 3)
	b.Reserve(10)
	b.InsertSlice(1, b.Slice()...)
	require.Equal(t, []int{1, 1, 2, 3, 2, 3}, b.Slice())
}

func TestArrayInsertUninitialized(t *testing.T) {
	a := arrayOf(1, 4)
	a.InsertUninitialized(1, 2)
	require.Equal(t, []int{1, 0, 0, 4}, a.Slice())
	*a.Ptr(1) = 2
	*a.Ptr(2) = 3
	require.Equal(t, []int{1, 2, 3, 4}, a.Slice())

	a.InsertUninitialized(4, 0)
	require.Equal(t, 4, a.Len())
	requirePanicsWith(t, ErrNegativeCount, func() { a.InsertUninitialized(0, -1) })
}

func TestArrayRemoveAt(t *testing.T) {
	a := arrayOf(1, 2, 3, 4, 5)
	a.RemoveAt(2, 1)
	require.Equal(t, []int{1, 2, 4, 5}, a.Slice())

	a.RemoveAt(0, 2)
	require.Equal(t, []int{4, 5}, a.Slice())

	a.RemoveAt(2, 0)
	require.Equal(t, []int{4, 5}, a.Slice())

	a.RemoveAt(1, 1)
	require.Equal(t, []int{4}, a.Slice())

	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.RemoveAt(0, 2) })
	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.RemoveAt(-1, 1) })
	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.RemoveAt(2, 0) })
	requirePanicsWith(t, ErrNegativeCount, func() { a.RemoveAt(0, -1) })

	// The vacated slots are zeroed.
	a.RemoveAt(0, 1)
	require.Equal(t, 0, a.Len())
	for _, v := range a.data {
		require.Zero(t, v)
	}
}

func TestArrayInsertRemoveRoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := rand.Intn(20)
		vals := make([]int, n)
		for j := range vals {
			vals[j] = rand.Int()
		}
		a := arrayOf(vals...)
		idx := rand.Intn(n + 1)
		a.Insert(idx, -1)
		require.Equal(t, -1, a.At(idx))
		require.Equal(t, n+1, a.Len())
		a.RemoveAt(idx, 1)
		require.Equal(t, vals, append([]int{}, a.Slice()...))
	}
}

func TestArrayAppendSlice(t *testing.T) {
	var a Array[int]
	require.Equal(t, IndexNone, a.AppendSlice())
	require.Equal(t, 0, a.AppendSlice(1, 2, 3, 4))
	require.Equal(t, 4, a.Cap())

	// Appending an array to itself while it reallocates.
	require.Equal(t, 4, a.AppendSlice(a.Slice()...))
	require.Equal(t, []int{1, 2, 3, 4, 1, 2, 3, 4}, a.Slice())
}

func TestArrayAppendVariants(t *testing.T) {
	var a Array[tracked]
	require.Equal(t, IndexNone, a.AppendUninitialized(0))
	require.Equal(t, IndexNone, a.AppendDefault(0))
	require.Equal(t, IndexNone, a.AppendZeroed(0))
	require.Equal(t, 0, a.Len())

	require.Equal(t, 0, a.AppendUninitialized(2))
	require.Equal(t, 2, a.Len())
	a.Ptr(0).id = 1
	a.Ptr(1).id = 2

	require.Equal(t, 2, a.AppendDefault(2))
	require.Equal(t, 4, a.AppendZeroed(2))
	require.Equal(t, 6, a.Len())
	for i := 0; i < a.Len(); i++ {
		require.Equal(t, i == 2 || i == 3, a.At(i).defaulted, "index %d", i)
	}
	require.Equal(t, []int{1, 2, 0, 0, 0, 0}, trackedIDs(a.Slice()))

	requirePanicsWith(t, ErrNegativeCount, func() { a.AppendUninitialized(-1) })
	requirePanicsWith(t, ErrCapacityOverflow, func() { a.AppendUninitialized(math.MaxInt) })
}

func TestArraySetLen(t *testing.T) {
	counts := newLifecycleCounts()
	a := arrayOf(makeTracked(counts, 1, 2, 3)...)

	a.SetLen(5)
	require.Equal(t, 5, a.Len())
	require.False(t, a.At(2).defaulted)
	require.True(t, a.At(3).defaulted)
	require.True(t, a.At(4).defaulted)

	a.SetLen(5)
	require.Equal(t, 5, a.Len())
	require.Zero(t, counts.totalDestroyed())

	a.SetLen(1)
	require.Equal(t, []int{1}, trackedIDs(a.Slice()))
	require.Equal(t, map[int]int{2: 1, 3: 1}, counts.destroyed)

	a.SetLen(0)
	require.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, counts.destroyed)
	requirePanicsWith(t, ErrNegativeCount, func() { a.SetLen(-1) })
}

func TestArrayAccessors(t *testing.T) {
	counts := newLifecycleCounts()
	a := arrayOf(makeTracked(counts, 1, 2)...)

	a.Ptr(0).id = 10
	require.Equal(t, 10, a.At(0).id)

	a.Set(1, tracked{id: 20, counts: counts})
	require.Equal(t, []int{10, 20}, trackedIDs(a.Slice()))
	require.Equal(t, map[int]int{2: 1}, counts.destroyed)

	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.At(2) })
	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.At(-1) })
	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.Ptr(2) })
	requirePanicsWith(t, ErrIndexOutOfRange, func() { a.Set(2, tracked{}) })
}

func TestArraySearch(t *testing.T) {
	a := arrayOf(5, 8, 13, 8)

	p, ok := a.Find(func(v int) bool { return v > 6 })
	require.True(t, ok)
	require.Equal(t, 8, *p)
	*p = 9
	require.Equal(t, []int{5, 9, 13, 8}, a.Slice())

	_, ok = a.Find(func(v int) bool { return v > 100 })
	require.False(t, ok)

	require.Equal(t, 2, a.IndexFunc(func(v int) bool { return v == 13 }))
	require.Equal(t, IndexNone, a.IndexFunc(func(v int) bool { return v == 14 }))
	require.True(t, a.ContainsFunc(func(v int) bool { return v%2 == 1 }))
	require.False(t, a.ContainsFunc(func(v int) bool { return v < 0 }))

	require.Equal(t, 3, Index(a, 8))
	require.Equal(t, IndexNone, Index(a, 1))
	require.True(t, Contains(a, 13))
	require.False(t, Contains(a, 1))
}

func TestArrayRemoveFunc(t *testing.T) {
	a := arrayOf(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	var seen []int
	removed := a.RemoveFunc(func(v int) bool {
		seen = append(seen, v)
		return v%2 == 0
	})
	require.Equal(t, 5, removed)
	require.Equal(t, []int{1, 3, 5, 7, 9}, a.Slice())
	require.Equal(t, []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, seen)

	require.Equal(t, 0, a.RemoveFunc(func(v int) bool { return v > 100 }))
}

func TestArrayPop(t *testing.T) {
	counts := newLifecycleCounts()
	a := arrayOf(makeTracked(counts, 1, 2, 3)...)
	v := a.Pop()
	require.Equal(t, 3, v.id)
	require.Equal(t, 2, a.Len())
	require.Zero(t, counts.totalDestroyed())
	require.Equal(t, tracked{}, a.data[2])

	a.Pop()
	a.Pop()
	requirePanicsWith(t, ErrEmpty, func() { a.Pop() })
}

func TestArrayClone(t *testing.T) {
	counts := newLifecycleCounts()
	a := arrayOf(makeTracked(counts, 1, 2, 3)...)
	a.Reserve(100)
	cloned := counts.cloned

	c := a.Clone()
	require.Equal(t, cloned+3, counts.cloned)
	require.Equal(t, trackedIDs(a.Slice()), trackedIDs(c.Slice()))
	require.Equal(t, 3, c.Cap())

	c.Ptr(0).id = 100
	c.Append(tracked{id: 4})
	require.Equal(t, []int{1, 2, 3}, trackedIDs(a.Slice()))
	require.Equal(t, []int{100, 2, 3, 4}, trackedIDs(c.Slice()))

	var empty Array[int]
	ec := empty.Clone()
	require.Equal(t, 0, ec.Len())
	require.Equal(t, 0, ec.Cap())
}

func TestArrayMoveFrom(t *testing.T) {
	counts := newLifecycleCounts()
	src := arrayOf(makeTracked(counts, 1, 2)...)
	dst := arrayOf(makeTracked(counts, 9)...)
	capacity := src.Cap()

	dst.MoveFrom(src)
	require.Equal(t, []int{1, 2}, trackedIDs(dst.Slice()))
	require.Equal(t, capacity, dst.Cap())
	require.Equal(t, 0, src.Len())
	require.Equal(t, 0, src.Cap())
	require.Nil(t, src.data)
	// The previous contents of dst were destroyed, the moved ones were not.
	require.Equal(t, map[int]int{9: 1}, counts.destroyed)

	dst.MoveFrom(dst)
	require.Equal(t, []int{1, 2}, trackedIDs(dst.Slice()))
}

func TestArrayClearAndClose(t *testing.T) {
	counts := newLifecycleCounts()
	a := arrayOf(makeTracked(counts, 1, 2, 3)...)
	capacity := a.Cap()

	a.Clear()
	require.Equal(t, 0, a.Len())
	require.Equal(t, capacity, a.Cap())
	require.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, counts.destroyed)

	a.AppendSlice(makeTracked(counts, 4)...)
	a.Close()
	require.Equal(t, 0, a.Cap())
	require.Equal(t, 1, counts.destroyed[4])
	require.Equal(t, 4, counts.totalDestroyed())
}

func TestArrayAll(t *testing.T) {
	a := arrayOf("a", "b", "c")
	var got []string
	a.All(func(i int, v string) bool {
		require.Equal(t, a.At(i), v)
		got = append(got, v)
		return i < 1
	})
	require.Equal(t, []string{"a", "b"}, got)
	require.Equal(t, "[a b c]", a.String())
}

func TestArrayRandom(t *testing.T) {
	var a Array[int]
	var e []int
	for i := 0; i < 10000; i++ {
		switch r := rand.Float64(); {
		case r < 0.4: // 40% appends
			v := rand.Int()
			require.Equal(t, len(e), a.Append(v))
			e = append(e, v)
		case r < 0.6: // 20% inserts
			idx, v := rand.Intn(len(e)+1), rand.Int()
			a.Insert(idx, v)
			e = append(e[:idx], append([]int{v}, e[idx:]...)...)
		case r < 0.8: // 20% removes
			if len(e) == 0 {
				continue
			}
			idx := rand.Intn(len(e))
			n := rand.Intn(len(e)-idx) + 1
			a.RemoveAt(idx, n)
			e = append(e[:idx], e[idx+n:]...)
		case r < 0.9: // 10% resizes
			n := rand.Intn(len(e) + 10)
			a.SetLen(n)
			for len(e) < n {
				e = append(e, 0)
			}
			e = e[:n]
		default: // 10% pops
			if len(e) == 0 {
				continue
			}
			require.Equal(t, e[len(e)-1], a.Pop())
			e = e[:len(e)-1]
		}
		require.Equal(t, len(e), a.Len())
		require.LessOrEqual(t, a.Len(), a.Cap())
	}
	require.Equal(t, e, append([]int{}, a.Slice()...))
}
