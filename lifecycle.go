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

// Element lifecycle
//
// Go zeroes every allocation, so the containers never observe truly
// uninitialized memory. What they do control is when an element is
// considered constructed (and therefore owned) and when it is destroyed.
// Element types opt into custom behavior at those points by implementing
// the interfaces below. Types that implement none of them behave like
// plain values: the default state is the zero value, copies are
// assignments and destruction only zeroes the slot.

// Defaulter is implemented by *T for element types whose default state is
// not their zero value. SetDefaults is called on a zeroed slot whenever
// the containers default-construct an element.
type Defaulter interface {
	SetDefaults()
}

// Cloner is implemented by element types which own memory that must not
// be shared between copies. Clone is used whenever a container
// copy-constructs an element (Array.AppendSlice, Array.Clone, Set.Clone).
type Cloner[T any] interface {
	Clone() T
}

// Destroyer is implemented by *T for element types which hold resources
// that must be released when the element is destroyed. Destroy is called
// exactly once for every element a container destroys. Elements that are
// relocated within or moved out of a container are not destroyed.
type Destroyer interface {
	Destroy()
}

// hasDefaulter reports whether *T implements Defaulter.
func hasDefaulter[T any]() bool {
	_, ok := any((*T)(nil)).(Defaulter)
	return ok
}

// hasDestroyer reports whether *T implements Destroyer.
func hasDestroyer[T any]() bool {
	_, ok := any((*T)(nil)).(Destroyer)
	return ok
}

// constructDefault default-constructs every slot in s.
func constructDefault[T any](s []T) {
	clear(s)
	if !hasDefaulter[T]() {
		return
	}
	for i := range s {
		any(&s[i]).(Defaulter).SetDefaults()
	}
}

// constructDefaultAt default-constructs the single slot p.
func constructDefaultAt[T any](p *T) {
	var zero T
	*p = zero
	if d, ok := any(p).(Defaulter); ok {
		d.SetDefaults()
	}
}

// constructZero zero-constructs every slot in s.
func constructZero[T any](s []T) {
	clear(s)
}

// cloneElement copy-constructs a single element.
func cloneElement[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// constructCopy copy-constructs src into dst. The slices must have the
// same length and must not overlap.
func constructCopy[T any](dst, src []T) {
	if _, ok := any(*new(T)).(Cloner[T]); !ok {
		copy(dst, src)
		return
	}
	for i := range src {
		dst[i] = cloneElement(src[i])
	}
}

// relocate moves the n elements starting at src to dst within s. The
// ranges may overlap. Slots of the source range which are not covered by
// the destination range are zeroed without being destroyed as ownership
// of their elements has moved.
func relocate[T any](s []T, dst, src, n int) {
	if n == 0 || dst == src {
		return
	}
	copy(s[dst:dst+n], s[src:src+n])
	switch {
	case dst < src:
		// Moved left: the vacated tail of the source range is stale.
		lo := max(dst+n, src)
		clear(s[lo : src+n])
	default:
		// Moved right: the vacated head of the source range is stale.
		hi := min(dst, src+n)
		clear(s[src:hi])
	}
}

// destroy destroys every element in s and zeroes the slots.
func destroy[T any](s []T) {
	if hasDestroyer[T]() {
		for i := range s {
			any(&s[i]).(Destroyer).Destroy()
		}
	}
	clear(s)
}

// destroyAt destroys the single element p and zeroes it.
func destroyAt[T any](p *T) {
	if d, ok := any(p).(Destroyer); ok {
		d.Destroy()
	}
	var zero T
	*p = zero
}
