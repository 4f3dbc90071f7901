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

import "go.uber.org/zap"

// Allocator specifies an interface for allocating and releasing the
// backing storage of an Array (and of the bucket array of a Set or Map).
// The default allocator utilizes Go's builtin make() and allows the GC to
// reclaim memory.
//
// If the allocator is manually managing memory and requires that storage
// be freed then Close must be called on the container in order to ensure
// Free is called for the final allocation. Growing a container always
// frees the storage it replaces.
type Allocator[T any] interface {
	// Alloc should return a slice equivalent to make([]T, n).
	Alloc(n int) []T

	// Free can optionally release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by Alloc. Every
	// element of v has already been destroyed or moved out.
	Free(v []T)
}

type defaultAllocator[T any] struct{}

func (defaultAllocator[T]) Alloc(n int) []T {
	return make([]T, n)
}

func (defaultAllocator[T]) Free(v []T) {
}

// ArrayOption configures an Array while it is being created.
type ArrayOption[T any] interface {
	apply(a *Array[T])
}

type allocatorOption[T any] struct {
	allocator Allocator[T]
}

func (op allocatorOption[T]) apply(a *Array[T]) {
	a.allocator = op.allocator
}

// WithAllocator is an option to specify the Allocator to use for an
// Array[T].
func WithAllocator[T any](allocator Allocator[T]) ArrayOption[T] {
	return allocatorOption[T]{allocator}
}

// SetOption configures a Set while it is being created. The options of a
// Map[K,V] are SetOption[Pair[K,V]].
type SetOption[T any] interface {
	apply(s *Set[T])
}

type bucketAllocatorOption[T any] struct {
	allocator Allocator[Bucket[T]]
}

func (op bucketAllocatorOption[T]) apply(s *Set[T]) {
	s.buckets.allocator = op.allocator
}

// WithBucketAllocator is an option to specify the Allocator used for the
// bucket array of a Set[T].
func WithBucketAllocator[T any](allocator Allocator[Bucket[T]]) SetOption[T] {
	return bucketAllocatorOption[T]{allocator}
}

type loggerOption[T any] struct {
	logger *zap.Logger
}

func (op loggerOption[T]) apply(s *Set[T]) {
	if op.logger != nil {
		s.logger = op.logger
	}
}

// WithLogger is an option to specify the logger a Set[T] reports bucket
// array rebuilds to. Rebuilds are logged at debug level. By default
// nothing is logged.
func WithLogger[T any](logger *zap.Logger) SetOption[T] {
	return loggerOption[T]{logger}
}
