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

import "golang.org/x/exp/constraints"

// SortFunc sorts the array in place using cmp, which must return a
// negative number when a < b, a positive number when a > b and zero when
// they are equal. The sort is not stable.
func (a *Array[T]) SortFunc(cmp func(a, b T) int) {
	quickSort(a.data[:a.length], cmp)
}

// Sort sorts a in ascending order using the natural ordering of T.
func Sort[T constraints.Ordered](a *Array[T]) {
	a.SortFunc(compareOrdered[T])
}

func compareOrdered[T constraints.Ordered](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// quickSort recurses into the smaller partition and loops on the larger
// one, bounding the stack depth to O(log n).
func quickSort[T any](s []T, cmp func(a, b T) int) {
	for len(s) > 1 {
		p := partition(s, cmp)
		if p < len(s)-p-1 {
			quickSort(s[:p], cmp)
			s = s[p+1:]
		} else {
			quickSort(s[p+1:], cmp)
			s = s[:p]
		}
	}
}

// partition is a Lomuto partition of s around its last element. Elements
// less than the pivot are swapped to the front in a single forward scan
// and the pivot is placed after them. The pivot's final index is
// returned.
func partition[T any](s []T, cmp func(a, b T) int) int {
	hi := len(s) - 1
	pivot := s[hi]
	i := 0
	for j := 0; j < hi; j++ {
		if cmp(s[j], pivot) < 0 {
			s[i], s[j] = s[j], s[i]
			i++
		}
	}
	s[i], s[hi] = s[hi], s[i]
	return i
}
