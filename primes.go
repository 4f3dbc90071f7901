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
	"math"
	"sort"
)

// primes is the ascending table bucket array capacities are drawn from.
// Each entry is the smallest prime >= 2*previous+1, so growing a table to
// nextPrime(2*capacity+1) moves it exactly one entry up the table. Prime
// capacities avoid the clustering a power-of-two capacity suffers when
// hash values share small factors with it.
var primes = [...]uint64{
	2, 5, 11, 23, 47, 97, 197, 397, 797, 1597, 3203, 6421, 12853,
	25717, 51437, 102877, 205759, 411527, 823117, 1646237, 3292489,
	6584983, 13169977, 26339969, 52679969, 105359939, 210719881, 421439783,
	842879579, 1685759167, 3371518343, 6743036717, 13486073473, 26972146961,
	53944293929, 107888587883, 215777175787, 431554351609, 863108703229,
	1726217406467, 3452434812973, 6904869625999, 13809739252051, 27619478504183,
	55238957008387, 110477914016779, 220955828033581, 441911656067171,
	883823312134381, 1767646624268779, 3535293248537579, 7070586497075177,
	14141172994150357, 28282345988300791, 56564691976601587, 113129383953203213,
	226258767906406483, 452517535812813007, 905035071625626043, 1810070143251252131,
	3620140286502504283,
}

// maxPrime is the largest entry of primes which fits in an int.
var maxPrime = func() int {
	for i := len(primes) - 1; i >= 0; i-- {
		if primes[i] <= math.MaxInt {
			return int(primes[i])
		}
	}
	panic("unreachable")
}()

// nextPrime returns the smallest capacity in the prime table which is >=
// n. If n exceeds every representable entry the largest one is returned.
func nextPrime(n int) int {
	if n <= 0 {
		return int(primes[0])
	}
	i := sort.Search(len(primes), func(i int) bool {
		return primes[i] >= uint64(n)
	})
	if i == len(primes) || primes[i] > math.MaxInt {
		return maxPrime
	}
	return int(primes[i])
}

// isTableCapacity reports whether n is an entry of the prime table.
func isTableCapacity(n int) bool {
	if n <= 0 {
		return false
	}
	i := sort.Search(len(primes), func(i int) bool {
		return primes[i] >= uint64(n)
	})
	return i < len(primes) && primes[i] == uint64(n)
}
