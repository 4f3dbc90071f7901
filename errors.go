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

import "github.com/pkg/errors"

// Errors used as panic values when a container is misused. They signal
// programming errors and are never returned. A recovered panic value
// wraps one of these and can be matched with errors.Is.
var (
	ErrIndexOutOfRange  = errors.New("container: index out of range")
	ErrNegativeCount    = errors.New("container: negative count")
	ErrCapacityOverflow = errors.New("container: capacity overflow")
	ErrEmpty            = errors.New("container: empty array")
	ErrInvalidGrow      = errors.New("container: invalid table growth")
	ErrKeyNotFound      = errors.New("container: key not found")
)

// fail panics with err annotated by the formatted message and a stack
// trace.
func fail(err error, format string, args ...interface{}) {
	panic(errors.Wrapf(err, format, args...))
}

func checkIndex(i, n int) {
	if uint(i) >= uint(n) {
		fail(ErrIndexOutOfRange, "index %d, length %d", i, n)
	}
}

func checkCount(n int) {
	if n < 0 {
		fail(ErrNegativeCount, "count %d", n)
	}
}
