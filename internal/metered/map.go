// Copyright (c) 2026 dotandev
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metered

import (
	"errors"

	"github.com/benbjohnson/immutable"

	"github.com/dotandev/soromet/internal/budget"
)

var errMismatchedPairs = errors.New("metered: keys and values length mismatch")

// SortedMap is a persistent ordered map charging MapNew/MapEntry against its
// Budget. Iteration order is key order, never insertion or hash order, so
// any charge or control flow derived from traversal is reproducible across
// nodes.
type SortedMap[K comparable, V any] struct {
	budget *budget.Budget
	m      *immutable.SortedMap[K, V]
}

// NewSortedMap creates an empty metered map. A nil comparer is accepted for
// ordered builtin key types (the library supplies the natural order).
func NewSortedMap[K comparable, V any](b *budget.Budget, comparer immutable.Comparer[K]) (SortedMap[K, V], error) {
	if err := b.Charge(budget.MapNew, 0); err != nil {
		return SortedMap[K, V]{}, err
	}
	return SortedMap[K, V]{budget: b, m: immutable.NewSortedMap[K, V](comparer)}, nil
}

// NewSortedMapFromPairs bulk-constructs a metered map, charging linear in
// the pair count before materializing. Later duplicates win, matching
// repeated Set calls.
func NewSortedMapFromPairs[K comparable, V any](b *budget.Budget, comparer immutable.Comparer[K], keys []K, values []V) (SortedMap[K, V], error) {
	if len(keys) != len(values) {
		return SortedMap[K, V]{}, errMismatchedPairs
	}
	if err := b.Charge(budget.MapNew, uint64(len(keys))); err != nil {
		return SortedMap[K, V]{}, err
	}
	builder := immutable.NewSortedMapBuilder[K, V](comparer)
	for i, k := range keys {
		builder.Set(k, values[i])
	}
	return SortedMap[K, V]{budget: b, m: builder.Map()}, nil
}

func (s SortedMap[K, V]) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Get charges one entry access and looks the key up.
func (s SortedMap[K, V]) Get(key K) (V, bool, error) {
	var zero V
	if err := s.budget.Charge(budget.MapEntry, cappedLen(s.Len())); err != nil {
		return zero, false, err
	}
	value, ok := s.m.Get(key)
	return value, ok, nil
}

// Has charges one entry access and reports presence.
func (s SortedMap[K, V]) Has(key K) (bool, error) {
	if err := s.budget.Charge(budget.MapEntry, cappedLen(s.Len())); err != nil {
		return false, err
	}
	_, ok := s.m.Get(key)
	return ok, nil
}

// Set charges one entry access and returns a new map with key bound to
// value. The receiver is unchanged.
func (s SortedMap[K, V]) Set(key K, value V) (SortedMap[K, V], error) {
	if err := s.budget.Charge(budget.MapEntry, cappedLen(s.Len())); err != nil {
		return SortedMap[K, V]{}, err
	}
	return SortedMap[K, V]{budget: s.budget, m: s.m.Set(key, value)}, nil
}

// Delete charges one entry access and returns a new map without key.
// Deleting an absent key yields a map equal to the receiver; the charge
// still applies, the probe is the work.
func (s SortedMap[K, V]) Delete(key K) (SortedMap[K, V], error) {
	if err := s.budget.Charge(budget.MapEntry, cappedLen(s.Len())); err != nil {
		return SortedMap[K, V]{}, err
	}
	return SortedMap[K, V]{budget: s.budget, m: s.m.Delete(key)}, nil
}

// Range visits every pair in ascending key order. The full traversal is
// charged up front.
func (s SortedMap[K, V]) Range(fn func(key K, value V) bool) error {
	n := s.Len()
	if err := s.budget.ChargeRepeated(budget.MapEntry, cappedLen(n), uint64(n)); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	itr := s.m.Iterator()
	for !itr.Done() {
		key, value, _ := itr.Next()
		if !fn(key, value) {
			return nil
		}
	}
	return nil
}
