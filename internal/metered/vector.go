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

// Package metered wraps persistent, structurally-shared collections so that
// every operation charges the Budget before touching the structure. The
// calibrated charge is authoritative: actual wall-clock cost of the shared
// structure is irrelevant to consensus.
//
// Wrappers have value semantics. Mutating operations return a new wrapper
// sharing structure with the old one; on a failed charge the old wrapper is
// untouched and no partial structural change is observable.
package metered

import (
	"github.com/benbjohnson/immutable"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
)

// entryChargeCap bounds the size fed into entry-access models. Entry access
// on the underlying trees is logarithmic; the model approximates it as a
// constant by evaluating at the capped size, keeping the charge computation
// O(1) and deterministic.
const entryChargeCap uint64 = 1 << 16

func cappedLen(n int) uint64 {
	if uint64(n) > entryChargeCap {
		return entryChargeCap
	}
	return uint64(n)
}

// Vector is a persistent vector charging VecNew/VecEntry against its Budget.
type Vector[T any] struct {
	budget *budget.Budget
	list   *immutable.List[T]
}

// NewVector creates an empty metered vector, charging the construction.
func NewVector[T any](b *budget.Budget) (Vector[T], error) {
	if err := b.Charge(budget.VecNew, 0); err != nil {
		return Vector[T]{}, err
	}
	return Vector[T]{budget: b, list: immutable.NewList[T]()}, nil
}

// NewVectorFromSlice bulk-constructs a metered vector, charging linear in
// the element count before materializing.
func NewVectorFromSlice[T any](b *budget.Budget, items []T) (Vector[T], error) {
	if err := b.Charge(budget.VecNew, uint64(len(items))); err != nil {
		return Vector[T]{}, err
	}
	builder := immutable.NewListBuilder[T]()
	for _, it := range items {
		builder.Append(it)
	}
	return Vector[T]{budget: b, list: builder.List()}, nil
}

func (v Vector[T]) Len() int {
	if v.list == nil {
		return 0
	}
	return v.list.Len()
}

// Get charges one entry access and returns the element at index i.
func (v Vector[T]) Get(i int) (T, error) {
	var zero T
	if err := v.budget.Charge(budget.VecEntry, cappedLen(v.Len())); err != nil {
		return zero, err
	}
	if i < 0 || i >= v.Len() {
		return zero, errors.WrapContractMsg("vector index out of range")
	}
	return v.list.Get(i), nil
}

// Set charges one entry access and returns a new vector with index i
// replaced. The receiver is unchanged.
func (v Vector[T]) Set(i int, value T) (Vector[T], error) {
	if err := v.budget.Charge(budget.VecEntry, cappedLen(v.Len())); err != nil {
		return Vector[T]{}, err
	}
	if i < 0 || i >= v.Len() {
		return Vector[T]{}, errors.WrapContractMsg("vector index out of range")
	}
	return Vector[T]{budget: v.budget, list: v.list.Set(i, value)}, nil
}

// Append charges one entry access and returns a new vector with value at the
// end.
func (v Vector[T]) Append(value T) (Vector[T], error) {
	if err := v.budget.Charge(budget.VecEntry, cappedLen(v.Len())); err != nil {
		return Vector[T]{}, err
	}
	list := v.list
	if list == nil {
		list = immutable.NewList[T]()
	}
	return Vector[T]{budget: v.budget, list: list.Append(value)}, nil
}

// Range visits every element in index order. The full traversal is charged
// up front, so a failed charge observes nothing.
func (v Vector[T]) Range(fn func(i int, value T) bool) error {
	n := v.Len()
	if err := v.budget.ChargeRepeated(budget.VecEntry, cappedLen(n), uint64(n)); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	itr := v.list.Iterator()
	for !itr.Done() {
		i, value := itr.Next()
		if !fn(i, value) {
			return nil
		}
	}
	return nil
}

// Materialize charges linear in length and copies the contents out into a
// plain slice.
func (v Vector[T]) Materialize() ([]T, error) {
	n := v.Len()
	if err := v.budget.Charge(budget.VecNew, uint64(n)); err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	if n == 0 {
		return out, nil
	}
	itr := v.list.Iterator()
	for !itr.Done() {
		_, value := itr.Next()
		out = append(out, value)
	}
	return out, nil
}
