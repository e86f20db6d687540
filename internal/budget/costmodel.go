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

package budget

import "math"

// CostModel maps an operation's input size to an integer cost:
//
//	cost(n) = ConstTerm + LinearTerm*n
//
// Coefficients come from offline calibration and are rounded up there, never
// down, so the model never undercharges. Integer arithmetic only; all
// operations saturate instead of wrapping so an adversarial size cannot
// overflow into a cheap charge.
type CostModel struct {
	ConstTerm  uint64 `json:"const"`
	LinearTerm uint64 `json:"linear"`
}

// Eval computes the cost for input size n. Monotonic non-decreasing in n.
func (m CostModel) Eval(n uint64) uint64 {
	return satAdd(m.ConstTerm, satMul(m.LinearTerm, n))
}

// IsZero reports whether the model charges nothing at any size.
func (m CostModel) IsZero() bool {
	return m.ConstTerm == 0 && m.LinearTerm == 0
}

// CostModelPair holds the CPU and memory models for one CostType.
type CostModelPair struct {
	CPU CostModel `json:"cpu"`
	Mem CostModel `json:"mem"`
}

func satAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}
