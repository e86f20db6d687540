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

package calibration

import (
	"fmt"
	"math"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
)

// Fit derives the cpu and mem CostModels from one cost type's
// observations. Coefficients are rounded up and clamped non-negative, so a
// fitted model never undercharges relative to its own fit line and stays
// monotonic by construction.
func Fit(obs []Observation) (budget.CostModelPair, error) {
	var pair budget.CostModelPair
	cpu, err := fitSeries(obs, func(o Observation) uint64 { return o.CPU })
	if err != nil {
		return pair, err
	}
	mem, err := fitSeries(obs, func(o Observation) uint64 { return o.Mem })
	if err != nil {
		return pair, err
	}
	pair.CPU = cpu
	pair.Mem = mem
	return pair, nil
}

func fitSeries(obs []Observation, proxy func(Observation) uint64) (budget.CostModel, error) {
	type point struct{ x, y float64 }
	seen := make(map[uint64]bool)
	points := make([]point, 0, len(obs))
	for _, o := range obs {
		if seen[o.InputSize] {
			continue
		}
		seen[o.InputSize] = true
		points = append(points, point{x: float64(o.InputSize), y: float64(proxy(o))})
	}
	if len(points) < 2 {
		return budget.CostModel{}, fmt.Errorf("fit needs observations at 2 or more distinct sizes, got %d", len(points))
	}

	var slope, intercept float64
	if len(points) == 2 {
		slope = (points[1].y - points[0].y) / (points[1].x - points[0].x)
		intercept = points[0].y - slope*points[0].x
	} else {
		var sumX, sumY, sumXY, sumXX float64
		for _, p := range points {
			sumX += p.x
			sumY += p.y
			sumXY += p.x * p.y
			sumXX += p.x * p.x
		}
		n := float64(len(points))
		denom := n*sumXX - sumX*sumX
		slope = (n*sumXY - sumX*sumY) / denom
		intercept = (sumY - slope*sumX) / n
	}

	return budget.CostModel{
		ConstTerm:  ceilNonNegative(intercept),
		LinearTerm: ceilNonNegative(slope),
	}, nil
}

func ceilNonNegative(v float64) uint64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return uint64(math.Ceil(v))
}

// CheckConsistency re-validates a fitted model against fresh observations.
// Any point the model undercharges is fatal for the calibration run; the
// runtime never performs this check.
func CheckConsistency(ct budget.CostType, pair budget.CostModelPair, obs []Observation) error {
	for _, o := range obs {
		if modeled := pair.CPU.Eval(o.InputSize); o.CPU > modeled {
			return errors.WrapCalibrationInconsistency(ct.String(), o.InputSize, o.CPU, modeled)
		}
		if modeled := pair.Mem.Eval(o.InputSize); o.Mem > modeled {
			return errors.WrapCalibrationInconsistency(ct.String(), o.InputSize, o.Mem, modeled)
		}
	}
	return nil
}
