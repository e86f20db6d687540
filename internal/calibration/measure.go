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
	"math/rand"
	"runtime"
	"time"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/logger"
)

// Measurer runs the measurement loop. The cpu proxy is wall nanoseconds per
// iteration; the memory proxy is heap bytes allocated per iteration. Both
// are measured against a no-op baseline loop and the baseline subtracted,
// so fixed harness overhead never leaks into coefficients.
type Measurer struct {
	// Iterations is the RunIter count per observation.
	Iterations int
	// Cases is how many random cases each observation cycles through.
	Cases int

	rng *rand.Rand
}

// NewMeasurer seeds the harness. Calibration is offline; a fixed seed makes
// a run reproducible.
func NewMeasurer(seed int64) *Measurer {
	return &Measurer{
		Iterations: 1 << 12,
		Cases:      8,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Measure produces one observation per size, baseline-subtracted.
func (m *Measurer) Measure(gen CaseGenerator, sizes []uint64) []Observation {
	baseCPU, baseMem := m.measureRaw(noopGen{}, 0)
	obs := make([]Observation, 0, len(sizes))
	for _, size := range sizes {
		cpu, mem := m.measureRaw(gen, size)
		o := Observation{
			CostType:   gen.CostType(),
			InputSize:  size,
			CPU:        satSub(cpu, baseCPU),
			Mem:        satSub(mem, baseMem),
			Iters:      uint64(m.Iterations),
			MeasuredAt: time.Now().UTC(),
		}
		logger.Logger.Debug("measured cost case",
			"cost_type", o.CostType.String(),
			"input_size", o.InputSize,
			"cpu", o.CPU,
			"mem", o.Mem)
		obs = append(obs, o)
	}
	return obs
}

func (m *Measurer) measureRaw(gen CaseGenerator, size uint64) (cpu, mem uint64) {
	samples := make([]any, m.Cases)
	for i := range samples {
		samples[i] = gen.NewRandomCase(m.rng, size)
	}

	runtime.GC()
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	start := time.Now()
	for i := 0; i < m.Iterations; i++ {
		gen.RunIter(samples[i%len(samples)])
	}
	elapsed := time.Since(start)

	runtime.ReadMemStats(&after)

	iters := uint64(m.Iterations)
	cpu = uint64(elapsed.Nanoseconds()) / iters
	mem = (after.TotalAlloc - before.TotalAlloc) / iters
	return cpu, mem
}

// noopGen is the baseline: the loop with nothing in it.
type noopGen struct{}

func (noopGen) CostType() budget.CostType            { return budget.ChargeBudget }
func (noopGen) NewRandomCase(*rand.Rand, uint64) any { return nil }
func (noopGen) RunIter(any)                          {}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
