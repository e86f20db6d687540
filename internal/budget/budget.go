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

import (
	"github.com/dotandev/soromet/internal/errors"
)

// meter tracks one resource dimension.
type meter struct {
	consumed uint64
	limit    uint64
}

// wouldExceed reports whether adding amount pushes consumed past the limit.
func (m *meter) wouldExceed(amount uint64) bool {
	return satAdd(m.consumed, amount) > m.limit
}

// tracker records per-CostType consumption for diagnostics and tests. It is
// never consulted for enforcement.
type tracker struct {
	count uint64
	cpu   uint64
	mem   uint64
}

// Budget is the single enforcement point for all resource charges during one
// top-level execution. It owns the calibrated cost table and the consumed
// and limit counters for CPU and memory.
//
// One Budget serves an entire synchronous call tree: nested cross-contract
// frames share the same *Budget handle and have no private allowance. The
// Budget is not safe for concurrent use; the execution model is
// single-threaded by construction.
type Budget struct {
	table    *CostTable
	cpu      meter
	mem      meter
	trackers [numCostTypes]tracker
}

// NewBudget creates a Budget over the default cost table.
func NewBudget(cpuLimit, memLimit uint64) *Budget {
	return NewBudgetWithTable(DefaultCostTable(), cpuLimit, memLimit)
}

// NewBudgetWithTable creates a Budget over an explicit, already-validated
// cost table.
func NewBudgetWithTable(table *CostTable, cpuLimit, memLimit uint64) *Budget {
	return &Budget{
		table: table,
		cpu:   meter{limit: cpuLimit},
		mem:   meter{limit: memLimit},
	}
}

// Charge prices one operation of the given CostType at the given input size
// and debits the CPU and memory meters. Charging happens before the caller
// performs the associated work: a charge that would exceed either limit
// returns ErrBudgetExceeded and leaves both meters untouched, so no partial
// charge is ever visible and no unbudgeted allocation ever happens.
func (b *Budget) Charge(ct CostType, size uint64) error {
	return b.chargeRepeated(ct, size, 1)
}

// ChargeRepeated batches n identical charges of (ct, size) into a single
// meter update. Used by per-instruction metering where the engine reports a
// run of instructions of one class. Equivalent to n successive Charge calls
// except the ChargeBudget overhead is applied once per batch.
func (b *Budget) ChargeRepeated(ct CostType, size, n uint64) error {
	if n == 0 {
		return nil
	}
	return b.chargeRepeated(ct, size, n)
}

func (b *Budget) chargeRepeated(ct CostType, size, n uint64) error {
	model := b.table.Model(ct)

	cpu := satMul(n, model.CPU.Eval(size))
	mem := satMul(n, model.Mem.Eval(size))

	// The act of charging is itself work; priced once per call under
	// ChargeBudget (which must not recurse into itself).
	if ct != ChargeBudget {
		overhead := b.table.Model(ChargeBudget)
		cpu = satAdd(cpu, overhead.CPU.Eval(1))
		mem = satAdd(mem, overhead.Mem.Eval(1))
	}

	if b.cpu.wouldExceed(cpu) {
		return errors.WrapBudgetExceeded("cpu", cpu, b.cpu.consumed, b.cpu.limit)
	}
	if b.mem.wouldExceed(mem) {
		return errors.WrapBudgetExceeded("mem", mem, b.mem.consumed, b.mem.limit)
	}

	b.cpu.consumed += cpu
	b.mem.consumed += mem

	t := &b.trackers[ct]
	t.count += n
	t.cpu = satAdd(t.cpu, cpu)
	t.mem = satAdd(t.mem, mem)
	return nil
}

// ResetLimits reinitializes the limits and zeroes all consumption, including
// the per-type trackers. Called exactly once at the top of a fresh
// execution, never mid-flight.
func (b *Budget) ResetLimits(cpuLimit, memLimit uint64) {
	b.cpu = meter{limit: cpuLimit}
	b.mem = meter{limit: memLimit}
	b.trackers = [numCostTypes]tracker{}
}

func (b *Budget) CPUConsumed() uint64 { return b.cpu.consumed }
func (b *Budget) MemConsumed() uint64 { return b.mem.consumed }
func (b *Budget) CPULimit() uint64    { return b.cpu.limit }
func (b *Budget) MemLimit() uint64    { return b.mem.limit }

// Table exposes the cost table the Budget charges against.
func (b *Budget) Table() *CostTable { return b.table }

// TrackerCount returns how many times ct has been charged.
func (b *Budget) TrackerCount(ct CostType) uint64 {
	if !ct.Valid() {
		return 0
	}
	return b.trackers[ct].count
}

// TrackerCPU returns the total CPU debited under ct, overhead included.
func (b *Budget) TrackerCPU(ct CostType) uint64 {
	if !ct.Valid() {
		return 0
	}
	return b.trackers[ct].cpu
}

// Usage is a point-in-time consumption summary for diagnostics and CLI
// output. Percentages are derived and never feed back into charging.
type Usage struct {
	CPUConsumed        uint64  `json:"cpu_consumed"`
	CPULimit           uint64  `json:"cpu_limit"`
	MemConsumed        uint64  `json:"mem_consumed"`
	MemLimit           uint64  `json:"mem_limit"`
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
}

// Usage snapshots the current consumption.
func (b *Budget) Usage() Usage {
	u := Usage{
		CPUConsumed: b.cpu.consumed,
		CPULimit:    b.cpu.limit,
		MemConsumed: b.mem.consumed,
		MemLimit:    b.mem.limit,
	}
	if u.CPULimit > 0 {
		u.CPUUsagePercent = float64(u.CPUConsumed) / float64(u.CPULimit) * 100
	}
	if u.MemLimit > 0 {
		u.MemoryUsagePercent = float64(u.MemConsumed) / float64(u.MemLimit) * 100
	}
	return u
}
