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

// Package vm provides the metering hooks an external bytecode engine drives
// at module-parse, instantiation and per-instruction execution points. The
// package never decodes or executes bytecode itself; it prices the work the
// engine reports, against the shared Budget, before the engine performs it.
package vm

import (
	stderrors "errors"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
)

// ModuleState tracks one executing module through its lifecycle.
type ModuleState int32

const (
	StateUnparsed ModuleState = iota
	StateParsed
	StateInstantiated
	StateRunning
	StateHalted
)

func (s ModuleState) String() string {
	switch s {
	case StateUnparsed:
		return "unparsed"
	case StateParsed:
		return "parsed"
	case StateInstantiated:
		return "instantiated"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	default:
		return "ModuleState(?)"
	}
}

// HaltReason says how a halted module ended.
type HaltReason int32

const (
	HaltOk HaltReason = iota
	HaltTrap
	HaltBudgetExceeded
)

func (r HaltReason) String() string {
	switch r {
	case HaltOk:
		return "ok"
	case HaltTrap:
		return "trap"
	case HaltBudgetExceeded:
		return "budget exceeded"
	default:
		return "HaltReason(?)"
	}
}

// SectionStats are the per-section counts of a parsed module. Each dimension
// is charged under its own CostType so a module disproportionately heavy in
// one dimension cannot evade metering by being light in the others.
type SectionStats struct {
	Instructions uint64
	Functions    uint64
	Globals      uint64
	TableEntries uint64
	Imports      uint64
	Exports      uint64
	DataSegments uint64
	MemPages     uint64
}

// Hooks is the callback surface the external engine drives. All charges go
// through the one shared Budget; a failed charge halts the module with
// HaltBudgetExceeded and the halt is sticky: every later callback returns
// the original error, so no instruction executes past the halt.
type Hooks struct {
	budget  *budget.Budget
	state   ModuleState
	reason  HaltReason
	haltErr error
}

// NewHooks creates hooks for one module execution over the shared budget.
func NewHooks(b *budget.Budget) *Hooks {
	return &Hooks{budget: b, state: StateUnparsed}
}

func (h *Hooks) State() ModuleState { return h.state }
func (h *Hooks) Reason() HaltReason { return h.reason }

// Err returns the terminal error for a halted module, nil when HaltOk.
func (h *Hooks) Err() error { return h.haltErr }

// OnParse is invoked before the engine parses the module. The whole code
// size is charged up front so an oversized module is rejected before any
// parsing work happens.
func (h *Hooks) OnParse(code []byte) error {
	if h.state != StateUnparsed {
		return h.transitionError(StateParsed)
	}
	if err := h.charge(budget.VmInstantiation, uint64(len(code))); err != nil {
		return err
	}
	h.state = StateParsed
	return nil
}

// OnInstantiate is invoked after parse with the module's per-section counts
// and before the engine instantiates it.
func (h *Hooks) OnInstantiate(stats SectionStats) error {
	if h.state != StateParsed {
		return h.transitionError(StateInstantiated)
	}
	dims := []struct {
		ct    budget.CostType
		count uint64
	}{
		{budget.VmInstantiateInstructions, stats.Instructions},
		{budget.VmInstantiateFunctions, stats.Functions},
		{budget.VmInstantiateGlobals, stats.Globals},
		{budget.VmInstantiateTableEntries, stats.TableEntries},
		{budget.VmInstantiateImports, stats.Imports},
		{budget.VmInstantiateExports, stats.Exports},
		{budget.VmInstantiateDataSegments, stats.DataSegments},
		{budget.VmInstantiateMemPages, stats.MemPages},
	}
	for _, d := range dims {
		if err := h.charge(d.ct, d.count); err != nil {
			return err
		}
	}
	h.state = StateInstantiated
	return nil
}

// OnExecutionStart is invoked when the engine begins running an exported
// function; the dispatch itself is charged.
func (h *Hooks) OnExecutionStart() error {
	if h.state != StateInstantiated {
		return h.transitionError(StateRunning)
	}
	if err := h.charge(budget.InvokeVmFunction, 0); err != nil {
		return err
	}
	h.state = StateRunning
	return nil
}

// OnInstruction is invoked per executed instruction. The concrete opcode is
// classified into its instruction class and charged with input size 1.
func (h *Hooks) OnInstruction(op Opcode) error {
	return h.OnInstructions(op, 1)
}

// OnInstructions batches a straight-line run of n instructions of one
// class. Semantically identical to n OnInstruction calls.
func (h *Hooks) OnInstructions(op Opcode, n uint64) error {
	if h.state == StateHalted {
		return h.haltErr
	}
	if h.state != StateRunning {
		return errors.WrapModuleState(h.state.String(), StateRunning.String())
	}
	if err := h.budget.ChargeRepeated(Classify(op), 1, n); err != nil {
		h.halt(err)
		return err
	}
	return nil
}

// OnImportedCall is invoked instead of OnInstruction for call instructions
// the engine knows resolve to an imported host function; their true cost is
// far above a local call's.
func (h *Hooks) OnImportedCall() error {
	if h.state == StateHalted {
		return h.haltErr
	}
	if h.state != StateRunning {
		return errors.WrapModuleState(h.state.String(), StateRunning.String())
	}
	if err := h.budget.Charge(budget.WasmInsnCallImport, 1); err != nil {
		h.halt(err)
		return err
	}
	return nil
}

// OnHalt transitions a running module to Halted with the engine's outcome.
// A module already halted by a failed charge keeps its budget outcome.
func (h *Hooks) OnHalt(err error) {
	if h.state == StateHalted {
		return
	}
	h.halt(err)
}

func (h *Hooks) charge(ct budget.CostType, size uint64) error {
	if err := h.budget.Charge(ct, size); err != nil {
		h.halt(err)
		return err
	}
	return nil
}

func (h *Hooks) halt(err error) {
	h.state = StateHalted
	h.haltErr = err
	switch {
	case err == nil:
		h.reason = HaltOk
	case stderrors.Is(err, errors.ErrBudgetExceeded):
		h.reason = HaltBudgetExceeded
	default:
		h.reason = HaltTrap
	}
}

func (h *Hooks) transitionError(to ModuleState) error {
	if h.state == StateHalted && h.haltErr != nil {
		return h.haltErr
	}
	return errors.WrapModuleState(h.state.String(), to.String())
}
