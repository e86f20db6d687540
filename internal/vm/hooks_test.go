// Copyright 2026 Soromet Authors
// SPDX-License-Identifier: Apache-2.0

package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
)

// vmTable builds a table where only the named entries charge anything.
func vmTable(t *testing.T, entries ...budget.CostEntry) *budget.CostTable {
	t.Helper()
	byName := make(map[string]budget.CostEntry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}
	table := &budget.CostTable{Version: "1.0.0", Protocol: 22}
	for _, ct := range budget.CostTypes() {
		e, ok := byName[ct.String()]
		if !ok {
			e = budget.CostEntry{Name: ct.String()}
		}
		table.Entries = append(table.Entries, e)
	}
	data, err := table.ToJSON()
	require.NoError(t, err)
	parsed, err := budget.ParseCostTable(data)
	require.NoError(t, err)
	return parsed
}

func TestHooksLifecycle(t *testing.T) {
	b := budget.NewBudget(1<<40, 1<<40)
	h := NewHooks(b)
	assert.Equal(t, StateUnparsed, h.State())

	require.NoError(t, h.OnParse([]byte{0, 1, 2, 3}))
	assert.Equal(t, StateParsed, h.State())

	require.NoError(t, h.OnInstantiate(SectionStats{Functions: 1}))
	assert.Equal(t, StateInstantiated, h.State())

	require.NoError(t, h.OnExecutionStart())
	assert.Equal(t, StateRunning, h.State())

	require.NoError(t, h.OnInstruction(OpI64Const))
	h.OnHalt(nil)
	assert.Equal(t, StateHalted, h.State())
	assert.Equal(t, HaltOk, h.Reason())
	assert.NoError(t, h.Err())
}

func TestHooksRejectsOutOfOrderTransitions(t *testing.T) {
	b := budget.NewBudget(1<<40, 1<<40)
	h := NewHooks(b)

	assert.ErrorIs(t, h.OnInstantiate(SectionStats{}), errors.ErrModuleState)
	assert.ErrorIs(t, h.OnExecutionStart(), errors.ErrModuleState)
	assert.ErrorIs(t, h.OnInstruction(OpDrop), errors.ErrModuleState)

	require.NoError(t, h.OnParse(nil))
	assert.ErrorIs(t, h.OnParse(nil), errors.ErrModuleState)
}

func TestHooksChargesEachSectionDimension(t *testing.T) {
	table := vmTable(t,
		budget.CostEntry{Name: "VmInstantiateFunctions", CPU: budget.CostModel{ConstTerm: 10, LinearTerm: 100}},
		budget.CostEntry{Name: "VmInstantiateMemPages", CPU: budget.CostModel{ConstTerm: 5, LinearTerm: 1000}},
	)
	b := budget.NewBudgetWithTable(table, 1<<40, 1<<40)
	h := NewHooks(b)
	require.NoError(t, h.OnParse(nil))

	require.NoError(t, h.OnInstantiate(SectionStats{Functions: 3, MemPages: 2}))
	// Functions: 10+300. MemPages: 5+2000. Zero-count dimensions still pay
	// their const terms, here zero.
	assert.Equal(t, uint64(310+2005), b.CPUConsumed())
	assert.Equal(t, uint64(1), b.TrackerCount(budget.VmInstantiateFunctions))
	assert.Equal(t, uint64(1), b.TrackerCount(budget.VmInstantiateGlobals))
}

// A module executing 5000 const+drop instructions charges WasmInsnExec
// exactly 5000 times; with a lower limit execution halts at the precise
// instruction where the cumulative charge first exceeds it, and no later
// instruction executes.
func TestPerInstructionMeteringExactHalt(t *testing.T) {
	table := vmTable(t, budget.CostEntry{
		Name: "WasmInsnExec",
		CPU:  budget.CostModel{ConstTerm: 4},
	})

	// Full run: exactly 5000 charges.
	full := budget.NewBudgetWithTable(table, 1<<40, 1<<40)
	h := NewHooks(full)
	require.NoError(t, h.OnParse(nil))
	require.NoError(t, h.OnInstantiate(SectionStats{}))
	require.NoError(t, h.OnExecutionStart())
	for i := 0; i < 2500; i++ {
		require.NoError(t, h.OnInstruction(OpI64Const))
		require.NoError(t, h.OnInstruction(OpDrop))
	}
	assert.Equal(t, uint64(5000), full.TrackerCount(budget.WasmInsnExec))
	assert.Equal(t, uint64(20000), full.CPUConsumed())

	// Limited run: 4 per instruction, limit 10000 -> instruction 2501 is
	// the first whose cumulative charge (10004) exceeds the limit.
	limited := budget.NewBudgetWithTable(table, 10_000, 1<<40)
	h = NewHooks(limited)
	require.NoError(t, h.OnParse(nil))
	require.NoError(t, h.OnInstantiate(SectionStats{}))
	require.NoError(t, h.OnExecutionStart())

	var executed int
	var haltErr error
	for i := 0; i < 5000; i++ {
		op := OpI64Const
		if i%2 == 1 {
			op = OpDrop
		}
		if err := h.OnInstruction(op); err != nil {
			haltErr = err
			break
		}
		executed++
	}
	require.Error(t, haltErr)
	assert.ErrorIs(t, haltErr, errors.ErrBudgetExceeded)
	assert.Equal(t, 2500, executed)
	assert.Equal(t, uint64(10000), limited.CPUConsumed())
	assert.Equal(t, StateHalted, h.State())
	assert.Equal(t, HaltBudgetExceeded, h.Reason())

	// The halt is sticky: no later instruction executes.
	err := h.OnInstruction(OpDrop)
	assert.ErrorIs(t, err, errors.ErrBudgetExceeded)
	assert.Equal(t, uint64(2500), limited.TrackerCount(budget.WasmInsnExec))
}

func TestHooksBatchedInstructions(t *testing.T) {
	table := vmTable(t, budget.CostEntry{
		Name: "WasmInsnExec",
		CPU:  budget.CostModel{ConstTerm: 4},
	})
	b := budget.NewBudgetWithTable(table, 1<<40, 1<<40)
	h := NewHooks(b)
	require.NoError(t, h.OnParse(nil))
	require.NoError(t, h.OnInstantiate(SectionStats{}))
	require.NoError(t, h.OnExecutionStart())

	require.NoError(t, h.OnInstructions(OpI64Const, 5000))
	assert.Equal(t, uint64(5000), b.TrackerCount(budget.WasmInsnExec))
	assert.Equal(t, uint64(20000), b.CPUConsumed())
}

func TestHooksImportedCallUsesImportClass(t *testing.T) {
	table := vmTable(t,
		budget.CostEntry{Name: "WasmInsnCall", CPU: budget.CostModel{ConstTerm: 47}},
		budget.CostEntry{Name: "WasmInsnCallImport", CPU: budget.CostModel{ConstTerm: 377}},
	)
	b := budget.NewBudgetWithTable(table, 1<<40, 1<<40)
	h := NewHooks(b)
	require.NoError(t, h.OnParse(nil))
	require.NoError(t, h.OnInstantiate(SectionStats{}))
	require.NoError(t, h.OnExecutionStart())

	require.NoError(t, h.OnInstruction(OpCall))
	require.NoError(t, h.OnImportedCall())
	assert.Equal(t, uint64(47+377), b.CPUConsumed())
	assert.Equal(t, uint64(1), b.TrackerCount(budget.WasmInsnCallImport))
}

func TestHooksTrapHalt(t *testing.T) {
	b := budget.NewBudget(1<<40, 1<<40)
	h := NewHooks(b)
	require.NoError(t, h.OnParse(nil))
	require.NoError(t, h.OnInstantiate(SectionStats{}))
	require.NoError(t, h.OnExecutionStart())

	h.OnHalt(errors.WrapContractMsg("unreachable executed"))
	assert.Equal(t, HaltTrap, h.Reason())
	assert.Error(t, h.Err())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		op       Opcode
		expected budget.CostType
	}{
		{OpI32Const, budget.WasmInsnExec},
		{OpI64Const, budget.WasmInsnExec},
		{OpDrop, budget.WasmInsnExec},
		{OpSelect, budget.WasmInsnExec},
		{OpLocalGet, budget.WasmInsnExec},
		{OpLocalTee, budget.WasmInsnExec},
		{0x7C, budget.WasmInsnExec}, // i64.add
		{0x46, budget.WasmInsnExec}, // i32.eq
		{OpGlobalGet, budget.WasmInsnGlobal},
		{OpGlobalSet, budget.WasmInsnGlobal},
		{OpBr, budget.WasmInsnControl},
		{OpBrTable, budget.WasmInsnControl},
		{OpReturn, budget.WasmInsnControl},
		{OpUnreachable, budget.WasmInsnControl},
		{OpEnd, budget.WasmInsnControl},
		{0x28, budget.WasmInsnMemLoad}, // i32.load
		{0x35, budget.WasmInsnMemLoad}, // i64.load32_u
		{0x36, budget.WasmInsnMemStore},
		{0x3E, budget.WasmInsnMemStore},
		{OpMemorySize, budget.WasmInsnMemPage},
		{OpMemoryGrow, budget.WasmInsnMemPage},
		{OpCall, budget.WasmInsnCall},
		{OpCallIndirect, budget.WasmInsnCallIndirect},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.op), "opcode 0x%02X", byte(tt.op))
	}
}
