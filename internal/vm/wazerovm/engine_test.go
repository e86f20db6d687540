// Copyright 2026 Soromet Authors
// SPDX-License-Identifier: Apache-2.0

package wazerovm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
	"github.com/dotandev/soromet/internal/vm"
)

func engineTable(t *testing.T, entries ...budget.CostEntry) *budget.CostTable {
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

// () -> i64, exported as "answer", returns 42.
var answerWasm = []byte{
	0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7E,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x0A, 0x01, 0x06, 'a', 'n', 's', 'w', 'e', 'r', 0x00, 0x00,
	0x0A, 0x06, 0x01, 0x04, 0x00, 0x42, 0x2A, 0x0B,
}

// "outer" () -> i64 calls an unexported inner function returning 7.
var nestedWasm = []byte{
	0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7E,
	0x03, 0x03, 0x02, 0x00, 0x00,
	0x07, 0x09, 0x01, 0x05, 'o', 'u', 't', 'e', 'r', 0x00, 0x00,
	0x0A, 0x0B, 0x02,
	0x04, 0x00, 0x10, 0x01, 0x0B, // outer: call 1, end
	0x04, 0x00, 0x42, 0x07, 0x0B, // inner: i64.const 7, end
}

func TestEngineCallsExportedFunction(t *testing.T) {
	ctx := context.Background()
	table := engineTable(t, budget.CostEntry{
		Name: "WasmInsnCall",
		CPU:  budget.CostModel{ConstTerm: 47},
	})
	b := budget.NewBudgetWithTable(table, 1<<40, 1<<40)

	e, err := New(ctx, b, answerWasm)
	require.NoError(t, err)
	defer e.Close(ctx)
	assert.Equal(t, vm.StateInstantiated, e.State())

	results, err := e.Call(ctx, "answer")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(42), results[0])

	assert.Equal(t, vm.StateHalted, e.State())
	assert.Equal(t, vm.HaltOk, e.Reason())
	assert.Equal(t, uint64(1), b.TrackerCount(budget.WasmInsnCall))
	assert.Equal(t, uint64(1), b.TrackerCount(budget.InvokeVmFunction))
}

func TestEngineChargesInstantiationDimensions(t *testing.T) {
	ctx := context.Background()
	table := engineTable(t,
		budget.CostEntry{Name: "VmInstantiation", CPU: budget.CostModel{LinearTerm: 1}},
		budget.CostEntry{Name: "VmInstantiateInstructions", CPU: budget.CostModel{LinearTerm: 10}},
	)
	b := budget.NewBudgetWithTable(table, 1<<40, 1<<40)

	e, err := New(ctx, b, nestedWasm)
	require.NoError(t, err)
	defer e.Close(ctx)

	// Code size, plus 10 per counted instruction (call/end + const/end).
	assert.Equal(t, uint64(len(nestedWasm))+40, b.CPUConsumed())
}

func TestEngineMetersNestedCalls(t *testing.T) {
	ctx := context.Background()
	table := engineTable(t, budget.CostEntry{
		Name: "WasmInsnCall",
		CPU:  budget.CostModel{ConstTerm: 100},
	})
	b := budget.NewBudgetWithTable(table, 1<<40, 1<<40)

	e, err := New(ctx, b, nestedWasm)
	require.NoError(t, err)
	defer e.Close(ctx)

	results, err := e.Call(ctx, "outer")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(7), results[0])
	assert.Equal(t, uint64(2), b.TrackerCount(budget.WasmInsnCall))
}

func TestEngineHaltsMidExecutionOnExhaustedBudget(t *testing.T) {
	ctx := context.Background()
	table := engineTable(t, budget.CostEntry{
		Name: "WasmInsnCall",
		CPU:  budget.CostModel{ConstTerm: 100},
	})
	// Room for the outer call only; the nested call must fail.
	b := budget.NewBudgetWithTable(table, 150, 1<<40)

	e, err := New(ctx, b, nestedWasm)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.Call(ctx, "outer")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBudgetExceeded)
	assert.Equal(t, vm.StateHalted, e.State())
	assert.Equal(t, vm.HaltBudgetExceeded, e.Reason())
	assert.Equal(t, uint64(100), b.CPUConsumed())
}

func TestEngineRejectsUnknownExport(t *testing.T) {
	ctx := context.Background()
	b := budget.NewBudget(1<<40, 1<<40)

	e, err := New(ctx, b, answerWasm)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.Call(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrContract)
	assert.Equal(t, vm.HaltTrap, e.Reason())
}

func TestEngineIsSingleShot(t *testing.T) {
	ctx := context.Background()
	b := budget.NewBudget(1<<40, 1<<40)

	e, err := New(ctx, b, answerWasm)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.Call(ctx, "answer")
	require.NoError(t, err)

	_, err = e.Call(ctx, "answer")
	assert.ErrorIs(t, err, errors.ErrModuleState)
}

func TestEngineRejectsMalformedModule(t *testing.T) {
	ctx := context.Background()
	b := budget.NewBudget(1<<40, 1<<40)

	_, err := New(ctx, b, []byte{0x00, 0x61, 0x73, 0x6D})
	assert.ErrorIs(t, err, errors.ErrWasmParse)
}
