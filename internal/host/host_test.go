// Copyright 2026 Soromet Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"testing"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
	"github.com/dotandev/soromet/internal/ledger"
)

// engineFunc adapts a function to the Engine interface.
type engineFunc func(ctx context.Context, name string, args ...uint64) ([]uint64, error)

func (f engineFunc) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	return f(ctx, name, args...)
}

func testKey(seed byte) xdr.LedgerKey {
	var raw [32]byte
	for i := range raw {
		raw[i] = seed
	}
	contractID := xdr.ContractId(raw)
	contractAddr := xdr.ScAddress{
		Type:       xdr.ScAddressTypeScAddressTypeContract,
		ContractId: &contractID,
	}
	sym := xdr.ScSymbol("COUNTER")
	keyVal := xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
	return xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract:   contractAddr,
			Key:        keyVal,
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}
}

func testEntry(key xdr.LedgerKey, value uint32) xdr.LedgerEntry {
	v := xdr.Uint32(value)
	return xdr.LedgerEntry{
		LastModifiedLedgerSeq: 1,
		Data: xdr.LedgerEntryData{
			Type: xdr.LedgerEntryTypeContractData,
			ContractData: &xdr.ContractDataEntry{
				Contract:   key.ContractData.Contract,
				Key:        key.ContractData.Key,
				Durability: key.ContractData.Durability,
				Val:        xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &v},
			},
		},
	}
}

func newTestHost(t *testing.T, b *budget.Budget, entries []ledger.FootprintEntry, snapshot []ledger.SnapshotEntry) *Host {
	t.Helper()
	fp, err := ledger.NewFootprintFromEntries(b, entries)
	require.NoError(t, err)
	h, err := New(b, fp, snapshot)
	require.NoError(t, err)
	return h
}

func TestInvokeCollectsChangesOnSuccess(t *testing.T) {
	b := budget.NewBudget(1<<40, 1<<40)
	k := testKey(1)
	h := newTestHost(t, b,
		[]ledger.FootprintEntry{{Key: k, Access: ledger.AccessReadWrite}}, nil)

	eng := engineFunc(func(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
		if err := h.Storage().Put(k, testEntry(k, 7)); err != nil {
			return nil, err
		}
		if err := h.RecordBump(k, 500); err != nil {
			return nil, err
		}
		return []uint64{42}, nil
	})

	res, err := h.Invoke(context.Background(), eng, "run")
	require.NoError(t, err)
	assert.Equal(t, StatusOk, res.Status)
	assert.Equal(t, []uint64{42}, res.Results)
	require.Len(t, res.Changes, 1)
	require.NotNil(t, res.Changes[0].Entry)
	require.Len(t, res.Bumps, 1)
	assert.Equal(t, uint32(500), res.Bumps[0].MinExpiration)
	assert.Equal(t, uint64(1), b.TrackerCount(budget.GuardFrame))
	assert.Equal(t, 0, h.Depth())
}

func TestInvokeAccessViolationExposesNoMutations(t *testing.T) {
	b := budget.NewBudget(1<<40, 1<<40)
	declared, undeclared := testKey(1), testKey(2)
	h := newTestHost(t, b,
		[]ledger.FootprintEntry{{Key: declared, Access: ledger.AccessReadWrite}}, nil)

	eng := engineFunc(func(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
		if err := h.Storage().Put(declared, testEntry(declared, 1)); err != nil {
			return nil, err
		}
		return nil, h.Storage().Put(undeclared, testEntry(undeclared, 2))
	})

	res, err := h.Invoke(context.Background(), eng, "run")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAccessViolation)
	assert.Equal(t, StatusAccessViolation, res.Status)
	assert.Nil(t, res.Changes)
	assert.Nil(t, res.Bumps)
	assert.Nil(t, res.Results)
}

func TestInvokeBudgetExceededStatus(t *testing.T) {
	b := budget.NewBudget(1<<40, 1<<40)
	h := newTestHost(t, b, nil, nil)

	eng := engineFunc(func(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
		return nil, errors.WrapBudgetExceeded("cpu", 10, 5, 8)
	})

	res, err := h.Invoke(context.Background(), eng, "run")
	require.Error(t, err)
	assert.Equal(t, StatusBudgetExceeded, res.Status)
	assert.Equal(t, b.Usage(), res.Usage)
}

func TestInvokeEmitsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	b := budget.NewBudget(1<<40, 1<<40)
	h := newTestHost(t, b, nil, nil)
	eng := engineFunc(func(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
		return []uint64{1}, nil
	})

	_, err := h.Invoke(context.Background(), eng, "run")
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "invoke_contract", spans[0].Name())

	attrs := make(map[string]string)
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "run", attrs["contract.function"])
	assert.Equal(t, "ok", attrs["invoke.status"])
}

func TestFrameUnderflow(t *testing.T) {
	b := budget.NewBudget(1<<40, 1<<40)
	h := newTestHost(t, b, nil, nil)

	assert.ErrorIs(t, h.PopFrame(), errors.ErrContract)

	require.NoError(t, h.PushFrame())
	require.NoError(t, h.PushFrame())
	assert.Equal(t, 2, h.Depth())
	require.NoError(t, h.PopFrame())
	require.NoError(t, h.PopFrame())
	assert.ErrorIs(t, h.PopFrame(), errors.ErrContract)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Status
	}{
		{"nil", nil, StatusOk},
		{"budget", errors.WrapBudgetExceeded("cpu", 1, 1, 1), StatusBudgetExceeded},
		{"access", errors.WrapAccessViolation("x"), StatusAccessViolation},
		{"contract", errors.WrapContractMsg("x"), StatusContractError},
		{"entry", errors.WrapEntryNotFound("x"), StatusContractError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusOf(tt.err))
		})
	}
}
