// Copyright 2026 Soromet Authors
// SPDX-License-Identifier: Apache-2.0

package calibration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
)

func obs(ct budget.CostType, size, cpu, mem uint64) Observation {
	return Observation{CostType: ct, InputSize: size, CPU: cpu, Mem: mem, Iters: 100}
}

func TestFitTwoPointExact(t *testing.T) {
	// y = 50 + 3x for cpu, y = 7 (flat) for mem.
	pair, err := Fit([]Observation{
		obs(budget.ComputeSha256Hash, 10, 80, 7),
		obs(budget.ComputeSha256Hash, 100, 350, 7),
	})
	require.NoError(t, err)
	assert.Equal(t, budget.CostModel{ConstTerm: 50, LinearTerm: 3}, pair.CPU)
	assert.Equal(t, budget.CostModel{ConstTerm: 7, LinearTerm: 0}, pair.Mem)
}

func TestFitLeastSquaresRoundsUp(t *testing.T) {
	// Noisy points around y = 10 + 2x; coefficients must round up, never
	// down.
	pair, err := Fit([]Observation{
		obs(budget.HostMemCpy, 10, 31, 0),
		obs(budget.HostMemCpy, 20, 49, 0),
		obs(budget.HostMemCpy, 40, 91, 0),
		obs(budget.HostMemCpy, 80, 171, 0),
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pair.CPU.LinearTerm, uint64(2))
	assert.GreaterOrEqual(t, pair.CPU.Eval(80), uint64(168))
}

func TestFitNegativeSlopeClampsToZero(t *testing.T) {
	pair, err := Fit([]Observation{
		obs(budget.MapEntry, 10, 100, 0),
		obs(budget.MapEntry, 100, 90, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pair.CPU.LinearTerm)
	assert.GreaterOrEqual(t, pair.CPU.ConstTerm, uint64(100))
}

func TestFitRejectsSingleSize(t *testing.T) {
	_, err := Fit([]Observation{
		obs(budget.VecEntry, 10, 5, 0),
		obs(budget.VecEntry, 10, 6, 0),
	})
	assert.Error(t, err)
}

func TestCheckConsistency(t *testing.T) {
	pair := budget.CostModelPair{
		CPU: budget.CostModel{ConstTerm: 50, LinearTerm: 3},
		Mem: budget.CostModel{ConstTerm: 8},
	}

	good := []Observation{
		obs(budget.ComputeSha256Hash, 10, 80, 7),
		obs(budget.ComputeSha256Hash, 1000, 3050, 8),
	}
	assert.NoError(t, CheckConsistency(budget.ComputeSha256Hash, pair, good))

	undercharged := []Observation{obs(budget.ComputeSha256Hash, 10, 81, 7)}
	err := CheckConsistency(budget.ComputeSha256Hash, pair, undercharged)
	assert.ErrorIs(t, err, errors.ErrCalibrationInconsistency)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")
	store, err := OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	m := NewMeasurer(1)
	recorded := m.Measure(sha256Gen{}, []uint64{0, 64})
	require.Len(t, recorded, 2)
	require.NoError(t, store.Insert(recorded...))

	types, err := store.CostTypes()
	require.NoError(t, err)
	assert.Equal(t, []budget.CostType{budget.ComputeSha256Hash}, types)

	loaded, err := store.Observations(budget.ComputeSha256Hash)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, recorded[0].InputSize, loaded[0].InputSize)
	assert.Equal(t, recorded[0].CPU, loaded[0].CPU)
	assert.Equal(t, recorded[1].Iters, loaded[1].Iters)
}

func TestStoreObservationsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")
	store, err := OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Observations(budget.MapEntry)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestBuildTableOverridesFittedTypes(t *testing.T) {
	fitted := budget.CostModelPair{
		CPU: budget.CostModel{ConstTerm: 1234, LinearTerm: 5},
		Mem: budget.CostModel{ConstTerm: 99},
	}
	table, err := BuildTable("1.3.0", 22, map[budget.CostType]budget.CostModelPair{
		budget.ComputeSha256Hash: fitted,
	})
	require.NoError(t, err)

	assert.Equal(t, "1.3.0", table.Version)
	assert.Equal(t, fitted, table.Model(budget.ComputeSha256Hash))
	// Unfitted types keep the built-in defaults.
	def := budget.DefaultCostTable()
	assert.Equal(t, def.Model(budget.ComputeKeccak256Hash), table.Model(budget.ComputeKeccak256Hash))
}

func TestFitStoreEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")
	store, err := OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Insert(
		obs(budget.HostMemCpy, 16, 42, 16),
		obs(budget.HostMemCpy, 256, 282, 256),
	))

	fits, err := FitStore(store)
	require.NoError(t, err)
	require.Contains(t, fits, budget.HostMemCpy)
	assert.Equal(t, uint64(1), fits[budget.HostMemCpy].CPU.LinearTerm)
	assert.Equal(t, uint64(26), fits[budget.HostMemCpy].CPU.ConstTerm)
}

// Generators must produce runnable cases at every size including zero.
func TestGeneratorsSmoke(t *testing.T) {
	m := NewMeasurer(7)
	m.Iterations = 32
	m.Cases = 2
	for _, gen := range Generators() {
		t.Run(gen.CostType().String(), func(t *testing.T) {
			recorded := m.Measure(gen, []uint64{0, 8})
			require.Len(t, recorded, 2)
			for _, o := range recorded {
				assert.Equal(t, gen.CostType(), o.CostType)
				assert.Equal(t, uint64(32), o.Iters)
			}
		})
	}
}

func TestWriteTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.json")
	require.NoError(t, WriteTableFile(budget.DefaultCostTable(), path))

	loaded, err := budget.LoadCostTable(path)
	require.NoError(t, err)
	assert.Equal(t, budget.DefaultCostTable().Version, loaded.Version)
}
