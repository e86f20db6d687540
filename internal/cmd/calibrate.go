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

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/calibration"
	"github.com/dotandev/soromet/internal/logger"
)

var (
	calibrateDBFlag      string
	calibrateOutFlag     string
	calibrateSizesFlag   []int64
	calibrateSeedFlag    int64
	calibrateVersionFlag string
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Measure, fit and emit a cost table",
	Long: `Run the offline calibration harness: measure each built-in case
generator at the configured input sizes, persist the observations, fit
linear cost models and write a versioned cost table.

Fitted coefficients are rounded up and re-checked against fresh
measurements; a model that undercharges aborts the run.`,
	Args: cobra.NoArgs,
	RunE: runCalibrate,
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	store, err := calibration.OpenStore(calibrateDBFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	seed := calibrateSeedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := calibration.NewMeasurer(seed)

	sizes := make([]uint64, 0, len(calibrateSizesFlag))
	for _, s := range calibrateSizesFlag {
		if s <= 0 {
			return fmt.Errorf("sizes must be positive, got %d", s)
		}
		sizes = append(sizes, uint64(s))
	}

	for _, gen := range calibration.Generators() {
		logger.Logger.Info("measuring", "cost_type", gen.CostType().String())
		obs := m.Measure(gen, sizes)
		if err := store.Insert(obs...); err != nil {
			return err
		}
	}

	fits, err := calibration.FitStore(store)
	if err != nil {
		return err
	}

	// Consistency pass: fresh observations against the fitted models.
	check := calibration.NewMeasurer(seed + 1)
	for _, gen := range calibration.Generators() {
		pair, ok := fits[gen.CostType()]
		if !ok {
			continue
		}
		fresh := check.Measure(gen, sizes)
		if err := calibration.CheckConsistency(gen.CostType(), pair, fresh); err != nil {
			return err
		}
	}

	table, err := calibration.BuildTable(calibrateVersionFlag,
		budget.DefaultCostTable().Protocol, fits)
	if err != nil {
		return err
	}
	if err := calibration.WriteTableFile(table, calibrateOutFlag); err != nil {
		return err
	}

	fmt.Printf("calibrated %d cost types, wrote %s\n", len(fits), calibrateOutFlag)
	return nil
}

func init() {
	calibrateCmd.Flags().StringVar(&calibrateDBFlag, "db", "observations.db",
		"Observation database file")
	calibrateCmd.Flags().StringVar(&calibrateOutFlag, "out", "costs.json",
		"Output cost table file")
	calibrateCmd.Flags().Int64SliceVar(&calibrateSizesFlag, "sizes",
		[]int64{16, 64, 256, 1024}, "Input sizes to measure at")
	calibrateCmd.Flags().Int64Var(&calibrateSeedFlag, "seed", 0,
		"Random seed (0 = time-based)")
	calibrateCmd.Flags().StringVar(&calibrateVersionFlag, "table-version", "1.2.0",
		"Version stamped on the emitted table")
	rootCmd.AddCommand(calibrateCmd)
}
