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
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/host"
	"github.com/dotandev/soromet/internal/ledger"
	"github.com/dotandev/soromet/internal/telemetry"
	"github.com/dotandev/soromet/internal/vm/wazerovm"
)

var (
	runFnFlag       string
	runCPULimitFlag uint64
	runMemLimitFlag uint64
	runTableFlag    string
)

var runCmd = &cobra.Command{
	Use:   "run <module.wasm> [args...]",
	Short: "Execute a wasm module under full metering",
	Long: `Instantiate a wasm module with the wazero engine and invoke one
exported function as a metered execution. Extra arguments are passed as
unsigned integers. The terminal status and resource usage are printed;
a failed execution exits non-zero.`,
	Example: `  soromet run contract.wasm --fn add 2 3
  soromet run contract.wasm --fn run --cpu-limit 1000000 --table costs.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	shutdown, err := telemetry.Init(ctx, telemetry.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer shutdown()

	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read module: %w", err)
	}

	callArgs := make([]uint64, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return fmt.Errorf("bad argument %q: %w", a, err)
		}
		callArgs = append(callArgs, v)
	}

	table := budget.DefaultCostTable()
	if runTableFlag != "" {
		table, err = budget.LoadCostTable(runTableFlag)
		if err != nil {
			return err
		}
	}
	b := budget.NewBudgetWithTable(table, runCPULimitFlag, runMemLimitFlag)

	fp, err := ledger.NewFootprint(b)
	if err != nil {
		return err
	}
	h, err := host.New(b, fp, nil)
	if err != nil {
		return err
	}

	eng, err := wazerovm.New(ctx, b, code)
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	res, invokeErr := h.Invoke(ctx, eng, runFnFlag, callArgs...)
	printResult(res)
	return invokeErr
}

func printResult(res host.InvokeResult) {
	statusColor := color.New(color.FgGreen)
	if res.Status != host.StatusOk {
		statusColor = color.New(color.FgRed)
	}
	statusColor.Printf("status: %s\n", res.Status)

	if len(res.Results) > 0 {
		fmt.Printf("results: %v\n", res.Results)
	}
	fmt.Printf("cpu:  %d / %d (%.1f%%)\n",
		res.Usage.CPUConsumed, res.Usage.CPULimit, res.Usage.CPUUsagePercent)
	fmt.Printf("mem:  %d / %d (%.1f%%)\n",
		res.Usage.MemConsumed, res.Usage.MemLimit, res.Usage.MemoryUsagePercent)
	if len(res.Changes) > 0 {
		fmt.Printf("ledger changes: %d\n", len(res.Changes))
	}
	if len(res.Bumps) > 0 {
		fmt.Printf("expiration bumps: %d\n", len(res.Bumps))
	}
}

func init() {
	runCmd.Flags().StringVar(&runFnFlag, "fn", "main", "Exported function to invoke")
	runCmd.Flags().Uint64Var(&runCPULimitFlag, "cpu-limit", 100_000_000,
		"CPU instruction budget")
	runCmd.Flags().Uint64Var(&runMemLimitFlag, "mem-limit", 40*1024*1024,
		"Memory byte budget")
	runCmd.Flags().StringVar(&runTableFlag, "table", "",
		"Cost table JSON file (default: built-in table)")
	rootCmd.AddCommand(runCmd)
}
