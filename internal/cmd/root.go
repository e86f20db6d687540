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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotandev/soromet/internal/logger"
)

var verboseFlag bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soromet",
	Short: "Deterministic resource metering for Soroban-style contract execution",
	Long: `Soromet is the resource accounting substrate for a smart-contract host:
a deterministic budget engine over calibrated cost models, footprint-gated
ledger storage, and per-instruction execution metering.

Key features:
  - Inspect and validate versioned cost tables
  - Calibrate cost model coefficients offline
  - Run a wasm module under full metering and print its resource usage

Examples:
  soromet costs show                         Print the built-in cost table
  soromet costs validate costs.json          Validate a table file
  soromet calibrate --db obs.db --out t.json Measure, fit and emit a table
  soromet run contract.wasm --fn add         Execute one invocation`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			logger.SetLevel(slog.LevelDebug)
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"Enable debug logging")
}
