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

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotandev/soromet/internal/budget"
)

var costsFileFlag string

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Inspect and validate cost tables",
}

var costsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a cost table",
	Long: `Print every cost type's CPU and memory model. Without --file the
built-in default table is shown.`,
	Args: cobra.NoArgs,
	RunE: runCostsShow,
}

var costsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a cost table file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCostsValidate,
}

func runCostsShow(cmd *cobra.Command, args []string) error {
	table := budget.DefaultCostTable()
	if costsFileFlag != "" {
		loaded, err := budget.LoadCostTable(costsFileFlag)
		if err != nil {
			return err
		}
		table = loaded
	}

	header := color.New(color.Bold)
	header.Printf("Cost table %s (protocol %d)\n\n", table.Version, table.Protocol)
	fmt.Printf("%-28s %14s %14s %14s %14s\n",
		"COST TYPE", "CPU CONST", "CPU LINEAR", "MEM CONST", "MEM LINEAR")
	for _, ct := range budget.CostTypes() {
		pair := table.Model(ct)
		fmt.Printf("%-28s %14d %14d %14d %14d\n",
			ct, pair.CPU.ConstTerm, pair.CPU.LinearTerm,
			pair.Mem.ConstTerm, pair.Mem.LinearTerm)
	}
	return nil
}

func runCostsValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	table, err := budget.LoadCostTable(path)
	if err != nil {
		color.Red("INVALID %s", path)
		return err
	}
	color.Green("OK %s (version %s, protocol %d, %d entries)",
		path, table.Version, table.Protocol, len(table.Entries))
	return nil
}

func init() {
	costsShowCmd.Flags().StringVar(&costsFileFlag, "file", "",
		"Cost table JSON file (default: built-in table)")
	costsCmd.AddCommand(costsShowCmd)
	costsCmd.AddCommand(costsValidateCmd)
	rootCmd.AddCommand(costsCmd)
}
