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

package calibration

import (
	"fmt"
	"os"

	"github.com/dotandev/soromet/internal/budget"
)

// BuildTable assembles a versioned cost table from fitted models. Cost
// types without a fit keep their entry from the built-in default table, so
// a partial calibration run still yields a complete, loadable table.
func BuildTable(version string, protocol uint32, fits map[budget.CostType]budget.CostModelPair) (*budget.CostTable, error) {
	def := budget.DefaultCostTable()

	table := &budget.CostTable{Version: version, Protocol: protocol}
	for _, ct := range budget.CostTypes() {
		entry := def.Entries[ct]
		if pair, ok := fits[ct]; ok {
			entry.CPU = pair.CPU
			entry.Mem = pair.Mem
		}
		table.Entries = append(table.Entries, entry)
	}

	// Round-trip through the parser so the output obeys the same rules a
	// loaded table does.
	data, err := table.ToJSON()
	if err != nil {
		return nil, err
	}
	return budget.ParseCostTable(data)
}

// FitStore fits every cost type the store has observations for.
func FitStore(store *Store) (map[budget.CostType]budget.CostModelPair, error) {
	types, err := store.CostTypes()
	if err != nil {
		return nil, err
	}
	fits := make(map[budget.CostType]budget.CostModelPair, len(types))
	for _, ct := range types {
		obs, err := store.Observations(ct)
		if err != nil {
			return nil, err
		}
		pair, err := Fit(obs)
		if err != nil {
			return nil, fmt.Errorf("fitting %s: %w", ct, err)
		}
		fits[ct] = pair
	}
	return fits, nil
}

// WriteTableFile serializes a table to disk as JSON.
func WriteTableFile(table *budget.CostTable, path string) error {
	data, err := table.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cost table: %w", err)
	}
	return nil
}
