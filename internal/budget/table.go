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

package budget

import (
	"encoding/json"
	"fmt"
	"os"

	goversion "github.com/hashicorp/go-version"

	"github.com/dotandev/soromet/internal/errors"
)

// SupportedTableConstraint bounds the cost-table schema versions this build
// understands. A table outside the constraint requires a new binary, i.e. a
// protocol upgrade, never a runtime reinterpretation.
const SupportedTableConstraint = ">= 1.0.0, < 2.0.0"

// CostEntry is one row of the serialized cost table.
type CostEntry struct {
	Name        string    `json:"name"`
	CPU         CostModel `json:"cpu"`
	Mem         CostModel `json:"mem"`
	Description string    `json:"description,omitempty"`
}

// CostTable is the versioned, immutable table of calibrated CostModels, one
// pair per CostType. The runtime only ever reads a table produced offline;
// it never refits coefficients.
type CostTable struct {
	Version  string      `json:"version"`
	Protocol uint32      `json:"protocol"`
	Entries  []CostEntry `json:"entries"`

	models [numCostTypes]CostModelPair
}

// Model returns the CPU/memory model pair for ct. An out-of-range ct yields
// the zero pair, which charges nothing; callers validate tables up front so
// this only happens on programmer error.
func (t *CostTable) Model(ct CostType) CostModelPair {
	if !ct.Valid() {
		return CostModelPair{}
	}
	return t.models[ct]
}

// ParseCostTable decodes, validates and builds a table from JSON bytes.
func ParseCostTable(data []byte) (*CostTable, error) {
	if len(data) == 0 {
		return nil, errors.WrapInvalidCostTable("table data is empty")
	}
	var t CostTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.WrapInvalidCostTable(fmt.Sprintf("bad JSON: %v", err))
	}
	if res := t.Validate(); !res.Valid {
		return nil, errors.WrapInvalidCostTable(res.ErrorsAsString())
	}
	if err := t.CheckVersion(); err != nil {
		return nil, err
	}
	if err := t.build(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadCostTable reads and parses a table file.
func LoadCostTable(path string) (*CostTable, error) {
	if path == "" {
		return nil, errors.WrapInvalidCostTable("table file path cannot be empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cost table file: %w", err)
	}
	return ParseCostTable(data)
}

// ToJSON serializes the table in its canonical indented form.
func (t *CostTable) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// CheckVersion rejects tables whose schema version this build cannot hold.
func (t *CostTable) CheckVersion() error {
	v, err := goversion.NewVersion(t.Version)
	if err != nil {
		return errors.WrapInvalidCostTable(fmt.Sprintf("bad version %q: %v", t.Version, err))
	}
	constraint, err := goversion.NewConstraint(SupportedTableConstraint)
	if err != nil {
		return fmt.Errorf("bad built-in constraint: %w", err)
	}
	if !constraint.Check(v) {
		return errors.WrapInvalidCostTable(fmt.Sprintf(
			"table version %s outside supported range %s", t.Version, SupportedTableConstraint))
	}
	return nil
}

// build resolves entry names and populates the per-CostType model array.
// Every CostType must be priced exactly once: a missing row would make its
// operations silently free, which is a protocol defect, not a default.
func (t *CostTable) build() error {
	seen := [numCostTypes]bool{}
	for _, e := range t.Entries {
		ct, ok := CostTypeByName(e.Name)
		if !ok {
			return errors.WrapInvalidCostTable(fmt.Sprintf("unknown cost type %q", e.Name))
		}
		if seen[ct] {
			return errors.WrapInvalidCostTable(fmt.Sprintf("duplicate cost type %q", e.Name))
		}
		seen[ct] = true
		t.models[ct] = CostModelPair{CPU: e.CPU, Mem: e.Mem}
	}
	for i, ok := range seen {
		if !ok {
			return errors.WrapInvalidCostTable(fmt.Sprintf("missing cost type %q", CostType(i)))
		}
	}
	return nil
}

// ─── Validation ──────────────────────────────────────────────────────────────

type ValidationError struct {
	Field   string
	Message string
}

type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Validate checks the table's declared fields without building it.
func (t *CostTable) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if t.Version == "" {
		result.addError("version", "version is required")
	}
	if t.Protocol == 0 {
		result.addError("protocol", "protocol is required")
	}
	if len(t.Entries) == 0 {
		result.addError("entries", "entries are required")
	}

	const maxCoefficient = 1_000_000_000
	for i, e := range t.Entries {
		prefix := fmt.Sprintf("entries[%d]", i)
		if e.Name == "" {
			result.addError(prefix, "name is required")
			continue
		}
		if _, ok := CostTypeByName(e.Name); !ok {
			result.addError(prefix+".name", fmt.Sprintf("unknown cost type %q", e.Name))
		}
		for _, c := range []struct {
			field string
			model CostModel
		}{{"cpu", e.CPU}, {"mem", e.Mem}} {
			if c.model.ConstTerm > maxCoefficient {
				result.addError(fmt.Sprintf("%s.%s.const", prefix, c.field), "coefficient > 1B")
			}
			if c.model.LinearTerm > maxCoefficient {
				result.addError(fmt.Sprintf("%s.%s.linear", prefix, c.field), "coefficient > 1B")
			}
		}
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}

func (vr *ValidationResult) addError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

func (vr *ValidationResult) ErrorsAsString() string {
	if vr.Valid {
		return ""
	}
	result := fmt.Sprintf("validation failed (%d errors):\n", len(vr.Errors))
	for _, err := range vr.Errors {
		result += fmt.Sprintf("  [%s] %s\n", err.Field, err.Message)
	}
	return result
}
