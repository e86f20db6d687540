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
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dotandev/soromet/internal/budget"
)

// Store persists observations between measurement and fitting, so a long
// calibration run can be resumed and refitted without re-measuring.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the observation database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open observation db: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cost_type TEXT NOT NULL,
		input_size INTEGER NOT NULL,
		cpu INTEGER NOT NULL,
		mem INTEGER NOT NULL,
		iters INTEGER NOT NULL,
		measured_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_observations_cost_type ON observations(cost_type);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Insert appends observations.
func (s *Store) Insert(obs ...Observation) error {
	query := `
	INSERT INTO observations (cost_type, input_size, cpu, mem, iters, measured_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, o := range obs {
		_, err := s.db.Exec(query,
			o.CostType.String(), o.InputSize, o.CPU, o.Mem, o.Iters, o.MeasuredAt)
		if err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}
	return nil
}

// Observations returns everything recorded for one cost type, oldest first.
func (s *Store) Observations(ct budget.CostType) ([]Observation, error) {
	query := `
	SELECT input_size, cpu, mem, iters, measured_at
	FROM observations WHERE cost_type = ? ORDER BY id
	`
	rows, err := s.db.Query(query, ct.String())
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []Observation
	for rows.Next() {
		o := Observation{CostType: ct}
		var ts time.Time
		if err := rows.Scan(&o.InputSize, &o.CPU, &o.Mem, &o.Iters, &ts); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		o.MeasuredAt = ts
		results = append(results, o)
	}
	return results, rows.Err()
}

// CostTypes lists the cost types with at least one observation.
func (s *Store) CostTypes() ([]budget.CostType, error) {
	rows, err := s.db.Query(`SELECT DISTINCT cost_type FROM observations ORDER BY cost_type`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []budget.CostType
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		ct, ok := budget.CostTypeByName(name)
		if !ok {
			// Rows written by a newer binary are skipped, not fatal.
			continue
		}
		results = append(results, ct)
	}
	return results, rows.Err()
}
