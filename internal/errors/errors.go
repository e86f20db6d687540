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

package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is.
//
// ErrBudgetExceeded, ErrAccessViolation and ErrCalibrationInconsistency are
// terminal: once raised they unwind the whole execution and no frame may
// swallow them and keep charging.
var (
	ErrBudgetExceeded           = errors.New("budget exceeded")
	ErrAccessViolation          = errors.New("footprint access violation")
	ErrCalibrationInconsistency = errors.New("cost model undercharges measured sample")
	ErrInvalidCostTable         = errors.New("invalid cost table")
	ErrModuleState              = errors.New("invalid module state transition")
	ErrWasmParse                = errors.New("malformed wasm module")
	ErrContract                 = errors.New("contract error")
	ErrEntryNotFound            = errors.New("ledger entry not found")
)

// Wrap functions for consistent error wrapping

func WrapBudgetExceeded(resource string, requested, consumed, limit uint64) error {
	return fmt.Errorf("%w: %s charge of %d would push %d past limit %d",
		ErrBudgetExceeded, resource, requested, consumed, limit)
}

func WrapAccessViolation(msg string) error {
	return fmt.Errorf("%w: %s", ErrAccessViolation, msg)
}

func WrapCalibrationInconsistency(costType string, size, measured, modeled uint64) error {
	return fmt.Errorf("%w: %s at size %d measured %d but model yields %d",
		ErrCalibrationInconsistency, costType, size, measured, modeled)
}

func WrapInvalidCostTable(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidCostTable, msg)
}

func WrapModuleState(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrModuleState, from, to)
}

func WrapWasmParse(err error) error {
	return fmt.Errorf("%w: %w", ErrWasmParse, err)
}

func WrapWasmParseMsg(msg string) error {
	return fmt.Errorf("%w: %s", ErrWasmParse, msg)
}

func WrapContract(err error) error {
	return fmt.Errorf("%w: %w", ErrContract, err)
}

func WrapContractMsg(msg string) error {
	return fmt.Errorf("%w: %s", ErrContract, msg)
}

func WrapEntryNotFound(msg string) error {
	return fmt.Errorf("%w: %s", ErrEntryNotFound, msg)
}
