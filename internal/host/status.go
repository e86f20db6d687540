// Copyright 2026 Soromet Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	stderrors "errors"

	"github.com/dotandev/soromet/internal/errors"
)

// Status is the terminal outcome of one top-level invocation.
type Status int32

const (
	StatusOk Status = iota
	StatusBudgetExceeded
	StatusAccessViolation
	StatusContractError
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusBudgetExceeded:
		return "budget exceeded"
	case StatusAccessViolation:
		return "access violation"
	case StatusContractError:
		return "contract error"
	default:
		return "Status(?)"
	}
}

// StatusOf derives the terminal status from an execution's error chain.
// Budget exhaustion and footprint violations are distinguished for the
// surrounding fee logic; everything else a contract can cause collapses to
// ContractError.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOk
	case stderrors.Is(err, errors.ErrBudgetExceeded):
		return StatusBudgetExceeded
	case stderrors.Is(err, errors.ErrAccessViolation):
		return StatusAccessViolation
	default:
		return StatusContractError
	}
}
