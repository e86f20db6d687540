// Copyright 2026 Soromet Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"github.com/stellar/go/xdr"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/metered"
)

// LedgerBump asks the commit logic to extend a key's expiration to at least
// MinExpiration.
type LedgerBump struct {
	Key           xdr.LedgerKey
	MinExpiration uint32
}

// ExpirationLedgerBumps collects expiration extensions emitted during
// execution as a side output. Insertion order is meaningful and duplicates
// are permitted; the out-of-scope commit logic folds them.
type ExpirationLedgerBumps struct {
	vec metered.Vector[LedgerBump]
}

// NewExpirationLedgerBumps creates an empty, metered bump sequence.
func NewExpirationLedgerBumps(b *budget.Budget) (*ExpirationLedgerBumps, error) {
	v, err := metered.NewVector[LedgerBump](b)
	if err != nil {
		return nil, err
	}
	return &ExpirationLedgerBumps{vec: v}, nil
}

// Record appends one bump, charging the append.
func (e *ExpirationLedgerBumps) Record(key xdr.LedgerKey, minExpiration uint32) error {
	updated, err := e.vec.Append(LedgerBump{Key: key, MinExpiration: minExpiration})
	if err != nil {
		return err
	}
	e.vec = updated
	return nil
}

func (e *ExpirationLedgerBumps) Len() int { return e.vec.Len() }

// All materializes the bumps in insertion order.
func (e *ExpirationLedgerBumps) All() ([]LedgerBump, error) {
	return e.vec.Materialize()
}
