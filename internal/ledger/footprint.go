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

// Package ledger implements the footprint-gated storage layer: a
// pre-declared read/write set over XDR ledger keys, an in-memory snapshot
// with a buffered write overlay, and the expiration-bump side output.
package ledger

import (
	"fmt"

	"github.com/stellar/go/xdr"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
	"github.com/dotandev/soromet/internal/metered"
)

// AccessType is the declared access mode for one footprint key.
type AccessType int32

const (
	AccessReadOnly AccessType = iota
	AccessReadWrite
)

func (a AccessType) String() string {
	switch a {
	case AccessReadOnly:
		return "read-only"
	case AccessReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("AccessType(%d)", int32(a))
	}
}

// allows reports whether access mode a satisfies a request for mode want.
func (a AccessType) allows(want AccessType) bool {
	return a >= want
}

// FootprintEntry is one declared (key, mode) pair of the footprint input.
type FootprintEntry struct {
	Key    xdr.LedgerKey
	Access AccessType
}

type footprintRecord struct {
	key    xdr.LedgerKey
	access AccessType
}

// Footprint is the transaction-wide (key -> access mode) table. It is fixed
// before execution begins; during execution Storage only ever calls Enforce
// against it. The whole call tree, nested invocations included, is checked
// against this one footprint.
type Footprint struct {
	budget  *budget.Budget
	entries metered.SortedMap[string, footprintRecord]
}

// NewFootprint creates an empty footprint charging against b.
func NewFootprint(b *budget.Budget) (*Footprint, error) {
	m, err := metered.NewSortedMap[string, footprintRecord](b, nil)
	if err != nil {
		return nil, err
	}
	return &Footprint{budget: b, entries: m}, nil
}

// NewFootprintFromEntries builds a footprint from the ordered declaration
// supplied with the transaction.
func NewFootprintFromEntries(b *budget.Budget, declared []FootprintEntry) (*Footprint, error) {
	fp, err := NewFootprint(b)
	if err != nil {
		return nil, err
	}
	for _, e := range declared {
		if err := fp.RecordAccess(e.Key, e.Access); err != nil {
			return nil, err
		}
	}
	return fp, nil
}

// NewFootprintFromXDR builds a footprint from the wire-form declaration:
// read-only keys first, then read-write keys, each list in its given order.
func NewFootprintFromXDR(b *budget.Budget, decl xdr.LedgerFootprint) (*Footprint, error) {
	fp, err := NewFootprint(b)
	if err != nil {
		return nil, err
	}
	for _, key := range decl.ReadOnly {
		if err := fp.RecordAccess(key, AccessReadOnly); err != nil {
			return nil, err
		}
	}
	for _, key := range decl.ReadWrite {
		if err := fp.RecordAccess(key, AccessReadWrite); err != nil {
			return nil, err
		}
	}
	return fp, nil
}

// RecordAccess inserts the key, or widens its mode. Access, once granted,
// cannot be revoked within a transaction: ReadOnly upgrades to ReadWrite,
// but a ReadWrite entry asked to become ReadOnly stays ReadWrite (the
// downgrade request is a no-op).
func (f *Footprint) RecordAccess(key xdr.LedgerKey, access AccessType) error {
	id, err := encodeKey(key)
	if err != nil {
		return err
	}
	existing, ok, err := f.entries.Get(id)
	if err != nil {
		return err
	}
	if ok && existing.access >= access {
		return nil
	}
	updated, err := f.entries.Set(id, footprintRecord{key: key, access: access})
	if err != nil {
		return err
	}
	f.entries = updated
	return nil
}

// Enforce fails with an access violation if the key is undeclared or its
// declared mode is narrower than required. Called by every Storage
// operation; the error is terminal and non-retryable.
func (f *Footprint) Enforce(key xdr.LedgerKey, required AccessType) error {
	id, err := encodeKey(key)
	if err != nil {
		return err
	}
	rec, ok, err := f.entries.Get(id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.WrapAccessViolation("key not declared in footprint")
	}
	if !rec.access.allows(required) {
		return errors.WrapAccessViolation(fmt.Sprintf(
			"%s access requested against %s declaration", required, rec.access))
	}
	return nil
}

// Len reports the number of declared keys.
func (f *Footprint) Len() int {
	return f.entries.Len()
}

// Entries returns the declarations in canonical key order.
func (f *Footprint) Entries() ([]FootprintEntry, error) {
	out := make([]FootprintEntry, 0, f.entries.Len())
	err := f.entries.Range(func(_ string, rec footprintRecord) bool {
		out = append(out, FootprintEntry{Key: rec.key, Access: rec.access})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
