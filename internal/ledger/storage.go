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

package ledger

import (
	"github.com/stellar/go/xdr"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
	"github.com/dotandev/soromet/internal/metered"
)

// SnapshotEntry is one preloaded ledger entry. The entire working set is
// supplied up front; Storage performs no I/O during execution.
type SnapshotEntry struct {
	Key   xdr.LedgerKey
	Entry xdr.LedgerEntry
}

type snapshotRecord struct {
	entry xdr.LedgerEntry
	size  uint64
}

// overlayRecord is a pending write. A nil entry is an explicit tombstone,
// distinct from "never fetched": a re-read after delete within the same
// execution consistently observes absence.
type overlayRecord struct {
	key   xdr.LedgerKey
	entry *xdr.LedgerEntry
	size  uint64
}

// Change is one buffered mutation, surfaced in canonical key order for the
// surrounding commit logic. Entry == nil means delete.
type Change struct {
	Key   xdr.LedgerKey
	Entry *xdr.LedgerEntry
}

// Storage is the footprint-gated view of ledger state for one execution:
// an immutable snapshot of the preloaded working set plus a buffered
// overlay of pending writes and deletes. Mutations are never applied in
// place; the surrounding ledger-commit logic consumes Changes on success,
// and on any terminal error the Storage (overlay included) is discarded
// wholesale.
type Storage struct {
	budget    *budget.Budget
	footprint *Footprint
	snapshot  map[string]snapshotRecord
	overlay   metered.SortedMap[string, overlayRecord]
}

// NewStorage scopes a storage view to the given footprint and preloaded
// snapshot. Snapshot construction is charged linear in the entry count, and
// each entry's wire size is computed once here so later reads charge
// without re-serializing.
func NewStorage(b *budget.Budget, fp *Footprint, preloaded []SnapshotEntry) (*Storage, error) {
	if err := b.Charge(budget.MapNew, uint64(len(preloaded))); err != nil {
		return nil, err
	}
	snapshot := make(map[string]snapshotRecord, len(preloaded))
	for _, se := range preloaded {
		id, err := encodeKey(se.Key)
		if err != nil {
			return nil, err
		}
		_, size, err := encodeEntry(se.Entry)
		if err != nil {
			return nil, err
		}
		snapshot[id] = snapshotRecord{entry: se.Entry, size: size}
	}
	overlay, err := metered.NewSortedMap[string, overlayRecord](b, nil)
	if err != nil {
		return nil, err
	}
	return &Storage{
		budget:    b,
		footprint: fp,
		snapshot:  snapshot,
		overlay:   overlay,
	}, nil
}

// Footprint exposes the gate this storage is scoped to.
func (s *Storage) Footprint() *Footprint { return s.footprint }

// Get enforces read access, charges the read proportional to the entry's
// serialized size, and returns the entry as seen through the overlay.
func (s *Storage) Get(key xdr.LedgerKey) (xdr.LedgerEntry, error) {
	var zero xdr.LedgerEntry
	if err := s.footprint.Enforce(key, AccessReadOnly); err != nil {
		return zero, err
	}
	id, err := encodeKey(key)
	if err != nil {
		return zero, err
	}
	rec, inOverlay, err := s.overlay.Get(id)
	if err != nil {
		return zero, err
	}
	if inOverlay {
		if rec.entry == nil {
			return zero, errors.WrapEntryNotFound("entry deleted in this execution")
		}
		if err := s.budget.Charge(budget.LedgerReadByte, rec.size); err != nil {
			return zero, err
		}
		return *rec.entry, nil
	}
	snap, ok := s.snapshot[id]
	if !ok {
		return zero, errors.WrapEntryNotFound("key not present in preloaded snapshot")
	}
	if err := s.budget.Charge(budget.LedgerReadByte, snap.size); err != nil {
		return zero, err
	}
	return snap.entry, nil
}

// Has enforces read access and reports presence without materializing the
// entry, so only the probe is charged, not the entry bytes.
func (s *Storage) Has(key xdr.LedgerKey) (bool, error) {
	if err := s.footprint.Enforce(key, AccessReadOnly); err != nil {
		return false, err
	}
	id, err := encodeKey(key)
	if err != nil {
		return false, err
	}
	rec, inOverlay, err := s.overlay.Get(id)
	if err != nil {
		return false, err
	}
	if inOverlay {
		return rec.entry != nil, nil
	}
	_, ok := s.snapshot[id]
	return ok, nil
}

// Put enforces write access, charges the write proportional to the entry's
// serialized size, and buffers the new value in the overlay. A failed
// charge leaves no pending mutation behind.
func (s *Storage) Put(key xdr.LedgerKey, entry xdr.LedgerEntry) error {
	if err := s.footprint.Enforce(key, AccessReadWrite); err != nil {
		return err
	}
	id, err := encodeKey(key)
	if err != nil {
		return err
	}
	_, size, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	if err := s.budget.Charge(budget.LedgerWriteByte, size); err != nil {
		return err
	}
	updated, err := s.overlay.Set(id, overlayRecord{key: key, entry: &entry, size: size})
	if err != nil {
		return err
	}
	s.overlay = updated
	return nil
}

// Del enforces write access and buffers an explicit tombstone. Deleting an
// absent key is not an error; the tombstone still records the intent.
func (s *Storage) Del(key xdr.LedgerKey) error {
	if err := s.footprint.Enforce(key, AccessReadWrite); err != nil {
		return err
	}
	id, err := encodeKey(key)
	if err != nil {
		return err
	}
	if err := s.budget.Charge(budget.LedgerWriteByte, 0); err != nil {
		return err
	}
	updated, err := s.overlay.Set(id, overlayRecord{key: key, entry: nil})
	if err != nil {
		return err
	}
	s.overlay = updated
	return nil
}

// Changes returns the buffered mutations in canonical key order for the
// surrounding commit logic. It is only meaningful after an execution ended
// with status Ok; aborted executions discard the Storage instead.
func (s *Storage) Changes() ([]Change, error) {
	out := make([]Change, 0, s.overlay.Len())
	err := s.overlay.Range(func(_ string, rec overlayRecord) bool {
		out = append(out, Change{Key: rec.key, Entry: rec.entry})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
