// Copyright 2026 Soromet Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"fmt"

	"github.com/stellar/go/xdr"
)

// encodeKey produces the canonical identity of a ledger key: its XDR binary
// encoding. Map ordering and equality both derive from it, so iteration
// order over footprints and overlays is the XDR byte order — total,
// deterministic and identical on every node.
func encodeKey(key xdr.LedgerKey) (string, error) {
	data, err := key.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode ledger key: %w", err)
	}
	return string(data), nil
}

// encodeEntry serializes a ledger entry and reports its wire size, the size
// proxy used for read/write byte charges.
func encodeEntry(entry xdr.LedgerEntry) ([]byte, uint64, error) {
	data, err := entry.MarshalBinary()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode ledger entry: %w", err)
	}
	return data, uint64(len(data)), nil
}
