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

package host

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/stellar/go/xdr"
	"golang.org/x/crypto/sha3"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
)

// Host-function helpers. Every helper charges its input size under the
// matching CostType before doing the work; on a failed charge the work is
// not performed.

// Sha256 hashes data, charged linear in the input length.
func (h *Host) Sha256(data []byte) ([sha256.Size]byte, error) {
	if err := h.budget.Charge(budget.ComputeSha256Hash, uint64(len(data))); err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// Keccak256 hashes data with the legacy Keccak padding Ethereum uses.
func (h *Host) Keccak256(data []byte) ([32]byte, error) {
	var out [32]byte
	if err := h.budget.Charge(budget.ComputeKeccak256Hash, uint64(len(data))); err != nil {
		return out, err
	}
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	copy(out[:], d.Sum(nil))
	return out, nil
}

// VerifyEd25519Sig verifies sig over msg, charged linear in the message
// length. A bad signature is a contract-visible error, not a host fault.
func (h *Host) VerifyEd25519Sig(pub ed25519.PublicKey, msg, sig []byte) error {
	if err := h.budget.Charge(budget.VerifyEd25519Sig, uint64(len(msg))); err != nil {
		return err
	}
	if len(pub) != ed25519.PublicKeySize {
		return errors.WrapContractMsg("invalid ed25519 public key length")
	}
	if !ed25519.Verify(pub, msg, sig) {
		return errors.WrapContractMsg("ed25519 signature verification failed")
	}
	return nil
}

// ComputeEd25519PubKey derives the public key from a 32-byte seed.
func (h *Host) ComputeEd25519PubKey(seed []byte) (ed25519.PublicKey, error) {
	if err := h.budget.Charge(budget.ComputeEd25519PubKey, 0); err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.WrapContractMsg("invalid ed25519 seed length")
	}
	return ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey), nil
}

// AllocBytes allocates a zeroed host-side buffer, charged linear in n.
func (h *Host) AllocBytes(n uint64) ([]byte, error) {
	if err := h.budget.Charge(budget.HostMemAlloc, n); err != nil {
		return nil, err
	}
	return make([]byte, n), nil
}

// MemCpy copies src into dst, charged linear in the copied length.
func (h *Host) MemCpy(dst, src []byte) (int, error) {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	if err := h.budget.Charge(budget.HostMemCpy, uint64(n)); err != nil {
		return 0, err
	}
	return copy(dst, src), nil
}

// MemCmp compares a and b, charged linear in the shorter length.
func (h *Host) MemCmp(a, b []byte) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if err := h.budget.Charge(budget.HostMemCmp, uint64(n)); err != nil {
		return 0, err
	}
	return bytes.Compare(a, b), nil
}

// SerializeEntry encodes entry to its wire form, charged linear in the
// encoded size. Encoding happens first because the size is the encoding's;
// the bytes are surrendered only when the charge succeeds.
func (h *Host) SerializeEntry(entry xdr.LedgerEntry) ([]byte, error) {
	data, err := entry.MarshalBinary()
	if err != nil {
		return nil, errors.WrapContract(err)
	}
	if err := h.budget.Charge(budget.ValSer, uint64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}

// DeserializeEntry decodes a wire-form entry, charged before decoding.
func (h *Host) DeserializeEntry(data []byte) (xdr.LedgerEntry, error) {
	var entry xdr.LedgerEntry
	if err := h.budget.Charge(budget.ValDeser, uint64(len(data))); err != nil {
		return entry, err
	}
	if err := xdr.SafeUnmarshal(data, &entry); err != nil {
		return xdr.LedgerEntry{}, errors.WrapContract(err)
	}
	return entry, nil
}
