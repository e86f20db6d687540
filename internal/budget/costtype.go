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

// CostType is the fixed, protocol-versioned enumeration of chargeable
// operation classes. Every variable-cost code path in the host charges the
// Budget under exactly one of these. The numeric values are part of the
// protocol: adding, removing or renumbering a member requires a protocol
// version bump.
type CostType int32

const (
	// WasmInsnExec is the baseline operand-stack instruction class: const,
	// drop, select, local access, arithmetic and comparison of any width.
	WasmInsnExec CostType = iota
	// WasmInsnControl covers branches, br_table, return and unreachable.
	WasmInsnControl
	// WasmInsnGlobal covers global.get and global.set.
	WasmInsnGlobal
	// WasmInsnMemLoad covers linear-memory loads of all widths.
	WasmInsnMemLoad
	// WasmInsnMemStore covers linear-memory stores of all widths.
	WasmInsnMemStore
	// WasmInsnCall is a direct call to a local function.
	WasmInsnCall
	// WasmInsnCallIndirect is a call through a table.
	WasmInsnCallIndirect
	// WasmInsnCallImport is a call to an imported (host) function.
	WasmInsnCallImport
	// WasmInsnMemPage covers memory.size and memory.grow.
	WasmInsnMemPage
	// WasmMemAlloc is guest linear-memory growth, per byte.
	WasmMemAlloc
	// HostMemAlloc is host-side allocation on behalf of the guest, per byte.
	HostMemAlloc
	// HostMemCpy is a host-side memory copy, per byte.
	HostMemCpy
	// HostMemCmp is a host-side memory comparison, per byte.
	HostMemCmp
	// InvokeVmFunction is the fixed cost of dispatching one exported
	// function invocation into the VM.
	InvokeVmFunction
	// VmInstantiation is charged on module parse with the full code size.
	VmInstantiation
	// VmInstantiateInstructions through VmInstantiateMemPages refine
	// instantiation cost per structural dimension of the parsed module, so
	// a module disproportionately heavy in one dimension cannot evade
	// metering by being light in the others.
	VmInstantiateInstructions
	VmInstantiateFunctions
	VmInstantiateGlobals
	VmInstantiateTableEntries
	VmInstantiateImports
	VmInstantiateExports
	VmInstantiateDataSegments
	VmInstantiateMemPages
	// VisitObject is the cost of resolving a host-object handle.
	VisitObject
	// MapNew is bulk construction of an ordered map, linear in entry count.
	MapNew
	// MapEntry is a single ordered-map lookup/insert/remove. Logarithmic in
	// reality, charged as a constant capped at a representative maximum
	// size to keep the charge computation O(1).
	MapEntry
	// VecNew is bulk construction of a vector, linear in element count.
	VecNew
	// VecEntry is a single vector access/update/append.
	VecEntry
	// ValSer serializes a value to its wire form, per byte.
	ValSer
	// ValDeser deserializes a value from its wire form, per byte.
	ValDeser
	// ComputeSha256Hash hashes, per input byte.
	ComputeSha256Hash
	// ComputeKeccak256Hash hashes, per input byte.
	ComputeKeccak256Hash
	// ComputeEd25519PubKey decompresses an ed25519 public key.
	ComputeEd25519PubKey
	// VerifyEd25519Sig verifies an ed25519 signature, per message byte.
	VerifyEd25519Sig
	// LedgerReadByte reads ledger entry bytes through the footprint gate.
	LedgerReadByte
	// LedgerWriteByte writes ledger entry bytes through the footprint gate.
	LedgerWriteByte
	// GuardFrame pushes one frame of the cross-contract call stack.
	GuardFrame
	// ChargeBudget is the overhead of the charging operation itself, added
	// once per Charge call.
	ChargeBudget

	numCostTypes = int(ChargeBudget) + 1
)

var costTypeNames = [numCostTypes]string{
	"WasmInsnExec",
	"WasmInsnControl",
	"WasmInsnGlobal",
	"WasmInsnMemLoad",
	"WasmInsnMemStore",
	"WasmInsnCall",
	"WasmInsnCallIndirect",
	"WasmInsnCallImport",
	"WasmInsnMemPage",
	"WasmMemAlloc",
	"HostMemAlloc",
	"HostMemCpy",
	"HostMemCmp",
	"InvokeVmFunction",
	"VmInstantiation",
	"VmInstantiateInstructions",
	"VmInstantiateFunctions",
	"VmInstantiateGlobals",
	"VmInstantiateTableEntries",
	"VmInstantiateImports",
	"VmInstantiateExports",
	"VmInstantiateDataSegments",
	"VmInstantiateMemPages",
	"VisitObject",
	"MapNew",
	"MapEntry",
	"VecNew",
	"VecEntry",
	"ValSer",
	"ValDeser",
	"ComputeSha256Hash",
	"ComputeKeccak256Hash",
	"ComputeEd25519PubKey",
	"VerifyEd25519Sig",
	"LedgerReadByte",
	"LedgerWriteByte",
	"GuardFrame",
	"ChargeBudget",
}

var costTypeByName = func() map[string]CostType {
	m := make(map[string]CostType, numCostTypes)
	for i, name := range costTypeNames {
		m[name] = CostType(i)
	}
	return m
}()

func (ct CostType) String() string {
	if !ct.Valid() {
		return "CostType(?)"
	}
	return costTypeNames[ct]
}

func (ct CostType) Valid() bool {
	return ct >= 0 && int(ct) < numCostTypes
}

// CostTypeByName resolves a cost-table entry name back to its CostType.
func CostTypeByName(name string) (CostType, bool) {
	ct, ok := costTypeByName[name]
	return ct, ok
}

// CostTypes returns every member in numeric order.
func CostTypes() []CostType {
	out := make([]CostType, numCostTypes)
	for i := range out {
		out[i] = CostType(i)
	}
	return out
}
