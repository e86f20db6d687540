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

import "sync"

// The default table carries the protocol-22 calibration. Values were fit
// offline by the calibration harness (cmd `soromet calibrate`) and rounded
// up; editing them by hand is a protocol change.
var defaultEntries = []CostEntry{
	{Name: "WasmInsnExec", CPU: CostModel{ConstTerm: 4}},
	{Name: "WasmInsnControl", CPU: CostModel{ConstTerm: 13}},
	{Name: "WasmInsnGlobal", CPU: CostModel{ConstTerm: 8}},
	{Name: "WasmInsnMemLoad", CPU: CostModel{ConstTerm: 6}},
	{Name: "WasmInsnMemStore", CPU: CostModel{ConstTerm: 6}},
	{Name: "WasmInsnCall", CPU: CostModel{ConstTerm: 47}},
	{Name: "WasmInsnCallIndirect", CPU: CostModel{ConstTerm: 124}},
	{Name: "WasmInsnCallImport", CPU: CostModel{ConstTerm: 377}},
	{Name: "WasmInsnMemPage", CPU: CostModel{ConstTerm: 196}},
	{Name: "WasmMemAlloc", CPU: CostModel{ConstTerm: 350}, Mem: CostModel{LinearTerm: 1}},
	{Name: "HostMemAlloc", CPU: CostModel{ConstTerm: 1141, LinearTerm: 1}, Mem: CostModel{ConstTerm: 16, LinearTerm: 1}},
	{Name: "HostMemCpy", CPU: CostModel{ConstTerm: 39, LinearTerm: 1}},
	{Name: "HostMemCmp", CPU: CostModel{ConstTerm: 20, LinearTerm: 1}},
	{Name: "InvokeVmFunction", CPU: CostModel{ConstTerm: 5926}, Mem: CostModel{ConstTerm: 267}},
	{Name: "VmInstantiation", CPU: CostModel{ConstTerm: 31271, LinearTerm: 57}, Mem: CostModel{ConstTerm: 4096, LinearTerm: 2}},
	{Name: "VmInstantiateInstructions", CPU: CostModel{ConstTerm: 74, LinearTerm: 17}, Mem: CostModel{LinearTerm: 13}},
	{Name: "VmInstantiateFunctions", CPU: CostModel{ConstTerm: 92, LinearTerm: 533}, Mem: CostModel{LinearTerm: 68}},
	{Name: "VmInstantiateGlobals", CPU: CostModel{ConstTerm: 53, LinearTerm: 251}, Mem: CostModel{LinearTerm: 104}},
	{Name: "VmInstantiateTableEntries", CPU: CostModel{ConstTerm: 29, LinearTerm: 182}, Mem: CostModel{LinearTerm: 40}},
	{Name: "VmInstantiateImports", CPU: CostModel{ConstTerm: 112, LinearTerm: 642}, Mem: CostModel{LinearTerm: 96}},
	{Name: "VmInstantiateExports", CPU: CostModel{ConstTerm: 87, LinearTerm: 341}, Mem: CostModel{LinearTerm: 53}},
	{Name: "VmInstantiateDataSegments", CPU: CostModel{ConstTerm: 61, LinearTerm: 213}, Mem: CostModel{LinearTerm: 129}},
	{Name: "VmInstantiateMemPages", CPU: CostModel{ConstTerm: 41, LinearTerm: 1024}, Mem: CostModel{LinearTerm: 65536}},
	{Name: "VisitObject", CPU: CostModel{ConstTerm: 19}},
	{Name: "MapNew", CPU: CostModel{ConstTerm: 298, LinearTerm: 14}, Mem: CostModel{ConstTerm: 256, LinearTerm: 48}},
	{Name: "MapEntry", CPU: CostModel{ConstTerm: 55, LinearTerm: 2}},
	{Name: "VecNew", CPU: CostModel{ConstTerm: 207, LinearTerm: 8}, Mem: CostModel{ConstTerm: 128, LinearTerm: 16}},
	{Name: "VecEntry", CPU: CostModel{ConstTerm: 14, LinearTerm: 1}},
	{Name: "ValSer", CPU: CostModel{ConstTerm: 587, LinearTerm: 1}, Mem: CostModel{LinearTerm: 1}},
	{Name: "ValDeser", CPU: CostModel{ConstTerm: 870, LinearTerm: 1}, Mem: CostModel{LinearTerm: 1}},
	{Name: "ComputeSha256Hash", CPU: CostModel{ConstTerm: 3738, LinearTerm: 37}, Mem: CostModel{ConstTerm: 40}},
	{Name: "ComputeKeccak256Hash", CPU: CostModel{ConstTerm: 3766, LinearTerm: 63}, Mem: CostModel{ConstTerm: 40}},
	{Name: "ComputeEd25519PubKey", CPU: CostModel{ConstTerm: 25551}},
	{Name: "VerifyEd25519Sig", CPU: CostModel{ConstTerm: 377524, LinearTerm: 21}},
	{Name: "LedgerReadByte", CPU: CostModel{ConstTerm: 1786, LinearTerm: 2}, Mem: CostModel{LinearTerm: 1}},
	{Name: "LedgerWriteByte", CPU: CostModel{ConstTerm: 2391, LinearTerm: 3}},
	{Name: "GuardFrame", CPU: CostModel{ConstTerm: 736}, Mem: CostModel{ConstTerm: 128}},
	{Name: "ChargeBudget", CPU: CostModel{ConstTerm: 130}},
}

var (
	defaultTableOnce sync.Once
	defaultTable     *CostTable
)

// DefaultCostTable returns the built-in protocol-22 table. The table is
// built once and shared; it is immutable after construction.
func DefaultCostTable() *CostTable {
	defaultTableOnce.Do(func() {
		t := &CostTable{
			Version:  "1.2.0",
			Protocol: 22,
			Entries:  defaultEntries,
		}
		if err := t.build(); err != nil {
			// The static table is covered by tests; failing to build it is
			// unrecoverable misconfiguration of the binary itself.
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}
