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

package vm

import "github.com/dotandev/soromet/internal/budget"

// Opcode is a core wasm opcode byte.
type Opcode byte

// The opcodes the classifier and section walker name explicitly.
const (
	OpUnreachable  Opcode = 0x00
	OpNop          Opcode = 0x01
	OpBlock        Opcode = 0x02
	OpLoop         Opcode = 0x03
	OpIf           Opcode = 0x04
	OpElse         Opcode = 0x05
	OpEnd          Opcode = 0x0B
	OpBr           Opcode = 0x0C
	OpBrIf         Opcode = 0x0D
	OpBrTable      Opcode = 0x0E
	OpReturn       Opcode = 0x0F
	OpCall         Opcode = 0x10
	OpCallIndirect Opcode = 0x11
	OpDrop         Opcode = 0x1A
	OpSelect       Opcode = 0x1B
	OpLocalGet     Opcode = 0x20
	OpLocalSet     Opcode = 0x21
	OpLocalTee     Opcode = 0x22
	OpGlobalGet    Opcode = 0x23
	OpGlobalSet    Opcode = 0x24
	OpMemorySize   Opcode = 0x3F
	OpMemoryGrow   Opcode = 0x40
	OpI32Const     Opcode = 0x41
	OpI64Const     Opcode = 0x42
	OpF32Const     Opcode = 0x43
	OpF64Const     Opcode = 0x44
)

// Classify maps a concrete opcode to its instruction-class CostType.
// Classes differ by an order of magnitude in true cost, so a coarse
// aggregate charge would misprice calls against constant pushes.
//
// Width folding: i32 forms charge as their calibrated i64 counterparts,
// never cheaper. Unknown opcodes fall into the baseline class so nothing
// executes for free.
func Classify(op Opcode) budget.CostType {
	switch {
	case op == OpCall:
		return budget.WasmInsnCall
	case op == OpCallIndirect:
		return budget.WasmInsnCallIndirect
	case op == OpGlobalGet || op == OpGlobalSet:
		return budget.WasmInsnGlobal
	case op == OpMemorySize || op == OpMemoryGrow:
		return budget.WasmInsnMemPage
	case op >= 0x28 && op <= 0x35: // loads of all widths
		return budget.WasmInsnMemLoad
	case op >= 0x36 && op <= 0x3E: // stores of all widths
		return budget.WasmInsnMemStore
	case op == OpUnreachable, op == OpBlock, op == OpLoop, op == OpIf,
		op == OpElse, op == OpEnd, op >= OpBr && op <= OpReturn:
		return budget.WasmInsnControl
	default:
		// const, drop, select, local access, arithmetic, comparison.
		return budget.WasmInsnExec
	}
}
