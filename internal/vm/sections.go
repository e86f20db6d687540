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

import (
	"encoding/binary"

	"github.com/dotandev/soromet/internal/errors"
)

// ParseSectionStats walks a wasm binary's section headers and collects the
// structural counts charged at instantiation. It reads headers, vector
// counts and code bodies only; validation and execution belong to the
// engine. Modules using post-MVP opcodes the walker cannot size are
// rejected rather than guessed at.
func ParseSectionStats(code []byte) (SectionStats, error) {
	var stats SectionStats
	r := &wasmReader{data: code}

	magic, err := r.bytes(4)
	if err != nil {
		return stats, err
	}
	if string(magic) != "\x00asm" {
		return stats, errors.WrapWasmParseMsg("bad magic")
	}
	ver, err := r.bytes(4)
	if err != nil {
		return stats, err
	}
	if binary.LittleEndian.Uint32(ver) != 1 {
		return stats, errors.WrapWasmParseMsg("unsupported wasm version")
	}

	for !r.done() {
		id, err := r.byte()
		if err != nil {
			return stats, err
		}
		size, err := r.varU32()
		if err != nil {
			return stats, err
		}
		payload, err := r.bytes(int(size))
		if err != nil {
			return stats, err
		}
		if err := collectSection(id, payload, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

const (
	secImport   = 2
	secFunction = 3
	secTable    = 4
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secElement  = 9
	secCode     = 10
	secData     = 11
)

func collectSection(id byte, payload []byte, stats *SectionStats) error {
	r := &wasmReader{data: payload}
	switch id {
	case secImport:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		stats.Imports += uint64(n)
	case secFunction:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		stats.Functions += uint64(n)
	case secTable:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if _, err := r.byte(); err != nil { // element type
				return err
			}
			minSize, err := r.limitsMin()
			if err != nil {
				return err
			}
			stats.TableEntries += uint64(minSize)
		}
	case secMemory:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			pages, err := r.limitsMin()
			if err != nil {
				return err
			}
			stats.MemPages += uint64(pages)
		}
	case secGlobal:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		stats.Globals += uint64(n)
	case secExport:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		stats.Exports += uint64(n)
	case secElement:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if _, err := r.varU32(); err != nil { // table index
				return err
			}
			if err := r.skipInitExpr(); err != nil {
				return err
			}
			funcs, err := r.varU32()
			if err != nil {
				return err
			}
			stats.TableEntries += uint64(funcs)
			for j := uint32(0); j < funcs; j++ {
				if _, err := r.varU32(); err != nil {
					return err
				}
			}
		}
	case secCode:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			bodySize, err := r.varU32()
			if err != nil {
				return err
			}
			body, err := r.bytes(int(bodySize))
			if err != nil {
				return err
			}
			insns, err := countBodyInstructions(body)
			if err != nil {
				return err
			}
			stats.Instructions += insns
		}
	case secData:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		stats.DataSegments += uint64(n)
	default:
		// type, start, custom: nothing to count.
	}
	return nil
}

// countBodyInstructions decodes a function body far enough to count its
// instructions: locals declarations first, then one opcode (plus its
// immediates) at a time. Every opcode counts, structure delimiters
// included.
func countBodyInstructions(body []byte) (uint64, error) {
	r := &wasmReader{data: body}

	localDecls, err := r.varU32()
	if err != nil {
		return 0, err
	}
	for i := uint32(0); i < localDecls; i++ {
		if _, err := r.varU32(); err != nil { // repetition count
			return 0, err
		}
		if _, err := r.byte(); err != nil { // value type
			return 0, err
		}
	}

	var count uint64
	for !r.done() {
		op, err := r.byte()
		if err != nil {
			return 0, err
		}
		count++
		if err := r.skipImmediates(Opcode(op)); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// ─── Binary reader ───────────────────────────────────────────────────────────

type wasmReader struct {
	data []byte
	pos  int
}

func (r *wasmReader) done() bool { return r.pos >= len(r.data) }

func (r *wasmReader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errors.WrapWasmParseMsg("unexpected end of module")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *wasmReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errors.WrapWasmParseMsg("section extends past end of module")
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// varU32 reads an unsigned LEB128 value of at most 5 bytes.
func (r *wasmReader) varU32() (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ {
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, errors.WrapWasmParseMsg("varuint32 too long")
}

// varS64 reads a signed LEB128 value of at most 10 bytes, discarding it.
func (r *wasmReader) varS64() error {
	for i := 0; i < 10; i++ {
		b, err := r.byte()
		if err != nil {
			return err
		}
		if b&0x80 == 0 {
			return nil
		}
	}
	return errors.WrapWasmParseMsg("varint64 too long")
}

// limitsMin reads a limits record and returns its minimum.
func (r *wasmReader) limitsMin() (uint32, error) {
	flags, err := r.byte()
	if err != nil {
		return 0, err
	}
	minSize, err := r.varU32()
	if err != nil {
		return 0, err
	}
	if flags&0x01 != 0 {
		if _, err := r.varU32(); err != nil { // maximum
			return 0, err
		}
	}
	return minSize, nil
}

// skipInitExpr consumes a constant initializer expression up to its End.
func (r *wasmReader) skipInitExpr() error {
	for {
		b, err := r.byte()
		if err != nil {
			return err
		}
		op := Opcode(b)
		if op == OpEnd {
			return nil
		}
		switch op {
		case OpI32Const, OpI64Const:
			if err := r.varS64(); err != nil {
				return err
			}
		case OpGlobalGet:
			if _, err := r.varU32(); err != nil {
				return err
			}
		case OpF32Const:
			if _, err := r.bytes(4); err != nil {
				return err
			}
		case OpF64Const:
			if _, err := r.bytes(8); err != nil {
				return err
			}
		default:
			return errors.WrapWasmParseMsg("unsupported opcode in init expression")
		}
	}
}

// skipImmediates consumes the immediates of one core opcode.
func (r *wasmReader) skipImmediates(op Opcode) error {
	switch {
	case op == OpBlock || op == OpLoop || op == OpIf:
		_, err := r.byte() // block type
		return err
	case op == OpBr || op == OpBrIf || op == OpCall,
		op >= OpLocalGet && op <= OpGlobalSet:
		_, err := r.varU32()
		return err
	case op == OpBrTable:
		n, err := r.varU32()
		if err != nil {
			return err
		}
		for i := uint32(0); i <= n; i++ { // targets plus default
			if _, err := r.varU32(); err != nil {
				return err
			}
		}
		return nil
	case op == OpCallIndirect:
		if _, err := r.varU32(); err != nil { // type index
			return err
		}
		_, err := r.byte() // table index
		return err
	case op >= 0x28 && op <= 0x3E: // memarg: alignment + offset
		if _, err := r.varU32(); err != nil {
			return err
		}
		_, err := r.varU32()
		return err
	case op == OpMemorySize || op == OpMemoryGrow:
		_, err := r.byte()
		return err
	case op == OpI32Const || op == OpI64Const:
		return r.varS64()
	case op == OpF32Const:
		_, err := r.bytes(4)
		return err
	case op == OpF64Const:
		_, err := r.bytes(8)
		return err
	case op <= OpReturn || op == OpDrop || op == OpSelect:
		// control/parametric opcodes without immediates
		return nil
	case op >= 0x45 && op <= 0xC4: // numeric ops
		return nil
	default:
		return errors.WrapWasmParseMsg("unsupported opcode in function body")
	}
}
