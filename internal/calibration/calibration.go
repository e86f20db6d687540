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

// Package calibration is the offline harness that produces CostModel
// coefficients. Nothing in this package runs during metered execution; its
// output is a versioned cost table the runtime loads as-is.
package calibration

import (
	"crypto/sha256"
	"math/rand"
	"time"

	"github.com/benbjohnson/immutable"
	"github.com/stellar/go/xdr"

	"github.com/dotandev/soromet/internal/budget"
)

// Observation is one measured data point: the per-iteration cpu and memory
// proxies for a cost type at one input size, baseline already subtracted.
type Observation struct {
	CostType   budget.CostType
	InputSize  uint64
	CPU        uint64
	Mem        uint64
	Iters      uint64
	MeasuredAt time.Time
}

// CaseGenerator produces random workloads for one cost type. NewRandomCase
// builds a case of the given input size; RunIter performs exactly the work
// the cost type prices, nothing else, on a prepared case.
type CaseGenerator interface {
	CostType() budget.CostType
	NewRandomCase(rng *rand.Rand, size uint64) any
	RunIter(sample any)
}

// Generators returns the built-in case generators.
func Generators() []CaseGenerator {
	return []CaseGenerator{
		sha256Gen{},
		memCpyGen{},
		valSerGen{},
		mapEntryGen{},
		vecEntryGen{},
	}
}

// ─── Built-in generators ─────────────────────────────────────────────────────

type sha256Gen struct{}

func (sha256Gen) CostType() budget.CostType { return budget.ComputeSha256Hash }

func (sha256Gen) NewRandomCase(rng *rand.Rand, size uint64) any {
	buf := make([]byte, size)
	rng.Read(buf)
	return buf
}

func (sha256Gen) RunIter(sample any) {
	sha256.Sum256(sample.([]byte))
}

type memCpyGen struct{}

func (memCpyGen) CostType() budget.CostType { return budget.HostMemCpy }

func (memCpyGen) NewRandomCase(rng *rand.Rand, size uint64) any {
	src := make([]byte, size)
	rng.Read(src)
	return &memCpySample{src: src, dst: make([]byte, size)}
}

type memCpySample struct {
	src []byte
	dst []byte
}

func (memCpyGen) RunIter(sample any) {
	s := sample.(*memCpySample)
	copy(s.dst, s.src)
}

type valSerGen struct{}

func (valSerGen) CostType() budget.CostType { return budget.ValSer }

func (valSerGen) NewRandomCase(rng *rand.Rand, size uint64) any {
	buf := make([]byte, size)
	rng.Read(buf)
	b := xdr.ScBytes(buf)
	return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &b}
}

func (valSerGen) RunIter(sample any) {
	v := sample.(xdr.ScVal)
	_, _ = v.MarshalBinary()
}

// mapEntryGen exercises ordered-map lookup at a given occupancy. Lookup
// keys cycle through the map so the measured cost reflects varied probe
// paths, not one hot entry.
type mapEntryGen struct{}

func (mapEntryGen) CostType() budget.CostType { return budget.MapEntry }

type mapEntrySample struct {
	m    *immutable.SortedMap[uint64, uint64]
	keys []uint64
	idx  int
}

func (mapEntryGen) NewRandomCase(rng *rand.Rand, size uint64) any {
	builder := immutable.NewSortedMapBuilder[uint64, uint64](nil)
	keys := make([]uint64, 0, size)
	for i := uint64(0); i < size; i++ {
		k := rng.Uint64()
		keys = append(keys, k)
		builder.Set(k, i)
	}
	return &mapEntrySample{m: builder.Map(), keys: keys}
}

func (mapEntryGen) RunIter(sample any) {
	s := sample.(*mapEntrySample)
	if len(s.keys) == 0 {
		return
	}
	k := s.keys[s.idx%len(s.keys)]
	s.idx++
	s.m.Get(k)
}

type vecEntryGen struct{}

func (vecEntryGen) CostType() budget.CostType { return budget.VecEntry }

type vecEntrySample struct {
	list *immutable.List[uint64]
	idx  int
}

func (vecEntryGen) NewRandomCase(rng *rand.Rand, size uint64) any {
	builder := immutable.NewListBuilder[uint64]()
	for i := uint64(0); i < size; i++ {
		builder.Append(rng.Uint64())
	}
	return &vecEntrySample{list: builder.List()}
}

func (vecEntryGen) RunIter(sample any) {
	s := sample.(*vecEntrySample)
	if s.list.Len() == 0 {
		return
	}
	s.list.Get(s.idx % s.list.Len())
	s.idx++
}
