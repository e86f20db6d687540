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

// Package host drives one top-level contract invocation: exactly one
// Budget, one footprint-gated Storage and one bump sequence per execution,
// shared by every nested frame. Execution is synchronous and single-stack;
// a terminal error discards the whole execution's mutations.
package host

import (
	"context"

	"github.com/stellar/go/xdr"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
	"github.com/dotandev/soromet/internal/ledger"
	"github.com/dotandev/soromet/internal/telemetry"
)

// Engine runs one compiled module invocation. Satisfied by wazerovm.Engine;
// the host never depends on a concrete bytecode engine.
type Engine interface {
	Call(ctx context.Context, name string, args ...uint64) ([]uint64, error)
}

// Host owns the metered handles of one execution.
type Host struct {
	budget  *budget.Budget
	storage *ledger.Storage
	bumps   *ledger.ExpirationLedgerBumps
	depth   int
}

// New builds a host over one budget, one footprint and the preloaded
// working set. Snapshot construction is itself charged, so an execution
// can fail before its first instruction.
func New(b *budget.Budget, fp *ledger.Footprint, snapshot []ledger.SnapshotEntry) (*Host, error) {
	storage, err := ledger.NewStorage(b, fp, snapshot)
	if err != nil {
		return nil, err
	}
	bumps, err := ledger.NewExpirationLedgerBumps(b)
	if err != nil {
		return nil, err
	}
	return &Host{budget: b, storage: storage, bumps: bumps}, nil
}

func (h *Host) Budget() *budget.Budget               { return h.budget }
func (h *Host) Storage() *ledger.Storage             { return h.storage }
func (h *Host) Bumps() *ledger.ExpirationLedgerBumps { return h.bumps }
func (h *Host) Depth() int                           { return h.depth }

// PushFrame enters a nested invocation frame. The frame borrows the same
// budget, storage and bumps handles; only the guard itself is charged.
func (h *Host) PushFrame() error {
	if err := h.budget.Charge(budget.GuardFrame, 0); err != nil {
		return err
	}
	h.depth++
	return nil
}

// PopFrame leaves the current frame.
func (h *Host) PopFrame() error {
	if h.depth == 0 {
		return errors.WrapContractMsg("frame stack underflow")
	}
	h.depth--
	return nil
}

// RecordBump asks the commit logic to extend key's expiration.
func (h *Host) RecordBump(key xdr.LedgerKey, minExpiration uint32) error {
	return h.bumps.Record(key, minExpiration)
}

// InvokeResult is the outcome of one top-level invocation. Changes and
// Bumps are populated only on StatusOk; an aborted execution exposes no
// mutations.
type InvokeResult struct {
	Status  Status
	Results []uint64
	Changes []ledger.Change
	Bumps   []ledger.LedgerBump
	Usage   budget.Usage
}

// Invoke runs the exported function fn as the execution's top-level frame
// and maps the outcome to a terminal status. The span is diagnostics only.
func (h *Host) Invoke(ctx context.Context, eng Engine, fn string, args ...uint64) (InvokeResult, error) {
	ctx, span := telemetry.GetTracer().Start(ctx, "invoke_contract")
	defer span.End()
	span.SetAttributes(attribute.String("contract.function", fn))

	var res InvokeResult
	if err := h.PushFrame(); err != nil {
		return h.finish(span, res, err)
	}
	out, err := eng.Call(ctx, fn, args...)
	if perr := h.PopFrame(); err == nil {
		err = perr
	}
	res.Results = out
	if err != nil {
		return h.finish(span, res, err)
	}

	changes, err := h.storage.Changes()
	if err != nil {
		return h.finish(span, res, err)
	}
	bumps, err := h.bumps.All()
	if err != nil {
		return h.finish(span, res, err)
	}
	res.Changes = changes
	res.Bumps = bumps
	return h.finish(span, res, nil)
}

func (h *Host) finish(span oteltrace.Span, res InvokeResult, err error) (InvokeResult, error) {
	res.Status = StatusOf(err)
	res.Usage = h.budget.Usage()
	if err != nil {
		span.RecordError(err)
		res.Results = nil
		res.Changes = nil
		res.Bumps = nil
	}
	span.SetAttributes(
		attribute.String("invoke.status", res.Status.String()),
		attribute.Int64("budget.cpu_consumed", int64(res.Usage.CPUConsumed)),
		attribute.Int64("budget.mem_consumed", int64(res.Usage.MemConsumed)),
	)
	return res, err
}
