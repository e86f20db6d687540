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

// Package wazerovm adapts wazero as the external bytecode engine behind the
// vm package's metering hooks. Parse and instantiation phases are priced
// from the module's own section counts before wazero touches it; function
// calls are priced through wazero's function listener as they happen.
package wazerovm

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"

	"github.com/dotandev/soromet/internal/budget"
	"github.com/dotandev/soromet/internal/errors"
	"github.com/dotandev/soromet/internal/vm"
)

// Engine runs one module for one invocation against one Budget. A second
// Call on the same Engine fails: the module is Halted after the first.
type Engine struct {
	budget  *budget.Budget
	hooks   *vm.Hooks
	runtime wazero.Runtime
	module  api.Module

	// set by the listener when a mid-execution charge fails; the module is
	// closed at that point so wazero unwinds the call stack for us.
	chargeErr error
}

// New parses, prices and instantiates code. The whole code size and every
// section dimension are charged before wazero compiles anything, so an
// oversized module is rejected without doing its work.
func New(ctx context.Context, b *budget.Budget, code []byte) (*Engine, error) {
	e := &Engine{budget: b, hooks: vm.NewHooks(b)}

	if err := e.hooks.OnParse(code); err != nil {
		return nil, err
	}
	stats, err := vm.ParseSectionStats(code)
	if err != nil {
		e.hooks.OnHalt(err)
		return nil, err
	}
	if err := e.hooks.OnInstantiate(stats); err != nil {
		return nil, err
	}

	rctx := experimental.WithFunctionListenerFactory(ctx, meterFactory{e})
	runtime := wazero.NewRuntimeWithConfig(rctx, wazero.NewRuntimeConfigInterpreter())
	module, err := runtime.InstantiateWithConfig(rctx, code,
		wazero.NewModuleConfig().WithName("contract"))
	if err != nil {
		runtime.Close(ctx)
		wrapped := errors.WrapWasmParse(err)
		e.hooks.OnHalt(wrapped)
		return nil, wrapped
	}

	e.runtime = runtime
	e.module = module
	return e, nil
}

// Call invokes the exported function name. Dispatch is charged up front;
// each function call wazero executes is charged by the listener. On a
// failed mid-execution charge the module is closed and the budget error is
// returned instead of wazero's close error.
func (e *Engine) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := e.module.ExportedFunction(name)
	if fn == nil {
		err := errors.WrapContractMsg("no exported function " + name)
		e.hooks.OnHalt(err)
		return nil, err
	}
	if err := e.hooks.OnExecutionStart(); err != nil {
		return nil, err
	}

	results, err := fn.Call(ctx, args...)
	if e.chargeErr != nil {
		return nil, e.chargeErr
	}
	if err != nil {
		wrapped := errors.WrapContract(err)
		e.hooks.OnHalt(wrapped)
		return nil, wrapped
	}
	e.hooks.OnHalt(nil)
	return results, nil
}

// Memory exposes the instantiated module's linear memory, nil when the
// module declares none.
func (e *Engine) Memory() api.Memory { return e.module.Memory() }

func (e *Engine) State() vm.ModuleState { return e.hooks.State() }
func (e *Engine) Reason() vm.HaltReason { return e.hooks.Reason() }

// Close releases the wazero runtime and everything instantiated in it.
func (e *Engine) Close(ctx context.Context) {
	if e.module != nil {
		e.module.Close(ctx)
	}
	if e.runtime != nil {
		e.runtime.Close(ctx)
	}
}

// ─── Function listener ───────────────────────────────────────────────────────

type meterFactory struct{ e *Engine }

func (f meterFactory) NewFunctionListener(def api.FunctionDefinition) experimental.FunctionListener {
	_, _, imported := def.Import()
	return &meterListener{e: f.e, imported: imported}
}

type meterListener struct {
	e        *Engine
	imported bool
}

func (l *meterListener) Before(ctx context.Context, mod api.Module, def api.FunctionDefinition, params []uint64, _ experimental.StackIterator) {
	// Start functions fire during instantiation, before metered execution
	// begins; those calls were already priced by the section charges.
	if l.e.chargeErr != nil || l.e.hooks.State() != vm.StateRunning {
		return
	}
	var err error
	if l.imported {
		err = l.e.hooks.OnImportedCall()
	} else {
		err = l.e.hooks.OnInstruction(vm.OpCall)
	}
	if err != nil {
		l.e.chargeErr = err
		// Closing the module makes wazero fail the in-flight call, which
		// unwinds the whole contract stack.
		mod.CloseWithExitCode(ctx, 1)
	}
}

func (l *meterListener) After(context.Context, api.Module, api.FunctionDefinition, []uint64) {
}

func (l *meterListener) Abort(context.Context, api.Module, api.FunctionDefinition, error) {
}
