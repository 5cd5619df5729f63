// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pvf

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

// Instance executes the parachain validity function.
type Instance interface {
	ValidateBlock(params ValidationParameters) (*ValidationResult, error)
}

// InstanceFactory creates execution instances from decompressed
// validation code.
type InstanceFactory func(code parachaintypes.ValidationCode) (Instance, error)

const wasmPageSize = 65536

// wazeroInstance is an Instance backed by a wazero runtime. An
// instance runs one job at a time, the worker loop already serialises
// calls per validation code.
type wazeroInstance struct {
	mtx      sync.Mutex
	runtime  wazero.Runtime
	module   api.Module
	heapBase uint32
}

// setupVM compiles and instantiates the validation code. Compilation
// failures are deterministic for the same code and reported as
// preparation errors.
func setupVM(code parachaintypes.ValidationCode) (Instance, error) {
	ctx := context.Background()
	runtime := wazero.NewRuntime(ctx)

	compiled, err := runtime.CompileModule(ctx, code)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, &PrepareError{Kind: PreparePreparation, Msg: err.Error()}
	}

	module, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("%w: %s", ErrRuntimeConstruction, err)
	}

	if module.ExportedFunction("validate_block") == nil {
		_ = runtime.Close(ctx)
		return nil, &PrepareError{Kind: PreparePrevalidation,
			Msg: "code does not export validate_block"}
	}

	var heapBase uint32
	if global := module.ExportedGlobal("__heap_base"); global != nil {
		heapBase = uint32(global.Get())
	}

	return &wazeroInstance{
		runtime:  runtime,
		module:   module,
		heapBase: heapBase,
	}, nil
}

// ValidateBlock calls the validate_block export with the scale
// encoded parameters and decodes the returned validation result.
func (in *wazeroInstance) ValidateBlock(params ValidationParameters) (*ValidationResult, error) {
	encoded, err := scale.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding validation parameters: %w", err)
	}

	in.mtx.Lock()
	defer in.mtx.Unlock()

	ctx := context.Background()
	memory := in.module.Memory()
	if memory == nil {
		return nil, fmt.Errorf("%w: module exports no memory", ErrRuntimeConstruction)
	}

	inputPtr := in.heapBase
	end := uint64(inputPtr) + uint64(len(encoded))
	if currentSize := uint64(memory.Size()); end > currentSize {
		deltaPages := uint32((end - currentSize + wasmPageSize - 1) / wasmPageSize)
		if _, ok := memory.Grow(deltaPages); !ok {
			return nil, fmt.Errorf("%w: growing module memory", ErrJobError)
		}
	}
	if !memory.Write(inputPtr, encoded) {
		return nil, fmt.Errorf("%w: writing parameters to module memory", ErrJobError)
	}

	results, err := in.module.ExportedFunction("validate_block").
		Call(ctx, uint64(inputPtr), uint64(len(encoded)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrJobError, err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("%w: validate_block returned %d values",
			ErrJobError, len(results))
	}

	// the return value packs the result pointer in the low 32 bits
	// and its length in the high 32 bits
	outputPtr := uint32(results[0])
	outputLen := uint32(results[0] >> 32)
	output, ok := memory.Read(outputPtr, outputLen)
	if !ok {
		return nil, fmt.Errorf("%w: reading result from module memory", ErrJobError)
	}

	validationResult := ValidationResult{}
	if err := scale.Unmarshal(output, &validationResult); err != nil {
		return nil, fmt.Errorf("%w: scale decoding result: %s", ErrJobError, err)
	}
	return &validationResult, nil
}

func (in *wazeroInstance) close() {
	in.mtx.Lock()
	defer in.mtx.Unlock()
	_ = in.runtime.Close(context.Background())
}
