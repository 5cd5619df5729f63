// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import (
	"fmt"
	"time"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

// PvfPrepKind is the type of prepare job.
type PvfPrepKind byte

const (
	// Precheck is preparation for prechecking, run under the strict
	// prepare timeout.
	Precheck PvfPrepKind = iota
	// Prepare is preparation for execution, run under the lenient
	// prepare timeout.
	Prepare
)

// PvfExecTimeoutKind is the type of the execution timeout, as carried
// in the on-chain executor parameters.
type PvfExecTimeoutKind byte

const (
	// Backing is the timeout for backing execution.
	Backing PvfExecTimeoutKind = iota
	// Approval is the timeout for approval and dispute execution.
	Approval
)

// PvfExecKind is the node-side kind of candidate validation execution.
type PvfExecKind byte

const (
	// PvfExecDispute is execution initiated by the dispute coordinator.
	PvfExecDispute PvfExecKind = iota
	// PvfExecApproval is execution initiated during approval voting.
	PvfExecApproval
	// PvfExecBackingSystemParas is backing execution for a system parachain.
	PvfExecBackingSystemParas
	// PvfExecBacking is backing execution for an ordinary parachain.
	PvfExecBacking
)

// TimeoutKind maps the execution kind to the on-chain timeout kind
// it is subject to.
func (k PvfExecKind) TimeoutKind() PvfExecTimeoutKind {
	switch k {
	case PvfExecBacking, PvfExecBackingSystemParas:
		return Backing
	default:
		return Approval
	}
}

func (k PvfExecKind) String() string {
	switch k {
	case PvfExecDispute:
		return "dispute"
	case PvfExecApproval:
		return "approval"
	case PvfExecBackingSystemParas:
		return "backing-system-paras"
	case PvfExecBacking:
		return "backing"
	default:
		return "unknown"
	}
}

// MaxMemoryPages is the maximum number of memory pages (64KiB bytes
// per page) the executor can allocate.
type MaxMemoryPages uint32

// Index returns the scale index of this type.
func (MaxMemoryPages) Index() uint { return 1 }

// StackLogicalMax is the wasm logical stack size limit, in wasm values.
type StackLogicalMax uint32

// Index returns the scale index of this type.
func (StackLogicalMax) Index() uint { return 2 }

// StackNativeMax is the executor machine stack size limit, in bytes.
type StackNativeMax uint32

// Index returns the scale index of this type.
func (StackNativeMax) Index() uint { return 3 }

// PrecheckingMaxMemory is the maximum memory allowed for a prechecking
// job, in bytes.
type PrecheckingMaxMemory uint64

// Index returns the scale index of this type.
func (PrecheckingMaxMemory) Index() uint { return 4 }

// PvfPrepTimeout is a PVF preparation timeout, in milliseconds, for
// the given prepare kind.
type PvfPrepTimeout struct {
	PvfPrepKind PvfPrepKind `scale:"1"`
	Millisec    uint64      `scale:"2"`
}

// Index returns the scale index of this type.
func (PvfPrepTimeout) Index() uint { return 5 }

// PvfExecTimeout is a PVF execution timeout, in milliseconds, for the
// given timeout kind.
type PvfExecTimeout struct {
	PvfExecTimeoutKind PvfExecTimeoutKind `scale:"1"`
	Millisec           uint64             `scale:"2"`
}

// Index returns the scale index of this type.
func (PvfExecTimeout) Index() uint { return 6 }

// WasmExtBulkMemory enables the wasm bulk memory proposal.
type WasmExtBulkMemory struct{}

// Index returns the scale index of this type.
func (WasmExtBulkMemory) Index() uint { return 7 }

// ExecutorParams are the abstract semi-opaque executor environment
// parameters for a session, stored in the session info on chain.
type ExecutorParams scale.VaryingDataTypeSlice

// NewExecutorParams returns a new, empty ExecutorParams.
func NewExecutorParams() ExecutorParams {
	vdt := scale.MustNewVaryingDataType(
		MaxMemoryPages(0),
		StackLogicalMax(0),
		StackNativeMax(0),
		PrecheckingMaxMemory(0),
		PvfPrepTimeout{},
		PvfExecTimeout{},
		WasmExtBulkMemory{},
	)
	return ExecutorParams(scale.NewVaryingDataTypeSlice(vdt))
}

// Add appends the given parameter values.
func (ep *ExecutorParams) Add(values ...scale.VaryingDataTypeValue) error {
	vdts := scale.VaryingDataTypeSlice(*ep)
	if err := vdts.Add(values...); err != nil {
		return fmt.Errorf("adding executor params: %w", err)
	}
	*ep = ExecutorParams(vdts)
	return nil
}

// PvfPrepTimeout returns the custom preparation timeout for the given
// prepare kind, or nil if the parameters carry none.
func (ep ExecutorParams) PvfPrepTimeout(kind PvfPrepKind) *time.Duration {
	for i := range ep.Types {
		value, err := ep.Types[i].Value()
		if err != nil {
			continue
		}
		param, ok := value.(PvfPrepTimeout)
		if ok && param.PvfPrepKind == kind {
			timeout := time.Duration(param.Millisec) * time.Millisecond
			return &timeout
		}
	}
	return nil
}

// PvfExecTimeout returns the custom execution timeout for the given
// timeout kind, or nil if the parameters carry none.
func (ep ExecutorParams) PvfExecTimeout(kind PvfExecTimeoutKind) *time.Duration {
	for i := range ep.Types {
		value, err := ep.Types[i].Value()
		if err != nil {
			continue
		}
		param, ok := value.(PvfExecTimeout)
		if ok && param.PvfExecTimeoutKind == kind {
			timeout := time.Duration(param.Millisec) * time.Millisecond
			return &timeout
		}
	}
	return nil
}
