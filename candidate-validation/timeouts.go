// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"time"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

const (
	// defaultPrecheckPreparationTimeout is the strict preparation budget
	// used when prechecking proposed validation code.
	defaultPrecheckPreparationTimeout = 60 * time.Second
	// defaultLenientPreparationTimeout is the preparation budget used
	// ahead of real execution. Deliberately lenient, a preparation
	// timeout here would wrongly render the candidate invalid.
	defaultLenientPreparationTimeout = 360 * time.Second

	// defaultBackingExecutionTimeout bounds execution during backing.
	defaultBackingExecutionTimeout = 2 * time.Second
	// defaultApprovalExecutionTimeout bounds execution during approvals
	// and disputes. Must be at least as lenient as the backing timeout,
	// a candidate that passed backing cannot be judged unexecutable
	// later merely for being slow.
	defaultApprovalExecutionTimeout = 12 * time.Second
)

// pvfPrepTimeout returns the preparation timeout for the given kind,
// preferring an explicit value in the session's executor parameters
// over the hard-coded default.
func pvfPrepTimeout(executorParams parachaintypes.ExecutorParams,
	kind parachaintypes.PvfPrepKind) time.Duration {
	if timeout := executorParams.PvfPrepTimeout(kind); timeout != nil {
		return *timeout
	}
	switch kind {
	case parachaintypes.Precheck:
		return defaultPrecheckPreparationTimeout
	default:
		return defaultLenientPreparationTimeout
	}
}

// pvfExecTimeout returns the execution timeout for the given execution
// kind, preferring an explicit value in the session's executor
// parameters over the hard-coded default.
func pvfExecTimeout(executorParams parachaintypes.ExecutorParams,
	kind parachaintypes.PvfExecKind) time.Duration {
	timeoutKind := kind.TimeoutKind()
	if timeout := executorParams.PvfExecTimeout(timeoutKind); timeout != nil {
		return *timeout
	}
	switch timeoutKind {
	case parachaintypes.Backing:
		return defaultBackingExecutionTimeout
	default:
		return defaultApprovalExecutionTimeout
	}
}
