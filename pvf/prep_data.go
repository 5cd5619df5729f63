// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pvf

import (
	"time"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

// PrepData is everything needed to prepare a parachain validation
// function: the code blob, its hash, the executor environment
// parameters of the session and the preparation budget.
type PrepData struct {
	code           parachaintypes.ValidationCode
	codeHash       parachaintypes.ValidationCodeHash
	executorParams parachaintypes.ExecutorParams
	prepTimeout    time.Duration
	prepKind       parachaintypes.PvfPrepKind
}

// NewPrepData returns prepare data for the given code. The code hash
// is computed here so all host paths agree on the worker identity.
func NewPrepData(code parachaintypes.ValidationCode, executorParams parachaintypes.ExecutorParams,
	prepKind parachaintypes.PvfPrepKind, prepTimeout time.Duration) PrepData {
	return PrepData{
		code:           code,
		codeHash:       code.Hash(),
		executorParams: executorParams,
		prepTimeout:    prepTimeout,
		prepKind:       prepKind,
	}
}

// Code returns the validation code blob.
func (p PrepData) Code() parachaintypes.ValidationCode { return p.code }

// CodeHash returns the blake2b hash of the validation code.
func (p PrepData) CodeHash() parachaintypes.ValidationCodeHash { return p.codeHash }

// ExecutorParams returns the session's executor environment parameters.
func (p PrepData) ExecutorParams() parachaintypes.ExecutorParams { return p.executorParams }

// PrepTimeout returns the preparation budget.
func (p PrepData) PrepTimeout() time.Duration { return p.prepTimeout }

// PrepKind returns the kind of prepare job.
func (p PrepData) PrepKind() parachaintypes.PvfPrepKind { return p.prepKind }
