// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"github.com/ChainSafe/gossamer/lib/common"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

// ValidateFromChainState performs validation of a candidate with
// provided parameters. The persisted validation data and validation
// code are fetched from the runtime at the candidate's relay parent.
type ValidateFromChainState struct {
	CandidateReceipt parachaintypes.CandidateReceipt
	Pov              parachaintypes.PoV
	ExecutorParams   parachaintypes.ExecutorParams
	ExecKind         parachaintypes.PvfExecKind
	Ch               chan parachaintypes.OverseerFuncRes[ValidationResult]
}

// ValidateFromExhaustive performs full validation of a candidate with provided
// parameters, including `PersistedValidationData` and `ValidationCode`. It
// doesn't involve acceptance criteria checking and is typically used when the
// candidate's validity is established through prior relay-chain checks.
type ValidateFromExhaustive struct {
	PersistedValidationData parachaintypes.PersistedValidationData
	ValidationCode          parachaintypes.ValidationCode
	CandidateReceipt        parachaintypes.CandidateReceipt
	PoV                     parachaintypes.PoV
	ExecutorParams          parachaintypes.ExecutorParams
	PvfExecKind             parachaintypes.PvfExecKind
	Ch                      chan parachaintypes.OverseerFuncRes[ValidationResult]
}

// PreCheck tries to compile the given validation code and returns the result.
// The validation code is specified by the hash and will be queried from the
// runtime API at the given relay-parent.
type PreCheck struct {
	RelayParent        common.Hash
	ValidationCodeHash parachaintypes.ValidationCodeHash
	ResponseSender     chan PreCheckOutcome
}

// PreCheckOutcome represents the outcome of the candidate-validation pre-check request
type PreCheckOutcome byte

const (
	// PreCheckOutcomeValid votes for the validation code.
	PreCheckOutcomeValid PreCheckOutcome = iota
	// PreCheckOutcomeInvalid votes against the validation code.
	PreCheckOutcomeInvalid
	// PreCheckOutcomeFailed abstains, the node could not determine
	// validity of the code.
	PreCheckOutcomeFailed
)

func (p PreCheckOutcome) String() string {
	switch p {
	case PreCheckOutcomeValid:
		return "valid"
	case PreCheckOutcomeInvalid:
		return "invalid"
	case PreCheckOutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
