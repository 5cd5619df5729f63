// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"fmt"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

// ValidationResult represents the result coming from the candidate validation
// subsystem. Validation results can be either a ValidValidationResult or an
// InvalidValidationResult.
//
// If the result is invalid, the InvalidValidationResult carries the reason
// for invalidity and an optional detail string.
//
// If the result is valid, the ValidValidationResult carries the candidate
// commitments and the persisted validation data the candidate was checked
// against.
type ValidationResult struct {
	Valid   *ValidValidationResult
	Invalid *InvalidValidationResult
}

// IsValid returns true for a valid verdict.
func (vr ValidationResult) IsValid() bool {
	return vr.Valid != nil
}

type ValidValidationResult struct {
	CandidateCommitments    parachaintypes.CandidateCommitments
	PersistedValidationData parachaintypes.PersistedValidationData
}

// InvalidValidationResult is a definite bad-candidate verdict together
// with the reason it was reached.
type InvalidValidationResult struct {
	Reason ReasonForInvalidity
	// Detail carries backend specifics for ExecutionError verdicts.
	Detail string
}

func (i InvalidValidationResult) String() string {
	if i.Detail == "" {
		return i.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", i.Reason.Error(), i.Detail)
}

func newInvalidResult(reason ReasonForInvalidity, detail string) *ValidationResult {
	return &ValidationResult{Invalid: &InvalidValidationResult{
		Reason: reason,
		Detail: detail,
	}}
}

type ReasonForInvalidity byte

const (
	// ExecutionError Failed to execute `validate_block`. This includes function panicking.
	ExecutionError ReasonForInvalidity = iota
	// InvalidOutputs Validation outputs check doesn't pass.
	InvalidOutputs
	// Timeout Execution timeout.
	Timeout
	// ParamsTooLarge Validation input is over the limit.
	ParamsTooLarge
	// CodeTooLarge Code size is over the limit.
	CodeTooLarge
	// PoVDecompressionFailure PoV does not decompress correctly.
	PoVDecompressionFailure
	// BadReturn Validation function returned invalid data.
	BadReturn
	// BadParent Invalid relay chain parent.
	BadParent
	// PoVHashMismatch POV hash does not match.
	PoVHashMismatch
	// BadSignature Bad collator signature.
	BadSignature
	// ParaHeadHashMismatch Para head hash does not match.
	ParaHeadHashMismatch
	// CodeHashMismatch Validation code hash does not match.
	CodeHashMismatch
	// CommitmentsHashMismatch Validation has generated different candidate commitments.
	CommitmentsHashMismatch
)

func (ci ReasonForInvalidity) Error() string {
	switch ci {
	case ExecutionError:
		return "failed to execute `validate_block`"
	case InvalidOutputs:
		return "validation outputs check doesn't pass"
	case Timeout:
		return "execution timeout"
	case ParamsTooLarge:
		return "validation input is over the limit"
	case CodeTooLarge:
		return "code size is over the limit"
	case PoVDecompressionFailure:
		return "PoV does not decompress correctly"
	case BadReturn:
		return "validation function returned invalid data"
	case BadParent:
		return "invalid relay chain parent"
	case PoVHashMismatch:
		return "PoV hash does not match"
	case BadSignature:
		return "bad collator signature"
	case ParaHeadHashMismatch:
		return "para head hash does not match"
	case CodeHashMismatch:
		return "validation code hash does not match"
	case CommitmentsHashMismatch:
		return "validation has generated different candidate commitments"
	default:
		return "unknown invalidity reason"
	}
}
