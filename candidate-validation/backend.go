// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"errors"
	"time"

	"github.com/ChainSafe/parachain-validation/pvf"
	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

// pvfApprovalExecutionRetryDelay is the wait between retries of
// possibly transient execution failures during approvals and disputes.
const pvfApprovalExecutionRetryDelay = 3 * time.Second

// ValidationBackend is the capability the orchestrator requires of an
// execution host: run a job once, precheck a validation function, and
// warm up a batch of validation functions. Retries are layered on top
// by validateWithRetry, backends implement single attempts only.
type ValidationBackend interface {
	// ValidateCandidate executes the job once, without retries, bounded
	// by execTimeout.
	ValidateCandidate(pvfData pvf.PrepData, execTimeout time.Duration,
		pvd parachaintypes.PersistedValidationData, pov parachaintypes.PoV,
		priority pvf.Priority) (*pvf.ValidationResult, error)
	// PrecheckPvf attempts preparation only.
	PrecheckPvf(pvfData pvf.PrepData) error
	// HeadsUp asks the host to prepare the given validation functions
	// without running them. Best effort, fire and forget.
	HeadsUp(batch []pvf.PrepData) error
}

// validateWithRetry wraps single validation attempts with bounded,
// classified retries for the approval and dispute contexts.
//
// Each possibly transient error category holds a one-shot retry
// budget: worker or job death, opaque job errors, internal host
// faults, and runtime construction failures. Once a category's budget
// is spent its errors become terminal. Deterministic outcomes never
// retry. A retry is only committed to while the elapsed time plus the
// retry delay still fits the execution timeout, and every retry runs
// with the remaining share of the original budget.
func validateWithRetry(backend ValidationBackend, rawValidationCode parachaintypes.ValidationCode,
	execTimeout time.Duration, pvd parachaintypes.PersistedValidationData,
	pov parachaintypes.PoV, executorParams parachaintypes.ExecutorParams,
	retryDelay time.Duration, execKind parachaintypes.PvfExecKind,
) (*pvf.ValidationResult, error) {

	// Construct the job a single time, preparation is expensive and
	// the prepared artifact is reused across attempts.
	prepTimeout := pvfPrepTimeout(executorParams, parachaintypes.Prepare)
	pvfData := pvf.NewPrepData(rawValidationCode, executorParams, parachaintypes.Prepare, prepTimeout)
	priority := pvf.PriorityFromExecKind(execKind)

	totalTimeStart := time.Now()

	result, err := backend.ValidateCandidate(pvfData, execTimeout, pvd, pov, priority)
	if err == nil {
		return result, nil
	}

	deathRetriesLeft := 1
	jobErrorRetriesLeft := 1
	internalRetriesLeft := 1
	runtimeConstructionRetriesLeft := 1

retryLoop:
	for {
		// Stop retrying if we exceeded the timeout.
		if time.Since(totalTimeStart)+retryDelay > execTimeout {
			break
		}

		retryImmediately := false
		switch {
		case errors.Is(err, pvf.ErrAmbiguousWorkerDeath), errors.Is(err, pvf.ErrAmbiguousJobDeath):
			if deathRetriesLeft == 0 {
				break retryLoop
			}
			deathRetriesLeft--

		case errors.Is(err, pvf.ErrJobError):
			if jobErrorRetriesLeft == 0 {
				break retryLoop
			}
			jobErrorRetriesLeft--

		case pvf.IsInternal(err):
			if internalRetriesLeft == 0 {
				break retryLoop
			}
			internalRetriesLeft--

		case errors.Is(err, pvf.ErrRuntimeConstruction):
			if runtimeConstructionRetriesLeft == 0 {
				break retryLoop
			}
			runtimeConstructionRetriesLeft--

			// The failed artifact is suspect, so pre-check the code
			// again before the retry. A deterministic preparation
			// failure now is the definite outcome.
			precheckTimeout := pvfPrepTimeout(executorParams, parachaintypes.Precheck)
			precheckData := pvf.NewPrepData(rawValidationCode, executorParams,
				parachaintypes.Precheck, precheckTimeout)
			if precheckErr := backend.PrecheckPvf(precheckData); precheckErr != nil {
				prepErr := &pvf.PrepareError{}
				if errors.As(precheckErr, &prepErr) && prepErr.IsDeterministic() {
					return nil, precheckErr
				}
			}
			// The pre-check itself re-validated determinism, no
			// benefit in waiting before the retry.
			retryImmediately = true

		default:
			// hard timeouts, worker-reported invalidity and
			// preparation failures are deterministic
			break retryLoop
		}

		if !retryImmediately {
			time.Sleep(retryDelay)
		}

		newTimeout := execTimeout - time.Since(totalTimeStart)
		if newTimeout < 0 {
			newTimeout = 0
		}
		logger.Warnf(
			"retrying candidate validation for %s with timeout %s after possibly transient error: %s",
			pvfData.CodeHash(), newTimeout, err)

		result, err = backend.ValidateCandidate(pvfData, newTimeout, pvd, pov, priority)
		if err == nil {
			return result, nil
		}
	}

	return nil, err
}
