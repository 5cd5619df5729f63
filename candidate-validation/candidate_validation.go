// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package candidatevalidation is the parachain subsystem that validates
// candidate parachain blocks before they are backed, approved or used
// to resolve a dispute.
package candidatevalidation

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/gossamer/lib/keystore"

	"github.com/ChainSafe/parachain-validation/internal/log"
	"github.com/ChainSafe/parachain-validation/pvf"
	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "candidate-validation"))

// taskLimit is the ceiling on concurrently running validation and
// pre-check tasks. Reaching it is the subsystem's sole backpressure
// mechanism: the run loop stops accepting new work until a task
// finishes.
const taskLimit = 30

// CandidateValidation is a parachain subsystem that validates candidate parachain blocks
type CandidateValidation struct {
	SubsystemToOverseer chan<- any
	BlockState          BlockState
	Keystore            keystore.Keystore

	backend  ValidationBackend
	pvfHost  *pvf.Host
	taskDone chan struct{}
}

// NewCandidateValidation creates a new CandidateValidation subsystem
func NewCandidateValidation(overseerChan chan<- any, blockState BlockState,
	ks keystore.Keystore, pvfConfig pvf.Config) *CandidateValidation {
	pvfHost := pvf.NewValidationHost(pvfConfig)
	return &CandidateValidation{
		SubsystemToOverseer: overseerChan,
		BlockState:          blockState,
		Keystore:            ks,
		backend:             pvfHost,
		pvfHost:             pvfHost,
		taskDone:            make(chan struct{}, taskLimit),
	}
}

// Name returns the name of the subsystem
func (*CandidateValidation) Name() parachaintypes.SubSystemName {
	return parachaintypes.CandidateValidation
}

// ProcessActiveLeavesUpdateSignal triggers the warm-up of validation
// functions for upcoming authorities, see maybePrepareValidation.
func (*CandidateValidation) ProcessActiveLeavesUpdateSignal(parachaintypes.ActiveLeavesUpdateSignal) error {
	// handled inline by the run loop, which owns the warm-up state
	return nil
}

// ProcessBlockFinalizedSignal processes block finalized signal
func (*CandidateValidation) ProcessBlockFinalizedSignal(parachaintypes.BlockFinalizedSignal) error {
	// NOTE: this subsystem does not process block finalized signal
	return nil
}

// Stop stops the CandidateValidation subsystem
func (cv *CandidateValidation) Stop() {
	if cv.pvfHost != nil {
		cv.pvfHost.Stop()
	}
}

// Run starts the CandidateValidation subsystem's admission loop.
//
// While below taskLimit the loop races new communications against task
// completions, spawning one task per validation or pre-check request.
// At the limit it drains: signals keep being serviced and at most one
// communication is held back, but nothing more is read from the
// overseer channel, so senders block until a slot frees up.
func (cv *CandidateValidation) Run(ctx context.Context, overseerToSubsystem <-chan any) {
	prepareState := newPrepareValidationState()
	inFlight := 0
	var pending any

	for {
		draining := inFlight >= taskLimit

		if pending != nil && !draining {
			cv.spawnTask(pending)
			pending = nil
			inFlight++
			continue
		}

		if pending != nil {
			// one communication in hand already, wait for a slot
			select {
			case <-cv.taskDone:
				inFlight--
			case <-ctx.Done():
				cv.concluding(ctx)
				return
			}
			continue
		}

		select {
		case msg, ok := <-overseerToSubsystem:
			if !ok {
				return
			}
			switch msg := msg.(type) {
			case parachaintypes.ActiveLeavesUpdateSignal:
				if draining {
					// warm-up adds preparation load, skip it until
					// the task pool has room again
					continue
				}
				cv.maybePrepareValidation(prepareState, msg)
			case parachaintypes.BlockFinalizedSignal:
				_ = cv.ProcessBlockFinalizedSignal(msg)
			default:
				pending = msg
			}
		case <-cv.taskDone:
			inFlight--
		case <-ctx.Done():
			cv.concluding(ctx)
			return
		}
	}
}

func (cv *CandidateValidation) concluding(ctx context.Context) {
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("ctx error: %s", err)
	}
}

// spawnTask runs the message handler as its own goroutine. A panicking
// task only loses its own response, never the run loop.
func (cv *CandidateValidation) spawnTask(msg any) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("validation task panicked: %v", r)
			}
			cv.taskDone <- struct{}{}
		}()
		cv.processMessage(msg)
	}()
}

// processMessage processes messages sent to the CandidateValidation subsystem
func (cv *CandidateValidation) processMessage(msg any) {
	switch msg := msg.(type) {
	case ValidateFromChainState:
		cv.validateFromChainState(msg)

	case ValidateFromExhaustive:
		result, err := cv.validateCandidateExhaustive(msg.PersistedValidationData,
			msg.ValidationCode, msg.CandidateReceipt, msg.PoV, msg.ExecutorParams,
			msg.PvfExecKind)
		if err != nil {
			logger.Errorf("failed to validate from exhaustive: %s", err)
			sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{Err: err})
		} else {
			sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{Data: *result})
		}

	case PreCheck:
		outcome := cv.precheckPvF(msg)
		logger.Debugf("pre-check outcome for %s: %s", msg.ValidationCodeHash, outcome)
		sendResponse(msg.ResponseSender, outcome)

	default:
		logger.Errorf("%s: %T", parachaintypes.ErrUnknownOverseerMessage, msg)
	}
}

// sendResponse delivers the result, tolerating a caller that dropped
// its interest by closing the response channel.
func sendResponse[T any](ch chan<- T, response T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf("response channel closed by caller, discarding result")
		}
	}()
	ch <- response
}

// validateCandidateExhaustive runs the full validation of a candidate:
// the basic checks gate, then a single execution for backing contexts
// or a retried execution for approvals and disputes, and finally the
// mapping of the backend outcome to a consensus-facing verdict.
//
// A nil error with a result is a definite verdict. A non-nil error
// means the node cannot determine validity and must abstain.
func (cv *CandidateValidation) validateCandidateExhaustive(
	persistedValidationData parachaintypes.PersistedValidationData,
	validationCode parachaintypes.ValidationCode,
	candidateReceipt parachaintypes.CandidateReceipt,
	pov parachaintypes.PoV,
	executorParams parachaintypes.ExecutorParams,
	execKind parachaintypes.PvfExecKind,
) (*ValidationResult, error) {
	timer := validationDurationTimer()
	defer timer()

	validationCodeHash := validationCode.Hash()
	paraID := candidateReceipt.Descriptor.ParaID
	logger.Debugf("about to validate a candidate of parachain %d with code %s",
		paraID, validationCodeHash)

	reason, internalErr := performBasicChecks(&candidateReceipt.Descriptor,
		persistedValidationData.MaxPovSize, pov, validationCodeHash)
	if internalErr != nil {
		return nil, fmt.Errorf("performing basic checks: %w", internalErr)
	}
	if reason != nil {
		logger.Infof("invalid candidate of parachain %d (basic checks): %s", paraID, reason)
		result := newInvalidResult(*reason, "")
		observeVerdict(*result)
		return result, nil
	}

	rawValidationCode, err := maybeCompressedBlobDecompress(validationCode, validationCodeBombLimit)
	if err != nil {
		// the code already passed pre-checking, a decompression
		// failure now most likely means local corruption
		return nil, fmt.Errorf("code decompression failed: %w", err)
	}

	rawPoV, err := maybeCompressedBlobDecompress(pov.BlockData, povBombLimit)
	if err != nil {
		logger.Infof("invalid candidate of parachain %d (PoV decompression): %s", paraID, err)
		result := newInvalidResult(PoVDecompressionFailure, "")
		observeVerdict(*result)
		return result, nil
	}
	decompressedPoV := parachaintypes.PoV{BlockData: rawPoV}

	var validationResult *pvf.ValidationResult
	switch execKind {
	case parachaintypes.PvfExecBacking, parachaintypes.PvfExecBackingSystemParas:
		// retry is disabled for backing to reduce the chance of
		// nondeterministic blocks getting backed and honest backers
		// getting slashed
		prepTimeout := pvfPrepTimeout(executorParams, parachaintypes.Prepare)
		execTimeout := pvfExecTimeout(executorParams, execKind)
		pvfData := pvf.NewPrepData(rawValidationCode, executorParams,
			parachaintypes.Prepare, prepTimeout)

		validationResult, err = cv.backend.ValidateCandidate(pvfData, execTimeout,
			persistedValidationData, decompressedPoV, pvf.PriorityFromExecKind(execKind))

	default:
		validationResult, err = validateWithRetry(cv.backend, rawValidationCode,
			pvfExecTimeout(executorParams, execKind), persistedValidationData,
			decompressedPoV, executorParams, pvfApprovalExecutionRetryDelay, execKind)
	}

	if err != nil {
		logger.Infof("failed to validate candidate of parachain %d: %s", paraID, err)
	}

	result, err := mapBackendError(persistedValidationData, candidateReceipt,
		validationResult, err)
	if result != nil {
		observeVerdict(*result)
	}
	return result, err
}

// mapBackendError turns the outcome of the backend into a verdict or
// an abstain error, see the package error taxonomy.
func mapBackendError(persistedValidationData parachaintypes.PersistedValidationData,
	candidateReceipt parachaintypes.CandidateReceipt,
	validationResult *pvf.ValidationResult, err error,
) (*ValidationResult, error) {
	paraID := candidateReceipt.Descriptor.ParaID

	workerInvalid := &pvf.WorkerReportedInvalidError{}
	prepErr := &pvf.PrepareError{}

	switch {
	case err == nil:
		// fall through to the output checks below

	case pvf.IsInternal(err):
		logger.Warnf("internal error during validation of parachain %d candidate, "+
			"will abstain from voting: %s", paraID, err)
		return nil, err

	case errors.Is(err, pvf.ErrHardTimeout):
		return newInvalidResult(Timeout, ""), nil

	case errors.As(err, &workerInvalid):
		return newInvalidResult(ExecutionError, workerInvalid.Reason), nil

	case errors.Is(err, pvf.ErrAmbiguousWorkerDeath),
		errors.Is(err, pvf.ErrAmbiguousJobDeath),
		errors.Is(err, pvf.ErrJobError),
		errors.Is(err, pvf.ErrRuntimeConstruction):
		// retries exhausted, the system must make progress, so the
		// ambiguity resolves against the candidate
		return newInvalidResult(ExecutionError, err.Error()), nil

	case errors.As(err, &prepErr):
		// pre-checking should have ruled this out, it signals a
		// pre-check/execute inconsistency
		logger.Warnf("deterministic error during preparation of parachain %d candidate "+
			"(should have been ruled out by pre-checking): %s", paraID, err)
		return nil, err

	default:
		return nil, err
	}

	headDataHash, err := validationResult.HeadData.Hash()
	if err != nil {
		return nil, fmt.Errorf("hashing head data: %w", err)
	}
	if headDataHash != candidateReceipt.Descriptor.ParaHead {
		logger.Infof("invalid candidate of parachain %d (para head hash)", paraID)
		return newInvalidResult(ParaHeadHashMismatch, ""), nil
	}

	commitments := parachaintypes.CandidateCommitments{
		UpwardMessages:            validationResult.UpwardMessages,
		HorizontalMessages:        validationResult.HorizontalMessages,
		NewValidationCode:         validationResult.NewValidationCode,
		HeadData:                  validationResult.HeadData,
		ProcessedDownwardMessages: validationResult.ProcessedDownwardMessages,
		HrmpWatermark:             validationResult.HrmpWatermark,
	}

	// if validation produced a new set of commitments, we treat the candidate as invalid
	if candidateReceipt.CommitmentsHash != commitments.Hash() {
		logger.Infof("invalid candidate of parachain %d (commitments hash)", paraID)
		return newInvalidResult(CommitmentsHashMismatch, ""), nil
	}

	return &ValidationResult{Valid: &ValidValidationResult{
		CandidateCommitments:    commitments,
		PersistedValidationData: persistedValidationData,
	}}, nil
}

// validateFromChainState validates a parachain block from chain state message
func (cv *CandidateValidation) validateFromChainState(msg ValidateFromChainState) {
	runtimeInstance, err := cv.BlockState.GetRuntime(msg.CandidateReceipt.Descriptor.RelayParent)
	if err != nil {
		logger.Errorf("getting runtime instance: %s", err)
		sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{
			Err: fmt.Errorf("getting runtime instance: %w", err),
		})
		return
	}

	persistedValidationData, validationCode, err := getValidationData(runtimeInstance,
		msg.CandidateReceipt.Descriptor.ParaID)
	if err != nil {
		logger.Errorf("getting validation data: %s", err)
		sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{
			Err: fmt.Errorf("getting validation data: %w", err),
		})
		return
	}
	if persistedValidationData == nil || validationCode == nil {
		sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{
			Data: *newInvalidResult(BadParent, ""),
		})
		return
	}

	result, err := cv.validateCandidateExhaustive(*persistedValidationData,
		*validationCode, msg.CandidateReceipt, msg.Pov, msg.ExecutorParams, msg.ExecKind)
	if err != nil {
		sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{Err: err})
		return
	}
	if !result.IsValid() {
		sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{Data: *result})
		return
	}

	valid, err := runtimeInstance.ParachainHostCheckValidationOutputs(
		msg.CandidateReceipt.Descriptor.ParaID, result.Valid.CandidateCommitments)
	if err != nil {
		sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{
			Err: fmt.Errorf("check validation outputs: bad request: %w", err),
		})
		return
	}
	if !valid {
		sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{
			Data: *newInvalidResult(InvalidOutputs, ""),
		})
		return
	}
	sendResponse(msg.Ch, parachaintypes.OverseerFuncRes[ValidationResult]{Data: *result})
}

// precheckPvF votes on a proposed validation function: Valid when it
// prepares cleanly, Invalid when it deterministically cannot, Failed
// when this node could not tell.
func (cv *CandidateValidation) precheckPvF(msg PreCheck) PreCheckOutcome {
	outcome := cv.runPrecheck(msg)
	observePrecheckOutcome(outcome)
	return outcome
}

func (cv *CandidateValidation) runPrecheck(msg PreCheck) PreCheckOutcome {
	runtimeInstance, err := cv.BlockState.GetRuntime(msg.RelayParent)
	if err != nil {
		logger.Errorf("failed to get runtime instance: %s", err)
		return PreCheckOutcomeFailed
	}

	code, err := runtimeInstance.ParachainHostValidationCodeByHash(msg.ValidationCodeHash)
	if err != nil || code == nil {
		// the code should have been pinned on chain by now, absence
		// is a node bug rather than grounds for a negative vote
		logger.Errorf("failed to get validation code by hash %s: %s", msg.ValidationCodeHash, err)
		return PreCheckOutcomeFailed
	}

	executorParams, err := executorParamsAtRelayParent(runtimeInstance)
	if err != nil {
		logger.Errorf("failed to acquire params for the session, thus voting against: %s", err)
		return PreCheckOutcomeInvalid
	}

	rawCode, err := maybeCompressedBlobDecompress(*code, validationCodeBombLimit)
	if err != nil {
		logger.Errorf("failed to decompress code, thus voting against: %s", err)
		return PreCheckOutcomeInvalid
	}

	timeout := pvfPrepTimeout(*executorParams, parachaintypes.Precheck)
	pvfData := pvf.NewPrepData(rawCode, *executorParams, parachaintypes.Precheck, timeout)

	err = cv.backend.PrecheckPvf(pvfData)
	if err == nil {
		return PreCheckOutcomeValid
	}

	prepErr := &pvf.PrepareError{}
	if errors.As(err, &prepErr) && prepErr.IsDeterministic() {
		return PreCheckOutcomeInvalid
	}
	// a transient environment glitch on this node is no reason to
	// vote against the function
	return PreCheckOutcomeFailed
}
