// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"fmt"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/ChainSafe/gossamer/lib/keystore"

	"github.com/ChainSafe/parachain-validation/pvf"
	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

// preparePvfsPerBlockLimit caps how many newly backed validation
// functions get warmed up per imported block, spreading the
// preparation load over time.
const preparePvfsPerBlockLimit = 1

// prepareValidationState tracks, across active-leaves updates, which
// validation functions were already handed to the backend for warm-up
// and whether this node expects to validate in the next session.
type prepareValidationState struct {
	sessionIndex           *parachaintypes.SessionIndex
	isNextSessionAuthority bool
	alreadyPrepared        map[parachaintypes.ValidationCodeHash]struct{}
	perBlockLimit          int
}

func newPrepareValidationState() *prepareValidationState {
	return &prepareValidationState{
		alreadyPrepared: make(map[parachaintypes.ValidationCodeHash]struct{}),
		perBlockLimit:   preparePvfsPerBlockLimit,
	}
}

// maybePrepareValidation warms up validation functions of recently
// backed candidates ahead of the session in which this node becomes a
// validator, so that approval work in that session does not pay the
// preparation cost.
func (cv *CandidateValidation) maybePrepareValidation(state *prepareValidationState,
	update parachaintypes.ActiveLeavesUpdateSignal) {
	if update.Activated == nil {
		return
	}

	runtimeInstance, err := cv.BlockState.GetRuntime(update.Activated.Hash)
	if err != nil {
		logger.Errorf("failed to get runtime instance for warm-up: %s", err)
		return
	}

	sessionIndex, err := runtimeInstance.ParachainHostSessionIndexForChild()
	if err != nil {
		logger.Errorf("failed to get session index for warm-up: %s", err)
		return
	}

	if state.sessionIndex == nil || sessionIndex > *state.sessionIndex {
		// new session, the already-prepared set and the authority
		// status both go stale
		state.sessionIndex = &sessionIndex
		state.alreadyPrepared = make(map[parachaintypes.ValidationCodeHash]struct{})

		isNextSessionAuthority, err := checkNextSessionAuthority(runtimeInstance,
			cv.Keystore, sessionIndex)
		if err != nil {
			logger.Errorf("failed to determine next session authority status: %s", err)
			state.isNextSessionAuthority = false
			return
		}
		state.isNextSessionAuthority = isNextSessionAuthority
	}

	if !state.isNextSessionAuthority {
		return
	}

	prepared, err := cv.preparePvfsForBackedCandidates(runtimeInstance, state)
	if err != nil {
		logger.Errorf("failed to warm up validation functions: %s", err)
		return
	}
	for _, hash := range prepared {
		state.alreadyPrepared[hash] = struct{}{}
	}
}

// checkNextSessionAuthority reports whether this node holds a key of a
// next-session authority while not being a validator in the current
// session. Only in that window is warming up worth the effort: current
// validators already prepare on demand.
func checkNextSessionAuthority(runtimeInstance RuntimeInstance, ks keystore.Keystore,
	sessionIndex parachaintypes.SessionIndex) (bool, error) {
	authorities, err := runtimeInstance.AuthorityDiscoveryAuthorities()
	if err != nil {
		return false, fmt.Errorf("getting authority discovery authorities: %w", err)
	}

	hasAuthorityDiscoveryKey := false
	for _, authority := range authorities {
		pub, err := sr25519.NewPublicKey(authority[:])
		if err != nil {
			continue
		}
		if ks.GetKeypair(pub) != nil {
			hasAuthorityDiscoveryKey = true
			break
		}
	}
	if !hasAuthorityDiscoveryKey {
		return false, nil
	}

	sessionInfo, err := runtimeInstance.ParachainHostSessionInfo(sessionIndex)
	if err != nil {
		return false, fmt.Errorf("getting session info for session %d: %w", sessionIndex, err)
	}
	if sessionInfo == nil {
		return false, fmt.Errorf("no session info for session %d", sessionIndex)
	}

	for _, validator := range sessionInfo.Validators {
		pub, err := sr25519.NewPublicKey(validator[:])
		if err != nil {
			continue
		}
		if ks.GetKeypair(pub) != nil {
			// already a validator this session, nothing to warm up for
			return false, nil
		}
	}
	return true, nil
}

// preparePvfsForBackedCandidates collects the validation code of
// candidates backed at the given leaf and hands it to the backend for
// background preparation. It returns the code hashes that were
// successfully submitted.
func (cv *CandidateValidation) preparePvfsForBackedCandidates(runtimeInstance RuntimeInstance,
	state *prepareValidationState) ([]parachaintypes.ValidationCodeHash, error) {
	events, err := runtimeInstance.ParachainHostCandidateEvents()
	if err != nil {
		return nil, fmt.Errorf("getting candidate events: %w", err)
	}

	var codeHashes []parachaintypes.ValidationCodeHash
	for _, event := range events.Types {
		value, err := event.Value()
		if err != nil {
			return nil, fmt.Errorf("getting candidate event value: %w", err)
		}
		backed, ok := value.(parachaintypes.CandidateBacked)
		if !ok {
			continue
		}
		codeHash := backed.CandidateReceipt.Descriptor.ValidationCodeHash
		if _, ok := state.alreadyPrepared[codeHash]; ok {
			continue
		}
		codeHashes = append(codeHashes, codeHash)
		if len(codeHashes) >= state.perBlockLimit {
			break
		}
	}
	if len(codeHashes) == 0 {
		return nil, nil
	}

	executorParams, err := executorParamsAtRelayParent(runtimeInstance)
	if err != nil {
		return nil, fmt.Errorf("getting executor params: %w", err)
	}
	// background preparation is not latency sensitive, use the
	// lenient timeout
	prepTimeout := pvfPrepTimeout(*executorParams, parachaintypes.Prepare)

	var batch []pvf.PrepData
	var prepared []parachaintypes.ValidationCodeHash
	for _, codeHash := range codeHashes {
		code, err := runtimeInstance.ParachainHostValidationCodeByHash(codeHash)
		if err != nil || code == nil {
			logger.Warnf("validation code for warm-up not found for %s: %s", codeHash, err)
			continue
		}
		rawCode, err := maybeCompressedBlobDecompress(*code, validationCodeBombLimit)
		if err != nil {
			logger.Warnf("failed to decompress validation code %s for warm-up: %s", codeHash, err)
			continue
		}
		batch = append(batch, pvf.NewPrepData(rawCode, *executorParams,
			parachaintypes.Precheck, prepTimeout))
		prepared = append(prepared, codeHash)
	}
	if len(batch) == 0 {
		return nil, nil
	}

	if err := cv.backend.HeadsUp(batch); err != nil {
		return nil, fmt.Errorf("submitting warm-up batch: %w", err)
	}
	logger.Debugf("warming up %d validation function(s)", len(batch))
	return prepared, nil
}
