// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

// BlockState resolves a relay chain block hash to a runtime instance
// answering parachain host queries at that block.
type BlockState interface {
	GetRuntime(blockHash common.Hash) (RuntimeInstance, error)
}

// RuntimeInstance answers the parachain host runtime queries this
// subsystem needs, scoped to the block the instance was resolved at.
type RuntimeInstance interface {
	ParachainHostPersistedValidationData(paraID uint32, assumption parachaintypes.OccupiedCoreAssumption,
	) (*parachaintypes.PersistedValidationData, error)
	ParachainHostValidationCode(paraID uint32, assumption parachaintypes.OccupiedCoreAssumption,
	) (*parachaintypes.ValidationCode, error)
	ParachainHostValidationCodeByHash(validationCodeHash parachaintypes.ValidationCodeHash,
	) (*parachaintypes.ValidationCode, error)
	ParachainHostCheckValidationOutputs(paraID uint32,
		outputs parachaintypes.CandidateCommitments) (bool, error)
	ParachainHostSessionIndexForChild() (parachaintypes.SessionIndex, error)
	ParachainHostSessionInfo(sessionIndex parachaintypes.SessionIndex,
	) (*parachaintypes.SessionInfo, error)
	ParachainHostSessionExecutorParams(sessionIndex parachaintypes.SessionIndex,
	) (*parachaintypes.ExecutorParams, error)
	ParachainHostCandidateEvents() (*scale.VaryingDataTypeSlice, error)
	AuthorityDiscoveryAuthorities() ([]parachaintypes.AuthorityDiscoveryID, error)
}

var errMissingExecutorParams = errors.New("executor params are unavailable for the session")

// executorParamsAtRelayParent resolves the executor parameter set of
// the session in effect at the runtime instance's block.
func executorParamsAtRelayParent(runtimeInstance RuntimeInstance,
) (*parachaintypes.ExecutorParams, error) {
	sessionIndex, err := runtimeInstance.ParachainHostSessionIndexForChild()
	if err != nil {
		return nil, fmt.Errorf("getting session index: %w", err)
	}

	executorParams, err := runtimeInstance.ParachainHostSessionExecutorParams(sessionIndex)
	if err != nil {
		return nil, fmt.Errorf("getting executor params for session %d: %w", sessionIndex, err)
	}
	if executorParams == nil {
		return nil, errMissingExecutorParams
	}
	return executorParams, nil
}

// getValidationData gets validation data for a parachain block from the runtime instance
func getValidationData(runtimeInstance RuntimeInstance, paraID uint32,
) (*parachaintypes.PersistedValidationData, *parachaintypes.ValidationCode, error) {

	var mergedError error

	for _, assumptionValue := range []scale.VaryingDataTypeValue{
		parachaintypes.IncludedOccupiedCoreAssumption{},
		parachaintypes.TimedOutOccupiedCoreAssumption{},
		parachaintypes.Free{},
	} {
		assumption := parachaintypes.NewOccupiedCoreAssumption()
		err := assumption.Set(assumptionValue)
		if err != nil {
			return nil, nil, fmt.Errorf("setting assumption: %w", err)
		}
		persistedValidationData, err := runtimeInstance.ParachainHostPersistedValidationData(paraID, assumption)
		if err != nil {
			mergedError = errors.Join(mergedError, err)
			continue
		}

		validationCode, err := runtimeInstance.ParachainHostValidationCode(paraID, assumption)
		if err != nil {
			return nil, nil, fmt.Errorf("getting validation code: %w", err)
		}

		return persistedValidationData, validationCode, nil
	}

	return nil, nil, fmt.Errorf("getting persisted validation data: %w", mergedError)
}
