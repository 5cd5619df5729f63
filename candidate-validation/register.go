// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"github.com/ChainSafe/gossamer/lib/keystore"

	"github.com/ChainSafe/parachain-validation/pvf"
)

func Register(overseerChan chan<- any, blockState BlockState,
	ks keystore.Keystore, pvfConfig pvf.Config) (*CandidateValidation, error) {
	candidateValidation := NewCandidateValidation(overseerChan, blockState, ks, pvfConfig)
	return candidateValidation, nil
}
