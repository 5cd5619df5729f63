// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pvf

import (
	"github.com/ChainSafe/gossamer/lib/common"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

// ValidationParameters contains the parameters for evaluating the
// parachain validity function.
type ValidationParameters struct {
	// Previous head-data.
	ParentHeadData parachaintypes.HeadData
	// The collation body.
	BlockData []byte
	// The current relay-chain block number.
	RelayParentNumber uint32
	// The relay-chain block's storage root.
	RelayParentStorageRoot common.Hash
}

// ValidationResult is the result received from validate_block. It is
// similar to CandidateCommitments, but in a different order.
type ValidationResult struct {
	// The head-data is the new head data that should be included in the relay chain state.
	HeadData parachaintypes.HeadData `scale:"1"`
	// NewValidationCode is an update to the validation code that should be scheduled in the relay chain.
	NewValidationCode *parachaintypes.ValidationCode `scale:"2"`
	// UpwardMessages are upward messages sent by the parachain.
	UpwardMessages []parachaintypes.UpwardMessage `scale:"3"`
	// HorizontalMessages are outbound horizontal messages sent by the parachain.
	HorizontalMessages []parachaintypes.OutboundHrmpMessage `scale:"4"`
	// The number of messages processed from the DMQ. It is expected that the
	// parachain processes them from first to last.
	ProcessedDownwardMessages uint32 `scale:"5"`
	// The mark which specifies the block number up to which all inbound HRMP
	// messages are processed.
	HrmpWatermark uint32 `scale:"6"`
}
