// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import (
	"context"
	"errors"

	"github.com/ChainSafe/gossamer/lib/common"
)

// ErrUnknownOverseerMessage is returned when a subsystem receives a
// message it does not know how to handle.
var ErrUnknownOverseerMessage = errors.New("unknown overseer message type")

// ActivatedLeaf is a parachain head which we care to work on.
type ActivatedLeaf struct {
	Hash   common.Hash
	Number uint32
}

// ActiveLeavesUpdateSignal changes in the set of active leaves: the parachain heads
// which we care to work on.
//
// note: activated field indicates deltas, not complete sets.
type ActiveLeavesUpdateSignal struct {
	Activated *ActivatedLeaf
	// Relay chain block hashes no longer of interest.
	Deactivated []common.Hash
}

// BlockFinalizedSignal is used to inform subsystems of a finalized block.
type BlockFinalizedSignal struct {
	Hash        common.Hash
	BlockNumber uint32
}

// Subsystem is an interface for subsystems to be registered with the overseer.
type Subsystem interface {
	// Run runs the subsystem.
	Run(ctx context.Context, overseerToSubsystem <-chan any)
	Name() SubSystemName
	ProcessActiveLeavesUpdateSignal(ActiveLeavesUpdateSignal) error
	ProcessBlockFinalizedSignal(BlockFinalizedSignal) error
	Stop()
}
