// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import "github.com/ChainSafe/gossamer/lib/crypto/sr25519"

// SessionIndex is a session index counted from genesis.
type SessionIndex uint32

// ValidatorID is the sr25519 public key a validator signs parachain
// statements with.
type ValidatorID [sr25519.PublicKeyLength]byte

// ValidatorIndex is the index of a validator in the validator set of
// a session.
type ValidatorIndex uint32

// AuthorityDiscoveryID is the sr25519 public key a validator uses for
// authority discovery.
type AuthorityDiscoveryID [sr25519.PublicKeyLength]byte

// AssignmentID is the sr25519 public key a validator uses for approval
// assignment.
type AssignmentID [sr25519.PublicKeyLength]byte

// GroupIndex is the index of a validator group.
type GroupIndex uint32

// CoreIndex is the index of an availability core.
type CoreIndex struct {
	Index uint32 `scale:"1"`
}

// SessionInfo is the session info stored per-session in the relay
// chain state.
type SessionInfo struct {
	// ActiveValidatorIndices are the validators in the current session,
	// in canonical order.
	ActiveValidatorIndices []ValidatorIndex `scale:"1"`
	// RandomSeed is the VRF-derived randomness of the session.
	RandomSeed [32]byte `scale:"2"`
	// DisputePeriod is the dispute period for this session, in sessions.
	DisputePeriod SessionIndex `scale:"3"`
	// Validators in shuffled order.
	Validators []ValidatorID `scale:"4"`
	// DiscoveryKeys are the authority discovery keys of everybody
	// expected to participate, in canonical (unshuffled) order.
	DiscoveryKeys []AuthorityDiscoveryID `scale:"5"`
	// AssignmentKeys in shuffled order.
	AssignmentKeys []AssignmentID `scale:"6"`
	// ValidatorGroups in shuffled order.
	ValidatorGroups [][]ValidatorIndex `scale:"7"`
	// NCores is the number of availability cores this session.
	NCores uint32 `scale:"8"`
	// ZerothDelayTrancheWidth of the approval assignment criteria.
	ZerothDelayTrancheWidth uint32 `scale:"9"`
	// RelayVRFModuloSamples is the number of samples to use in the
	// RelayVRFModulo approval assignment criterion.
	RelayVRFModuloSamples uint32 `scale:"10"`
	// NDelayTranches is the number of delay tranches in total.
	NDelayTranches uint32 `scale:"11"`
	// NoShowSlots is how many slots (ticks) must pass before an
	// assignment is considered a no-show.
	NoShowSlots uint32 `scale:"12"`
	// NeededApprovals is the number of approval votes needed for a
	// candidate to be considered approved.
	NeededApprovals uint32 `scale:"13"`
}
