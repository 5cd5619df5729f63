// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package parachaintypes contains the parachain primitives needed to
// validate candidate parachain blocks and communicate with the overseer.
package parachaintypes

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

// ParaID is the numeric identifier of a parachain.
type ParaID uint32

// BlockNumber is a relay chain block number.
type BlockNumber uint32

// CollatorID is the sr25519 public key of a collator.
type CollatorID [sr25519.PublicKeyLength]byte

// CollatorSignature is the signature on a candidate's block data
// signed by a collator.
type CollatorSignature [sr25519.SignatureLength]byte

// ValidationCode is the parachain validation code, a wasm blob that
// may be zstd compressed.
type ValidationCode []byte

// Hash returns the blake2b hash of the validation code.
func (vc ValidationCode) Hash() ValidationCodeHash {
	return ValidationCodeHash(common.MustBlake2bHash(vc))
}

// ValidationCodeHash is the blake2b hash of parachain validation code.
type ValidationCodeHash common.Hash

func (vch ValidationCodeHash) String() string {
	return common.Hash(vch).String()
}

// HeadData is parachain head data included in the chain.
type HeadData struct {
	Data []byte `scale:"1"`
}

// Hash returns the blake2b hash of the scale encoded head data.
func (h HeadData) Hash() (common.Hash, error) {
	encoded, err := scale.Marshal(h.Data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding head data: %w", err)
	}
	return common.Blake2bHash(encoded)
}

// PoV is the proof of validity, the parachain block data needed to
// check the candidate against the validation code.
type PoV struct {
	BlockData BlockData `scale:"1"`
}

// BlockData is the opaque parachain block data.
type BlockData []byte

// Hash returns the blake2b hash of the scale encoded PoV.
func (p PoV) Hash() (common.Hash, error) {
	encoded, err := scale.Marshal(p)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding PoV: %w", err)
	}
	return common.Blake2bHash(encoded)
}

// UpwardMessage is a message from a parachain to its relay chain.
type UpwardMessage []byte

// OutboundHrmpMessage is an HRMP message sent from a parachain
// to another parachain channel recipient.
type OutboundHrmpMessage struct {
	Recipient uint32 `scale:"1"`
	Data      []byte `scale:"2"`
}

// PersistedValidationData is the relay chain state the candidate
// commits to, persisted so validation can run anywhere.
type PersistedValidationData struct {
	ParentHead             HeadData    `scale:"1"`
	RelayParentNumber      uint32      `scale:"2"`
	RelayParentStorageRoot common.Hash `scale:"3"`
	MaxPovSize             uint32      `scale:"4"`
}

// Hash returns the blake2b hash of the scale encoded data.
func (pvd PersistedValidationData) Hash() (common.Hash, error) {
	encoded, err := scale.Marshal(pvd)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding persisted validation data: %w", err)
	}
	return common.Blake2bHash(encoded)
}

// ErrInvalidCollatorSignature is returned when the collator signature
// on a candidate descriptor does not verify.
var ErrInvalidCollatorSignature = errors.New("invalid collator signature")

// CandidateDescriptor is a unique descriptor of a candidate receipt.
type CandidateDescriptor struct {
	ParaID                      uint32             `scale:"1"`
	RelayParent                 common.Hash        `scale:"2"`
	Collator                    CollatorID         `scale:"3"`
	PersistedValidationDataHash common.Hash        `scale:"4"`
	PovHash                     common.Hash        `scale:"5"`
	ErasureRoot                 common.Hash        `scale:"6"`
	Signature                   CollatorSignature  `scale:"7"`
	ParaHead                    common.Hash        `scale:"8"`
	ValidationCodeHash          ValidationCodeHash `scale:"9"`
}

// CreateSignaturePayload returns the payload the collator signs:
// the relay parent, para id, persisted validation data hash, pov hash
// and validation code hash concatenated.
func (cd CandidateDescriptor) CreateSignaturePayload() ([]byte, error) {
	payload := make([]byte, 0, 132)
	payload = append(payload, cd.RelayParent[:]...)

	encodedParaID, err := scale.Marshal(cd.ParaID)
	if err != nil {
		return nil, fmt.Errorf("encoding para id: %w", err)
	}
	payload = append(payload, encodedParaID...)
	payload = append(payload, cd.PersistedValidationDataHash[:]...)
	payload = append(payload, cd.PovHash[:]...)

	validationCodeHash := common.Hash(cd.ValidationCodeHash)
	payload = append(payload, validationCodeHash[:]...)
	return payload, nil
}

// CheckCollatorSignature verifies the collator signature over the
// descriptor's signature payload.
func (cd CandidateDescriptor) CheckCollatorSignature() error {
	payload, err := cd.CreateSignaturePayload()
	if err != nil {
		return fmt.Errorf("creating signature payload: %w", err)
	}

	publicKey, err := sr25519.NewPublicKey(cd.Collator[:])
	if err != nil {
		return fmt.Errorf("getting collator public key: %w", err)
	}

	ok, err := publicKey.Verify(payload, cd.Signature[:])
	if err != nil {
		return fmt.Errorf("verifying collator signature: %w", err)
	}
	if !ok {
		return ErrInvalidCollatorSignature
	}
	return nil
}

// CandidateReceipt is a receipt for a parachain candidate.
type CandidateReceipt struct {
	Descriptor      CandidateDescriptor `scale:"1"`
	CommitmentsHash common.Hash         `scale:"2"`
}

// Hash returns the blake2b hash of the scale encoded receipt.
func (cr CandidateReceipt) Hash() (common.Hash, error) {
	encoded, err := scale.Marshal(cr)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding candidate receipt: %w", err)
	}
	return common.Blake2bHash(encoded)
}

// CandidateHash is the blake2b hash of a candidate receipt.
type CandidateHash struct {
	Value common.Hash `scale:"1"`
}

// CandidateCommitments are the commitments of a candidate,
// produced by evaluating the validation code against the PoV.
type CandidateCommitments struct {
	UpwardMessages            []UpwardMessage       `scale:"1"`
	HorizontalMessages        []OutboundHrmpMessage `scale:"2"`
	NewValidationCode         *ValidationCode       `scale:"3"`
	HeadData                  HeadData              `scale:"4"`
	ProcessedDownwardMessages uint32                `scale:"5"`
	HrmpWatermark             uint32                `scale:"6"`
}

// Hash returns the blake2b hash of the scale encoded commitments.
// It panics if the commitments cannot be encoded, which only happens
// for malformed in-memory values.
func (cc CandidateCommitments) Hash() common.Hash {
	encoded, err := scale.Marshal(cc)
	if err != nil {
		panic(fmt.Sprintf("encoding candidate commitments: %s", err))
	}
	return common.MustBlake2bHash(encoded)
}

// IncludedOccupiedCoreAssumption means the candidate occupying the
// core was made available and included to free the core.
type IncludedOccupiedCoreAssumption struct{}

// Index returns the scale index of this type.
func (IncludedOccupiedCoreAssumption) Index() uint { return 0 }

// TimedOutOccupiedCoreAssumption means the candidate occupying the
// core timed out and freed the core without advancing the para.
type TimedOutOccupiedCoreAssumption struct{}

// Index returns the scale index of this type.
func (TimedOutOccupiedCoreAssumption) Index() uint { return 1 }

// Free means the core was not occupied to begin with.
type Free struct{}

// Index returns the scale index of this type.
func (Free) Index() uint { return 2 }

// OccupiedCoreAssumption is an assumption being made about the state
// of an occupied core.
type OccupiedCoreAssumption scale.VaryingDataType

// NewOccupiedCoreAssumption returns a new OccupiedCoreAssumption
// varying data type.
func NewOccupiedCoreAssumption() OccupiedCoreAssumption {
	vdt := scale.MustNewVaryingDataType(
		IncludedOccupiedCoreAssumption{},
		TimedOutOccupiedCoreAssumption{},
		Free{},
	)
	return OccupiedCoreAssumption(vdt)
}

// Set sets the value of the varying data type.
func (o *OccupiedCoreAssumption) Set(value scale.VaryingDataTypeValue) error {
	vdt := scale.VaryingDataType(*o)
	if err := vdt.Set(value); err != nil {
		return fmt.Errorf("setting occupied core assumption: %w", err)
	}
	*o = OccupiedCoreAssumption(vdt)
	return nil
}

// Value returns the value of the varying data type.
func (o *OccupiedCoreAssumption) Value() (scale.VaryingDataTypeValue, error) {
	vdt := scale.VaryingDataType(*o)
	return vdt.Value()
}

// OverseerFuncRes is the result of an overseer request, either a
// value or an error.
type OverseerFuncRes[T any] struct {
	Err  error
	Data T
}

// SubSystemName is the name of a subsystem registered with the overseer.
type SubSystemName string

const (
	// CandidateValidation is the subsystem that validates candidate
	// parachain blocks.
	CandidateValidation SubSystemName = "CandidateValidation"
)
