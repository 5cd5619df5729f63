// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import (
	"testing"
	"time"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/stretchr/testify/require"
)

func TestCandidateDescriptor_CheckCollatorSignature(t *testing.T) {
	t.Parallel()

	collatorKeypair, err := sr25519.GenerateKeypair()
	require.NoError(t, err)
	collatorID, err := sr25519.NewPublicKey(collatorKeypair.Public().Encode())
	require.NoError(t, err)

	descriptor := CandidateDescriptor{
		ParaID:                      uint32(1000),
		RelayParent:                 common.MustHexToHash("0xded542bacb3ca6c033a57676f94ae7c8f36834511deb44e3164256fd3b1c0de0"), //nolint:lll
		Collator:                    collatorID.AsBytes(),
		PersistedValidationDataHash: common.MustHexToHash("0x690d8f252ef66ab0f969c3f518f90012b849aa5ac94e1752c5e5ae5a8996de37"), //nolint:lll
		PovHash:                     common.MustHexToHash("0xe7df1126ac4b4f0fb1bc00367a12ec26ca7c51256735a5e11beecdc1e3eca274"), //nolint:lll
		ValidationCodeHash:          ValidationCode([]byte{1, 2, 3}).Hash(),
	}

	payload, err := descriptor.CreateSignaturePayload()
	require.NoError(t, err)
	require.Len(t, payload, 132)

	signatureBytes, err := collatorKeypair.Sign(payload)
	require.NoError(t, err)

	signature := [sr25519.SignatureLength]byte{}
	copy(signature[:], signatureBytes)
	descriptor.Signature = CollatorSignature(signature)

	require.NoError(t, descriptor.CheckCollatorSignature())

	// tampering with the descriptor invalidates the signature
	descriptor.ParaID = 2000
	require.ErrorIs(t, descriptor.CheckCollatorSignature(), ErrInvalidCollatorSignature)
}

func TestExecutorParams_timeouts(t *testing.T) {
	t.Parallel()

	params := NewExecutorParams()
	err := params.Add(
		MaxMemoryPages(2048),
		PvfPrepTimeout{PvfPrepKind: Precheck, Millisec: 15_000},
		PvfPrepTimeout{PvfPrepKind: Prepare, Millisec: 30_000},
		PvfExecTimeout{PvfExecTimeoutKind: Backing, Millisec: 1_000},
	)
	require.NoError(t, err)

	precheckTimeout := params.PvfPrepTimeout(Precheck)
	require.NotNil(t, precheckTimeout)
	require.Equal(t, 15*time.Second, *precheckTimeout)

	prepareTimeout := params.PvfPrepTimeout(Prepare)
	require.NotNil(t, prepareTimeout)
	require.Equal(t, 30*time.Second, *prepareTimeout)

	backingTimeout := params.PvfExecTimeout(Backing)
	require.NotNil(t, backingTimeout)
	require.Equal(t, time.Second, *backingTimeout)

	require.Nil(t, params.PvfExecTimeout(Approval))
}

func TestPvfExecKind_TimeoutKind(t *testing.T) {
	t.Parallel()

	require.Equal(t, Backing, PvfExecBacking.TimeoutKind())
	require.Equal(t, Backing, PvfExecBackingSystemParas.TimeoutKind())
	require.Equal(t, Approval, PvfExecApproval.TimeoutKind())
	require.Equal(t, Approval, PvfExecDispute.TimeoutKind())
}

func TestOccupiedCoreAssumption(t *testing.T) {
	t.Parallel()

	assumption := NewOccupiedCoreAssumption()
	require.NoError(t, assumption.Set(TimedOutOccupiedCoreAssumption{}))
	value, err := assumption.Value()
	require.NoError(t, err)
	require.Equal(t, TimedOutOccupiedCoreAssumption{}, value)
}

func TestCandidateCommitments_Hash(t *testing.T) {
	t.Parallel()

	commitments := CandidateCommitments{
		HeadData:      HeadData{Data: []byte{1, 2, 3}},
		HrmpWatermark: 1,
	}
	require.Equal(t, commitments.Hash(), commitments.Hash())

	commitments.HrmpWatermark = 2
	require.NotEqual(t, CandidateCommitments{}.Hash(), commitments.Hash())
}
