// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import "github.com/ChainSafe/gossamer/pkg/scale"

// CandidateBacked means the candidate was backed by the validators of
// the given group and occupies the given core.
type CandidateBacked struct {
	CandidateReceipt CandidateReceipt `scale:"1"`
	HeadData         HeadData         `scale:"2"`
	CoreIndex        CoreIndex        `scale:"3"`
	GroupIndex       GroupIndex       `scale:"4"`
}

// Index returns the scale index of this type.
func (CandidateBacked) Index() uint { return 0 }

// CandidateIncluded means the candidate was included and became a
// parablock at the most recent relay chain block.
type CandidateIncluded struct {
	CandidateReceipt CandidateReceipt `scale:"1"`
	HeadData         HeadData         `scale:"2"`
	CoreIndex        CoreIndex        `scale:"3"`
	GroupIndex       GroupIndex       `scale:"4"`
}

// Index returns the scale index of this type.
func (CandidateIncluded) Index() uint { return 1 }

// CandidateTimedOut means the candidate timed out while occupying
// the core.
type CandidateTimedOut struct {
	CandidateReceipt CandidateReceipt `scale:"1"`
	HeadData         HeadData         `scale:"2"`
	CoreIndex        CoreIndex        `scale:"3"`
}

// Index returns the scale index of this type.
func (CandidateTimedOut) Index() uint { return 2 }

// NewCandidateEvents returns a slice varying data type able to hold
// the candidate events of a relay chain block.
func NewCandidateEvents() scale.VaryingDataTypeSlice {
	vdt := scale.MustNewVaryingDataType(
		CandidateBacked{},
		CandidateIncluded{},
		CandidateTimedOut{},
	)
	return scale.NewVaryingDataTypeSlice(vdt)
}
