// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pvf

import parachaintypes "github.com/ChainSafe/parachain-validation/types"

// Priority is the scheduling priority of a validation request.
type Priority byte

const (
	// Normal priority requests queue behind earlier work.
	Normal Priority = iota
	// Critical priority requests jump the queue.
	Critical
)

func (p Priority) String() string {
	switch p {
	case Normal:
		return "normal"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// PriorityFromExecKind maps the execution kind to a scheduling
// priority. Disputes and approvals hold back finality, so they go
// first.
func PriorityFromExecKind(kind parachaintypes.PvfExecKind) Priority {
	switch kind {
	case parachaintypes.PvfExecDispute, parachaintypes.PvfExecApproval:
		return Critical
	default:
		return Normal
	}
}
