// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

//go:generate mockgen -destination=mocks_test.go -package=$GOPACKAGE . BlockState,RuntimeInstance
