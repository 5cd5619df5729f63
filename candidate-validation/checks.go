// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"bytes"
	"fmt"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/klauspost/compress/zstd"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

const (
	// maxCodeSize is the maximum accepted decompressed validation code size.
	maxCodeSize uint64 = 3 * 1024 * 1024
	// maxPoVSize is the maximum accepted decompressed PoV size.
	maxPoVSize uint64 = 5 * 1024 * 1024

	// validationCodeBombLimit bounds decompression of validation code,
	// an upper bound against decompression bombs.
	validationCodeBombLimit = maxCodeSize * 4
	// povBombLimit bounds decompression of the PoV block data.
	povBombLimit = maxPoVSize * 4
)

// performBasicChecks does the cheap sanity checks of a candidate against its
// PoV before any execution is attempted. Returns the reason for invalidity if
// a check fails, and an internal error if a check could not be carried out.
func performBasicChecks(candidate *parachaintypes.CandidateDescriptor, maxPovSize uint32,
	pov parachaintypes.PoV, validationCodeHash parachaintypes.ValidationCodeHash) (
	validationError *ReasonForInvalidity, internalError error) {
	povHash, err := pov.Hash()
	if err != nil {
		return nil, fmt.Errorf("hashing PoV: %w", err)
	}

	encodedPoV, err := scale.Marshal(pov)
	if err != nil {
		return nil, fmt.Errorf("encoding PoV: %w", err)
	}
	encodedPoVSize := uint32(len(encodedPoV))

	if encodedPoVSize > maxPovSize {
		ci := ParamsTooLarge
		return &ci, nil
	}

	if povHash != candidate.PovHash {
		ci := PoVHashMismatch
		return &ci, nil
	}

	if validationCodeHash != candidate.ValidationCodeHash {
		ci := CodeHashMismatch
		return &ci, nil
	}

	err = candidate.CheckCollatorSignature()
	if err != nil {
		ci := BadSignature
		return &ci, nil
	}
	return nil, nil
}

// An arbitrary prefix, that indicates a blob beginning with should be decompressed with
// Zstd compression.
//
// This differs from the WASM magic bytes, so real WASM blobs will not have this prefix.
var zstdPrefix = []byte{82, 188, 83, 118, 70, 219, 142, 5}

// maybeCompressedBlobDecompress returns the blob decompressed if it carries
// the zstd prefix, or unchanged otherwise. Decompression refuses to produce
// more than bombLimit bytes.
func maybeCompressedBlobDecompress(blob []byte, bombLimit uint64) ([]byte, error) {
	if !bytes.HasPrefix(blob, zstdPrefix) {
		return blob, nil
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(bombLimit))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	decompressed, err := decoder.DecodeAll(blob[len(zstdPrefix):], nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing blob: %w", err)
	}
	if uint64(len(decompressed)) > bombLimit {
		return nil, fmt.Errorf("decompressed blob of %d bytes is over the limit of %d",
			len(decompressed), bombLimit)
	}
	return decompressed, nil
}
