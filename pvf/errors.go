// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pvf

import (
	"errors"
	"fmt"
)

var (
	// ErrHardTimeout means the candidate did not finish executing
	// within the hard execution deadline. Deterministic, the
	// candidate is invalid.
	ErrHardTimeout = errors.New("validation exceeded the hard timeout")

	// ErrAmbiguousWorkerDeath means the worker died while the job was
	// running, before reporting an outcome. It cannot be told whether
	// the candidate or the worker is at fault.
	ErrAmbiguousWorkerDeath = errors.New("worker died while the job was running")

	// ErrAmbiguousJobDeath means the execution job itself died
	// mid-run without reporting an outcome.
	ErrAmbiguousJobDeath = errors.New("job died while executing")

	// ErrJobError means the job reported an execution error that is
	// not attributable to the candidate with certainty.
	ErrJobError = errors.New("job errored during execution")

	// ErrRuntimeConstruction means the runtime could not be
	// constructed from the prepared artifact at execution time.
	ErrRuntimeConstruction = errors.New("runtime construction failed")

	// ErrHostCommunication means communication with the validation
	// host broke down. Always an internal fault, never the candidate's.
	ErrHostCommunication = errors.New("validation host communication failed")

	// ErrHostShutdown means the validation host is shutting down and
	// will not take new work.
	ErrHostShutdown = errors.New("validation host is shutting down")
)

// IsInternal reports whether the error is a fault of the host itself
// rather than evidence about the candidate.
func IsInternal(err error) bool {
	return errors.Is(err, ErrHostCommunication) || errors.Is(err, ErrHostShutdown)
}

// WorkerReportedInvalidError means the worker ran the candidate to
// completion and determined it invalid.
type WorkerReportedInvalidError struct {
	Reason string
}

func (e *WorkerReportedInvalidError) Error() string {
	return fmt.Sprintf("worker reported the candidate invalid: %s", e.Reason)
}

// PrepareErrorKind classifies preparation failures.
type PrepareErrorKind byte

const (
	// PreparePrevalidation means the blob failed pre-validation,
	// before compilation was attempted.
	PreparePrevalidation PrepareErrorKind = iota
	// PreparePreparation means compilation of the blob failed.
	PreparePreparation
	// PrepareJobError means the prepare job reported an error.
	PrepareJobError
	// PrepareTimedOut means preparation did not finish within the
	// preparation timeout.
	PrepareTimedOut
	// PrepareIOError means reading or writing the artifact failed.
	PrepareIOError
	// PrepareOutOfMemory means the prepare job exceeded its memory
	// allowance.
	PrepareOutOfMemory
	// PrepareJobDied means the prepare job died before reporting an
	// outcome.
	PrepareJobDied
)

func (k PrepareErrorKind) String() string {
	switch k {
	case PreparePrevalidation:
		return "prevalidation"
	case PreparePreparation:
		return "preparation"
	case PrepareJobError:
		return "job error"
	case PrepareTimedOut:
		return "timed out"
	case PrepareIOError:
		return "i/o error"
	case PrepareOutOfMemory:
		return "out of memory"
	case PrepareJobDied:
		return "job died"
	default:
		return "unknown"
	}
}

// PrepareError is an error produced while preparing validation code
// for execution or prechecking.
type PrepareError struct {
	Kind PrepareErrorKind
	Msg  string
}

func (e *PrepareError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("preparing validation code: %s", e.Kind)
	}
	return fmt.Sprintf("preparing validation code: %s: %s", e.Kind, e.Msg)
}

// IsDeterministic reports whether preparation is sure to fail again
// for the same code, meaning the failure counts against the
// candidate rather than the environment.
func (e *PrepareError) IsDeterministic() bool {
	switch e.Kind {
	case PreparePrevalidation, PreparePreparation, PrepareJobError, PrepareOutOfMemory:
		return true
	default:
		return false
	}
}
