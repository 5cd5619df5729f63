// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package pvf hosts parachain validation functions: it prepares
// validation code into executable instances and runs candidates
// against them under hard deadlines.
package pvf

import (
	"sync"
	"time"

	"github.com/ChainSafe/parachain-validation/internal/log"
	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "pvf"))

const (
	defaultExecuteWorkersMaxNum     uint = 2
	defaultPrepareWorkersSoftMaxNum uint = 1
	defaultPrepareWorkersHardMaxNum uint = 2
)

// Config configures the validation host.
type Config struct {
	// ArtifactsCachePath is the directory prepared artifacts live in.
	ArtifactsCachePath string
	// NodeVersion is the node's build version, recorded with prepared
	// artifacts so stale ones are rejected across upgrades.
	NodeVersion string
	// SecureValidatorMode requires the full worker sandbox.
	SecureValidatorMode bool

	// PrepareWorkerPath and ExecuteWorkerPath locate the standalone
	// worker binaries.
	PrepareWorkerPath string
	ExecuteWorkerPath string

	// ExecuteWorkersMaxNum caps concurrently executing jobs across all
	// workers. Defaults to 2.
	ExecuteWorkersMaxNum uint
	// PrepareWorkersSoftMaxNum caps concurrent heads-up preparations.
	// Defaults to 1. Demanded preparations only contend on the hard
	// limit.
	PrepareWorkersSoftMaxNum uint
	// PrepareWorkersHardMaxNum caps all concurrent preparations.
	// Defaults to 2.
	PrepareWorkersHardMaxNum uint

	// InstanceFactory creates execution instances from validation
	// code. Defaults to the embedded wazero runtime.
	InstanceFactory InstanceFactory
}

func (cfg Config) withDefaults() Config {
	if cfg.InstanceFactory == nil {
		cfg.InstanceFactory = setupVM
	}
	if cfg.ExecuteWorkersMaxNum == 0 {
		cfg.ExecuteWorkersMaxNum = defaultExecuteWorkersMaxNum
	}
	if cfg.PrepareWorkersSoftMaxNum == 0 {
		cfg.PrepareWorkersSoftMaxNum = defaultPrepareWorkersSoftMaxNum
	}
	if cfg.PrepareWorkersHardMaxNum == 0 {
		cfg.PrepareWorkersHardMaxNum = defaultPrepareWorkersHardMaxNum
	}
	return cfg
}

// Host prepares and executes parachain validation functions.
type Host struct {
	stopOnce  sync.Once
	stopCh    chan struct{}
	headsUpWg sync.WaitGroup

	// headsUpSlots bounds concurrent heads-up preparations at the soft
	// limit, demanded preparations only contend on the hard limit.
	headsUpSlots chan struct{}
	workerPool   *workerPool
}

// NewValidationHost creates a new validation host.
func NewValidationHost(cfg Config) *Host {
	cfg = cfg.withDefaults()
	logger.Debugf("validation host starting, node version %q, secure validator mode %t, artifacts cache %q",
		cfg.NodeVersion, cfg.SecureValidatorMode, cfg.ArtifactsCachePath)
	return &Host{
		stopCh:       make(chan struct{}),
		headsUpSlots: make(chan struct{}, cfg.PrepareWorkersSoftMaxNum),
		workerPool:   newValidationWorkerPool(cfg),
	}
}

// Stop shuts down the host. In-flight jobs are drained, late results
// are discarded.
func (v *Host) Stop() {
	v.stopOnce.Do(func() {
		close(v.stopCh)
		v.headsUpWg.Wait()
		if err := v.workerPool.stop(); err != nil {
			logger.Errorf("stopping worker pool: %s", err)
		}
	})
}

// ValidateCandidate prepares the given code if needed and executes
// the candidate against it. The execution wait is bounded by
// execTimeout: once it fires the result is discarded and
// ErrHardTimeout returned.
func (v *Host) ValidateCandidate(pvfData PrepData, execTimeout time.Duration,
	pvd parachaintypes.PersistedValidationData, pov parachaintypes.PoV,
	priority Priority) (*ValidationResult, error) {

	worker, err := v.workerPool.getOrPrepare(pvfData)
	if err != nil {
		return nil, err
	}

	resultCh := make(chan *workerResult, 1)
	task := &workerTask{
		work: ValidationParameters{
			ParentHeadData:         pvd.ParentHead,
			BlockData:              pov.BlockData,
			RelayParentNumber:      pvd.RelayParentNumber,
			RelayParentStorageRoot: pvd.RelayParentStorageRoot,
		},
		resultCh: resultCh,
	}

	logger.Debugf("submitting %s execution to worker %s", priority, worker.workerID)
	if err := worker.submit(task, priority); err != nil {
		return nil, err
	}

	timer := time.NewTimer(execTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.result, res.err
	case <-timer.C:
		return nil, ErrHardTimeout
	case <-v.stopCh:
		return nil, ErrHostShutdown
	}
}

// PrecheckPvf prepares the code under the precheck budget. The
// prepared instance is kept, later executions and heads-up requests
// for the same code find it ready.
func (v *Host) PrecheckPvf(pvfData PrepData) error {
	_, err := v.workerPool.getOrPrepare(pvfData)
	return err
}

// HeadsUp kicks off background preparation for each code blob not
// prepared yet. It returns without waiting for the preparations,
// failures are only logged. At most PrepareWorkersSoftMaxNum
// preparations run at once, the rest of the batch waits its turn.
func (v *Host) HeadsUp(batch []PrepData) error {
	select {
	case <-v.stopCh:
		return ErrHostShutdown
	default:
	}

	for _, pvfData := range batch {
		if v.workerPool.containsWorker(pvfData.codeHash) {
			continue
		}
		pvfData := pvfData
		v.headsUpWg.Add(1)
		go func() {
			defer v.headsUpWg.Done()
			select {
			case v.headsUpSlots <- struct{}{}:
				defer func() { <-v.headsUpSlots }()
			case <-v.stopCh:
				return
			}
			if _, err := v.workerPool.getOrPrepare(pvfData); err != nil {
				logger.Warnf("preparing %s ahead of time: %s", pvfData.codeHash, err)
			}
		}()
	}
	return nil
}
