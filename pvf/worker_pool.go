// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pvf

import (
	"errors"
	"fmt"
	"sync"
	"time"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

const maxRequestsAllowed uint = 60

// workerPool keeps one worker per validation code hash. A worker owns
// the prepared execution instance for its code and serialises jobs
// against it.
type workerPool struct {
	mtx sync.Mutex
	wg  sync.WaitGroup

	factory InstanceFactory
	// prepSlots bounds concurrent preparations at the hard limit,
	// execSlots bounds concurrently executing jobs across all workers.
	prepSlots chan struct{}
	execSlots chan struct{}
	workers   map[parachaintypes.ValidationCodeHash]*worker
	// preparing holds a channel per code hash with an in-flight
	// preparation, closed when it settles.
	preparing map[parachaintypes.ValidationCodeHash]chan struct{}
	stopped   bool
}

func newValidationWorkerPool(cfg Config) *workerPool {
	return &workerPool{
		factory:   cfg.InstanceFactory,
		prepSlots: make(chan struct{}, cfg.PrepareWorkersHardMaxNum),
		execSlots: make(chan struct{}, cfg.ExecuteWorkersMaxNum),
		workers:   make(map[parachaintypes.ValidationCodeHash]*worker),
		preparing: make(map[parachaintypes.ValidationCodeHash]chan struct{}),
	}
}

// getOrPrepare returns the worker for the code hash, preparing the
// code first if no worker exists yet. Concurrent callers for the same
// code hash wait on a single preparation instead of racing their own.
// Failed preparations are not cached, the next caller prepares again.
func (p *workerPool) getOrPrepare(data PrepData) (*worker, error) {
	for {
		p.mtx.Lock()
		if p.stopped {
			p.mtx.Unlock()
			return nil, ErrHostShutdown
		}
		if w, ok := p.workers[data.codeHash]; ok {
			p.mtx.Unlock()
			return w, nil
		}
		if inflight, ok := p.preparing[data.codeHash]; ok {
			p.mtx.Unlock()
			<-inflight
			continue
		}
		inflight := make(chan struct{})
		p.preparing[data.codeHash] = inflight
		p.mtx.Unlock()

		// the preparation budget starts once a slot is held, waiting
		// for one does not count against it
		p.prepSlots <- struct{}{}
		w, err := p.newValidationWorker(data)
		<-p.prepSlots

		p.mtx.Lock()
		delete(p.preparing, data.codeHash)
		if err == nil && !p.stopped {
			p.workers[data.codeHash] = w
		}
		p.mtx.Unlock()
		close(inflight)

		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

// newValidationWorker prepares the code under the preparation budget
// and starts a worker loop for it.
func (p *workerPool) newValidationWorker(data PrepData) (*worker, error) {
	type outcome struct {
		instance Instance
		err      error
	}
	outcomeCh := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcomeCh <- outcome{err: &PrepareError{
					Kind: PrepareJobDied,
					Msg:  fmt.Sprint(r),
				}}
			}
		}()
		instance, err := p.factory(data.code)
		outcomeCh <- outcome{instance: instance, err: err}
	}()

	timer := time.NewTimer(data.prepTimeout)
	defer timer.Stop()

	select {
	case res := <-outcomeCh:
		if res.err != nil {
			logger.Errorf("failed to create a new worker: %s", res.err)
			var prepErr *PrepareError
			if errors.As(res.err, &prepErr) || errors.Is(res.err, ErrRuntimeConstruction) {
				return nil, res.err
			}
			return nil, &PrepareError{Kind: PreparePreparation, Msg: res.err.Error()}
		}

		w := newWorker(data.codeHash, res.instance, p.execSlots)
		p.wg.Add(1)
		go w.run(&p.wg)
		return w, nil

	case <-timer.C:
		return nil, &PrepareError{Kind: PrepareTimedOut}
	}
}

func (p *workerPool) containsWorker(workerID parachaintypes.ValidationCodeHash) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	_, inMap := p.workers[workerID]
	return inMap
}

// stop shuts down all worker goroutines and waits for them to drain
// their queues.
func (p *workerPool) stop() error {
	p.mtx.Lock()
	if p.stopped {
		p.mtx.Unlock()
		return nil
	}
	p.stopped = true
	for _, w := range p.workers {
		close(w.queue)
		close(w.priorityQueue)
	}
	p.mtx.Unlock()

	allWorkersDoneCh := make(chan struct{})
	go func() {
		defer close(allWorkersDoneCh)
		p.wg.Wait()
	}()

	timeoutTimer := time.NewTimer(30 * time.Second)
	select {
	case <-timeoutTimer.C:
		return fmt.Errorf("timeout reached while finishing workers")
	case <-allWorkersDoneCh:
		if !timeoutTimer.Stop() {
			<-timeoutTimer.C
		}
		return nil
	}
}
