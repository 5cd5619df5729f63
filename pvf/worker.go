// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package pvf

import (
	"fmt"
	"sync"

	parachaintypes "github.com/ChainSafe/parachain-validation/types"
)

type worker struct {
	workerID parachaintypes.ValidationCodeHash
	instance Instance

	// execSlots is shared by every worker of the pool
	execSlots     chan struct{}
	queue         chan *workerTask
	priorityQueue chan *workerTask
}

type workerTask struct {
	work     ValidationParameters
	resultCh chan<- *workerResult
}

type workerResult struct {
	result *ValidationResult
	err    error
}

func newWorker(workerID parachaintypes.ValidationCodeHash, instance Instance,
	execSlots chan struct{}) *worker {
	return &worker{
		workerID:      workerID,
		instance:      instance,
		execSlots:     execSlots,
		queue:         make(chan *workerTask, maxRequestsAllowed),
		priorityQueue: make(chan *workerTask, maxRequestsAllowed),
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer func() {
		if closer, ok := w.instance.(interface{ close() }); ok {
			closer.close()
		}
		logger.Debugf("[STOPPED] worker %s", w.workerID)
		wg.Done()
	}()

	for {
		task, ok := w.nextTask()
		if !ok {
			return
		}
		w.executeRequest(task)
	}
}

// nextTask prefers the priority queue. Either queue being closed
// stops the worker.
func (w *worker) nextTask() (*workerTask, bool) {
	select {
	case task, ok := <-w.priorityQueue:
		return task, ok
	default:
	}

	select {
	case task, ok := <-w.priorityQueue:
		return task, ok
	case task, ok := <-w.queue:
		return task, ok
	}
}

// submit enqueues the task without blocking. A full queue is reported
// to the caller rather than waited out.
func (w *worker) submit(task *workerTask, priority Priority) error {
	queue := w.queue
	if priority == Critical {
		queue = w.priorityQueue
	}
	select {
	case queue <- task:
		return nil
	default:
		return fmt.Errorf("%w: worker %s queue is full", ErrHostCommunication, w.workerID)
	}
}

func (w *worker) executeRequest(task *workerTask) {
	w.execSlots <- struct{}{}
	defer func() { <-w.execSlots }()

	logger.Debugf("[EXECUTING] worker %s", w.workerID)

	defer func() {
		if r := recover(); r != nil {
			task.resultCh <- &workerResult{
				err: fmt.Errorf("%w: %v", ErrAmbiguousJobDeath, r),
			}
		}
	}()

	result, err := w.instance.ValidateBlock(task.work)
	if err != nil {
		logger.Tracef("[RESULT] worker %s error: %s", w.workerID, err)
		task.resultCh <- &workerResult{err: err}
		return
	}

	logger.Tracef("[RESULT] worker %s head data %x", w.workerID, result.HeadData.Data)
	task.resultCh <- &workerResult{result: result}
}
