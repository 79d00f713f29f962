// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package similarity

import (
	"sync"

	"github.com/tomtom215/lexicographus/internal/models"
)

// batchQueue is an unbounded FIFO of edge batches feeding the single
// writer. Producers hand over whole batches and never block on
// capacity; the writer sleeps on the condition variable until a batch
// arrives or the producer side finishes.
type batchQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	batches [][]models.MatrixEdge
	done    bool
}

func newBatchQueue() *batchQueue {
	q := &batchQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends one batch and wakes the writer. Ownership of the slice
// transfers to the queue; the caller must not touch it afterwards.
// Empty batches are dropped.
func (q *batchQueue) Push(batch []models.MatrixEdge) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	q.batches = append(q.batches, batch)
	q.mu.Unlock()
	q.cond.Signal()
}

// Finish marks the producer side closed. Batches already queued remain
// poppable; once they drain, Pop reports exhaustion.
func (q *batchQueue) Finish() {
	q.mu.Lock()
	q.done = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Pop blocks until a batch is available or the queue is finished and
// empty. The second result is false once the queue is drained for good.
func (q *batchQueue) Pop() ([]models.MatrixEdge, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.batches) == 0 && !q.done {
		q.cond.Wait()
	}
	if len(q.batches) == 0 {
		return nil, false
	}

	batch := q.batches[0]
	q.batches = q.batches[1:]
	return batch, true
}

// Depth reports how many batches are waiting.
func (q *batchQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches)
}
