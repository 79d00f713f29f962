// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package similarity

import (
	"sync"
	"testing"

	"github.com/tomtom215/lexicographus/internal/models"
)

func edgeBatch(ids ...string) []models.MatrixEdge {
	batch := make([]models.MatrixEdge, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, models.MatrixEdge{SourceID: id, TargetID: id + "_t", Distance: 1})
	}
	return batch
}

func TestQueuePushPopOrder(t *testing.T) {
	q := newBatchQueue()
	q.Push(edgeBatch("a"))
	q.Push(edgeBatch("b", "c"))

	first, ok := q.Pop()
	if !ok || len(first) != 1 || first[0].SourceID != "a" {
		t.Fatalf("Pop() = %v, %v, want batch [a], true", first, ok)
	}
	second, ok := q.Pop()
	if !ok || len(second) != 2 || second[0].SourceID != "b" {
		t.Fatalf("Pop() = %v, %v, want batch [b c], true", second, ok)
	}
}

func TestQueueDropsEmptyBatches(t *testing.T) {
	q := newBatchQueue()
	q.Push(nil)
	q.Push([]models.MatrixEdge{})

	if got := q.Depth(); got != 0 {
		t.Fatalf("Depth() = %d, want 0", got)
	}
}

func TestQueueDrainsAfterFinish(t *testing.T) {
	q := newBatchQueue()
	q.Push(edgeBatch("a"))
	q.Push(edgeBatch("b"))
	q.Finish()

	if batch, ok := q.Pop(); !ok || len(batch) != 1 {
		t.Fatalf("Pop() after Finish = %v, %v, want queued batch", batch, ok)
	}
	if batch, ok := q.Pop(); !ok || len(batch) != 1 {
		t.Fatalf("Pop() after Finish = %v, %v, want queued batch", batch, ok)
	}
	if batch, ok := q.Pop(); ok || batch != nil {
		t.Fatalf("Pop() on drained queue = %v, %v, want nil, false", batch, ok)
	}
}

func TestQueueFinishUnblocksWaiter(t *testing.T) {
	q := newBatchQueue()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if batch, ok := q.Pop(); ok || batch != nil {
			t.Errorf("Pop() = %v, %v, want nil, false", batch, ok)
		}
	}()

	q.Finish()
	<-done
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := newBatchQueue()

	const producers = 8
	const batchesEach = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < batchesEach; i++ {
				q.Push(edgeBatch("x", "y"))
			}
		}()
	}

	var popped int
	consumed := make(chan int, 1)
	go func() {
		for {
			batch, ok := q.Pop()
			if !ok {
				consumed <- popped
				return
			}
			popped += len(batch)
		}
	}()

	wg.Wait()
	q.Finish()

	if got, want := <-consumed, producers*batchesEach*2; got != want {
		t.Fatalf("consumed %d edges, want %d", got, want)
	}
}

func TestQueueDepth(t *testing.T) {
	q := newBatchQueue()
	if got := q.Depth(); got != 0 {
		t.Fatalf("Depth() = %d, want 0", got)
	}
	q.Push(edgeBatch("a"))
	q.Push(edgeBatch("b"))
	if got := q.Depth(); got != 2 {
		t.Fatalf("Depth() = %d, want 2", got)
	}
	if _, ok := q.Pop(); !ok {
		t.Fatal("Pop() returned no batch")
	}
	if got := q.Depth(); got != 1 {
		t.Fatalf("Depth() = %d, want 1", got)
	}
}
