// Copyright 2019 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package recovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrencyLimit bounds how many chunks are recovered at once, even
// when the connection pool could serve more. It exists so a single recovery
// run doesn't starve other consumers of the pool.
const DefaultConcurrencyLimit = 10

// ReadyTree is the result of a successful EnsureReady call: a tree that is
// fully recovered (or required no recovery at all) and whose root hash has
// been checked against the snapshot it was built from, when recovery ran.
type ReadyTree struct {
	Tree TreeHandle
}

// Coordinator drives a TreeHandle from Empty or Recovering to Ready. It owns
// the tree gate: workers take Coordinator.gate only around Extend calls, so
// the coordinator, not the tree implementation, is what serializes writers.
type Coordinator struct {
	Source SourceStore

	// ConcurrencyLimit caps in-flight chunk workers regardless of pool
	// size. Zero means DefaultConcurrencyLimit.
	ConcurrencyLimit int

	gate sync.Mutex
}

// EnsureReady brings tree to the Ready state and returns it wrapped as a
// ReadyTree. If tree is already Ready, it is returned unchanged without
// touching the source store. If ctx is cancelled mid-recovery, EnsureReady
// returns (nil, nil): cancellation is not treated as failure, since the next
// call resumes from the chunks already folded into the tree.
func (c *Coordinator) EnsureReady(ctx context.Context, tree TreeHandle, pool ConnectionPool, sink EventSink) (*ReadyTree, error) {
	if sink == nil {
		sink = NoopEventSink{}
	}

	state, err := tree.Classify(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: classify: %v", ErrTreeUnavailable, err)
	}

	if state.Kind == KindReady {
		return &ReadyTree{Tree: tree}, nil
	}

	batch, descriptor, err := c.resolveSnapshot(ctx, tree, state)
	if err != nil {
		return nil, err
	}
	if descriptor == nil {
		// Empty tree, no snapshot advertised: normal-operation bootstrap,
		// not a recovery run.
		return &ReadyTree{Tree: tree}, nil
	}

	chunks, err := NewChunkRanges(descriptor.ChunkCount)
	if err != nil {
		return nil, fmt.Errorf("deriving chunk ranges for batch %d: %w", batch, err)
	}

	pending, err := filterChunks(ctx, c.Source, tree, descriptor.Miniblock, chunks)
	if err != nil {
		return nil, err
	}

	alreadyRecovered := len(chunks) - len(pending)
	sink.RecoveryStarted(len(chunks), alreadyRecovered)
	log.Info("starting tree recovery", "batch", batch, "chunks", len(chunks), "alreadyRecovered", alreadyRecovered)

	if err := c.recoverChunks(ctx, tree, sink, descriptor.Miniblock, pending, pool); err != nil {
		if err == context.Canceled || err == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, err
	}

	root, err := tree.RootHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: root hash: %v", ErrTreeUnavailable, err)
	}
	if root != descriptor.ExpectedRootHash {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrRootHashMismatch, root, descriptor.ExpectedRootHash)
	}

	if err := tree.Finalize(ctx); err != nil {
		return nil, fmt.Errorf("%w: finalize: %v", ErrTreeUnavailable, err)
	}

	log.Info("tree recovery complete", "batch", batch, "root", root)
	return &ReadyTree{Tree: tree}, nil
}

// resolveSnapshot determines which batch to recover from and builds its
// descriptor, reconciling the tree's own notion of progress (if any) against
// what the source store currently advertises. A nil descriptor with a nil
// error means Empty + no snapshot advertised: the normal-operation bootstrap
// path, not a recovery run.
func (c *Coordinator) resolveSnapshot(ctx context.Context, tree TreeHandle, state TreeState) (BatchID, *SnapshotDescriptor, error) {
	advertised, ok, err := c.Source.SnapshotL1Batch(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: snapshot batch: %v", ErrSourceStoreUnavailable, err)
	}

	switch state.Kind {
	case KindRecovering:
		if !ok {
			return 0, nil, fmt.Errorf("%w", ErrSnapshotAbsent)
		}
		if state.RecoveredVersion != advertised {
			return 0, nil, fmt.Errorf("%w: tree recovering from batch %d, source store now advertises batch %d",
				ErrSnapshotDivergence, state.RecoveredVersion, advertised)
		}

	case KindEmpty:
		if !ok {
			return 0, nil, nil
		}
		if err := tree.BeginRecovery(ctx, advertised); err != nil {
			return 0, nil, fmt.Errorf("%w: begin recovery: %v", ErrTreeUnavailable, err)
		}
	}

	descriptor, err := buildSnapshotDescriptor(ctx, c.Source, advertised)
	if err != nil {
		return 0, nil, err
	}
	return advertised, descriptor, nil
}

// recoverChunks fans pending out across workers bounded by
// min(pool.MaxSize(), ConcurrencyLimit), stopping at the first worker error
// or at context cancellation.
func (c *Coordinator) recoverChunks(ctx context.Context, tree TreeHandle, sink EventSink, mb Miniblock, pending []ChunkRange, pool ConnectionPool) error {
	if len(pending) == 0 {
		return nil
	}

	limit := c.ConcurrencyLimit
	if limit <= 0 {
		limit = DefaultConcurrencyLimit
	}
	if max := pool.MaxSize(); max > 0 && max < limit {
		limit = max
	}

	sem := semaphore.NewWeighted(int64(limit))
	group, gctx := errgroup.WithContext(ctx)

	worker := &chunkWorker{
		source: c.Source,
		tree:   tree,
		gate:   &c.gate,
		sink:   sink,
		mb:     mb,
	}

	for _, r := range pending {
		r := r
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			return worker.recover(gctx, r)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
