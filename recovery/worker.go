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
)

// chunkWorker recovers a single chunk: it loads the chunk's entries from the
// source store, checks for within-chunk key collisions, then takes the tree
// gate and extends the tree. The gate is held for the Extend call only, never
// while doing source-store I/O, so workers overlap on the expensive part and
// serialize only on the cheap part.
type chunkWorker struct {
	source SourceStore
	tree   TreeHandle
	gate   *sync.Mutex
	sink   EventSink
	mb     Miniblock
}

func (w *chunkWorker) recover(ctx context.Context, r ChunkRange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.sink.ChunkStarted()

	entries, err := w.source.EntriesInRange(ctx, w.mb, r)
	if err != nil {
		return fmt.Errorf("%w: entries in range %s: %v", ErrSourceStoreUnavailable, r, err)
	}
	if err := checkNoDuplicateKeys(entries); err != nil {
		return fmt.Errorf("%w: range %s: %v", ErrSnapshotCorruption, r, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	w.gate.Lock()
	if err := ctx.Err(); err != nil {
		w.gate.Unlock()
		return err
	}
	err = w.tree.Extend(ctx, entries)
	w.gate.Unlock()
	if err != nil {
		return fmt.Errorf("%w: extend with range %s: %v", ErrTreeUnavailable, r, err)
	}

	w.sink.ChunkRecovered()
	return nil
}

// checkNoDuplicateKeys assumes entries is sorted ascending by key, as
// EntriesInRange guarantees, so duplicates are always adjacent.
func checkNoDuplicateKeys(entries []TreeEntry) error {
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key.Compare(entries[i].Key) == 0 {
			return fmt.Errorf("duplicate hashed key %s", entries[i].Key)
		}
	}
	return nil
}
