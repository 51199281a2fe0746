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
)

// filterChunks consults the source store for the first entry of each
// candidate chunk, asks the tree whether that key is already present and
// consistent, and returns the subset of chunks still to be recovered, in
// original chunk order.
//
// The first key of each deterministic chunk uniquely identifies whether
// that chunk has been folded in, so recovery state lives entirely in the
// tree; there is no separate checkpoint file.
func filterChunks(ctx context.Context, source SourceStore, tree TreeHandle, mb Miniblock, chunks []ChunkRange) ([]ChunkRange, error) {
	starts, err := source.ChunkStarts(ctx, mb, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk starts: %v", ErrSourceStoreUnavailable, err)
	}
	if len(starts) != len(chunks) {
		return nil, fmt.Errorf("%w: chunk starts returned %d entries for %d chunks", ErrSourceStoreUnavailable, len(starts), len(chunks))
	}

	// Indices of chunks whose first entry exists in the snapshot, and the
	// keys to look up in the tree for each.
	var (
		presentIdx []int
		keys       []HashedKey
	)
	for i, s := range starts {
		if s != nil {
			presentIdx = append(presentIdx, i)
			keys = append(keys, s.Key)
		}
	}

	results, err := tree.LookupMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup many: %v", ErrTreeUnavailable, err)
	}
	if len(results) != len(keys) {
		return nil, fmt.Errorf("%w: lookup many returned %d results for %d keys", ErrTreeUnavailable, len(results), len(keys))
	}

	pending := make([]ChunkRange, 0, len(chunks))
	for j, i := range presentIdx {
		res := results[j]
		if !res.Found {
			// Tree has nothing at this key yet: chunk is pending.
			pending = append(pending, chunks[i])
			continue
		}
		// Tree already has this key: chunk is done, but must agree with the
		// source store's answer, or the tree was recovered from a
		// different snapshot (or the snapshot mutated underneath us).
		start := starts[i]
		if res.Entry.Value != start.Value || res.Entry.LeafIndex != start.LeafIndex {
			return nil, fmt.Errorf("%w: chunk %s first entry %s disagrees with tree entry %s",
				ErrSnapshotDivergence, chunks[i], start.Key, res.Entry)
		}
		// Done; not emitted.
	}
	// Chunks whose first entry is absent from the source store have
	// nothing to do and are treated as done; they are never appended to
	// pending, matching the loop above which only visits presentIdx.
	return pending, nil
}
