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

// buildSnapshotDescriptor constructs the immutable SnapshotDescriptor for
// batch, by three reads against the source store: the batch's miniblock
// range, its final root hash, and the entry count at the snapshot
// miniblock. The derived chunk count is fixed for the life of the
// descriptor.
func buildSnapshotDescriptor(ctx context.Context, source SourceStore, batch BatchID) (*SnapshotDescriptor, error) {
	_, last, ok, err := source.MiniblockRange(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: miniblock range for batch %d: %v", ErrSourceStoreUnavailable, batch, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: L1 batch %d has no miniblocks", ErrSourceStoreUnavailable, batch)
	}

	root, ok, err := source.BatchMetadata(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata for batch %d: %v", ErrSourceStoreUnavailable, batch, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: L1 batch %d has no metadata", ErrSourceStoreUnavailable, batch)
	}

	entryCount, err := source.EntryCount(ctx, last)
	if err != nil {
		return nil, fmt.Errorf("%w: entry count at miniblock %d: %v", ErrSourceStoreUnavailable, last, err)
	}

	return &SnapshotDescriptor{
		BatchID:          batch,
		Miniblock:        last,
		ExpectedRootHash: root,
		EntryCount:       entryCount,
		ChunkCount:       chunkCount(entryCount),
	}, nil
}
