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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexBill01/zksync-era/memtree"
)

func TestFilterChunksThreeWaySplit(t *testing.T) {
	chunks, err := NewChunkRanges(4)
	require.NoError(t, err)

	entryFor := func(q int) TreeEntry {
		var k HashedKey
		k[0] = byte(q*64 + 1)
		return TreeEntry{Key: k, Value: Word{byte(q)}, LeafIndex: uint64(q + 1)}
	}

	// Chunk 0: present in source and tree, matching -> done, not pending.
	// Chunk 1: present in source, tree has nothing for it -> pending.
	// Chunk 2: present in neither -> done, not pending (nothing to do).
	// Chunk 3: present in source, tree has a different value -> divergence.
	e0, e1, e3 := entryFor(0), entryFor(1), entryFor(3)

	source := newFakeSource(testBatch, testMiniblock, RootHash{}, []TreeEntry{e0, e1, e3})

	tree := memtree.New()
	require.NoError(t, tree.Extend(context.Background(), []TreeEntry{e0}))

	pending, err := filterChunks(context.Background(), source, tree, testMiniblock, chunks[:3])
	require.NoError(t, err)
	assert.Equal(t, []ChunkRange{chunks[1]}, pending)

	// Now make the tree disagree with the source on chunk 3's first entry.
	diverged := e3
	diverged.Value[0] ^= 0xff
	require.NoError(t, tree.Extend(context.Background(), []TreeEntry{diverged}))

	_, err = filterChunks(context.Background(), source, tree, testMiniblock, chunks)
	assert.ErrorIs(t, err, ErrSnapshotDivergence)
}
