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
	"sort"
)

// fakeSource is an in-memory SourceStore over a single fixed miniblock,
// backing the property and scenario tests below.
type fakeSource struct {
	batch     BatchID
	snapBatch BatchID
	hasSnap   bool
	mb        Miniblock
	root      RootHash
	entries   []TreeEntry // sorted ascending by Key
}

func newFakeSource(batch BatchID, mb Miniblock, root RootHash, entries []TreeEntry) *fakeSource {
	sorted := append([]TreeEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key.Compare(sorted[j].Key) < 0 })
	return &fakeSource{
		batch:     batch,
		snapBatch: batch,
		hasSnap:   true,
		mb:        mb,
		root:      root,
		entries:   sorted,
	}
}

func (s *fakeSource) MiniblockRange(ctx context.Context, batch BatchID) (Miniblock, Miniblock, bool, error) {
	if batch != s.batch {
		return 0, 0, false, nil
	}
	return s.mb, s.mb, true, nil
}

func (s *fakeSource) BatchMetadata(ctx context.Context, batch BatchID) (RootHash, bool, error) {
	if batch != s.batch {
		return RootHash{}, false, nil
	}
	return s.root, true, nil
}

func (s *fakeSource) EntryCount(ctx context.Context, mb Miniblock) (uint64, error) {
	if mb != s.mb {
		return 0, nil
	}
	return uint64(len(s.entries)), nil
}

func (s *fakeSource) ChunkStarts(ctx context.Context, mb Miniblock, ranges []ChunkRange) ([]*ChunkStart, error) {
	out := make([]*ChunkStart, len(ranges))
	if mb != s.mb {
		return out, nil
	}
	for i, r := range ranges {
		for _, e := range s.entries {
			if r.Contains(e.Key) {
				cs := ChunkStart{Key: e.Key, Value: e.Value, LeafIndex: e.LeafIndex}
				out[i] = &cs
				break
			}
		}
	}
	return out, nil
}

func (s *fakeSource) EntriesInRange(ctx context.Context, mb Miniblock, r ChunkRange) ([]TreeEntry, error) {
	if mb != s.mb {
		return nil, nil
	}
	var out []TreeEntry
	for _, e := range s.entries {
		if r.Contains(e.Key) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeSource) SnapshotL1Batch(ctx context.Context) (BatchID, bool, error) {
	return s.snapBatch, s.hasSnap, nil
}

func keyAt(n uint64) HashedKey {
	var k HashedKey
	k[31] = byte(n)
	k[30] = byte(n >> 8)
	k[29] = byte(n >> 16)
	return k
}
