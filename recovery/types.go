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

// Package recovery drives a persistent Merkle tree from empty or partially
// recovered to ready by streaming key/value entries out of a relational
// source store in parallel, bounded chunks.
package recovery

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// HashedKey is a 256-bit unsigned integer, represented as a big-endian
// 32-byte array. Its total order is identical to its numeric order.
type HashedKey [32]byte

// Compare returns -1, 0 or 1 as k is numerically less than, equal to, or
// greater than other. Big-endian byte comparison is equivalent to numeric
// comparison for fixed-width unsigned integers.
func (k HashedKey) Compare(other HashedKey) int {
	return bytes.Compare(k[:], other[:])
}

func (k HashedKey) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// MaxHashedKey is the maximum representable HashedKey, i.e. 2^256 - 1.
var MaxHashedKey = HashedKey{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// Word is a 32-byte value stored at a tree leaf.
type Word [32]byte

// TreeEntry is a single key/value pair destined for a tree leaf.
type TreeEntry struct {
	Key       HashedKey
	Value     Word
	LeafIndex uint64 // must be > 0
}

func (e TreeEntry) String() string {
	return fmt.Sprintf("TreeEntry{key: %s, leafIndex: %d}", e.Key, e.LeafIndex)
}

// ChunkRange is an inclusive range over the HashedKey space.
type ChunkRange struct {
	Start HashedKey
	End   HashedKey
}

func (r ChunkRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start, r.End)
}

// Contains reports whether key falls within the inclusive range.
func (r ChunkRange) Contains(key HashedKey) bool {
	return key.Compare(r.Start) >= 0 && key.Compare(r.End) <= 0
}

// BatchID identifies an L1 batch: an externally anchored, monotonically
// increasing unit of committed state.
type BatchID uint64

// Miniblock identifies a sub-unit of an L1 batch at which storage entries
// are indexed.
type Miniblock uint64

// RootHash is a 32-byte digest identifying the state of a Merkle tree.
type RootHash [32]byte

func (h RootHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// DesiredChunkSize is the fixed target number of entries per recovery chunk.
// It is a compile-time constant, never configurable: changing it between
// runs would invalidate the resume-by-first-key protocol, since different
// partitions would treat the same first key as belonging to different
// ranges.
const DesiredChunkSize = 200_000

// SnapshotDescriptor summarizes the immutable properties of the snapshot
// being recovered from. It is built once at coordinator start and never
// mutated for the duration of the run.
type SnapshotDescriptor struct {
	BatchID          BatchID
	Miniblock        Miniblock
	ExpectedRootHash RootHash
	EntryCount       uint64
	ChunkCount       uint64
}

// chunkCount derives the number of chunks from the entry count, per the
// fixed DesiredChunkSize. Always at least 1.
func chunkCount(entryCount uint64) uint64 {
	n := (entryCount + DesiredChunkSize - 1) / DesiredChunkSize
	if n < 1 {
		n = 1
	}
	return n
}
