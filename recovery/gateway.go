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

import "context"

// ChunkStart is the lowest-keyed entry inside a chunk at a given miniblock,
// as reported by the source store. A nil *ChunkStart from ChunkStarts means
// the chunk is empty in the snapshot.
type ChunkStart struct {
	Key       HashedKey
	Value     Word
	LeafIndex uint64
}

// SourceStore is the narrow, read-only query surface the core needs from
// the relational source store. Every query is parameterized by a fixed
// snapshot miniblock. Implementations live outside the core (e.g. sqlsource).
type SourceStore interface {
	// MiniblockRange returns the first and last miniblock of an L1 batch, or
	// ok=false if the batch has no miniblocks.
	MiniblockRange(ctx context.Context, batch BatchID) (first, last Miniblock, ok bool, err error)

	// BatchMetadata returns the batch's final root hash, or ok=false if
	// metadata is absent.
	BatchMetadata(ctx context.Context, batch BatchID) (root RootHash, ok bool, err error)

	// EntryCount counts storage entries at the given miniblock.
	EntryCount(ctx context.Context, mb Miniblock) (uint64, error)

	// ChunkStarts returns, per range, the lowest-keyed entry inside that
	// range at the given miniblock, or nil if the range is empty.
	ChunkStarts(ctx context.Context, mb Miniblock, ranges []ChunkRange) ([]*ChunkStart, error)

	// EntriesInRange returns all entries in the range at the given
	// miniblock, sorted by hashed key ascending.
	EntriesInRange(ctx context.Context, mb Miniblock, r ChunkRange) ([]TreeEntry, error)

	// SnapshotL1Batch returns the latest snapshot batch the source store
	// advertises, or ok=false if none is available.
	SnapshotL1Batch(ctx context.Context) (batch BatchID, ok bool, err error)
}

// ConnectionPool advertises the capacity that bounds how many chunk workers
// may run at once. The core only needs that capacity; the
// connections themselves are acquired through SourceStore's context-scoped
// queries, matching how a *sql.DB pool is used in Go (queries borrow a
// connection implicitly rather than the caller holding one explicitly).
type ConnectionPool interface {
	MaxSize() int
}

// TreeKind tags which variant a TreeState carries.
type TreeKind int

const (
	// KindEmpty means the tree has no entries and is not recovering.
	KindEmpty TreeKind = iota
	// KindRecovering means the tree carries a recovered_version and is
	// partway through a previous (possibly interrupted) recovery run.
	KindRecovering
	// KindReady means the tree is non-empty and not in recovery mode.
	KindReady
)

// TreeState is a closed variant over the three states a tree can be
// observed in at coordinator start: Empty, Recovering{RecoveredVersion},
// Ready. It is intentionally a tagged struct rather than an interface
// hierarchy, mirroring the teacher's closed diskLayer/diffLayer shape.
type TreeState struct {
	Kind             TreeKind
	RecoveredVersion BatchID // valid only when Kind == KindRecovering
}

// TreeHandle is the narrow capability set the core needs from the Merkle
// tree itself. The tree's internal hashing, node storage and finalization
// are out of scope for the core; only these operations are consumed.
type TreeHandle interface {
	// Classify reports which of Empty/Recovering/Ready the tree is in.
	Classify(ctx context.Context) (TreeState, error)

	// BeginRecovery stamps the tree with the batch it is about to recover
	// from, transitioning it from Empty to Recovering before any Extend
	// call. The recorded batch must persist across restarts: a later
	// Classify call must report it back as TreeState.RecoveredVersion, so
	// a resumed run can tell the batch it is continuing apart from a
	// divergent one. Calling it again with the same batch is a no-op;
	// calling it with a different batch while already recovering is an
	// error.
	BeginRecovery(ctx context.Context, batch BatchID) error

	// LookupMany returns, per key, the stored TreeEntry or Found=false if the
	// key is absent.
	LookupMany(ctx context.Context, keys []HashedKey) ([]LookupResult, error)

	// Extend folds entries into the tree. Idempotent over any subset
	// already present with identical values; behavior is undefined if a key
	// appears with a different value across calls (the core guarantees
	// uniqueness before calling Extend).
	Extend(ctx context.Context, entries []TreeEntry) error

	// RootHash returns the tree's current root hash.
	RootHash(ctx context.Context) (RootHash, error)

	// Finalize is a one-shot operation transitioning the tree from
	// Recovering to Ready.
	Finalize(ctx context.Context) error
}

// LookupResult is the answer to a single key lookup against the tree.
type LookupResult struct {
	Entry TreeEntry
	Found bool
}
