// Copyright 2020 The go-ethereum Authors
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

import "errors"

// Fatal error kinds. The coordinator wraps these with fmt.Errorf("...: %w")
// for context; callers should compare with errors.Is against the sentinels
// below, not against the wrapped message.
var (
	// ErrSnapshotAbsent: the tree is recovering but the source store no
	// longer advertises a snapshot batch.
	ErrSnapshotAbsent = errors.New("recovery: source store no longer advertises a snapshot batch")

	// ErrSnapshotDivergence: recovered version disagrees with the current
	// snapshot's batch identifier, or a chunk's first-entry exists in the
	// tree with a value differing from the source store.
	ErrSnapshotDivergence = errors.New("recovery: snapshot divergence detected")

	// ErrSnapshotCorruption: two entries in one chunk share the same
	// hashed key.
	ErrSnapshotCorruption = errors.New("recovery: snapshot corruption detected")

	// ErrRootHashMismatch: post-recovery tree root hash differs from the
	// snapshot's expected root hash.
	ErrRootHashMismatch = errors.New("recovery: root hash mismatch after recovery")

	// ErrSourceStoreUnavailable: a source-store query failed or returned an
	// unexpected shape.
	ErrSourceStoreUnavailable = errors.New("recovery: source store unavailable")

	// ErrTreeUnavailable: a tree lookup/extend/root/finalize call failed.
	ErrTreeUnavailable = errors.New("recovery: tree unavailable")
)
