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

// Package memtree is an in-memory recovery.TreeHandle used by tests and the
// recoverctl demo command. It is not a real Merkle tree implementation: the
// "root hash" is a deterministic fold of sorted entries, good enough to
// exercise the recovery core's root-hash check without pulling in a real
// trie backend.
package memtree

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/AlexBill01/zksync-era/recovery"
)

// Tree is a goroutine-safe, in-memory recovery.TreeHandle.
type Tree struct {
	mu       sync.RWMutex
	entries  map[recovery.HashedKey]recovery.TreeEntry
	final    bool
	recoveredVersion recovery.BatchID
	recoverySet      bool
}

// New returns an empty tree, not in recovery.
func New() *Tree {
	return &Tree{entries: make(map[recovery.HashedKey]recovery.TreeEntry)}
}

// NewRecovering returns a tree that reports itself as recovering from
// version, with entries pre-populated (as if a previous, interrupted
// recovery run had folded them in already).
func NewRecovering(version recovery.BatchID, entries []recovery.TreeEntry) *Tree {
	t := &Tree{
		entries:     make(map[recovery.HashedKey]recovery.TreeEntry, len(entries)),
		recoveredVersion: version,
		recoverySet: true,
	}
	for _, e := range entries {
		t.entries[e.Key] = e
	}
	return t
}

func (t *Tree) Classify(ctx context.Context) (recovery.TreeState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	switch {
	case t.final:
		return recovery.TreeState{Kind: recovery.KindReady}, nil
	case t.recoverySet:
		return recovery.TreeState{Kind: recovery.KindRecovering, RecoveredVersion: t.recoveredVersion}, nil
	default:
		return recovery.TreeState{Kind: recovery.KindEmpty}, nil
	}
}

func (t *Tree) LookupMany(ctx context.Context, keys []recovery.HashedKey) ([]recovery.LookupResult, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]recovery.LookupResult, len(keys))
	for i, k := range keys {
		if e, ok := t.entries[k]; ok {
			out[i] = recovery.LookupResult{Entry: e, Found: true}
		}
	}
	return out, nil
}

// BeginRecovery stamps the tree with the batch it is about to recover from,
// transitioning it from Empty to Recovering. Calling it again with the same
// batch is a no-op; calling it with a different batch while already
// recovering is an error.
func (t *Tree) BeginRecovery(ctx context.Context, batch recovery.BatchID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.final {
		return fmt.Errorf("tree is already finalized, cannot begin recovery from batch %d", batch)
	}
	if t.recoverySet && t.recoveredVersion != batch {
		return fmt.Errorf("tree already recovering from batch %d, cannot switch to batch %d", t.recoveredVersion, batch)
	}
	t.recoveredVersion = batch
	t.recoverySet = true
	return nil
}

func (t *Tree) Extend(ctx context.Context, entries []recovery.TreeEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range entries {
		t.entries[e.Key] = e
	}
	return nil
}

func (t *Tree) RootHash(ctx context.Context) (recovery.RootHash, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rootHashLocked(), nil
}

// rootHashLocked folds every entry, sorted by key, into a single Keccak256
// digest. Callers must hold t.mu.
func (t *Tree) rootHashLocked() recovery.RootHash {
	keys := make([]recovery.HashedKey, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })

	h := crypto.NewKeccakState()
	var idx [8]byte
	for _, k := range keys {
		e := t.entries[k]
		h.Write(k[:])
		h.Write(e.Value[:])
		binary.BigEndian.PutUint64(idx[:], e.LeafIndex)
		h.Write(idx[:])
	}
	var out recovery.RootHash
	h.Read(out[:])
	return out
}

func (t *Tree) Finalize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.final = true
	t.recoverySet = false
	return nil
}

// Entries returns a snapshot of the tree's contents, for test assertions.
func (t *Tree) Entries() []recovery.TreeEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]recovery.TreeEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Compare(out[j].Key) < 0 })
	return out
}
