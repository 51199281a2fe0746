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

package memtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexBill01/zksync-era/recovery"
)

func entry(k byte, v byte, idx uint64) recovery.TreeEntry {
	var key recovery.HashedKey
	key[31] = k
	var val recovery.Word
	val[0] = v
	return recovery.TreeEntry{Key: key, Value: val, LeafIndex: idx}
}

func TestNewTreeStartsEmpty(t *testing.T) {
	tree := New()
	state, err := tree.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recovery.KindEmpty, state.Kind)
}

func TestExtendThenLookup(t *testing.T) {
	tree := New()
	require.NoError(t, tree.BeginRecovery(context.Background(), recovery.BatchID(7)))
	e := entry(1, 0xaa, 1)
	require.NoError(t, tree.Extend(context.Background(), []recovery.TreeEntry{e}))

	results, err := tree.LookupMany(context.Background(), []recovery.HashedKey{e.Key})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Found)
	assert.Equal(t, e, results[0].Entry)

	state, err := tree.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recovery.KindRecovering, state.Kind)
	assert.Equal(t, recovery.BatchID(7), state.RecoveredVersion)
}

func TestBeginRecoveryStampsVersion(t *testing.T) {
	tree := New()
	require.NoError(t, tree.BeginRecovery(context.Background(), recovery.BatchID(3)))

	state, err := tree.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recovery.KindRecovering, state.Kind)
	assert.Equal(t, recovery.BatchID(3), state.RecoveredVersion)

	// Same batch again is a no-op.
	require.NoError(t, tree.BeginRecovery(context.Background(), recovery.BatchID(3)))

	// A different batch while already recovering is an error.
	err = tree.BeginRecovery(context.Background(), recovery.BatchID(4))
	assert.Error(t, err)
}

func TestBeginRecoveryRejectsAfterFinalize(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Extend(context.Background(), []recovery.TreeEntry{entry(1, 0x11, 1)}))
	require.NoError(t, tree.Finalize(context.Background()))

	assert.Error(t, tree.BeginRecovery(context.Background(), recovery.BatchID(1)))
}

func TestLookupMissingKey(t *testing.T) {
	tree := New()
	var missing recovery.HashedKey
	missing[0] = 0xff

	results, err := tree.LookupMany(context.Background(), []recovery.HashedKey{missing})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Found)
}

func TestRootHashDeterministicAndOrderIndependent(t *testing.T) {
	a := New()
	b := New()
	e1, e2 := entry(1, 0x11, 1), entry(2, 0x22, 2)

	require.NoError(t, a.Extend(context.Background(), []recovery.TreeEntry{e1, e2}))
	require.NoError(t, b.Extend(context.Background(), []recovery.TreeEntry{e2, e1}))

	rootA, err := a.RootHash(context.Background())
	require.NoError(t, err)
	rootB, err := b.RootHash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rootA, rootB)
}

func TestRootHashChangesWithContent(t *testing.T) {
	tree := New()
	empty, err := tree.RootHash(context.Background())
	require.NoError(t, err)

	require.NoError(t, tree.Extend(context.Background(), []recovery.TreeEntry{entry(1, 0x11, 1)}))
	withEntry, err := tree.RootHash(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, empty, withEntry)
}

func TestFinalizeTransitionsToReady(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Extend(context.Background(), []recovery.TreeEntry{entry(1, 0x11, 1)}))
	require.NoError(t, tree.Finalize(context.Background()))

	state, err := tree.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recovery.KindReady, state.Kind)
}

func TestNewRecoveringReportsVersion(t *testing.T) {
	tree := NewRecovering(recovery.BatchID(9), []recovery.TreeEntry{entry(1, 0x11, 1)})
	state, err := tree.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recovery.KindRecovering, state.Kind)
	assert.Equal(t, recovery.BatchID(9), state.RecoveredVersion)
}
