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

package health

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdaterSnapshotReflectsProgress(t *testing.T) {
	u := New("test_recovery_snapshot")

	u.RecoveryStarted(10, 3)
	snap := u.Snapshot()
	assert.Equal(t, "recovery", snap.Mode)
	assert.EqualValues(t, 10, snap.ChunkCount)
	assert.EqualValues(t, 3, snap.RecoveredChunkCount)

	u.ChunkRecovered()
	u.ChunkRecovered()
	snap = u.Snapshot()
	assert.EqualValues(t, 5, snap.RecoveredChunkCount)
}

func TestUpdaterConcurrentChunkRecovered(t *testing.T) {
	u := New("test_recovery_concurrent")
	u.RecoveryStarted(100, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.ChunkStarted()
			u.ChunkRecovered()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 100, u.Snapshot().RecoveredChunkCount)
}
