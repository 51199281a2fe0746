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

// EventSink observes recovery progress. recovery_started is called once,
// before any worker starts, and may mutate sink state without
// synchronization; chunk_started/chunk_recovered may be called
// concurrently from many workers and must be safe for that. The core never
// calls any hook while holding the tree gate, so sinks may perform I/O
// without deadlock risk.
type EventSink interface {
	// RecoveryStarted is called once with the total chunk count and how
	// many were already recovered (found done by the chunk filter).
	RecoveryStarted(totalChunks, alreadyRecoveredChunks int)

	// ChunkStarted is called before a worker begins I/O for its chunk.
	ChunkStarted()

	// ChunkRecovered is called after a worker's extend completes.
	ChunkRecovered()
}

// NoopEventSink implements EventSink with no side effects. It is the
// default used by tests and callers that don't need progress observation.
type NoopEventSink struct{}

func (NoopEventSink) RecoveryStarted(int, int) {}
func (NoopEventSink) ChunkStarted()             {}
func (NoopEventSink) ChunkRecovered()           {}
