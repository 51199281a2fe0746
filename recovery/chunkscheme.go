// Copyright 2021 The go-ethereum Authors
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
	"errors"

	"github.com/holiman/uint256"
)

// ErrZeroChunks is returned when NewChunkRanges is asked to partition the
// key space into zero chunks.
var ErrZeroChunks = errors.New("recovery: chunk count must be at least 1")

// NewChunkRanges maps a chunk count to a deterministic, gap-free,
// order-preserving partition of the 256-bit hashed-key space into n
// inclusive ranges. It is a pure function: two invocations with the same n
// produce identical ranges, which is what makes recovery resumable across
// restarts (Property A, Property B).
//
// With s = floor((2^256-1) / n), chunk i spans [i*(s+1), i*(s+1) + s], so
// the step between chunk starts is s+1 = ceil(2^256 / n); the final chunk
// is saturated to 2^256-1. This mirrors the strided walk in eth/protocols/snap/rangeutils.go,
// collapsed from a stateful iterator into a one-shot partition.
func NewChunkRanges(n uint64) ([]ChunkRange, error) {
	if n == 0 {
		return nil, ErrZeroChunks
	}

	max := new(uint256.Int).SetAllOne() // 2^256 - 1
	strideMinusOne := new(uint256.Int).Div(max, uint256.NewInt(n))

	ranges := make([]ChunkRange, n)
	cur := new(uint256.Int)
	for i := uint64(0); i < n; i++ {
		start := new(uint256.Int).Set(cur)

		end, overflow := new(uint256.Int).AddOverflow(start, strideMinusOne)
		if overflow || end.Cmp(max) > 0 {
			end = max
		}

		ranges[i] = ChunkRange{
			Start: hashedKeyFromUint256(start),
			End:   hashedKeyFromUint256(end),
		}

		if i+1 < n {
			cur = new(uint256.Int).AddUint64(end, 1)
		}
	}
	// The last chunk always ends exactly at 2^256-1, even if stride rounding
	// left it short.
	ranges[n-1].End = MaxHashedKey
	return ranges, nil
}

func hashedKeyFromUint256(v *uint256.Int) HashedKey {
	var k HashedKey
	b := v.Bytes32()
	copy(k[:], b[:])
	return k
}
