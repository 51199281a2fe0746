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

// Package sqlsource implements recovery.SourceStore and recovery.ConnectionPool
// against a PostgreSQL schema modeled on l1_batches/miniblocks/storage_logs
// tables, read-only and parameterized by a fixed snapshot miniblock.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/AlexBill01/zksync-era/recovery"
)

// Schema this package assumes:
//
//	l1_batches(number BIGINT PRIMARY KEY, root_hash BYTEA, has_snapshot BOOLEAN NOT NULL DEFAULT false)
//	miniblocks(number BIGINT PRIMARY KEY, l1_batch_number BIGINT NOT NULL)
//	storage_logs(miniblock_number BIGINT NOT NULL, hashed_key BYTEA NOT NULL, value BYTEA NOT NULL, leaf_index BIGINT NOT NULL)

// Store is a recovery.SourceStore and recovery.ConnectionPool backed by a
// *sqlx.DB. Queries never mutate state; the pool's connection limit is
// exposed to the core as MaxSize.
type Store struct {
	db *sqlx.DB
}

// Open connects to a PostgreSQL instance at dsn and caps the pool at
// maxConns, the value the core will read back through MaxSize.
func Open(dsn string, maxConns int) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlsource: connect: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	return &Store{db: db}, nil
}

// New wraps an already-opened sqlx.DB, e.g. one configured by a caller that
// needs additional driver options Open doesn't expose.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the pool's connections.
func (s *Store) Close() error {
	return s.db.Close()
}

// MaxSize implements recovery.ConnectionPool.
func (s *Store) MaxSize() int {
	return s.db.Stats().MaxOpenConnections
}

func (s *Store) MiniblockRange(ctx context.Context, batch recovery.BatchID) (first, last recovery.Miniblock, ok bool, err error) {
	var row struct {
		First sql.NullInt64 `db:"first"`
		Last  sql.NullInt64 `db:"last"`
	}
	const q = `SELECT MIN(number) AS first, MAX(number) AS last FROM miniblocks WHERE l1_batch_number = $1`
	if err := s.db.GetContext(ctx, &row, q, int64(batch)); err != nil {
		return 0, 0, false, fmt.Errorf("miniblock range: %w", err)
	}
	if !row.First.Valid || !row.Last.Valid {
		return 0, 0, false, nil
	}
	return recovery.Miniblock(row.First.Int64), recovery.Miniblock(row.Last.Int64), true, nil
}

func (s *Store) BatchMetadata(ctx context.Context, batch recovery.BatchID) (root recovery.RootHash, ok bool, err error) {
	var hash []byte
	const q = `SELECT root_hash FROM l1_batches WHERE number = $1`
	switch err := s.db.GetContext(ctx, &hash, q, int64(batch)); {
	case err == sql.ErrNoRows:
		return recovery.RootHash{}, false, nil
	case err != nil:
		return recovery.RootHash{}, false, fmt.Errorf("batch metadata: %w", err)
	}
	if len(hash) != len(root) {
		return recovery.RootHash{}, false, fmt.Errorf("batch metadata: root_hash has %d bytes, want %d", len(hash), len(root))
	}
	copy(root[:], hash)
	return root, true, nil
}

func (s *Store) EntryCount(ctx context.Context, mb recovery.Miniblock) (uint64, error) {
	var count int64
	const q = `SELECT COUNT(*) FROM storage_logs WHERE miniblock_number = $1`
	if err := s.db.GetContext(ctx, &count, q, int64(mb)); err != nil {
		return 0, fmt.Errorf("entry count: %w", err)
	}
	return uint64(count), nil
}

func (s *Store) ChunkStarts(ctx context.Context, mb recovery.Miniblock, ranges []recovery.ChunkRange) ([]*recovery.ChunkStart, error) {
	out := make([]*recovery.ChunkStart, len(ranges))
	for i, r := range ranges {
		var row struct {
			HashedKey []byte `db:"hashed_key"`
			Value     []byte `db:"value"`
			LeafIndex int64  `db:"leaf_index"`
		}
		const q = `
			SELECT hashed_key, value, leaf_index FROM storage_logs
			WHERE miniblock_number = $1 AND hashed_key >= $2 AND hashed_key <= $3
			ORDER BY hashed_key ASC LIMIT 1`
		switch err := s.db.GetContext(ctx, &row, q, int64(mb), r.Start[:], r.End[:]); {
		case err == sql.ErrNoRows:
			continue
		case err != nil:
			return nil, fmt.Errorf("chunk start for range %s: %w", r, err)
		}
		start, err := scanEntry(row.HashedKey, row.Value, row.LeafIndex)
		if err != nil {
			return nil, fmt.Errorf("chunk start for range %s: %w", r, err)
		}
		out[i] = &recovery.ChunkStart{Key: start.Key, Value: start.Value, LeafIndex: start.LeafIndex}
	}
	return out, nil
}

func (s *Store) EntriesInRange(ctx context.Context, mb recovery.Miniblock, r recovery.ChunkRange) ([]recovery.TreeEntry, error) {
	var rows []struct {
		HashedKey []byte `db:"hashed_key"`
		Value     []byte `db:"value"`
		LeafIndex int64  `db:"leaf_index"`
	}
	const q = `
		SELECT hashed_key, value, leaf_index FROM storage_logs
		WHERE miniblock_number = $1 AND hashed_key >= $2 AND hashed_key <= $3
		ORDER BY hashed_key ASC`
	if err := s.db.SelectContext(ctx, &rows, q, int64(mb), r.Start[:], r.End[:]); err != nil {
		return nil, fmt.Errorf("entries in range %s: %w", r, err)
	}
	entries := make([]recovery.TreeEntry, len(rows))
	for i, row := range rows {
		e, err := scanEntry(row.HashedKey, row.Value, row.LeafIndex)
		if err != nil {
			return nil, fmt.Errorf("entries in range %s: %w", r, err)
		}
		entries[i] = e
	}
	return entries, nil
}

func (s *Store) SnapshotL1Batch(ctx context.Context) (batch recovery.BatchID, ok bool, err error) {
	var number sql.NullInt64
	const q = `SELECT MAX(number) FROM l1_batches WHERE has_snapshot = true`
	if err := s.db.GetContext(ctx, &number, q); err != nil {
		return 0, false, fmt.Errorf("snapshot batch: %w", err)
	}
	if !number.Valid {
		return 0, false, nil
	}
	return recovery.BatchID(number.Int64), true, nil
}

func scanEntry(hashedKey, value []byte, leafIndex int64) (recovery.TreeEntry, error) {
	var e recovery.TreeEntry
	if len(hashedKey) != len(e.Key) {
		return e, fmt.Errorf("hashed_key has %d bytes, want %d", len(hashedKey), len(e.Key))
	}
	if len(value) != len(e.Value) {
		return e, fmt.Errorf("value has %d bytes, want %d", len(value), len(e.Value))
	}
	copy(e.Key[:], hashedKey)
	copy(e.Value[:], value)
	e.LeafIndex = uint64(leafIndex)
	return e, nil
}
