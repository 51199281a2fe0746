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

// recoverctl drives a single tree to Ready against a PostgreSQL source
// store, for manual operation and local testing. It is an outer harness
// around the recovery package, not part of the core.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/ethereum/go-ethereum/log"

	"github.com/AlexBill01/zksync-era/health"
	"github.com/AlexBill01/zksync-era/memtree"
	"github.com/AlexBill01/zksync-era/recovery"
	"github.com/AlexBill01/zksync-era/sqlsource"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:", os.Args[0], "-dsn <postgres DSN>")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Recovers an in-memory reference tree from a PostgreSQL-backed snapshot,
reporting progress on the recovery/* metrics gauges until done or
interrupted. The tree lives in memory only, so every run starts from an
empty tree; an interrupted run is not resumed.`)
	}
}

func main() {
	dsn := flag.String("dsn", "", "PostgreSQL connection string")
	maxConns := flag.Int("max-conns", 10, "maximum source store connections")
	concurrency := flag.Int("concurrency", recovery.DefaultConcurrencyLimit, "maximum in-flight chunk workers")
	flag.Parse()

	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "Error: -dsn is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dsn, *maxConns, *concurrency); err != nil {
		log.Crit("recoverctl failed", "err", err)
	}
}

func run(dsn string, maxConns, concurrency int) error {
	store, err := sqlsource.Open(dsn, maxConns)
	if err != nil {
		return fmt.Errorf("opening source store: %w", err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	tree := memtree.New()
	updater := health.New("recovery")
	coordinator := &recovery.Coordinator{Source: store, ConcurrencyLimit: concurrency}

	ready, err := coordinator.EnsureReady(ctx, tree, store, updater)
	if err != nil {
		return fmt.Errorf("recovery: %w", err)
	}
	if ready == nil {
		log.Warn("recovery interrupted; in-memory tree discarded")
		return nil
	}

	root, err := ready.Tree.RootHash(ctx)
	if err != nil {
		return fmt.Errorf("reading root hash: %w", err)
	}
	log.Info("recovery finished", "root", root)
	return nil
}
