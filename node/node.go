// Package node wires the store, ledger, and block queue into a running
// ledger core and buffers blocks whose dependencies have not arrived.
package node

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"chratos.dev/node/core"
	"chratos.dev/node/node/ledger"
	"chratos.dev/node/node/store"
)

// Node owns the ledger core: the persistent store, the validation state
// machine, and the single-writer block queue.
type Node struct {
	Config Config
	Store  *store.Store
	Ledger *ledger.Ledger
	Queue  *BlockQueue
	Gaps   *GapCache
	Log    *log.Logger
}

// NewNode opens the store under the data directory, seeds genesis on
// first run, and starts the block queue.
func NewNode(cfg Config, logger *log.Logger, processed ProcessedFn) (*Node, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	network, err := NetworkFromName(cfg.Network)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("node: data dir: %w", err)
	}

	s, err := store.Open(filepath.Join(cfg.DataDir, "data.ldb"), network, logger)
	if err != nil {
		return nil, err
	}
	l := ledger.New(s)

	if err := s.Update(func(txn *store.Transaction) error {
		if !s.AccountCountsEmpty(txn) {
			return nil
		}
		genesis, err := core.NewGenesis(network)
		if err != nil {
			return err
		}
		logger.Info("initializing ledger", "network", cfg.Network, "genesis", genesis.Hash())
		if err := s.Initialize(txn, genesis); err != nil {
			return err
		}
		_, err = s.GetNodeID(txn)
		return err
	}); err != nil {
		_ = s.Close()
		return nil, err
	}

	gaps, err := NewGapCache(cfg.GapCacheSize)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	n := &Node{
		Config: cfg,
		Store:  s,
		Ledger: l,
		Gaps:   gaps,
		Log:    logger,
	}
	n.Queue = NewBlockQueue(l, gaps, logger, processed)
	return n, nil
}

// Close drains the queue and closes the store.
func (n *Node) Close() error {
	if n.Queue != nil {
		n.Queue.Close()
	}
	return n.Store.Close()
}
