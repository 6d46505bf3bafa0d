package node

import (
	"encoding/hex"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"chratos.dev/node/core"
	"chratos.dev/node/node/store"
)

type resultCollector struct {
	mu      sync.Mutex
	results map[core.BlockHash][]core.ProcessResult
	signal  chan struct{}
}

func newResultCollector() *resultCollector {
	return &resultCollector{
		results: make(map[core.BlockHash][]core.ProcessResult),
		signal:  make(chan struct{}, 64),
	}
}

func (c *resultCollector) record(block core.Block, result core.ProcessReturn) {
	c.mu.Lock()
	c.results[block.Hash()] = append(c.results[block.Hash()], result.Code)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *resultCollector) waitFor(t *testing.T, hash core.BlockHash, code core.ProcessResult) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		c.mu.Lock()
		for _, got := range c.results[hash] {
			if got == code {
				c.mu.Unlock()
				return
			}
		}
		c.mu.Unlock()
		select {
		case <-c.signal:
		case <-deadline:
			t.Fatalf("timed out waiting for %s on %s", code, hash)
		}
	}
}

func testNode(t *testing.T, collector *resultCollector) *Node {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	n, err := NewNode(cfg, log.New(io.Discard), collector.record)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func genesisKey(t *testing.T) (core.RawKey, core.Account) {
	t.Helper()
	seed, err := hex.DecodeString(core.TestPrivateKeyData)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var prv core.RawKey
	copy(prv[:], seed)
	return prv, core.PublicKey(prv)
}

func TestQueueCommitsOutOfOrderBlocks(t *testing.T) {
	collector := newResultCollector()
	n := testNode(t, collector)
	prv, pub := genesisKey(t)

	var genesisHead core.BlockHash
	var genesisBalance core.Uint128
	if err := n.Store.View(func(txn *store.Transaction) error {
		genesisHead = n.Ledger.Latest(txn, pub)
		genesisBalance = n.Ledger.AccountBalance(txn, pub)
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	recipientPrv, recipient := gapKeypair(50)
	send := core.NewStateBlock(pub, genesisHead, pub, genesisBalance.Sub(core.U128FromUint64(40)), core.BlockHash(recipient), core.BlockHash{}, prv, pub, 0)
	receive := core.NewStateBlock(recipient, core.BlockHash{}, recipient, core.U128FromUint64(40), send.Hash(), core.BlockHash{}, recipientPrv, recipient, 0)

	// The receive arrives before its send: it parks in the gap cache,
	// then replays when the send commits.
	n.Queue.Enqueue(receive)
	collector.waitFor(t, receive.Hash(), core.GapSource)
	n.Queue.Enqueue(send)
	collector.waitFor(t, send.Hash(), core.Progress)
	collector.waitFor(t, receive.Hash(), core.Progress)

	if err := n.Store.View(func(txn *store.Transaction) error {
		if got := n.Ledger.AccountBalance(txn, recipient); !got.Equal(core.U128FromUint64(40)) {
			t.Fatalf("recipient balance %s", got.EncodeDec())
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestQueueReportsTerminalRejects(t *testing.T) {
	collector := newResultCollector()
	n := testNode(t, collector)
	prv, pub := genesisKey(t)

	var genesisHead core.BlockHash
	var genesisBalance core.Uint128
	if err := n.Store.View(func(txn *store.Transaction) error {
		genesisHead = n.Ledger.Latest(txn, pub)
		genesisBalance = n.Ledger.AccountBalance(txn, pub)
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	_, recipient := gapKeypair(51)
	bad := core.NewStateBlock(pub, genesisHead, pub, genesisBalance.Sub(core.U128FromUint64(1)), core.BlockHash(recipient), core.BlockHash{}, prv, pub, 0)
	bad.Signature[3] ^= 0x10
	n.Queue.Enqueue(bad)
	collector.waitFor(t, bad.Hash(), core.BadSignature)
}
