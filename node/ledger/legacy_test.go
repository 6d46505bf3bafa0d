package ledger

import (
	"testing"

	"chratos.dev/node/core"
	"chratos.dev/node/node/store"
)

// The legacy variants validate pre-upgrade chains: they key off the
// frontier index rather than the account field.

func TestLegacySendOpenReceiveChange(t *testing.T) {
	e := newEnv(t)
	recipientPrv, recipient := keypair(40)
	genesisInfo, _ := e.accountInfo(e.pub)

	send := core.NewSendBlock(genesisInfo.Head, recipient, genesisInfo.Balance.Sub(core.U128FromUint64(250)), genesisInfo.DividendBlock, e.prv, e.pub, 0)
	result := e.expect(send, core.Progress)
	if result.Account != e.pub || !result.Amount.Equal(core.U128FromUint64(250)) {
		t.Fatalf("send result %+v", result)
	}
	if result.PendingAccount != recipient {
		t.Fatalf("send result pending account wrong")
	}

	if err := e.s.View(func(txn *store.Transaction) error {
		if e.s.FrontierGet(txn, send.Hash()) != e.pub {
			t.Fatalf("frontier not moved to the send")
		}
		if !e.s.FrontierGet(txn, e.genesis.Hash()).IsZero() {
			t.Fatalf("stale frontier entry kept")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	open := core.NewOpenBlock(send.Hash(), recipient, recipient, core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(open, core.Progress)
	if got := e.balance(recipient); !got.Equal(core.U128FromUint64(250)) {
		t.Fatalf("recipient balance %s", got.EncodeDec())
	}
	if got := e.weight(recipient); !got.Equal(core.U128FromUint64(250)) {
		t.Fatalf("recipient weight %s", got.EncodeDec())
	}

	// Second send and a legacy receive on top of the open.
	genesisInfo, _ = e.accountInfo(e.pub)
	send2 := core.NewSendBlock(genesisInfo.Head, recipient, genesisInfo.Balance.Sub(core.U128FromUint64(50)), genesisInfo.DividendBlock, e.prv, e.pub, 0)
	e.expect(send2, core.Progress)

	receive := core.NewReceiveBlock(open.Hash(), send2.Hash(), core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(receive, core.Progress)
	if got := e.balance(recipient); !got.Equal(core.U128FromUint64(300)) {
		t.Fatalf("recipient balance after receive %s", got.EncodeDec())
	}

	// Legacy representative change.
	_, rep := keypair(41)
	change := core.NewChangeBlock(receive.Hash(), rep, core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(change, core.Progress)
	if got := e.weight(rep); !got.Equal(core.U128FromUint64(300)) {
		t.Fatalf("legacy change weight %s", got.EncodeDec())
	}
	if !e.weight(recipient).IsZero() {
		t.Fatalf("old representative kept weight")
	}
	e.checkInvariants()

	// Rolling back the second send cascades through the legacy chain.
	e.rollback(send2.Hash())
	if got := e.balance(recipient); !got.Equal(core.U128FromUint64(250)) {
		t.Fatalf("recipient balance after rollback %s", got.EncodeDec())
	}
	if err := e.s.View(func(txn *store.Transaction) error {
		if e.s.BlockExists(txn, send2.Hash()) || e.s.BlockExists(txn, receive.Hash()) || e.s.BlockExists(txn, change.Hash()) {
			t.Fatalf("legacy rollback left blocks behind")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	e.checkInvariants()
}

func TestLegacySendForkAndNegativeSpend(t *testing.T) {
	e := newEnv(t)
	_, recipient := keypair(42)
	genesisInfo, _ := e.accountInfo(e.pub)

	send := core.NewSendBlock(genesisInfo.Head, recipient, genesisInfo.Balance.Sub(core.U128FromUint64(5)), genesisInfo.DividendBlock, e.prv, e.pub, 0)
	e.expect(send, core.Progress)
	e.expect(send, core.Old)

	// A second legacy send from the consumed frontier is a fork.
	fork := core.NewSendBlock(genesisInfo.Head, recipient, genesisInfo.Balance.Sub(core.U128FromUint64(6)), genesisInfo.DividendBlock, e.prv, e.pub, 0)
	e.expect(fork, core.Fork)

	// Spending more than the balance.
	info, _ := e.accountInfo(e.pub)
	negative := core.NewSendBlock(info.Head, recipient, info.Balance.Add(core.U128FromUint64(1)), info.DividendBlock, e.prv, e.pub, 0)
	e.expect(negative, core.NegativeSpend)

	// Unknown previous is retryable.
	gap := core.NewSendBlock(core.BlockHash{0x3b}, recipient, core.U128FromUint64(1), core.BlockHash{}, e.prv, e.pub, 0)
	e.expect(gap, core.GapPrevious)
	e.checkInvariants()
}

func TestLegacyOpenRequiresPending(t *testing.T) {
	e := newEnv(t)
	orphanPrv, orphan := keypair(43)

	// Source exists but nothing is pending for this account.
	open := core.NewOpenBlock(e.genesis.Hash(), orphan, orphan, core.BlockHash{}, orphanPrv, orphan, 0)
	e.expect(open, core.Unreceivable)

	// Unknown source is retryable.
	unknown := core.NewOpenBlock(core.BlockHash{0x4c}, orphan, orphan, core.BlockHash{}, orphanPrv, orphan, 0)
	e.expect(unknown, core.GapSource)
}

func TestLegacyReceiveOfStateSendRejected(t *testing.T) {
	e := newEnv(t)
	recipientPrv, recipient := keypair(44)

	// Fund and open the account with legacy blocks.
	genesisInfo, _ := e.accountInfo(e.pub)
	send := core.NewSendBlock(genesisInfo.Head, recipient, genesisInfo.Balance.Sub(core.U128FromUint64(10)), genesisInfo.DividendBlock, e.prv, e.pub, 0)
	e.expect(send, core.Progress)
	open := core.NewOpenBlock(send.Hash(), recipient, recipient, core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(open, core.Progress)

	// Upgrade the pending to epoch 1 by hand: the legacy receive must
	// refuse it.
	send2 := e.sendState(recipient, core.U128FromUint64(20))
	e.expect(send2, core.Progress)
	key := core.PendingKey{Account: recipient, Hash: send2.Hash()}
	if err := e.s.Update(func(txn *store.Transaction) error {
		pending, err := e.s.PendingGet(txn, key)
		if err != nil {
			return err
		}
		pending.Epoch = core.Epoch1
		return e.s.PendingPut(txn, key, pending)
	}); err != nil {
		t.Fatalf("upgrade pending: %v", err)
	}

	receive := core.NewReceiveBlock(open.Hash(), send2.Hash(), core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(receive, core.Unreceivable)
}

func TestAccountResolution(t *testing.T) {
	e := newEnv(t)
	recipientPrv, recipient := keypair(45)
	genesisInfo, _ := e.accountInfo(e.pub)

	send := core.NewSendBlock(genesisInfo.Head, recipient, genesisInfo.Balance.Sub(core.U128FromUint64(30)), genesisInfo.DividendBlock, e.prv, e.pub, 0)
	e.expect(send, core.Progress)
	open := core.NewOpenBlock(send.Hash(), recipient, recipient, core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(open, core.Progress)

	if err := e.s.View(func(txn *store.Transaction) error {
		// A legacy interior block resolves through successors to the
		// frontier.
		account, err := e.l.Account(txn, e.genesis.Hash())
		if err != nil {
			return err
		}
		if account != e.pub {
			t.Fatalf("genesis open resolved to %s", account.ToAccount())
		}
		account, err = e.l.Account(txn, open.Hash())
		if err != nil {
			return err
		}
		if account != recipient {
			t.Fatalf("open resolved to %s", account.ToAccount())
		}

		// Successor walks.
		next, err := e.l.Successor(txn, e.genesis.Hash())
		if err != nil {
			return err
		}
		if next.Hash() != send.Hash() {
			t.Fatalf("successor of genesis is %s", next.Hash())
		}

		// The committed occupant of a forked root.
		fork := core.NewSendBlock(e.genesis.Hash(), recipient, core.U128FromUint64(1), core.BlockHash{}, e.prv, e.pub, 0)
		occupant, err := e.l.ForkedBlock(txn, fork)
		if err != nil {
			return err
		}
		if occupant.Hash() != send.Hash() {
			t.Fatalf("forked occupant is %s", occupant.Hash())
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}
