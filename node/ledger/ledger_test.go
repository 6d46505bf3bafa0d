package ledger

import (
	"encoding/hex"
	"path/filepath"
	"testing"

	"chratos.dev/node/core"
	"chratos.dev/node/node/store"
)

// env is one test's ledger over a fresh store seeded with the test
// network genesis. The published genesis key signs blocks for the
// genesis (and dividend) account.
type env struct {
	t       *testing.T
	s       *store.Store
	l       *Ledger
	genesis *core.Genesis
	prv     core.RawKey
	pub     core.Account
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "data.ldb"), core.NetworkTest, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	genesis, err := core.NewGenesis(core.NetworkTest)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if err := s.Update(func(txn *store.Transaction) error {
		return s.Initialize(txn, genesis)
	}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	seed, err := hex.DecodeString(core.TestPrivateKeyData)
	if err != nil {
		t.Fatalf("decode genesis key: %v", err)
	}
	var prv core.RawKey
	copy(prv[:], seed)
	return &env{
		t:       t,
		s:       s,
		l:       New(s),
		genesis: genesis,
		prv:     prv,
		pub:     core.PublicKey(prv),
	}
}

func keypair(seed byte) (core.RawKey, core.Account) {
	var prv core.RawKey
	prv[0] = seed
	prv[31] = 0x33
	return prv, core.PublicKey(prv)
}

// process commits the block and returns the result code.
func (e *env) process(block core.Block) core.ProcessReturn {
	e.t.Helper()
	var result core.ProcessReturn
	if err := e.s.Update(func(txn *store.Transaction) error {
		var err error
		result, err = e.l.Process(txn, block)
		return err
	}); err != nil {
		e.t.Fatalf("process: %v", err)
	}
	return result
}

func (e *env) expect(block core.Block, code core.ProcessResult) core.ProcessReturn {
	e.t.Helper()
	result := e.process(block)
	if result.Code != code {
		e.t.Fatalf("process %s: got %s, want %s", block.Type(), result.Code, code)
	}
	return result
}

func (e *env) rollback(hash core.BlockHash) {
	e.t.Helper()
	if err := e.s.Update(func(txn *store.Transaction) error {
		return e.l.Rollback(txn, hash)
	}); err != nil {
		e.t.Fatalf("rollback: %v", err)
	}
}

func (e *env) balance(account core.Account) core.Uint128 {
	e.t.Helper()
	var out core.Uint128
	_ = e.s.View(func(txn *store.Transaction) error {
		out = e.l.AccountBalance(txn, account)
		return nil
	})
	return out
}

func (e *env) weight(account core.Account) core.Uint128 {
	e.t.Helper()
	var out core.Uint128
	_ = e.s.View(func(txn *store.Transaction) error {
		out = e.l.Weight(txn, account)
		return nil
	})
	return out
}

func (e *env) latest(account core.Account) core.BlockHash {
	e.t.Helper()
	var out core.BlockHash
	_ = e.s.View(func(txn *store.Transaction) error {
		out = e.l.Latest(txn, account)
		return nil
	})
	return out
}

func (e *env) accountInfo(account core.Account) (core.AccountInfo, bool) {
	e.t.Helper()
	var info core.AccountInfo
	var ok bool
	_ = e.s.View(func(txn *store.Transaction) error {
		var err error
		info, err = e.s.AccountGet(txn, account)
		ok = err == nil
		return nil
	})
	return info, ok
}

// sendState builds a signed state send from the genesis account.
func (e *env) sendState(destination core.Account, amount core.Uint128) *core.StateBlock {
	e.t.Helper()
	info, ok := e.accountInfo(e.pub)
	if !ok {
		e.t.Fatalf("genesis account missing")
	}
	return core.NewStateBlock(e.pub, info.Head, e.pub, info.Balance.Sub(amount), core.BlockHash(destination), info.DividendBlock, e.prv, e.pub, 0)
}

// checkInvariants verifies the cross-table properties that must hold
// after any successful process or rollback.
func (e *env) checkInvariants() {
	e.t.Helper()
	params := e.l.Params()
	if err := e.s.View(func(txn *store.Transaction) error {
		var balanceSum core.Uint128
		if err := e.s.AccountsForEach(txn, func(entry store.AccountEntry) error {
			balanceSum = balanceSum.Add(entry.Info.Balance)
			// Balance recorded at the head matches the head block.
			walked, err := e.s.BalanceWalk(txn, entry.Info.Head)
			if err != nil {
				return err
			}
			if !walked.Equal(entry.Info.Balance) {
				e.t.Fatalf("account %s: walked balance %s, recorded %s",
					entry.Account.ToAccount(), walked.EncodeDec(), entry.Info.Balance.EncodeDec())
			}
			// Head signature verifies under the owning key (epoch
			// upgrades are signed by the designated signer instead).
			head, err := e.s.BlockGet(txn, entry.Info.Head)
			if err != nil {
				return err
			}
			signer := entry.Account
			if state, ok := head.(*core.StateBlock); ok && state.Hashables.Link == params.EpochLink {
				signer = params.EpochSigner
			}
			if head.Hash() != e.genesis.Hash() && core.ValidateMessage(signer, head.Hash(), head.BlockSignature()) {
				e.t.Fatalf("account %s: head signature invalid", entry.Account.ToAccount())
			}
			// The dividend pointer is on the canonical chain.
			dividendHead := e.s.DividendGet(txn).Head
			if !e.l.DividendsAreOrdered(txn, entry.Info.DividendBlock, dividendHead) {
				e.t.Fatalf("account %s: dividend pointer off-chain", entry.Account.ToAccount())
			}
			return nil
		}); err != nil {
			return err
		}

		// Every representative weight is the sum of the balances
		// delegated to it; in total, weights equal total balances.
		var repSum core.Uint128
		if err := e.s.RepresentationForEach(txn, func(_ core.Account, weight core.Uint128) error {
			repSum = repSum.Add(weight)
			return nil
		}); err != nil {
			return err
		}
		if !repSum.Equal(balanceSum) {
			e.t.Fatalf("representation sum %s != balance sum %s", repSum.EncodeDec(), balanceSum.EncodeDec())
		}

		// Each pending record matches its send's balance delta.
		var pendingSum core.Uint128
		if err := e.s.PendingForEach(txn, func(entry store.PendingEntry) error {
			pendingSum = pendingSum.Add(entry.Info.Amount)
			delta, err := e.s.AmountWalk(txn, entry.Key.Hash)
			if err != nil {
				return err
			}
			if !delta.Equal(entry.Info.Amount) {
				e.t.Fatalf("pending %s: recorded %s, send delta %s",
					entry.Key.Hash, entry.Info.Amount.EncodeDec(), delta.EncodeDec())
			}
			return nil
		}); err != nil {
			return err
		}

		// Balances plus pendings plus the unclaimed dividend pool cover
		// the supply exactly; without dividends the pool is empty.
		circulating := balanceSum.Add(pendingSum)
		if core.GenesisAmount.Lt(circulating) {
			e.t.Fatalf("circulating %s exceeds supply", circulating.EncodeDec())
		}

		// The dividend chain walks back to the base sentinel.
		count := 0
		for current := e.s.DividendGet(txn).Head; current != core.DividendBase; count++ {
			block, err := e.s.BlockGet(txn, current)
			if err != nil {
				return err
			}
			if _, ok := block.(*core.DividendBlock); !ok {
				e.t.Fatalf("non-dividend block %s on the dividend chain", current)
			}
			current = block.Dividend()
		}
		if uint64(count) != e.s.DividendGet(txn).BlockCount {
			e.t.Fatalf("dividend chain length %d, ledger says %d", count, e.s.DividendGet(txn).BlockCount)
		}
		return nil
	}); err != nil {
		e.t.Fatalf("invariants: %v", err)
	}
}

func TestGenesisLedgerState(t *testing.T) {
	e := newEnv(t)
	if got := e.balance(e.pub); !got.Equal(core.GenesisAmount) {
		t.Fatalf("genesis balance %s", got.EncodeDec())
	}
	if got := e.weight(e.pub); !got.Equal(core.GenesisAmount) {
		t.Fatalf("genesis weight %s", got.EncodeDec())
	}
	if got := e.latest(e.pub); got != e.genesis.Hash() {
		t.Fatalf("genesis latest %s", got)
	}
	// Reprocessing the committed genesis block is idempotent.
	e.expect(e.genesis.Open, core.Old)
	e.checkInvariants()
}

func TestStateSendCreatesPending(t *testing.T) {
	e := newEnv(t)
	_, recipient := keypair(1)
	send := e.sendState(recipient, core.U128FromUint64(100))
	result := e.expect(send, core.Progress)
	if result.Account != e.pub || !result.Amount.Equal(core.U128FromUint64(100)) {
		t.Fatalf("result %+v", result)
	}
	if !result.StateIsSend {
		t.Fatalf("send not classified as send")
	}

	if err := e.s.View(func(txn *store.Transaction) error {
		key := core.PendingKey{Account: recipient, Hash: send.Hash()}
		pending, err := e.s.PendingGet(txn, key)
		if err != nil {
			t.Fatalf("pending missing: %v", err)
		}
		if pending.Source != e.pub || !pending.Amount.Equal(core.U128FromUint64(100)) || !pending.Dividend.IsZero() {
			t.Fatalf("pending %+v", pending)
		}
		if got := e.l.AccountPending(txn, recipient); !got.Equal(core.U128FromUint64(100)) {
			t.Fatalf("account pending %s", got.EncodeDec())
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	expected := core.GenesisAmount.Sub(core.U128FromUint64(100))
	if got := e.balance(e.pub); !got.Equal(expected) {
		t.Fatalf("genesis balance after send %s", got.EncodeDec())
	}
	if got := e.weight(e.pub); !got.Equal(expected) {
		t.Fatalf("genesis weight after send %s", got.EncodeDec())
	}

	// Resubmitting is benign.
	e.expect(send, core.Old)
	e.checkInvariants()
}

func TestStateReceiveAndRollback(t *testing.T) {
	e := newEnv(t)
	recipientPrv, recipient := keypair(2)
	send := e.sendState(recipient, core.U128FromUint64(100))
	e.expect(send, core.Progress)

	receive := core.NewStateBlock(recipient, core.BlockHash{}, recipient, core.U128FromUint64(100), send.Hash(), core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(receive, core.Progress)

	if got := e.balance(recipient); !got.Equal(core.U128FromUint64(100)) {
		t.Fatalf("recipient balance %s", got.EncodeDec())
	}
	if got := e.weight(recipient); !got.Equal(core.U128FromUint64(100)) {
		t.Fatalf("recipient weight %s", got.EncodeDec())
	}
	if err := e.s.View(func(txn *store.Transaction) error {
		if e.s.PendingExists(txn, core.PendingKey{Account: recipient, Hash: send.Hash()}) {
			t.Fatalf("pending survived the receive")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	e.checkInvariants()

	// Rolling the open back reinstates the pending and removes the
	// account.
	e.rollback(receive.Hash())
	if _, ok := e.accountInfo(recipient); ok {
		t.Fatalf("recipient account survived rollback")
	}
	if !e.weight(recipient).IsZero() {
		t.Fatalf("recipient weight survived rollback")
	}
	if err := e.s.View(func(txn *store.Transaction) error {
		if !e.s.PendingExists(txn, core.PendingKey{Account: recipient, Hash: send.Hash()}) {
			t.Fatalf("pending not reinstated")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	e.checkInvariants()

	// The same receive commits again after the rollback.
	e.expect(receive, core.Progress)
	e.checkInvariants()
}

func TestStateForkAndGaps(t *testing.T) {
	e := newEnv(t)
	_, recipient := keypair(3)
	_, other := keypair(4)

	send := e.sendState(recipient, core.U128FromUint64(10))
	e.expect(send, core.Progress)

	// A second send from the consumed head is a fork.
	fork := core.NewStateBlock(e.pub, e.genesis.Hash(), e.pub, core.GenesisAmount.Sub(core.U128FromUint64(20)), core.BlockHash(other), core.BlockHash{}, e.prv, e.pub, 0)
	e.expect(fork, core.Fork)

	// Unknown previous for an existing account.
	gap := core.NewStateBlock(e.pub, core.BlockHash{0xee}, e.pub, core.U128FromUint64(1), core.BlockHash(other), core.BlockHash{}, e.prv, e.pub, 0)
	e.expect(gap, core.GapPrevious)

	// Opening an account with a nonzero previous.
	otherPrv, otherPub := keypair(4)
	badOpen := core.NewStateBlock(otherPub, core.BlockHash{0x01}, otherPub, core.U128FromUint64(1), send.Hash(), core.BlockHash{}, otherPrv, otherPub, 0)
	e.expect(badOpen, core.GapPrevious)

	// Opening an account without a source.
	noSource := core.NewStateBlock(otherPub, core.BlockHash{}, otherPub, core.U128FromUint64(0), core.BlockHash{}, core.BlockHash{}, otherPrv, otherPub, 0)
	e.expect(noSource, core.GapSource)

	// A receive naming an unknown source is retryable.
	missing := core.NewStateBlock(otherPub, core.BlockHash{}, otherPub, core.U128FromUint64(5), core.BlockHash{0x9e}, core.BlockHash{}, otherPrv, otherPub, 0)
	e.expect(missing, core.GapSource)
	e.checkInvariants()
}

func TestStateReceiveBalanceMismatch(t *testing.T) {
	e := newEnv(t)
	recipientPrv, recipient := keypair(5)
	send := e.sendState(recipient, core.U128FromUint64(100))
	e.expect(send, core.Progress)

	wrong := core.NewStateBlock(recipient, core.BlockHash{}, recipient, core.U128FromUint64(99), send.Hash(), core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(wrong, core.BalanceMismatch)

	right := core.NewStateBlock(recipient, core.BlockHash{}, recipient, core.U128FromUint64(100), send.Hash(), core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(right, core.Progress)

	// Receiving the same send twice is unreceivable.
	again := core.NewStateBlock(recipient, right.Hash(), recipient, core.U128FromUint64(200), send.Hash(), core.BlockHash{}, recipientPrv, recipient, 0)
	e.expect(again, core.Unreceivable)
	e.checkInvariants()
}

func TestStateRepresentativeChange(t *testing.T) {
	e := newEnv(t)
	_, rep := keypair(6)
	info, _ := e.accountInfo(e.pub)

	change := core.NewStateBlock(e.pub, info.Head, rep, info.Balance, core.BlockHash{}, info.DividendBlock, e.prv, e.pub, 0)
	result := e.expect(change, core.Progress)
	if !result.Amount.IsZero() {
		t.Fatalf("representative change moved %s", result.Amount.EncodeDec())
	}
	if got := e.weight(rep); !got.Equal(info.Balance) {
		t.Fatalf("new representative weight %s", got.EncodeDec())
	}
	if !e.weight(e.pub).IsZero() {
		t.Fatalf("old representative kept weight")
	}

	// A balance change with a zero link cannot happen.
	bad := core.NewStateBlock(e.pub, change.Hash(), rep, info.Balance.Sub(core.U128FromUint64(1)), core.BlockHash{}, info.DividendBlock, e.prv, e.pub, 0)
	e.expect(bad, core.BalanceMismatch)
	e.checkInvariants()
}

func TestBadSignatureRejected(t *testing.T) {
	e := newEnv(t)
	_, recipient := keypair(7)
	send := e.sendState(recipient, core.U128FromUint64(1))
	send.Signature[0] ^= 1
	e.expect(send, core.BadSignature)
	e.checkInvariants()
}

func TestEpochUpgrade(t *testing.T) {
	e := newEnv(t)
	params := e.l.Params()
	info, _ := e.accountInfo(e.pub)

	epoch := core.NewStateBlock(e.pub, info.Head, e.pub, info.Balance, params.EpochLink, info.DividendBlock, e.prv, e.pub, 0)
	result := e.expect(epoch, core.Progress)
	if !result.Amount.IsZero() {
		t.Fatalf("epoch block moved %s", result.Amount.EncodeDec())
	}

	upgraded, ok := e.accountInfo(e.pub)
	if !ok {
		t.Fatalf("account lost")
	}
	if upgraded.Epoch != core.Epoch1 {
		t.Fatalf("epoch %d after upgrade", upgraded.Epoch)
	}
	if upgraded.Head != epoch.Hash() {
		t.Fatalf("head not advanced")
	}
	if upgraded.DividendBlock != info.DividendBlock {
		t.Fatalf("epoch upgrade moved the dividend pointer")
	}
	if !upgraded.Balance.Equal(info.Balance) {
		t.Fatalf("epoch upgrade changed the balance")
	}

	// A second upgrade cannot follow.
	second := core.NewStateBlock(e.pub, epoch.Hash(), e.pub, info.Balance, params.EpochLink, info.DividendBlock, e.prv, e.pub, 0)
	e.expect(second, core.BlockPosition)

	e.checkInvariants()
}

func TestEpochUpgradeFreezesRepresentative(t *testing.T) {
	e := newEnv(t)
	params := e.l.Params()
	_, rep := keypair(8)
	info, _ := e.accountInfo(e.pub)

	moved := core.NewStateBlock(e.pub, info.Head, rep, info.Balance, params.EpochLink, info.DividendBlock, e.prv, e.pub, 0)
	e.expect(moved, core.RepresentativeMismatch)
}
