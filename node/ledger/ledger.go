// Package ledger implements the block-processing state machine, the
// dividend engine, rollback, and the read accessors over the store.
package ledger

import (
	"fmt"
	"time"

	"chratos.dev/node/core"
	"chratos.dev/node/node/store"
)

// Stats counts committed and rolled-back operations by kind.
type Stats struct {
	Send, Receive, Open, Change     uint64
	State, Epoch, Dividend, Claim   uint64
	RollbackSend, RollbackReceive   uint64
	RollbackOpen, RollbackChange    uint64
	RollbackState                   uint64
	RollbackDividend, RollbackClaim uint64
}

// Ledger validates and commits blocks against the store and answers
// balance, weight, and chain queries. All mutations run inside the
// caller's write transaction.
type Ledger struct {
	Store *store.Store
	Stats Stats

	params core.NetworkParams
}

func New(s *store.Store) *Ledger {
	return &Ledger{Store: s, params: s.Params()}
}

// Params returns the network constants the ledger runs under.
func (l *Ledger) Params() core.NetworkParams { return l.params }

// Balance returns the account balance as of the given block.
func (l *Ledger) Balance(txn *store.Transaction, hash core.BlockHash) (core.Uint128, error) {
	if hash.IsZero() {
		return core.Uint128{}, nil
	}
	return l.Store.BalanceWalk(txn, hash)
}

// AccountBalance returns the balance recorded at the account's head, zero
// for unopened accounts.
func (l *Ledger) AccountBalance(txn *store.Transaction, account core.Account) core.Uint128 {
	info, err := l.Store.AccountGet(txn, account)
	if err != nil {
		return core.Uint128{}
	}
	return info.Balance
}

// AccountPending sums every pending receive destined to the account.
func (l *Ledger) AccountPending(txn *store.Transaction, account core.Account) core.Uint128 {
	var sum core.Uint128
	_ = l.Store.PendingForAccount(txn, account, func(e store.PendingEntry) error {
		sum = sum.Add(e.Info.Amount)
		return nil
	})
	return sum
}

// Amount returns the balance delta the block caused.
func (l *Ledger) Amount(txn *store.Transaction, hash core.BlockHash) (core.Uint128, error) {
	return l.Store.AmountWalk(txn, hash)
}

// Weight returns the voting weight delegated to the account.
func (l *Ledger) Weight(txn *store.Transaction, account core.Account) core.Uint128 {
	return l.Store.RepresentationGet(txn, account)
}

// Latest returns the head block of the account, zero when unopened.
func (l *Ledger) Latest(txn *store.Transaction, account core.Account) core.BlockHash {
	info, err := l.Store.AccountGet(txn, account)
	if err != nil {
		return core.BlockHash{}
	}
	return info.Head
}

// LatestRoot returns the head block of the account, or the account itself
// when unopened, the root its next block must use.
func (l *Ledger) LatestRoot(txn *store.Transaction, account core.Account) core.BlockHash {
	info, err := l.Store.AccountGet(txn, account)
	if err != nil {
		return core.BlockHash(account)
	}
	return info.Head
}

// LatestDividend returns the current head of the dividend chain.
func (l *Ledger) LatestDividend(txn *store.Transaction) core.BlockHash {
	return l.Store.DividendGet(txn).Head
}

// Representative returns the hash of the block naming the representative
// as of the given block.
func (l *Ledger) Representative(txn *store.Transaction, hash core.BlockHash) (core.BlockHash, error) {
	result, err := l.Store.RepresentativeWalk(txn, hash)
	if err != nil {
		return core.BlockHash{}, err
	}
	if !result.IsZero() && !l.Store.BlockExists(txn, result) {
		return core.BlockHash{}, fmt.Errorf("ledger: representative block %s missing", result)
	}
	return result, nil
}

// Account returns the account owning the block, walking successors to a
// block that names its account, a cached snapshot, or the frontier.
func (l *Ledger) Account(txn *store.Transaction, hash core.BlockHash) (core.Account, error) {
	current := hash
	for {
		block, err := l.Store.BlockGet(txn, current)
		if err != nil {
			return core.Account{}, fmt.Errorf("ledger: account of %s: %w", hash, err)
		}
		if account := block.Account(); !account.IsZero() {
			return account, nil
		}
		if info, err := l.Store.BlockInfoGet(txn, current); err == nil {
			return info.Account, nil
		}
		successor := l.Store.BlockSuccessor(txn, current)
		if successor.IsZero() {
			account := l.Store.FrontierGet(txn, current)
			if account.IsZero() {
				return core.Account{}, fmt.Errorf("ledger: no owner for block %s", hash)
			}
			return account, nil
		}
		current = successor
	}
}

// BlockExists reports whether the hash is committed, using its own read
// transaction.
func (l *Ledger) BlockExists(hash core.BlockHash) bool {
	var exists bool
	_ = l.Store.View(func(txn *store.Transaction) error {
		exists = l.Store.BlockExists(txn, hash)
		return nil
	})
	return exists
}

// BlockText renders the stored block's textual form.
func (l *Ledger) BlockText(hash core.BlockHash) (string, error) {
	var out string
	err := l.Store.View(func(txn *store.Transaction) error {
		block, err := l.Store.BlockGet(txn, hash)
		if err != nil {
			return err
		}
		data, err := block.ToJSON()
		if err != nil {
			return err
		}
		out = string(data)
		return nil
	})
	return out, err
}

// IsSend classifies a state block by balance delta against its previous.
func (l *Ledger) IsSend(txn *store.Transaction, block *core.StateBlock) bool {
	previous := block.Hashables.Previous
	if previous.IsZero() {
		return false
	}
	balance, err := l.Balance(txn, previous)
	if err != nil {
		return false
	}
	return block.Hashables.Balance.Lt(balance)
}

// BlockDestination returns the receiving account of a send, zero
// otherwise.
func (l *Ledger) BlockDestination(txn *store.Transaction, block core.Block) core.Account {
	switch b := block.(type) {
	case *core.SendBlock:
		return b.Hashables.Destination
	case *core.StateBlock:
		if l.IsSend(txn, b) {
			return core.Account(b.Hashables.Link)
		}
	}
	return core.Account{}
}

// BlockSource returns the send a receive collects, zero otherwise.
func (l *Ledger) BlockSource(txn *store.Transaction, block core.Block) core.BlockHash {
	if state, ok := block.(*core.StateBlock); ok {
		if !l.IsSend(txn, state) {
			return state.Hashables.Link
		}
		return core.BlockHash{}
	}
	return block.Source()
}

// ChecksumUpdate folds the hash into the ledger checksum accumulator.
func (l *Ledger) ChecksumUpdate(txn *store.Transaction, hash core.BlockHash) error {
	sum, err := l.Store.ChecksumGet(txn, 0, 0)
	if err != nil {
		return err
	}
	sum.Xor(hash)
	return l.Store.ChecksumPut(txn, 0, 0, sum)
}

// ChangeLatest rewrites the account record for a new head. The dividend
// pointer is set only when the record is created; afterwards it moves
// exclusively through claim commits. A zero hash deletes the account.
func (l *Ledger) ChangeLatest(txn *store.Transaction, account core.Account, hash, repBlock, dividend core.BlockHash, balance core.Uint128, blockCount uint64, isState bool, epoch core.Epoch) error {
	info, err := l.Store.AccountGet(txn, account)
	exists := err == nil
	if exists {
		if err := l.ChecksumUpdate(txn, info.Head); err != nil {
			return err
		}
	} else {
		info.OpenBlock = hash
		info.DividendBlock = dividend
	}
	if hash.IsZero() {
		return l.Store.AccountDel(txn, account)
	}
	info.Head = hash
	info.RepBlock = repBlock
	info.Balance = balance
	info.Modified = uint64(time.Now().Unix())
	info.BlockCount = blockCount
	if exists && info.Epoch != epoch {
		// Remove the record from the old table generation so the account
		// is not duplicated across epochs.
		if err := l.Store.AccountDel(txn, account); err != nil {
			return err
		}
	}
	info.Epoch = epoch
	if err := l.Store.AccountPut(txn, account, info); err != nil {
		return err
	}
	if blockCount%store.BlockInfoMax == 0 && !isState {
		if err := l.Store.BlockInfoPut(txn, hash, core.BlockInfo{Account: account, Balance: balance}); err != nil {
			return err
		}
	}
	return l.ChecksumUpdate(txn, hash)
}

// Successor returns the block following the root: the open block when the
// root is an account, the recorded successor otherwise.
func (l *Ledger) Successor(txn *store.Transaction, root core.BlockHash) (core.Block, error) {
	var successor core.BlockHash
	if info, err := l.Store.AccountGet(txn, core.Account(root)); err == nil {
		successor = info.OpenBlock
	} else {
		successor = l.Store.BlockSuccessor(txn, root)
	}
	if successor.IsZero() {
		return nil, store.ErrNotFound
	}
	return l.Store.BlockGet(txn, successor)
}

// ForkedBlock returns the committed block occupying the root of an
// uncommitted fork candidate.
func (l *Ledger) ForkedBlock(txn *store.Transaction, block core.Block) (core.Block, error) {
	root := block.Root()
	if successor := l.Store.BlockSuccessor(txn, root); !successor.IsZero() {
		return l.Store.BlockGet(txn, successor)
	}
	info, err := l.Store.AccountGet(txn, core.Account(root))
	if err != nil {
		return nil, err
	}
	return l.Store.BlockGet(txn, info.OpenBlock)
}

// CouldFit reports whether every dependency of the block is already
// committed, so processing it cannot return a gap.
func (l *Ledger) CouldFit(txn *store.Transaction, block core.Block) bool {
	switch b := block.(type) {
	case *core.SendBlock, *core.ChangeBlock, *core.DividendBlock:
		return l.Store.BlockExists(txn, block.Previous())
	case *core.ReceiveBlock:
		return l.Store.BlockExists(txn, b.Hashables.Previous) && l.Store.BlockExists(txn, b.Hashables.Source)
	case *core.OpenBlock:
		return l.Store.BlockExists(txn, b.Hashables.Source)
	case *core.ClaimBlock:
		return l.Store.BlockExists(txn, b.Hashables.Previous) && l.Store.BlockExists(txn, b.Hashables.Dividend)
	case *core.StateBlock:
		fits := b.Hashables.Previous.IsZero() || l.Store.BlockExists(txn, b.Hashables.Previous)
		if fits && !l.IsSend(txn, b) && !b.Hashables.Link.IsZero() && b.Hashables.Link != l.params.EpochLink {
			fits = l.Store.BlockExists(txn, b.Hashables.Link)
		}
		return fits
	}
	return false
}
