package ledger

import (
	"fmt"

	"chratos.dev/node/core"
	"chratos.dev/node/node/store"
)

// Rollback undoes blocks from the account's head until the target block
// no longer exists, cascading through dependent accounts inside the same
// write transaction. Only storage errors are returned; they are fatal.
func (l *Ledger) Rollback(txn *store.Transaction, target core.BlockHash) error {
	if !l.Store.BlockExists(txn, target) {
		return fmt.Errorf("ledger: rollback target %s not stored", target)
	}
	account, err := l.Account(txn, target)
	if err != nil {
		return err
	}
	for l.Store.BlockExists(txn, target) {
		info, err := l.Store.AccountGet(txn, account)
		if err != nil {
			return err
		}
		block, err := l.Store.BlockGet(txn, info.Head)
		if err != nil {
			return err
		}
		if err := l.rollbackBlock(txn, block); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) rollbackBlock(txn *store.Transaction, block core.Block) error {
	switch b := block.(type) {
	case *core.SendBlock:
		return l.rollbackSend(txn, b)
	case *core.ReceiveBlock:
		return l.rollbackReceive(txn, b)
	case *core.OpenBlock:
		return l.rollbackOpen(txn, b)
	case *core.ChangeBlock:
		return l.rollbackChange(txn, b)
	case *core.StateBlock:
		return l.rollbackState(txn, b)
	case *core.DividendBlock:
		return l.rollbackDividend(txn, b)
	case *core.ClaimBlock:
		return l.rollbackClaim(txn, b)
	}
	return fmt.Errorf("ledger: rollback of unknown block type %d", block.Type())
}

// rollbackSend first unwinds the destination chain until the pending
// record reappears, then restores the sender.
func (l *Ledger) rollbackSend(txn *store.Transaction, block *core.SendBlock) error {
	hash := block.Hash()
	key := core.PendingKey{Account: block.Hashables.Destination, Hash: hash}
	for !l.Store.PendingExists(txn, key) {
		if err := l.Rollback(txn, l.Latest(txn, block.Hashables.Destination)); err != nil {
			return err
		}
	}
	pending, err := l.Store.PendingGet(txn, key)
	if err != nil {
		return err
	}
	info, err := l.Store.AccountGet(txn, pending.Source)
	if err != nil {
		return err
	}
	if err := l.Store.PendingDel(txn, key); err != nil {
		return err
	}
	repBlock, err := l.Representative(txn, hash)
	if err != nil {
		return err
	}
	if err := l.Store.RepresentationAdd(txn, repBlock, pending.Amount); err != nil {
		return err
	}
	balance, err := l.Balance(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	if err := l.ChangeLatest(txn, pending.Source, block.Hashables.Previous, info.RepBlock, block.Hashables.Dividend, balance, info.BlockCount-1, false, info.Epoch); err != nil {
		return err
	}
	if err := l.Store.BlockDel(txn, hash); err != nil {
		return err
	}
	if err := l.Store.FrontierDel(txn, hash); err != nil {
		return err
	}
	if err := l.Store.FrontierPut(txn, block.Hashables.Previous, pending.Source); err != nil {
		return err
	}
	if err := l.Store.BlockSuccessorClear(txn, block.Hashables.Previous); err != nil {
		return err
	}
	if info.BlockCount%store.BlockInfoMax == 0 {
		if err := l.Store.BlockInfoDel(txn, hash); err != nil {
			return err
		}
	}
	l.Stats.RollbackSend++
	return nil
}

func (l *Ledger) rollbackReceive(txn *store.Transaction, block *core.ReceiveBlock) error {
	hash := block.Hash()
	representative, err := l.Representative(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	amount, err := l.Amount(txn, block.Hashables.Source)
	if err != nil {
		return err
	}
	destination, err := l.Account(txn, hash)
	if err != nil {
		return err
	}
	source, err := l.Account(txn, block.Hashables.Source)
	if err != nil {
		return err
	}
	info, err := l.Store.AccountGet(txn, destination)
	if err != nil {
		return err
	}
	repBlock, err := l.Representative(txn, hash)
	if err != nil {
		return err
	}
	if err := l.Store.RepresentationSub(txn, repBlock, amount); err != nil {
		return err
	}
	balance, err := l.Balance(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	if err := l.ChangeLatest(txn, destination, block.Hashables.Previous, representative, block.Hashables.Dividend, balance, info.BlockCount-1, false, info.Epoch); err != nil {
		return err
	}
	if err := l.Store.BlockDel(txn, hash); err != nil {
		return err
	}
	key := core.PendingKey{Account: destination, Hash: block.Hashables.Source}
	pending := core.PendingInfo{Source: source, Amount: amount, Dividend: block.Hashables.Dividend, Epoch: core.Epoch0}
	if err := l.Store.PendingPut(txn, key, pending); err != nil {
		return err
	}
	if err := l.Store.FrontierDel(txn, hash); err != nil {
		return err
	}
	if err := l.Store.FrontierPut(txn, block.Hashables.Previous, destination); err != nil {
		return err
	}
	if err := l.Store.BlockSuccessorClear(txn, block.Hashables.Previous); err != nil {
		return err
	}
	if info.BlockCount%store.BlockInfoMax == 0 {
		if err := l.Store.BlockInfoDel(txn, hash); err != nil {
			return err
		}
	}
	l.Stats.RollbackReceive++
	return nil
}

func (l *Ledger) rollbackOpen(txn *store.Transaction, block *core.OpenBlock) error {
	hash := block.Hash()
	amount, err := l.Amount(txn, block.Hashables.Source)
	if err != nil {
		return err
	}
	destination := block.Hashables.Account
	source, err := l.Account(txn, block.Hashables.Source)
	if err != nil {
		return err
	}
	if err := l.Store.RepresentationSub(txn, hash, amount); err != nil {
		return err
	}
	if err := l.ChangeLatest(txn, destination, core.BlockHash{}, core.BlockHash{}, block.Hashables.Dividend, core.Uint128{}, 0, false, core.Epoch0); err != nil {
		return err
	}
	if err := l.Store.BlockDel(txn, hash); err != nil {
		return err
	}
	key := core.PendingKey{Account: destination, Hash: block.Hashables.Source}
	pending := core.PendingInfo{Source: source, Amount: amount, Dividend: block.Hashables.Dividend, Epoch: core.Epoch0}
	if err := l.Store.PendingPut(txn, key, pending); err != nil {
		return err
	}
	if err := l.Store.FrontierDel(txn, hash); err != nil {
		return err
	}
	l.Stats.RollbackOpen++
	return nil
}

func (l *Ledger) rollbackChange(txn *store.Transaction, block *core.ChangeBlock) error {
	hash := block.Hash()
	representative, err := l.Representative(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	account, err := l.Account(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	info, err := l.Store.AccountGet(txn, account)
	if err != nil {
		return err
	}
	balance, err := l.Balance(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	if err := l.Store.RepresentationAdd(txn, representative, balance); err != nil {
		return err
	}
	if err := l.Store.RepresentationSub(txn, hash, balance); err != nil {
		return err
	}
	if err := l.Store.BlockDel(txn, hash); err != nil {
		return err
	}
	if err := l.ChangeLatest(txn, account, block.Hashables.Previous, representative, block.Hashables.Dividend, info.Balance, info.BlockCount-1, false, info.Epoch); err != nil {
		return err
	}
	if err := l.Store.FrontierDel(txn, hash); err != nil {
		return err
	}
	if err := l.Store.FrontierPut(txn, block.Hashables.Previous, account); err != nil {
		return err
	}
	if err := l.Store.BlockSuccessorClear(txn, block.Hashables.Previous); err != nil {
		return err
	}
	if info.BlockCount%store.BlockInfoMax == 0 {
		if err := l.Store.BlockInfoDel(txn, hash); err != nil {
			return err
		}
	}
	l.Stats.RollbackChange++
	return nil
}

// rollbackState classifies by balance delta the way commit did and applies
// the inverse: a send recreates its pending after cascading through the
// destination, a receive reinstates the source's pending.
func (l *Ledger) rollbackState(txn *store.Transaction, block *core.StateBlock) error {
	hash := block.Hash()
	var representative core.BlockHash
	if !block.Hashables.Previous.IsZero() {
		var err error
		representative, err = l.Representative(txn, block.Hashables.Previous)
		if err != nil {
			return err
		}
	}
	balance, err := l.Balance(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	isSend := block.Hashables.Balance.Lt(balance)
	if err := l.Store.RepresentationSub(txn, hash, block.Hashables.Balance); err != nil {
		return err
	}
	if !representative.IsZero() {
		// Move representation back onto the prior rep block.
		if err := l.Store.RepresentationAdd(txn, representative, balance); err != nil {
			return err
		}
	}
	info, err := l.Store.AccountGet(txn, block.Hashables.Account)
	if err != nil {
		return err
	}

	if isSend {
		key := core.PendingKey{Account: core.Account(block.Hashables.Link), Hash: hash}
		for !l.Store.PendingExists(txn, key) {
			if err := l.Rollback(txn, l.Latest(txn, core.Account(block.Hashables.Link))); err != nil {
				return err
			}
		}
		if err := l.Store.PendingDel(txn, key); err != nil {
			return err
		}
		l.Stats.RollbackSend++
	} else if !block.Hashables.Link.IsZero() && block.Hashables.Link != l.params.EpochLink {
		sourceVersion := l.Store.BlockVersion(txn, block.Hashables.Link)
		sourceAccount, err := l.Account(txn, block.Hashables.Link)
		if err != nil {
			return err
		}
		key := core.PendingKey{Account: block.Hashables.Account, Hash: block.Hashables.Link}
		pending := core.PendingInfo{
			Source:   sourceAccount,
			Amount:   block.Hashables.Balance.Sub(balance),
			Dividend: block.Hashables.Dividend,
			Epoch:    sourceVersion,
		}
		if err := l.Store.PendingPut(txn, key, pending); err != nil {
			return err
		}
		l.Stats.RollbackReceive++
	}

	previousVersion := l.Store.BlockVersion(txn, block.Hashables.Previous)
	if err := l.ChangeLatest(txn, block.Hashables.Account, block.Hashables.Previous, representative, block.Hashables.Dividend, balance, info.BlockCount-1, false, previousVersion); err != nil {
		return err
	}

	if previous, err := l.Store.BlockGet(txn, block.Hashables.Previous); err == nil {
		if err := l.Store.BlockSuccessorClear(txn, block.Hashables.Previous); err != nil {
			return err
		}
		switch previous.Type() {
		case core.BlockTypeSend, core.BlockTypeReceive, core.BlockTypeOpen, core.BlockTypeChange:
			if err := l.Store.FrontierPut(txn, block.Hashables.Previous, block.Hashables.Account); err != nil {
				return err
			}
		}
	} else {
		l.Stats.RollbackOpen++
	}
	if err := l.Store.BlockDel(txn, hash); err != nil {
		return err
	}
	l.Stats.RollbackState++
	return nil
}

// rollbackDividend restores the issuer's head and reverses the
// dividend-ledger singleton to the prior chain head.
func (l *Ledger) rollbackDividend(txn *store.Transaction, block *core.DividendBlock) error {
	hash := block.Hash()
	balance, err := l.Balance(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	amount := balance.Sub(block.Hashables.Balance)
	info, err := l.Store.AccountGet(txn, block.Hashables.Account)
	if err != nil {
		return err
	}
	if err := l.Store.RepresentationSub(txn, hash, block.Hashables.Balance); err != nil {
		return err
	}
	if !info.RepBlock.IsZero() {
		if err := l.Store.RepresentationAdd(txn, info.RepBlock, balance); err != nil {
			return err
		}
	}
	if err := l.ChangeLatest(txn, block.Hashables.Account, block.Hashables.Previous, info.RepBlock, block.Hashables.Dividend, balance, info.BlockCount-1, true, info.Epoch); err != nil {
		return err
	}
	if err := l.Store.BlockSuccessorClear(txn, block.Hashables.Previous); err != nil {
		return err
	}
	if err := l.Store.BlockDel(txn, hash); err != nil {
		return err
	}

	dividendInfo := l.Store.DividendGet(txn)
	if err := l.Store.DividendPut(txn, core.DividendInfo{
		Head:       block.Hashables.Dividend,
		Balance:    dividendInfo.Balance.Sub(amount),
		Modified:   dividendInfo.Modified,
		BlockCount: dividendInfo.BlockCount - 1,
		Epoch:      dividendInfo.Epoch,
	}); err != nil {
		return err
	}
	l.Stats.RollbackDividend++
	return nil
}

// rollbackClaim restores the claimant's balance and steps its dividend
// pointer back to the claimed dividend's predecessor.
func (l *Ledger) rollbackClaim(txn *store.Transaction, block *core.ClaimBlock) error {
	hash := block.Hash()
	balance, err := l.Balance(txn, block.Hashables.Previous)
	if err != nil {
		return err
	}
	info, err := l.Store.AccountGet(txn, block.Hashables.Account)
	if err != nil {
		return err
	}
	claimed, err := l.Store.BlockGet(txn, block.Hashables.Dividend)
	if err != nil {
		return err
	}
	if err := l.Store.RepresentationSub(txn, hash, block.Hashables.Balance); err != nil {
		return err
	}
	if !info.RepBlock.IsZero() {
		if err := l.Store.RepresentationAdd(txn, info.RepBlock, balance); err != nil {
			return err
		}
	}
	// The commit advanced the pointer one dividend along the chain; step
	// it back to the claimed dividend's predecessor.
	info.DividendBlock = claimed.Dividend()
	if err := l.Store.AccountPut(txn, block.Hashables.Account, info); err != nil {
		return err
	}
	if err := l.ChangeLatest(txn, block.Hashables.Account, block.Hashables.Previous, info.RepBlock, claimed.Dividend(), balance, info.BlockCount-1, true, info.Epoch); err != nil {
		return err
	}
	if err := l.Store.BlockSuccessorClear(txn, block.Hashables.Previous); err != nil {
		return err
	}
	if err := l.Store.BlockDel(txn, hash); err != nil {
		return err
	}
	l.Stats.RollbackClaim++
	return nil
}
