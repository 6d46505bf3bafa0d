package ledger

import (
	"time"

	"chratos.dev/node/core"
	"chratos.dev/node/node/store"
)

// Process validates the block and, on progress, commits every effect in
// the caller's write transaction: block write, successor patch, account
// record, pending add or delete, representation weights, dividend ledger,
// and frontier maintenance. Any non-progress code leaves the store
// untouched. A non-nil error is a storage failure; the caller must abort
// the transaction.
func (l *Ledger) Process(txn *store.Transaction, block core.Block) (core.ProcessReturn, error) {
	p := processor{ledger: l, txn: txn}
	switch b := block.(type) {
	case *core.SendBlock:
		p.sendBlock(b)
	case *core.ReceiveBlock:
		p.receiveBlock(b)
	case *core.OpenBlock:
		p.openBlock(b)
	case *core.ChangeBlock:
		p.changeBlock(b)
	case *core.StateBlock:
		p.stateBlock(b)
	case *core.DividendBlock:
		p.dividendBlock(b)
	case *core.ClaimBlock:
		p.claimBlock(b)
	default:
		p.result.Code = core.BlockPosition
	}
	return p.result, p.err
}

// processor carries one Process call's state.
type processor struct {
	ledger *Ledger
	txn    *store.Transaction
	result core.ProcessReturn
	err    error
}

// storeErr aborts the path on a storage error.
func (p *processor) storeErr(err error) {
	p.err = err
}

func (p *processor) stateBlock(block *core.StateBlock) {
	// Epoch blocks share the state layout: unchanged balance and the
	// designated epoch link.
	var prevBalance core.Uint128
	if !block.Hashables.Previous.IsZero() {
		if !p.ledger.Store.BlockExists(p.txn, block.Hashables.Previous) {
			p.result.Code = core.GapPrevious
			return
		}
		var err error
		prevBalance, err = p.ledger.Balance(p.txn, block.Hashables.Previous)
		if err != nil {
			p.storeErr(err)
			return
		}
	}
	epochLink := p.ledger.params.EpochLink
	if block.Hashables.Balance.Equal(prevBalance) && !epochLink.IsZero() && block.Hashables.Link == epochLink {
		p.epochBlock(block)
		return
	}
	p.stateBlockImpl(block)
}

func (p *processor) stateBlockImpl(block *core.StateBlock) {
	hash := block.Hash()
	if p.ledger.Store.BlockExists(p.txn, hash) {
		p.result.Code = core.Old
		return
	}
	if core.ValidateMessage(block.Hashables.Account, hash, block.Signature) {
		p.result.Code = core.BadSignature
		return
	}
	if block.Hashables.Account.IsZero() {
		p.result.Code = core.OpenedBurnAccount
		return
	}

	epoch := core.Epoch0
	info, accountErr := p.ledger.Store.AccountGet(p.txn, block.Hashables.Account)
	exists := accountErr == nil
	p.result.Amount = block.Hashables.Balance
	isSend := false

	if exists {
		epoch = info.Epoch
		if block.Hashables.Previous.IsZero() {
			// The account is already open; a second open is a fork.
			p.result.Code = core.Fork
			return
		}
		if !p.ledger.Store.BlockExists(p.txn, block.Hashables.Previous) {
			p.result.Code = core.GapPrevious
			return
		}
		isSend = block.Hashables.Balance.Lt(info.Balance)
		if isSend {
			p.result.Amount = info.Balance.Sub(block.Hashables.Balance)
		} else {
			p.result.Amount = block.Hashables.Balance.Sub(info.Balance)
		}
		if block.Hashables.Previous != info.Head {
			p.result.Code = core.Fork
			return
		}
	} else {
		if !block.Hashables.Previous.IsZero() {
			p.result.Code = core.GapPrevious
			return
		}
		if block.Hashables.Link.IsZero() {
			// The first block of an account must receive something.
			p.result.Code = core.GapSource
			return
		}
	}

	if !isSend {
		if !block.Hashables.Link.IsZero() {
			if !p.ledger.Store.BlockExists(p.txn, core.BlockHash(block.Hashables.Link)) {
				p.result.Code = core.GapSource
				return
			}
			if exists && !info.Head.IsZero() {
				// The receiver must not pretend to have observed a later
				// dividend than it has claimed.
				if !p.ledger.DividendsAreOrdered(p.txn, block.Hashables.Dividend, info.DividendBlock) {
					p.result.Code = core.Unreceivable
					return
				}
			}
			key := core.PendingKey{Account: block.Hashables.Account, Hash: block.Hashables.Link}
			pending, err := p.ledger.Store.PendingGet(p.txn, key)
			if err != nil {
				p.result.Code = core.Unreceivable
				return
			}
			if !p.result.Amount.Equal(pending.Amount) {
				p.result.Code = core.BalanceMismatch
				return
			}
			epoch = core.MaxEpoch(epoch, pending.Epoch)
		} else {
			// No link: only the representative may change.
			if !p.result.Amount.IsZero() {
				p.result.Code = core.BalanceMismatch
				return
			}
		}
	} else {
		// A send cannot advance the account's dividend pointer.
		if info.DividendBlock != block.Hashables.Dividend {
			p.result.Code = core.IncorrectDividend
			return
		}
	}

	p.ledger.Stats.State++
	p.result.StateIsSend = isSend
	if err := p.ledger.Store.BlockPutVersioned(p.txn, hash, block, core.BlockHash{}, epoch); err != nil {
		p.storeErr(err)
		return
	}

	if exists && !info.RepBlock.IsZero() {
		// Move existing representation off the old rep block.
		if err := p.ledger.Store.RepresentationSub(p.txn, info.RepBlock, info.Balance); err != nil {
			p.storeErr(err)
			return
		}
	}
	if err := p.ledger.Store.RepresentationAdd(p.txn, hash, block.Hashables.Balance); err != nil {
		p.storeErr(err)
		return
	}

	if isSend {
		key := core.PendingKey{Account: core.Account(block.Hashables.Link), Hash: hash}
		pending := core.PendingInfo{
			Source:   block.Hashables.Account,
			Amount:   p.result.Amount,
			Dividend: block.Hashables.Dividend,
			Epoch:    epoch,
		}
		if err := p.ledger.Store.PendingPut(p.txn, key, pending); err != nil {
			p.storeErr(err)
			return
		}
		p.result.PendingAccount = core.Account(block.Hashables.Link)
	} else if !block.Hashables.Link.IsZero() {
		key := core.PendingKey{Account: block.Hashables.Account, Hash: block.Hashables.Link}
		if err := p.ledger.Store.PendingDel(p.txn, key); err != nil {
			p.storeErr(err)
			return
		}
	}

	if err := p.ledger.ChangeLatest(p.txn, block.Hashables.Account, hash, hash, block.Hashables.Dividend, block.Hashables.Balance, info.BlockCount+1, true, epoch); err != nil {
		p.storeErr(err)
		return
	}
	// State blocks do not populate the frontier; drop the legacy entry of
	// the replaced head if one exists.
	if exists && !p.ledger.Store.FrontierGet(p.txn, info.Head).IsZero() {
		if err := p.ledger.Store.FrontierDel(p.txn, info.Head); err != nil {
			p.storeErr(err)
			return
		}
	}
	p.result.Account = block.Hashables.Account
	p.result.Code = core.Progress
}

// epochBlock upgrades an account to epoch 1 with no balance, pending, or
// representative effect. The dividend pointer stays frozen.
func (p *processor) epochBlock(block *core.StateBlock) {
	hash := block.Hash()
	if p.ledger.Store.BlockExists(p.txn, hash) {
		p.result.Code = core.Old
		return
	}
	if core.ValidateMessage(p.ledger.params.EpochSigner, hash, block.Signature) {
		p.result.Code = core.BadSignature
		return
	}
	if block.Hashables.Account.IsZero() {
		p.result.Code = core.OpenedBurnAccount
		return
	}

	info, accountErr := p.ledger.Store.AccountGet(p.txn, block.Hashables.Account)
	exists := accountErr == nil
	if exists {
		if block.Hashables.Previous.IsZero() {
			p.result.Code = core.Fork
			return
		}
		if !p.ledger.Store.BlockExists(p.txn, block.Hashables.Previous) {
			p.result.Code = core.GapPrevious
			return
		}
		if block.Hashables.Previous != info.Head {
			p.result.Code = core.Fork
			return
		}
		repBlock, err := p.ledger.Store.BlockGet(p.txn, info.RepBlock)
		if err != nil {
			p.storeErr(err)
			return
		}
		if block.Hashables.Representative != repBlock.Representative() {
			p.result.Code = core.RepresentativeMismatch
			return
		}
	} else {
		if !block.Hashables.Representative.IsZero() {
			p.result.Code = core.RepresentativeMismatch
			return
		}
	}
	if info.Epoch != core.Epoch0 && exists {
		p.result.Code = core.BlockPosition
		return
	}
	if !block.Hashables.Balance.Equal(info.Balance) {
		p.result.Code = core.BalanceMismatch
		return
	}

	p.ledger.Stats.Epoch++
	p.result.Account = block.Hashables.Account
	p.result.Amount = core.Uint128{}
	if err := p.ledger.Store.BlockPutVersioned(p.txn, hash, block, core.BlockHash{}, core.Epoch1); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.ChangeLatest(p.txn, block.Hashables.Account, hash, hash, block.Hashables.Dividend, info.Balance, info.BlockCount+1, true, core.Epoch1); err != nil {
		p.storeErr(err)
		return
	}
	if exists && !p.ledger.Store.FrontierGet(p.txn, info.Head).IsZero() {
		if err := p.ledger.Store.FrontierDel(p.txn, info.Head); err != nil {
			p.storeErr(err)
			return
		}
	}
	p.result.Code = core.Progress
}

func (p *processor) dividendBlock(block *core.DividendBlock) {
	hash := block.Hash()
	if p.ledger.Store.BlockExists(p.txn, hash) {
		p.result.Code = core.Old
		return
	}
	if !p.ledger.Store.BlockExists(p.txn, block.Hashables.Previous) {
		p.result.Code = core.GapPrevious
		return
	}
	account := block.Hashables.Account
	if account.IsZero() {
		p.result.Code = core.Fork
		return
	}
	if account != p.ledger.params.DividendAccount {
		p.result.Code = core.InvalidDividendAccount
		return
	}
	if core.ValidateMessage(account, hash, block.Signature) {
		p.result.Code = core.BadSignature
		return
	}
	info, err := p.ledger.Store.AccountGet(p.txn, account)
	if err != nil {
		p.result.Code = core.GapPrevious
		return
	}
	if info.Head != block.Hashables.Previous {
		p.result.Code = core.Fork
		return
	}
	if info.Balance.Lt(block.Hashables.Balance) {
		p.result.Code = core.NegativeSpend
		return
	}
	amount := info.Balance.Sub(block.Hashables.Balance)
	if amount.Cmp(core.MinimumDividendAmount) <= 0 {
		p.result.Code = core.DividendTooSmall
		return
	}
	// Distributing the entire supply would leave a zero denominator for
	// every later claim.
	if p.ledger.TotalSupply(p.txn).Cmp(amount) <= 0 {
		p.result.Code = core.DividendTooSmall
		return
	}
	if block.Hashables.Dividend != core.DividendBase {
		if !p.ledger.Store.BlockExists(p.txn, block.Hashables.Dividend) {
			p.result.Code = core.GapSource
			return
		}
	}
	dividendInfo := p.ledger.Store.DividendGet(p.txn)
	if block.Hashables.Dividend != dividendInfo.Head {
		p.result.Code = core.DividendFork
		return
	}

	p.ledger.Stats.Dividend++
	if err := p.ledger.Store.BlockPut(p.txn, hash, block); err != nil {
		p.storeErr(err)
		return
	}
	if !info.RepBlock.IsZero() {
		if err := p.ledger.Store.RepresentationSub(p.txn, info.RepBlock, info.Balance); err != nil {
			p.storeErr(err)
			return
		}
	}
	if err := p.ledger.Store.RepresentationAdd(p.txn, hash, block.Hashables.Balance); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.ChangeLatest(p.txn, account, hash, info.RepBlock, block.Hashables.Dividend, block.Hashables.Balance, info.BlockCount+1, true, info.Epoch); err != nil {
		p.storeErr(err)
		return
	}
	if !p.ledger.Store.FrontierGet(p.txn, info.Head).IsZero() {
		if err := p.ledger.Store.FrontierDel(p.txn, info.Head); err != nil {
			p.storeErr(err)
			return
		}
	}
	p.result.Account = account
	p.result.Amount = amount

	if err := p.ledger.Store.DividendPut(p.txn, core.DividendInfo{
		Head:       hash,
		Balance:    dividendInfo.Balance.Add(amount),
		Modified:   uint64(time.Now().Unix()),
		BlockCount: dividendInfo.BlockCount + 1,
		Epoch:      core.Epoch0,
	}); err != nil {
		p.storeErr(err)
		return
	}
	p.result.Code = core.Progress
}

func (p *processor) claimBlock(block *core.ClaimBlock) {
	hash := block.Hash()
	if p.ledger.Store.BlockExists(p.txn, hash) {
		p.result.Code = core.Old
		return
	}
	if !p.ledger.Store.BlockExists(p.txn, block.Hashables.Previous) {
		p.result.Code = core.GapPrevious
		return
	}
	dividend, err := p.ledger.Store.BlockGet(p.txn, block.Hashables.Dividend)
	if err != nil {
		p.result.Code = core.GapSource
		return
	}
	dividendBlock, ok := dividend.(*core.DividendBlock)
	if !ok {
		p.result.Code = core.IncorrectDividend
		return
	}
	account := block.Hashables.Account
	if account.IsZero() {
		// The previous block is already known to exist.
		p.result.Code = core.Fork
		return
	}
	if core.ValidateMessage(account, hash, block.Signature) {
		p.result.Code = core.BadSignature
		return
	}
	info, err := p.ledger.Store.AccountGet(p.txn, account)
	if err != nil {
		p.result.Code = core.GapPrevious
		return
	}
	if info.Head != block.Hashables.Previous {
		if p.ledger.Store.BlockExists(p.txn, block.Hashables.Previous) {
			p.result.Code = core.Fork
		} else {
			p.result.Code = core.GapPrevious
		}
		return
	}
	if p.ledger.HasOutstandingPendingsForDividend(p.txn, block.Hashables.Dividend, account) {
		p.result.Code = core.OutstandingPendings
		return
	}
	// Double claims and out-of-order claims both fail here: the pointer
	// advances one dividend at a time along the canonical chain.
	if info.DividendBlock == block.Hashables.Dividend ||
		!p.ledger.DividendsAreOrdered(p.txn, info.DividendBlock, block.Hashables.Dividend) ||
		dividendBlock.Hashables.Dividend != info.DividendBlock {
		p.result.Code = core.Unreceivable
		return
	}
	p.result.Amount = block.Hashables.Balance.Sub(info.Balance)
	expected := p.ledger.AmountForDividend(p.txn, block.Hashables.Dividend, account)
	if !p.result.Amount.Equal(expected) {
		p.result.Code = core.BalanceMismatch
		return
	}

	p.ledger.Stats.Claim++
	if err := p.ledger.Store.BlockPut(p.txn, hash, block); err != nil {
		p.storeErr(err)
		return
	}
	if !info.RepBlock.IsZero() {
		if err := p.ledger.Store.RepresentationSub(p.txn, info.RepBlock, info.Balance); err != nil {
			p.storeErr(err)
			return
		}
	}
	if err := p.ledger.Store.RepresentationAdd(p.txn, hash, block.Hashables.Balance); err != nil {
		p.storeErr(err)
		return
	}
	// Advance the claim pointer before rewriting the head record.
	info.DividendBlock = block.Hashables.Dividend
	if err := p.ledger.Store.AccountPut(p.txn, account, info); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.ChangeLatest(p.txn, account, hash, info.RepBlock, block.Hashables.Dividend, block.Hashables.Balance, info.BlockCount+1, true, info.Epoch); err != nil {
		p.storeErr(err)
		return
	}
	if !p.ledger.Store.FrontierGet(p.txn, info.Head).IsZero() {
		if err := p.ledger.Store.FrontierDel(p.txn, info.Head); err != nil {
			p.storeErr(err)
			return
		}
	}
	p.result.Account = account
	p.result.Code = core.Progress
}

func (p *processor) sendBlock(block *core.SendBlock) {
	hash := block.Hash()
	if p.ledger.Store.BlockExists(p.txn, hash) {
		p.result.Code = core.Old
		return
	}
	previous, err := p.ledger.Store.BlockGet(p.txn, block.Hashables.Previous)
	if err != nil {
		p.result.Code = core.GapPrevious
		return
	}
	if !block.ValidPredecessor(previous) {
		p.result.Code = core.BlockPosition
		return
	}
	account := p.ledger.Store.FrontierGet(p.txn, block.Hashables.Previous)
	if account.IsZero() {
		p.result.Code = core.Fork
		return
	}
	if core.ValidateMessage(account, hash, block.Signature) {
		p.result.Code = core.BadSignature
		return
	}
	info, err := p.ledger.Store.AccountGet(p.txn, account)
	if err != nil {
		p.storeErr(err)
		return
	}
	if block.Hashables.Balance.Cmp(info.Balance) > 0 {
		p.result.Code = core.NegativeSpend
		return
	}

	p.ledger.Stats.Send++
	amount := info.Balance.Sub(block.Hashables.Balance)
	if err := p.ledger.Store.RepresentationSub(p.txn, info.RepBlock, amount); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.BlockPut(p.txn, hash, block); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.ChangeLatest(p.txn, account, hash, info.RepBlock, block.Hashables.Dividend, block.Hashables.Balance, info.BlockCount+1, false, info.Epoch); err != nil {
		p.storeErr(err)
		return
	}
	key := core.PendingKey{Account: block.Hashables.Destination, Hash: hash}
	pending := core.PendingInfo{Source: account, Amount: amount, Dividend: block.Hashables.Dividend, Epoch: core.Epoch0}
	if err := p.ledger.Store.PendingPut(p.txn, key, pending); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.FrontierDel(p.txn, block.Hashables.Previous); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.FrontierPut(p.txn, hash, account); err != nil {
		p.storeErr(err)
		return
	}
	p.result.Account = account
	p.result.Amount = amount
	p.result.PendingAccount = block.Hashables.Destination
	p.result.Code = core.Progress
}

func (p *processor) receiveBlock(block *core.ReceiveBlock) {
	hash := block.Hash()
	if p.ledger.Store.BlockExists(p.txn, hash) {
		p.result.Code = core.Old
		return
	}
	previous, err := p.ledger.Store.BlockGet(p.txn, block.Hashables.Previous)
	if err != nil {
		p.result.Code = core.GapPrevious
		return
	}
	if !block.ValidPredecessor(previous) {
		p.result.Code = core.BlockPosition
		return
	}
	if !p.ledger.Store.BlockExists(p.txn, block.Hashables.Source) {
		p.result.Code = core.GapSource
		return
	}
	account := p.ledger.Store.FrontierGet(p.txn, block.Hashables.Previous)
	if account.IsZero() {
		// The previous block exists but is not a frontier: a signed fork.
		if p.ledger.Store.BlockExists(p.txn, block.Hashables.Previous) {
			p.result.Code = core.Fork
		} else {
			p.result.Code = core.GapPrevious
		}
		return
	}
	if core.ValidateMessage(account, hash, block.Signature) {
		p.result.Code = core.BadSignature
		return
	}
	info, err := p.ledger.Store.AccountGet(p.txn, account)
	if err != nil {
		p.storeErr(err)
		return
	}
	if info.Head != block.Hashables.Previous {
		p.result.Code = core.GapPrevious
		return
	}
	key := core.PendingKey{Account: account, Hash: block.Hashables.Source}
	pending, err := p.ledger.Store.PendingGet(p.txn, key)
	if err != nil {
		p.result.Code = core.Unreceivable
		return
	}
	if pending.Epoch != core.Epoch0 {
		// A state-only send requires a state receive.
		p.result.Code = core.Unreceivable
		return
	}

	p.ledger.Stats.Receive++
	newBalance := info.Balance.Add(pending.Amount)
	if err := p.ledger.Store.PendingDel(p.txn, key); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.BlockPut(p.txn, hash, block); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.ChangeLatest(p.txn, account, hash, info.RepBlock, block.Hashables.Dividend, newBalance, info.BlockCount+1, false, info.Epoch); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.RepresentationAdd(p.txn, info.RepBlock, pending.Amount); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.FrontierDel(p.txn, block.Hashables.Previous); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.FrontierPut(p.txn, hash, account); err != nil {
		p.storeErr(err)
		return
	}
	p.result.Account = account
	p.result.Amount = pending.Amount
	p.result.Code = core.Progress
}

func (p *processor) openBlock(block *core.OpenBlock) {
	hash := block.Hash()
	if p.ledger.Store.BlockExists(p.txn, hash) {
		p.result.Code = core.Old
		return
	}
	if !p.ledger.Store.BlockExists(p.txn, block.Hashables.Source) {
		p.result.Code = core.GapSource
		return
	}
	if core.ValidateMessage(block.Hashables.Account, hash, block.Signature) {
		p.result.Code = core.BadSignature
		return
	}
	if _, err := p.ledger.Store.AccountGet(p.txn, block.Hashables.Account); err == nil {
		// The account is already open.
		p.result.Code = core.Fork
		return
	}
	key := core.PendingKey{Account: block.Hashables.Account, Hash: block.Hashables.Source}
	pending, err := p.ledger.Store.PendingGet(p.txn, key)
	if err != nil {
		p.result.Code = core.Unreceivable
		return
	}
	if block.Hashables.Account == core.BurnAccount {
		p.result.Code = core.OpenedBurnAccount
		return
	}
	if pending.Epoch != core.Epoch0 {
		p.result.Code = core.Unreceivable
		return
	}

	p.ledger.Stats.Open++
	if err := p.ledger.Store.PendingDel(p.txn, key); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.BlockPut(p.txn, hash, block); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.ChangeLatest(p.txn, block.Hashables.Account, hash, hash, block.Hashables.Dividend, pending.Amount, 1, false, core.Epoch0); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.RepresentationAdd(p.txn, hash, pending.Amount); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.FrontierPut(p.txn, hash, block.Hashables.Account); err != nil {
		p.storeErr(err)
		return
	}
	p.result.Account = block.Hashables.Account
	p.result.Amount = pending.Amount
	p.result.Code = core.Progress
}

func (p *processor) changeBlock(block *core.ChangeBlock) {
	hash := block.Hash()
	if p.ledger.Store.BlockExists(p.txn, hash) {
		p.result.Code = core.Old
		return
	}
	previous, err := p.ledger.Store.BlockGet(p.txn, block.Hashables.Previous)
	if err != nil {
		p.result.Code = core.GapPrevious
		return
	}
	if !block.ValidPredecessor(previous) {
		p.result.Code = core.BlockPosition
		return
	}
	account := p.ledger.Store.FrontierGet(p.txn, block.Hashables.Previous)
	if account.IsZero() {
		p.result.Code = core.Fork
		return
	}
	if core.ValidateMessage(account, hash, block.Signature) {
		p.result.Code = core.BadSignature
		return
	}
	info, err := p.ledger.Store.AccountGet(p.txn, account)
	if err != nil {
		p.storeErr(err)
		return
	}

	p.ledger.Stats.Change++
	if err := p.ledger.Store.BlockPut(p.txn, hash, block); err != nil {
		p.storeErr(err)
		return
	}
	balance, err := p.ledger.Balance(p.txn, block.Hashables.Previous)
	if err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.RepresentationAdd(p.txn, hash, balance); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.RepresentationSub(p.txn, info.RepBlock, balance); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.ChangeLatest(p.txn, account, hash, hash, block.Hashables.Dividend, info.Balance, info.BlockCount+1, false, info.Epoch); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.FrontierDel(p.txn, block.Hashables.Previous); err != nil {
		p.storeErr(err)
		return
	}
	if err := p.ledger.Store.FrontierPut(p.txn, hash, account); err != nil {
		p.storeErr(err)
		return
	}
	p.result.Account = account
	p.result.Amount = core.Uint128{}
	p.result.Code = core.Progress
}
