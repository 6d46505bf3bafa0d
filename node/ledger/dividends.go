package ledger

import (
	"math/big"

	"chratos.dev/node/core"
	"chratos.dev/node/node/store"
)

// sharePrecision is the big.Float mantissa used for dividend share
// computation. The 128x128-bit product needs 256 bits to stay exact
// through the single division.
const sharePrecision = 256

// DividendsAreOrdered reports whether first is last itself or an ancestor
// of last on the dividend chain.
func (l *Ledger) DividendsAreOrdered(txn *store.Transaction, first, last core.BlockHash) bool {
	if first == last {
		return true
	}
	block, err := l.Store.BlockGet(txn, last)
	for err == nil {
		previous := block.Dividend()
		if previous == first {
			return true
		}
		block, err = l.Store.BlockGet(txn, previous)
	}
	return false
}

// HasOutstandingPendingsForDividend reports whether any pending receive
// destined to the account is stamped with the dividend. Such sends must be
// received before the dividend can be claimed.
func (l *Ledger) HasOutstandingPendingsForDividend(txn *store.Transaction, dividend core.BlockHash, account core.Account) bool {
	found := false
	_ = l.Store.PendingForAccount(txn, account, func(e store.PendingEntry) error {
		if e.Info.Dividend == dividend {
			found = true
		}
		return nil
	})
	return found
}

// BurnAccountBalance returns the burn account's holdings plus every
// pending send destined to it.
func (l *Ledger) BurnAccountBalance(txn *store.Transaction) core.Uint128 {
	result := l.AccountBalance(txn, core.BurnAccount)
	_ = l.Store.PendingForAccount(txn, core.BurnAccount, func(e store.PendingEntry) error {
		result = result.Add(e.Info.Amount)
		return nil
	})
	return result
}

// TotalSupply is the genesis supply minus the burn account's implicit
// holdings.
func (l *Ledger) TotalSupply(txn *store.Transaction) core.Uint128 {
	return core.GenesisAmount.Sub(l.BurnAccountBalance(txn))
}

// AmountForDividend computes the account's share of the dividend:
// floor(balance x pool / (total_supply - pool)), evaluated in wide
// floating point and truncated toward zero after the single division.
func (l *Ledger) AmountForDividend(txn *store.Transaction, dividend core.BlockHash, account core.Account) core.Uint128 {
	block, err := l.Store.BlockGet(txn, dividend)
	if err != nil {
		return core.Uint128{}
	}
	if _, ok := block.(*core.DividendBlock); !ok {
		return core.Uint128{}
	}
	info, err := l.Store.AccountGet(txn, account)
	if err != nil {
		return core.Uint128{}
	}
	pool, err := l.Amount(txn, block.Hash())
	if err != nil {
		return core.Uint128{}
	}
	total := l.TotalSupply(txn)
	if total.Cmp(pool) <= 0 {
		return core.Uint128{}
	}
	denominator := total.Sub(pool)

	product := new(big.Int).Mul(info.Balance.Number().ToBig(), pool.Number().ToBig())
	quotient := new(big.Float).SetPrec(sharePrecision).Quo(
		new(big.Float).SetPrec(sharePrecision).SetInt(product),
		new(big.Float).SetPrec(sharePrecision).SetInt(denominator.Number().ToBig()),
	)
	// Int truncates toward zero.
	share, _ := quotient.Int(nil)
	result, err := core.U128FromDec(share.String())
	if err != nil {
		return core.Uint128{}
	}
	return result
}

// DividendIndexes maps every dividend hash to its position on the chain,
// zero at the base.
func (l *Ledger) DividendIndexes(txn *store.Transaction) map[core.BlockHash]int {
	results := make(map[core.BlockHash]int)
	current := l.Store.DividendGet(txn).Head
	depth := 0
	for current != core.DividendBase {
		block, err := l.Store.BlockGet(txn, current)
		if err != nil {
			break
		}
		results[current] = depth
		depth++
		current = block.Dividend()
	}
	for hash, index := range results {
		results[hash] = (len(results) - 1) - index
	}
	return results
}

// DividendClaimBlocks lists the account's claim blocks from head to open.
func (l *Ledger) DividendClaimBlocks(txn *store.Transaction, account core.Account) []core.Block {
	var result []core.Block
	info, err := l.Store.AccountGet(txn, account)
	if err != nil {
		return nil
	}
	current := info.Head
	for current != core.BlockHash(account) && !current.IsZero() {
		block, err := l.Store.BlockGet(txn, current)
		if err != nil {
			break
		}
		if _, ok := block.(*core.ClaimBlock); ok {
			result = append(result, block)
		}
		current = block.Previous()
	}
	return result
}
