package store

import (
	"fmt"

	"chratos.dev/node/core"
)

// The balance and amount walks derive values for legacy blocks by
// following previous and source links. State, dividend, and claim blocks
// carry their balance directly; blocks_info snapshots short-circuit long
// legacy chains.

// BalanceWalk computes the account balance as of the given block.
func (s *Store) BalanceWalk(txn *Transaction, hash core.BlockHash) (core.Uint128, error) {
	var balance core.Uint128
	currentBalance := hash
	var currentAmount core.BlockHash
	for !currentBalance.IsZero() || !currentAmount.IsZero() {
		if !currentAmount.IsZero() {
			amount, err := s.AmountWalk(txn, currentAmount)
			if err != nil {
				return core.Uint128{}, err
			}
			balance = balance.Add(amount)
			currentAmount = core.BlockHash{}
			continue
		}
		block, err := s.BlockGet(txn, currentBalance)
		if err != nil {
			return core.Uint128{}, fmt.Errorf("balance walk at %s: %w", currentBalance, err)
		}
		switch b := block.(type) {
		case *core.SendBlock:
			balance = balance.Add(b.Hashables.Balance)
			currentBalance = core.BlockHash{}
		case *core.ReceiveBlock:
			if info, err := s.BlockInfoGet(txn, b.Hash()); err == nil {
				balance = balance.Add(info.Balance)
				currentBalance = core.BlockHash{}
			} else {
				currentAmount = b.Hashables.Source
				currentBalance = b.Hashables.Previous
			}
		case *core.OpenBlock:
			currentAmount = b.Hashables.Source
			currentBalance = core.BlockHash{}
		case *core.ChangeBlock:
			if info, err := s.BlockInfoGet(txn, b.Hash()); err == nil {
				balance = balance.Add(info.Balance)
				currentBalance = core.BlockHash{}
			} else {
				currentBalance = b.Hashables.Previous
			}
		case *core.StateBlock:
			balance = b.Hashables.Balance
			currentBalance = core.BlockHash{}
		case *core.DividendBlock:
			balance = balance.Add(b.Hashables.Balance)
			currentBalance = core.BlockHash{}
		case *core.ClaimBlock:
			balance = balance.Add(b.Hashables.Balance)
			currentBalance = core.BlockHash{}
		}
	}
	return balance, nil
}

// AmountWalk computes the balance delta a block caused: the amount moved
// by a send or receive, zero for a representative change, the full
// genesis supply for the genesis open.
func (s *Store) AmountWalk(txn *Transaction, hash core.BlockHash) (core.Uint128, error) {
	var amount core.Uint128
	currentAmount := hash
	var currentBalance core.BlockHash
	for !currentAmount.IsZero() || !currentBalance.IsZero() {
		if !currentAmount.IsZero() {
			block, err := s.BlockGet(txn, currentAmount)
			if err != nil {
				if core.Account(currentAmount) == s.params.GenesisAccount {
					// The genesis open names its account as source.
					amount = core.GenesisAmount
					currentAmount = core.BlockHash{}
					continue
				}
				return core.Uint128{}, fmt.Errorf("amount walk at %s: %w", currentAmount, err)
			}
			switch b := block.(type) {
			case *core.SendBlock:
				currentBalance = b.Hashables.Previous
				amount = b.Hashables.Balance
				currentAmount = core.BlockHash{}
			case *core.ReceiveBlock:
				currentAmount = b.Hashables.Source
			case *core.OpenBlock:
				if core.Account(b.Hashables.Source) != s.params.GenesisAccount {
					currentAmount = b.Hashables.Source
				} else {
					amount = core.GenesisAmount
					currentAmount = core.BlockHash{}
				}
			case *core.ChangeBlock:
				amount = core.Uint128{}
				currentAmount = core.BlockHash{}
			case *core.StateBlock:
				currentBalance = b.Hashables.Previous
				amount = b.Hashables.Balance
				currentAmount = core.BlockHash{}
			case *core.DividendBlock:
				currentBalance = b.Hashables.Previous
				amount = b.Hashables.Balance
				currentAmount = core.BlockHash{}
			case *core.ClaimBlock:
				currentBalance = b.Hashables.Previous
				amount = b.Hashables.Balance
				currentAmount = core.BlockHash{}
			}
			continue
		}
		previous, err := s.BalanceWalk(txn, currentBalance)
		if err != nil {
			return core.Uint128{}, err
		}
		if amount.Lt(previous) {
			amount = previous.Sub(amount)
		} else {
			amount = amount.Sub(previous)
		}
		currentBalance = core.BlockHash{}
	}
	return amount, nil
}

// RepresentativeWalk returns the hash of the block naming the current
// representative as of the given block.
func (s *Store) RepresentativeWalk(txn *Transaction, hash core.BlockHash) (core.BlockHash, error) {
	current := hash
	for {
		block, err := s.BlockGet(txn, current)
		if err != nil {
			return core.BlockHash{}, fmt.Errorf("representative walk at %s: %w", current, err)
		}
		switch block.(type) {
		case *core.OpenBlock, *core.ChangeBlock, *core.StateBlock, *core.DividendBlock, *core.ClaimBlock:
			return current, nil
		default:
			current = block.Previous()
		}
	}
}
