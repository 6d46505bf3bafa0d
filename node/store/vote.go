package store

import (
	"chratos.dev/node/core"
)

// VoteGet returns the stored vote for the account, ignoring the cache.
func (s *Store) VoteGet(txn *Transaction, account core.Account) (*core.Vote, error) {
	v := txn.tx.Bucket(bucketVote).Get(account[:])
	if v == nil {
		return nil, ErrNotFound
	}
	return core.DeserializeVote(v)
}

// VoteCurrent returns the latest vote for the account, preferring the
// in-memory cache over the table.
func (s *Store) VoteCurrent(txn *Transaction, account core.Account) (*core.Vote, error) {
	s.cacheMu.Lock()
	cached := s.voteCache[account]
	s.cacheMu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return s.VoteGet(txn, account)
}

// VoteGenerate signs a vote for the block with the next sequence number
// and caches it; Flush persists it.
func (s *Store) VoteGenerate(txn *Transaction, account core.Account, prv core.RawKey, block core.Block) *core.Vote {
	sequence := uint64(1)
	if existing, err := s.VoteCurrent(txn, account); err == nil {
		sequence = existing.Sequence + 1
	}
	vote := core.NewVote(account, prv, sequence, block)
	s.cacheMu.Lock()
	s.voteCache[account] = vote
	s.cacheMu.Unlock()
	return vote
}

// VoteGenerateHashes signs a hash-only vote with the next sequence number.
func (s *Store) VoteGenerateHashes(txn *Transaction, account core.Account, prv core.RawKey, hashes []core.BlockHash) *core.Vote {
	sequence := uint64(1)
	if existing, err := s.VoteCurrent(txn, account); err == nil {
		sequence = existing.Sequence + 1
	}
	vote := core.NewVoteHashes(account, prv, sequence, hashes)
	s.cacheMu.Lock()
	s.voteCache[account] = vote
	s.cacheMu.Unlock()
	return vote
}

// VoteMax returns whichever of the offered vote and the stored vote has
// the higher sequence, caching the winner.
func (s *Store) VoteMax(txn *Transaction, vote *core.Vote) *core.Vote {
	current, err := s.VoteCurrent(txn, vote.Account)
	if err == nil && current.Sequence > vote.Sequence {
		return current
	}
	s.cacheMu.Lock()
	s.voteCache[vote.Account] = vote
	s.cacheMu.Unlock()
	return vote
}

// VoteForEach walks every persisted vote in account order.
func (s *Store) VoteForEach(txn *Transaction, fn func(core.Account, *core.Vote) error) error {
	it := newIterator(txn.tx.Bucket(bucketVote), nil)
	for ; it.valid(); it.next() {
		var account core.Account
		copy(account[:], it.k)
		vote, err := core.DeserializeVote(it.v)
		if err != nil {
			return err
		}
		if err := fn(account, vote); err != nil {
			return err
		}
	}
	return nil
}
