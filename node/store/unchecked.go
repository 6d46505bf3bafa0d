package store

import (
	"chratos.dev/node/core"
)

// The unchecked table allows duplicate keys: several blocks can wait on
// the same missing dependency. bbolt has no duplicate sort, so the stored
// key is dependency hash followed by the waiting block's own hash.

func uncheckedKey(dependency, blockHash core.BlockHash) []byte {
	key := make([]byte, 0, 64)
	key = append(key, dependency[:]...)
	return append(key, blockHash[:]...)
}

// UncheckedPut buffers the block in the in-memory cache; Flush moves the
// cache into the table at commit points.
func (s *Store) UncheckedPut(dependency core.BlockHash, block core.Block) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	for _, existing := range s.uncheckedCache[dependency] {
		if core.BlockEqual(existing, block) {
			return
		}
	}
	s.uncheckedCache[dependency] = append(s.uncheckedCache[dependency], block)
}

// UncheckedGet returns every buffered and stored block waiting on the
// dependency.
func (s *Store) UncheckedGet(txn *Transaction, dependency core.BlockHash) ([]core.Block, error) {
	s.cacheMu.Lock()
	out := append([]core.Block(nil), s.uncheckedCache[dependency]...)
	s.cacheMu.Unlock()

	it := newIterator(txn.tx.Bucket(bucketUnchecked), dependency[:])
	for ; it.valid(); it.next() {
		if len(it.k) != 64 {
			continue
		}
		var dep core.BlockHash
		copy(dep[:], it.k[:32])
		if dep != dependency {
			break
		}
		block, err := core.DeserializeBlockTagged(it.v)
		if err != nil {
			return nil, err
		}
		duplicate := false
		for _, existing := range out {
			if core.BlockEqual(existing, block) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, block)
		}
	}
	return out, nil
}

// UncheckedDel removes one waiting block from both the cache and the
// table.
func (s *Store) UncheckedDel(txn *Transaction, dependency core.BlockHash, block core.Block) error {
	s.cacheMu.Lock()
	entries := s.uncheckedCache[dependency]
	for i, existing := range entries {
		if core.BlockEqual(existing, block) {
			s.uncheckedCache[dependency] = append(entries[:i], entries[i+1:]...)
			if len(s.uncheckedCache[dependency]) == 0 {
				delete(s.uncheckedCache, dependency)
			}
			break
		}
	}
	s.cacheMu.Unlock()
	return txn.tx.Bucket(bucketUnchecked).Delete(uncheckedKey(dependency, block.Hash()))
}

// UncheckedCount tallies buffered plus stored waiting blocks.
func (s *Store) UncheckedCount(txn *Transaction) uint64 {
	s.cacheMu.Lock()
	cached := 0
	for _, entries := range s.uncheckedCache {
		cached += len(entries)
	}
	s.cacheMu.Unlock()
	return uint64(cached) + uint64(txn.tx.Bucket(bucketUnchecked).Stats().KeyN)
}

// UncheckedClear drops the table and the cache.
func (s *Store) UncheckedClear(txn *Transaction) error {
	s.cacheMu.Lock()
	s.uncheckedCache = make(map[core.BlockHash][]core.Block)
	s.cacheMu.Unlock()
	if err := txn.tx.DeleteBucket(bucketUnchecked); err != nil {
		return err
	}
	_, err := txn.tx.CreateBucket(bucketUnchecked)
	return err
}

// Flush writes the unchecked and vote caches through to their tables.
func (s *Store) Flush(txn *Transaction) error {
	s.cacheMu.Lock()
	unchecked := s.uncheckedCache
	votes := s.voteCache
	s.uncheckedCache = make(map[core.BlockHash][]core.Block)
	s.voteCache = make(map[core.Account]*core.Vote)
	s.cacheMu.Unlock()

	for dependency, blocks := range unchecked {
		for _, block := range blocks {
			key := uncheckedKey(dependency, block.Hash())
			if err := txn.tx.Bucket(bucketUnchecked).Put(key, core.SerializeBlockTagged(block)); err != nil {
				return err
			}
		}
	}
	for account, vote := range votes {
		if err := txn.tx.Bucket(bucketVote).Put(account[:], vote.Serialize()); err != nil {
			return err
		}
	}
	return nil
}
