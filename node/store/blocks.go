package store

import (
	"fmt"

	"chratos.dev/node/core"
)

// blockBuckets in block_get probe order; the first hit wins.
var blockBuckets = []struct {
	name  []byte
	typ   core.BlockType
	epoch core.Epoch
}{
	{bucketSendBlocks, core.BlockTypeSend, core.Epoch0},
	{bucketReceiveBlocks, core.BlockTypeReceive, core.Epoch0},
	{bucketOpenBlocks, core.BlockTypeOpen, core.Epoch0},
	{bucketChangeBlocks, core.BlockTypeChange, core.Epoch0},
	{bucketStateV0, core.BlockTypeState, core.Epoch0},
	{bucketStateV1, core.BlockTypeState, core.Epoch1},
	{bucketDividendBlocks, core.BlockTypeDividend, core.Epoch0},
	{bucketClaimBlocks, core.BlockTypeClaim, core.Epoch0},
}

// blockDeleteOrder probes the state tables first on deletion.
var blockDeleteOrder = [][]byte{
	bucketStateV1, bucketStateV0, bucketSendBlocks, bucketReceiveBlocks,
	bucketOpenBlocks, bucketChangeBlocks, bucketDividendBlocks, bucketClaimBlocks,
}

func blockBucketFor(t core.BlockType, epoch core.Epoch) ([]byte, error) {
	switch t {
	case core.BlockTypeSend:
		return bucketSendBlocks, nil
	case core.BlockTypeReceive:
		return bucketReceiveBlocks, nil
	case core.BlockTypeOpen:
		return bucketOpenBlocks, nil
	case core.BlockTypeChange:
		return bucketChangeBlocks, nil
	case core.BlockTypeState:
		if epoch == core.Epoch1 {
			return bucketStateV1, nil
		}
		return bucketStateV0, nil
	case core.BlockTypeDividend:
		return bucketDividendBlocks, nil
	case core.BlockTypeClaim:
		return bucketClaimBlocks, nil
	}
	return nil, fmt.Errorf("store: no table for block type %d", t)
}

// blockRawGet probes the variant tables in order and returns the stored
// value (block bytes followed by the 32-byte successor) and the table hit.
func (s *Store) blockRawGet(txn *Transaction, hash core.BlockHash) ([]byte, core.BlockType, core.Epoch) {
	for _, b := range blockBuckets {
		if v := txn.tx.Bucket(b.name).Get(hash[:]); v != nil {
			return v, b.typ, b.epoch
		}
	}
	return nil, core.BlockTypeInvalid, core.Epoch0
}

// BlockPut stores a block with a zero successor and patches the previous
// block's successor in place.
func (s *Store) BlockPut(txn *Transaction, hash core.BlockHash, block core.Block) error {
	return s.BlockPutVersioned(txn, hash, block, core.BlockHash{}, core.Epoch0)
}

// BlockPutVersioned stores a block with an explicit successor and, for
// state blocks, the epoch selecting the v0 or v1 table.
func (s *Store) BlockPutVersioned(txn *Transaction, hash core.BlockHash, block core.Block, successor core.BlockHash, epoch core.Epoch) error {
	name, err := blockBucketFor(block.Type(), epoch)
	if err != nil {
		return err
	}
	value := block.Serialize()
	value = append(value, successor[:]...)
	if err := txn.tx.Bucket(name).Put(hash[:], value); err != nil {
		return fmt.Errorf("store: block put: %w", err)
	}
	if previous := block.Previous(); !previous.IsZero() {
		if err := s.setSuccessor(txn, previous, hash); err != nil {
			return err
		}
	}
	return nil
}

// setSuccessor patches the stored value's trailing successor field.
func (s *Store) setSuccessor(txn *Transaction, hash, successor core.BlockHash) error {
	for _, b := range blockBuckets {
		bucket := txn.tx.Bucket(b.name)
		v := bucket.Get(hash[:])
		if v == nil {
			continue
		}
		patched := make([]byte, len(v))
		copy(patched, v)
		copy(patched[len(patched)-32:], successor[:])
		return bucket.Put(hash[:], patched)
	}
	return ErrNotFound
}

// BlockGet returns the block stored under hash, probing each variant
// table in the fixed order.
func (s *Store) BlockGet(txn *Transaction, hash core.BlockHash) (core.Block, error) {
	v, typ, _ := s.blockRawGet(txn, hash)
	if v == nil {
		return nil, ErrNotFound
	}
	block, err := core.DeserializeBlock(v, typ)
	if err != nil {
		return nil, fmt.Errorf("store: corrupt block %s: %w", hash, err)
	}
	return block, nil
}

// BlockExists reports whether any variant table holds the hash.
func (s *Store) BlockExists(txn *Transaction, hash core.BlockHash) bool {
	v, _, _ := s.blockRawGet(txn, hash)
	return v != nil
}

// BlockSuccessor returns the successor recorded for the block, zero when
// none.
func (s *Store) BlockSuccessor(txn *Transaction, hash core.BlockHash) core.BlockHash {
	var result core.BlockHash
	v, _, _ := s.blockRawGet(txn, hash)
	if v == nil || len(v) < 32 {
		return result
	}
	copy(result[:], v[len(v)-32:])
	return result
}

// BlockSuccessorClear rewrites the block with a zero successor.
func (s *Store) BlockSuccessorClear(txn *Transaction, hash core.BlockHash) error {
	return s.setSuccessor(txn, hash, core.BlockHash{})
}

// BlockDel removes the block from whichever variant table holds it.
func (s *Store) BlockDel(txn *Transaction, hash core.BlockHash) error {
	for _, name := range blockDeleteOrder {
		bucket := txn.tx.Bucket(name)
		if bucket.Get(hash[:]) != nil {
			return bucket.Delete(hash[:])
		}
	}
	return ErrNotFound
}

// BlockVersion returns the epoch of a state block: epoch 1 iff it lives
// in the v1 table.
func (s *Store) BlockVersion(txn *Transaction, hash core.BlockHash) core.Epoch {
	if txn.tx.Bucket(bucketStateV1).Get(hash[:]) != nil {
		return core.Epoch1
	}
	return core.Epoch0
}

// BlockCounts hold the per-table block tallies.
type BlockCounts struct {
	Send     uint64
	Receive  uint64
	Open     uint64
	Change   uint64
	StateV0  uint64
	StateV1  uint64
	Dividend uint64
	Claim    uint64
}

func (c BlockCounts) Sum() uint64 {
	return c.Send + c.Receive + c.Open + c.Change + c.StateV0 + c.StateV1 + c.Dividend + c.Claim
}

func (s *Store) BlockCount(txn *Transaction) BlockCounts {
	count := func(name []byte) uint64 {
		return uint64(txn.tx.Bucket(name).Stats().KeyN)
	}
	return BlockCounts{
		Send:     count(bucketSendBlocks),
		Receive:  count(bucketReceiveBlocks),
		Open:     count(bucketOpenBlocks),
		Change:   count(bucketChangeBlocks),
		StateV0:  count(bucketStateV0),
		StateV1:  count(bucketStateV1),
		Dividend: count(bucketDividendBlocks),
		Claim:    count(bucketClaimBlocks),
	}
}

// BlockRandom returns an arbitrary stored block, seeking a random hash in
// a random non-empty variant table.
func (s *Store) BlockRandom(txn *Transaction, seed core.BlockHash) (core.Block, error) {
	for _, b := range blockBuckets {
		bucket := txn.tx.Bucket(b.name)
		if bucket.Stats().KeyN == 0 {
			continue
		}
		it := newIterator(bucket, seed[:])
		if !it.valid() {
			it = newIterator(bucket, nil)
		}
		var hash core.BlockHash
		copy(hash[:], it.k)
		return s.BlockGet(txn, hash)
	}
	return nil, ErrNotFound
}

// RootExists reports whether the root names a stored block or an opened
// account.
func (s *Store) RootExists(txn *Transaction, root core.BlockHash) bool {
	if s.BlockExists(txn, root) {
		return true
	}
	return s.AccountExists(txn, core.Account(root))
}
