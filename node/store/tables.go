package store

import (
	"encoding/binary"

	"chratos.dev/node/core"
)

// dividendKey addresses the dividend-ledger singleton.
var dividendKey = []byte("dividend_info")

// DividendPut writes the dividend-ledger singleton.
func (s *Store) DividendPut(txn *Transaction, info core.DividendInfo) error {
	return txn.tx.Bucket(bucketDividends).Put(dividendKey, info.Serialize())
}

// DividendGet returns the dividend-ledger singleton; an empty chain when
// absent.
func (s *Store) DividendGet(txn *Transaction) core.DividendInfo {
	info := core.DividendInfo{Head: core.DividendBase, Epoch: core.Epoch1}
	v := txn.tx.Bucket(bucketDividends).Get(dividendKey)
	if v == nil {
		return info
	}
	if err := info.Deserialize(v); err != nil {
		return core.DividendInfo{Head: core.DividendBase, Epoch: core.Epoch1}
	}
	return info
}

// FrontierPut maps a legacy head block to its owning account.
func (s *Store) FrontierPut(txn *Transaction, hash core.BlockHash, account core.Account) error {
	return txn.tx.Bucket(bucketFrontiers).Put(hash[:], account[:])
}

// FrontierGet returns the account owning the legacy head, zero when none.
func (s *Store) FrontierGet(txn *Transaction, hash core.BlockHash) core.Account {
	var account core.Account
	if v := txn.tx.Bucket(bucketFrontiers).Get(hash[:]); len(v) == 32 {
		copy(account[:], v)
	}
	return account
}

func (s *Store) FrontierDel(txn *Transaction, hash core.BlockHash) error {
	return txn.tx.Bucket(bucketFrontiers).Delete(hash[:])
}

// BlockInfoPut records an (account, balance) snapshot for a legacy block.
func (s *Store) BlockInfoPut(txn *Transaction, hash core.BlockHash, info core.BlockInfo) error {
	return txn.tx.Bucket(bucketBlocksInfo).Put(hash[:], info.Serialize())
}

func (s *Store) BlockInfoGet(txn *Transaction, hash core.BlockHash) (core.BlockInfo, error) {
	var info core.BlockInfo
	v := txn.tx.Bucket(bucketBlocksInfo).Get(hash[:])
	if v == nil {
		return info, ErrNotFound
	}
	return info, info.Deserialize(v)
}

func (s *Store) BlockInfoDel(txn *Transaction, hash core.BlockHash) error {
	return txn.tx.Bucket(bucketBlocksInfo).Delete(hash[:])
}

func (s *Store) BlockInfoExists(txn *Transaction, hash core.BlockHash) bool {
	return txn.tx.Bucket(bucketBlocksInfo).Get(hash[:]) != nil
}

// RepresentationGet returns the voting weight delegated to the
// representative account.
func (s *Store) RepresentationGet(txn *Transaction, account core.Account) core.Uint128 {
	v := txn.tx.Bucket(bucketRepresentation).Get(account[:])
	if len(v) != 16 {
		return core.Uint128{}
	}
	var raw [16]byte
	copy(raw[:], v)
	return core.U128FromBytes(raw)
}

// RepresentationPut overwrites the representative's weight.
func (s *Store) RepresentationPut(txn *Transaction, account core.Account, weight core.Uint128) error {
	b := weight.Bytes()
	return txn.tx.Bucket(bucketRepresentation).Put(account[:], b[:])
}

// RepresentationAdd credits the representative named by the rep block with
// the amount.
func (s *Store) RepresentationAdd(txn *Transaction, repBlock core.BlockHash, amount core.Uint128) error {
	block, err := s.BlockGet(txn, repBlock)
	if err != nil {
		return err
	}
	rep := block.Representative()
	return s.RepresentationPut(txn, rep, s.RepresentationGet(txn, rep).Add(amount))
}

// RepresentationSub debits the representative named by the rep block.
func (s *Store) RepresentationSub(txn *Transaction, repBlock core.BlockHash, amount core.Uint128) error {
	block, err := s.BlockGet(txn, repBlock)
	if err != nil {
		return err
	}
	rep := block.Representative()
	return s.RepresentationPut(txn, rep, s.RepresentationGet(txn, rep).Sub(amount))
}

// RepresentationForEach walks every representative weight in key order.
func (s *Store) RepresentationForEach(txn *Transaction, fn func(core.Account, core.Uint128) error) error {
	it := newIterator(txn.tx.Bucket(bucketRepresentation), nil)
	for ; it.valid(); it.next() {
		var account core.Account
		copy(account[:], it.k)
		var raw [16]byte
		copy(raw[:], it.v)
		if err := fn(account, core.U128FromBytes(raw)); err != nil {
			return err
		}
	}
	return nil
}

// RepresentationClear drops every weight, ahead of a rebuild.
func (s *Store) RepresentationClear(txn *Transaction) error {
	if err := txn.tx.DeleteBucket(bucketRepresentation); err != nil {
		return err
	}
	_, err := txn.tx.CreateBucket(bucketRepresentation)
	return err
}

// checksumKey packs the prefix and mask of a checksum slot.
func checksumKey(prefix uint64, mask uint8) []byte {
	key := make([]byte, 9)
	binary.LittleEndian.PutUint64(key, prefix)
	key[8] = mask
	return key
}

// ChecksumPut stores the XOR accumulator for a checksum slot.
func (s *Store) ChecksumPut(txn *Transaction, prefix uint64, mask uint8, sum core.Checksum) error {
	return txn.tx.Bucket(bucketChecksum).Put(checksumKey(prefix, mask), sum[:])
}

func (s *Store) ChecksumGet(txn *Transaction, prefix uint64, mask uint8) (core.Checksum, error) {
	var sum core.Checksum
	v := txn.tx.Bucket(bucketChecksum).Get(checksumKey(prefix, mask))
	if len(v) != 32 {
		return sum, ErrNotFound
	}
	copy(sum[:], v)
	return sum, nil
}

func (s *Store) ChecksumDel(txn *Transaction, prefix uint64, mask uint8) error {
	return txn.tx.Bucket(bucketChecksum).Delete(checksumKey(prefix, mask))
}
