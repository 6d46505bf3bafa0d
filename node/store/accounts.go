package store

import (
	"fmt"

	"chratos.dev/node/core"
)

func accountsBucketFor(epoch core.Epoch) ([]byte, error) {
	switch epoch {
	case core.Epoch0:
		return bucketAccountsV0, nil
	case core.Epoch1:
		return bucketAccountsV1, nil
	}
	return nil, fmt.Errorf("store: bad account epoch %d", epoch)
}

// AccountPut writes the record into the table matching its epoch.
func (s *Store) AccountPut(txn *Transaction, account core.Account, info core.AccountInfo) error {
	name, err := accountsBucketFor(info.Epoch)
	if err != nil {
		return err
	}
	return txn.tx.Bucket(name).Put(account[:], info.Serialize())
}

// AccountGet probes the v1 table first; the table hit determines the
// record's epoch.
func (s *Store) AccountGet(txn *Transaction, account core.Account) (core.AccountInfo, error) {
	var info core.AccountInfo
	if v := txn.tx.Bucket(bucketAccountsV1).Get(account[:]); v != nil {
		if err := info.Deserialize(v); err != nil {
			return info, err
		}
		info.Epoch = core.Epoch1
		return info, nil
	}
	if v := txn.tx.Bucket(bucketAccountsV0).Get(account[:]); v != nil {
		if err := info.Deserialize(v); err != nil {
			return info, err
		}
		info.Epoch = core.Epoch0
		return info, nil
	}
	return info, ErrNotFound
}

// AccountDel removes the record from both table generations.
func (s *Store) AccountDel(txn *Transaction, account core.Account) error {
	if err := txn.tx.Bucket(bucketAccountsV1).Delete(account[:]); err != nil {
		return err
	}
	return txn.tx.Bucket(bucketAccountsV0).Delete(account[:])
}

func (s *Store) AccountExists(txn *Transaction, account core.Account) bool {
	_, err := s.AccountGet(txn, account)
	return err == nil
}

func (s *Store) AccountCount(txn *Transaction) uint64 {
	v0 := uint64(txn.tx.Bucket(bucketAccountsV0).Stats().KeyN)
	v1 := uint64(txn.tx.Bucket(bucketAccountsV1).Stats().KeyN)
	return v0 + v1
}

// AccountEntry is one row of the merged accounts iteration.
type AccountEntry struct {
	Account core.Account
	Info    core.AccountInfo
}

// AccountsForEach walks both account tables in combined key order,
// preferring the epoch-1 record on duplicate keys.
func (s *Store) AccountsForEach(txn *Transaction, fn func(AccountEntry) error) error {
	m := newMergeIterator(
		newIterator(txn.tx.Bucket(bucketAccountsV0), nil),
		newIterator(txn.tx.Bucket(bucketAccountsV1), nil),
	)
	for ; m.valid(); m.next() {
		var e AccountEntry
		copy(e.Account[:], m.key())
		if err := e.Info.Deserialize(m.value()); err != nil {
			return err
		}
		if m.fromV1() {
			e.Info.Epoch = core.Epoch1
		} else {
			e.Info.Epoch = core.Epoch0
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
