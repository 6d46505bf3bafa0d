package store

import (
	"fmt"

	"chratos.dev/node/core"
)

func pendingBucketFor(epoch core.Epoch) ([]byte, error) {
	switch epoch {
	case core.Epoch0:
		return bucketPendingV0, nil
	case core.Epoch1:
		return bucketPendingV1, nil
	}
	return nil, fmt.Errorf("store: bad pending epoch %d", epoch)
}

// PendingPut writes the record into the table matching its epoch and
// clears any stale copy in the other generation.
func (s *Store) PendingPut(txn *Transaction, key core.PendingKey, info core.PendingInfo) error {
	name, err := pendingBucketFor(info.Epoch)
	if err != nil {
		return err
	}
	other := bucketPendingV0
	if info.Epoch == core.Epoch0 {
		other = bucketPendingV1
	}
	if err := txn.tx.Bucket(other).Delete(key.Bytes()); err != nil {
		return err
	}
	return txn.tx.Bucket(name).Put(key.Bytes(), info.Serialize())
}

// PendingGet probes the v1 table first; the table hit determines the
// record's epoch.
func (s *Store) PendingGet(txn *Transaction, key core.PendingKey) (core.PendingInfo, error) {
	var info core.PendingInfo
	if v := txn.tx.Bucket(bucketPendingV1).Get(key.Bytes()); v != nil {
		if err := info.Deserialize(v); err != nil {
			return info, err
		}
		info.Epoch = core.Epoch1
		return info, nil
	}
	if v := txn.tx.Bucket(bucketPendingV0).Get(key.Bytes()); v != nil {
		if err := info.Deserialize(v); err != nil {
			return info, err
		}
		info.Epoch = core.Epoch0
		return info, nil
	}
	return info, ErrNotFound
}

// PendingDel removes the record from both table generations.
func (s *Store) PendingDel(txn *Transaction, key core.PendingKey) error {
	if err := txn.tx.Bucket(bucketPendingV1).Delete(key.Bytes()); err != nil {
		return err
	}
	return txn.tx.Bucket(bucketPendingV0).Delete(key.Bytes())
}

func (s *Store) PendingExists(txn *Transaction, key core.PendingKey) bool {
	_, err := s.PendingGet(txn, key)
	return err == nil
}

// PendingEntry is one row of the merged pending iteration.
type PendingEntry struct {
	Key  core.PendingKey
	Info core.PendingInfo
}

// PendingForAccount walks every pending record destined to the account, in
// send-hash order, across both table generations.
func (s *Store) PendingForAccount(txn *Transaction, account core.Account, fn func(PendingEntry) error) error {
	seek := core.PendingKey{Account: account}.Bytes()
	m := newMergeIterator(
		newIterator(txn.tx.Bucket(bucketPendingV0), seek),
		newIterator(txn.tx.Bucket(bucketPendingV1), seek),
	)
	for ; m.valid(); m.next() {
		key, err := core.PendingKeyFromBytes(m.key())
		if err != nil {
			return err
		}
		if key.Account != account {
			break
		}
		e := PendingEntry{Key: key}
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

// PendingForEach walks every pending record in combined key order.
func (s *Store) PendingForEach(txn *Transaction, fn func(PendingEntry) error) error {
	m := newMergeIterator(
		newIterator(txn.tx.Bucket(bucketPendingV0), nil),
		newIterator(txn.tx.Bucket(bucketPendingV1), nil),
	)
	for ; m.valid(); m.next() {
		key, err := core.PendingKeyFromBytes(m.key())
		if err != nil {
			return err
		}
		e := PendingEntry{Key: key}
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
