package store

import (
	"fmt"

	"chratos.dev/node/core"
)

// doUpgrades runs every pending schema step in order. All steps share the
// open call's write transaction, so a crash mid-upgrade leaves the prior
// version intact.
func (s *Store) doUpgrades(txn *Transaction) error {
	version := s.VersionGet(txn)
	if version > SchemaVersion {
		return fmt.Errorf("store: schema version %d > supported %d", version, SchemaVersion)
	}
	if version < SchemaVersion {
		s.log.Info("upgrading database schema", "from", version, "to", SchemaVersion)
	}
	type step struct {
		from int
		fn   func(*Transaction) error
	}
	steps := []step{
		{1, s.upgradeV1ToV2},
		{2, s.upgradeV2ToV3},
		{3, s.upgradeV3ToV4},
		{4, s.upgradeV4ToV5},
		{5, s.upgradeV5ToV6},
		{6, s.upgradeV6ToV7},
		{7, s.upgradeV7ToV8},
		{8, s.upgradeV8ToV9},
		{9, s.upgradeV9ToV10},
		{10, s.upgradeV10ToV11},
	}
	for _, st := range steps {
		if version != st.from {
			continue
		}
		if err := st.fn(txn); err != nil {
			return fmt.Errorf("store: upgrade from v%d: %w", st.from, err)
		}
		version = st.from + 1
	}
	return nil
}

// accountInfoV1 is the pre-v2 account record: no open block, dividend
// pointer, or block count.
type accountInfoV1 struct {
	Head     core.BlockHash
	RepBlock core.BlockHash
	Balance  core.Uint128
	Modified uint64
}

const accountInfoV1Size = 32 + 32 + 16 + 8

func decodeAccountInfoV1(data []byte) (accountInfoV1, error) {
	var info accountInfoV1
	if len(data) != accountInfoV1Size {
		return info, fmt.Errorf("account info v1: bad size %d", len(data))
	}
	copy(info.Head[:], data[:32])
	copy(info.RepBlock[:], data[32:64])
	var raw [16]byte
	copy(raw[:], data[64:80])
	info.Balance = core.U128FromBytes(raw)
	info.Modified = leU64(data[80:])
	return info, nil
}

// accountInfoV5 is the v2..v5 account record: open block added, still no
// dividend pointer or block count.
type accountInfoV5 struct {
	Head      core.BlockHash
	RepBlock  core.BlockHash
	OpenBlock core.BlockHash
	Balance   core.Uint128
	Modified  uint64
}

const accountInfoV5Size = 32 + 32 + 32 + 16 + 8

func (i accountInfoV5) encode() []byte {
	out := make([]byte, 0, accountInfoV5Size)
	out = append(out, i.Head[:]...)
	out = append(out, i.RepBlock[:]...)
	out = append(out, i.OpenBlock[:]...)
	b := i.Balance.Bytes()
	out = append(out, b[:]...)
	return appendLEU64(out, i.Modified)
}

func decodeAccountInfoV5(data []byte) (accountInfoV5, error) {
	var info accountInfoV5
	if len(data) != accountInfoV5Size {
		return info, fmt.Errorf("account info v5: bad size %d", len(data))
	}
	copy(info.Head[:], data[:32])
	copy(info.RepBlock[:], data[32:64])
	copy(info.OpenBlock[:], data[64:96])
	var raw [16]byte
	copy(raw[:], data[96:112])
	info.Balance = core.U128FromBytes(raw)
	info.Modified = leU64(data[112:])
	return info, nil
}

// pendingInfoV3 is the pre-v4 pending record, keyed by send hash alone.
type pendingInfoV3 struct {
	Source      core.Account
	Amount      core.Uint128
	Destination core.Account
}

const pendingInfoV3Size = 32 + 16 + 32

func decodePendingInfoV3(data []byte) (pendingInfoV3, error) {
	var info pendingInfoV3
	if len(data) != pendingInfoV3Size {
		return info, fmt.Errorf("pending info v3: bad size %d", len(data))
	}
	copy(info.Source[:], data[:32])
	var raw [16]byte
	copy(raw[:], data[32:48])
	info.Amount = core.U128FromBytes(raw)
	copy(info.Destination[:], data[48:])
	return info, nil
}

func leU64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func appendLEU64(out []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		out = append(out, byte(v>>(8*uint(i))))
	}
	return out
}

// upgradeV1ToV2 backfills each account's open block by walking previous
// links from the head.
func (s *Store) upgradeV1ToV2(txn *Transaction) error {
	if err := s.VersionPut(txn, 2); err != nil {
		return err
	}
	type rewrite struct {
		account core.Account
		info    accountInfoV5
	}
	var rewrites []rewrite
	it := newIterator(txn.tx.Bucket(bucketAccountsV0), nil)
	for ; it.valid(); it.next() {
		old, err := decodeAccountInfoV1(it.v)
		if err != nil {
			return err
		}
		block, err := s.BlockGet(txn, old.Head)
		if err != nil {
			return err
		}
		for !block.Previous().IsZero() {
			if block, err = s.BlockGet(txn, block.Previous()); err != nil {
				return err
			}
		}
		var account core.Account
		copy(account[:], it.k)
		rewrites = append(rewrites, rewrite{account, accountInfoV5{
			Head:      old.Head,
			RepBlock:  old.RepBlock,
			OpenBlock: block.Hash(),
			Balance:   old.Balance,
			Modified:  old.Modified,
		}})
	}
	for _, r := range rewrites {
		if err := txn.tx.Bucket(bucketAccountsV0).Put(r.account[:], r.info.encode()); err != nil {
			return err
		}
	}
	return nil
}

// upgradeV2ToV3 rebuilds representation totals by resolving every
// account's representative block.
func (s *Store) upgradeV2ToV3(txn *Transaction) error {
	if err := s.VersionPut(txn, 3); err != nil {
		return err
	}
	if err := s.RepresentationClear(txn); err != nil {
		return err
	}
	type rewrite struct {
		account core.Account
		info    accountInfoV5
	}
	var rewrites []rewrite
	it := newIterator(txn.tx.Bucket(bucketAccountsV0), nil)
	for ; it.valid(); it.next() {
		info, err := decodeAccountInfoV5(it.v)
		if err != nil {
			return err
		}
		repBlock, err := s.RepresentativeWalk(txn, info.Head)
		if err != nil {
			return err
		}
		info.RepBlock = repBlock
		var account core.Account
		copy(account[:], it.k)
		rewrites = append(rewrites, rewrite{account, info})
		if err := s.RepresentationAdd(txn, repBlock, info.Balance); err != nil {
			return err
		}
	}
	for _, r := range rewrites {
		if err := txn.tx.Bucket(bucketAccountsV0).Put(r.account[:], r.info.encode()); err != nil {
			return err
		}
	}
	return nil
}

// upgradeV3ToV4 rekeys pending from send-hash to (destination, send-hash).
func (s *Store) upgradeV3ToV4(txn *Transaction) error {
	if err := s.VersionPut(txn, 4); err != nil {
		return err
	}
	type item struct {
		key  core.PendingKey
		info core.PendingInfo
	}
	var items []item
	it := newIterator(txn.tx.Bucket(bucketPendingV0), nil)
	for ; it.valid(); it.next() {
		if len(it.k) != 32 {
			continue
		}
		old, err := decodePendingInfoV3(it.v)
		if err != nil {
			return err
		}
		var hash core.BlockHash
		copy(hash[:], it.k)
		items = append(items, item{
			key:  core.PendingKey{Account: old.Destination, Hash: hash},
			info: core.PendingInfo{Source: old.Source, Amount: old.Amount, Dividend: core.DividendBase, Epoch: core.Epoch0},
		})
	}
	if err := txn.tx.DeleteBucket(bucketPendingV0); err != nil {
		return err
	}
	if _, err := txn.tx.CreateBucket(bucketPendingV0); err != nil {
		return err
	}
	for _, item := range items {
		if err := s.PendingPut(txn, item.key, item.info); err != nil {
			return err
		}
	}
	return nil
}

// upgradeV4ToV5 populates block successor fields by walking each account
// chain from the head.
func (s *Store) upgradeV4ToV5(txn *Transaction) error {
	if err := s.VersionPut(txn, 5); err != nil {
		return err
	}
	it := newIterator(txn.tx.Bucket(bucketAccountsV0), nil)
	for ; it.valid(); it.next() {
		info, err := decodeAccountInfoV5(it.v)
		if err != nil {
			return err
		}
		var successor core.BlockHash
		hash := info.Head
		for !hash.IsZero() {
			block, err := s.BlockGet(txn, hash)
			if err != nil {
				break
			}
			if s.BlockSuccessor(txn, hash).IsZero() && !successor.IsZero() {
				if err := s.setSuccessor(txn, hash, successor); err != nil {
					return err
				}
			}
			successor = hash
			hash = block.Previous()
		}
	}
	return nil
}

// upgradeV5ToV6 adds per-account block counts, rewriting records into the
// modern layout with a cleared dividend pointer.
func (s *Store) upgradeV5ToV6(txn *Transaction) error {
	if err := s.VersionPut(txn, 6); err != nil {
		return err
	}
	type rewrite struct {
		account core.Account
		info    core.AccountInfo
	}
	var rewrites []rewrite
	it := newIterator(txn.tx.Bucket(bucketAccountsV0), nil)
	for ; it.valid(); it.next() {
		old, err := decodeAccountInfoV5(it.v)
		if err != nil {
			return err
		}
		var count uint64
		hash := old.Head
		for !hash.IsZero() {
			count++
			block, err := s.BlockGet(txn, hash)
			if err != nil {
				return err
			}
			hash = block.Previous()
		}
		var account core.Account
		copy(account[:], it.k)
		rewrites = append(rewrites, rewrite{account, core.AccountInfo{
			Head:          old.Head,
			RepBlock:      old.RepBlock,
			OpenBlock:     old.OpenBlock,
			DividendBlock: core.DividendBase,
			Balance:       old.Balance,
			Modified:      old.Modified,
			BlockCount:    count,
			Epoch:         core.Epoch0,
		}})
	}
	for _, r := range rewrites {
		if err := s.AccountPut(txn, r.account, r.info); err != nil {
			return err
		}
	}
	return nil
}

// upgradeV6ToV7 drops and recreates unchecked.
func (s *Store) upgradeV6ToV7(txn *Transaction) error {
	if err := s.VersionPut(txn, 7); err != nil {
		return err
	}
	return s.UncheckedClear(txn)
}

// upgradeV7ToV8 recreated unchecked with duplicate-key sorting in the
// lmdb layout; the composite-key emulation already allows duplicates, so
// only the stored entries are discarded.
func (s *Store) upgradeV7ToV8(txn *Transaction) error {
	if err := s.VersionPut(txn, 8); err != nil {
		return err
	}
	return s.UncheckedClear(txn)
}

// upgradeV8ToV9 migrates the per-account sequence counters into signed
// vote records. The dummy votes reference the genesis block and carry no
// valid signature.
func (s *Store) upgradeV8ToV9(txn *Transaction) error {
	if err := s.VersionPut(txn, 9); err != nil {
		return err
	}
	sequences := txn.tx.Bucket([]byte("sequence"))
	if sequences == nil {
		return nil
	}
	genesis, err := core.NewGenesis(core.NetworkTest)
	if err != nil {
		return err
	}
	it := newIterator(sequences, nil)
	for ; it.valid(); it.next() {
		if len(it.k) != 32 || len(it.v) < 8 {
			continue
		}
		var account core.Account
		copy(account[:], it.k)
		vote := &core.Vote{
			Sequence: leU64(it.v),
			Blocks:   []core.Block{genesis.Open},
			Account:  account,
		}
		if err := txn.tx.Bucket(bucketVote).Put(account[:], vote.Serialize()); err != nil {
			return err
		}
	}
	return txn.tx.DeleteBucket([]byte("sequence"))
}

// upgradeV9ToV10 seeds blocks_info snapshots every BlockInfoMax blocks
// along legacy chains long enough to need them.
func (s *Store) upgradeV9ToV10(txn *Transaction) error {
	if err := s.VersionPut(txn, 10); err != nil {
		return err
	}
	return s.AccountsForEach(txn, func(e AccountEntry) error {
		if e.Info.BlockCount < BlockInfoMax {
			return nil
		}
		count := uint64(1)
		hash := e.Info.OpenBlock
		for !hash.IsZero() {
			if count%BlockInfoMax == 0 {
				balance, err := s.BalanceWalk(txn, hash)
				if err != nil {
					return err
				}
				if err := s.BlockInfoPut(txn, hash, core.BlockInfo{Account: e.Account, Balance: balance}); err != nil {
					return err
				}
			}
			hash = s.BlockSuccessor(txn, hash)
			count++
		}
		return nil
	})
}

// upgradeV10ToV11 drops the deprecated unsynced table if present.
func (s *Store) upgradeV10ToV11(txn *Transaction) error {
	if err := s.VersionPut(txn, 11); err != nil {
		return err
	}
	if txn.tx.Bucket([]byte("unsynced")) != nil {
		return txn.tx.DeleteBucket([]byte("unsynced"))
	}
	return nil
}
