// Package store implements the ordered-key persistent tables of the
// ledger over bbolt: accounts, blocks, pendings, representation weights,
// the dividend ledger, the frontier index, votes, and schema migrations.
package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	bolt "go.etcd.io/bbolt"

	"chratos.dev/node/core"
)

var (
	bucketFrontiers      = []byte("frontiers")
	bucketAccountsV0     = []byte("accounts")
	bucketAccountsV1     = []byte("accounts_v1")
	bucketDividends      = []byte("dividends_ledger")
	bucketSendBlocks     = []byte("send")
	bucketReceiveBlocks  = []byte("receive")
	bucketOpenBlocks     = []byte("open")
	bucketChangeBlocks   = []byte("change")
	bucketDividendBlocks = []byte("dividend")
	bucketClaimBlocks    = []byte("claim")
	bucketStateV0        = []byte("state")
	bucketStateV1        = []byte("state_v1")
	bucketPendingV0      = []byte("pending")
	bucketPendingV1      = []byte("pending_v1")
	bucketBlocksInfo     = []byte("blocks_info")
	bucketRepresentation = []byte("representation")
	bucketUnchecked      = []byte("unchecked")
	bucketChecksum       = []byte("checksum")
	bucketVote           = []byte("vote")
	bucketMeta           = []byte("meta")
)

var allBuckets = [][]byte{
	bucketFrontiers, bucketAccountsV0, bucketAccountsV1, bucketDividends,
	bucketSendBlocks, bucketReceiveBlocks, bucketOpenBlocks, bucketChangeBlocks,
	bucketDividendBlocks, bucketClaimBlocks, bucketStateV0, bucketStateV1,
	bucketPendingV0, bucketPendingV1, bucketBlocksInfo, bucketRepresentation,
	bucketUnchecked, bucketChecksum, bucketVote, bucketMeta,
}

// ErrNotFound reports an absent key.
var ErrNotFound = errors.New("store: not found")

// BlockInfoMax is the spacing of blocks_info snapshots along legacy
// chains.
const BlockInfoMax = 32

// SchemaVersion is the current database layout version.
const SchemaVersion = 11

// Store owns the bbolt environment holding every ledger table. One write
// transaction at a time; any number of read transactions.
type Store struct {
	db     *bolt.DB
	log    *log.Logger
	params core.NetworkParams

	cacheMu        sync.Mutex
	uncheckedCache map[core.BlockHash][]core.Block
	voteCache      map[core.Account]*core.Vote
}

// Open opens (or creates) the database at path, creates every table, and
// runs any pending schema upgrades inside a single write transaction.
func Open(path string, network core.Network, logger *log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path required")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	s := &Store{
		db:             db,
		log:            logger,
		params:         core.ParamsFor(network),
		uncheckedCache: make(map[core.BlockHash][]core.Block),
		voteCache:      make(map[core.Account]*core.Vote),
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(name), err)
			}
		}
		txn := &Transaction{tx: tx}
		if err := s.doUpgrades(txn); err != nil {
			return err
		}
		if _, err := s.ChecksumGet(txn, 0, 0); err != nil {
			return s.ChecksumPut(txn, 0, 0, core.Checksum{})
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Transaction wraps one bbolt transaction. Writers exclude other writers;
// readers see a consistent snapshot.
type Transaction struct {
	tx *bolt.Tx
}

// BeginRead starts a read-only transaction.
func (s *Store) BeginRead() (*Transaction, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("store: begin read: %w", err)
	}
	return &Transaction{tx: tx}, nil
}

// BeginWrite starts the single write transaction.
func (s *Store) BeginWrite() (*Transaction, error) {
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("store: begin write: %w", err)
	}
	return &Transaction{tx: tx}, nil
}

func (t *Transaction) Commit() error   { return t.tx.Commit() }
func (t *Transaction) Rollback() error { return t.tx.Rollback() }

// Update runs fn inside a write transaction, committing on nil error.
func (s *Store) Update(fn func(*Transaction) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Transaction{tx: tx})
	})
}

// View runs fn inside a read transaction.
func (s *Store) View(fn func(*Transaction) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Transaction{tx: tx})
	})
}

// Initialize seeds an empty store with the genesis open block: its
// account record, full-supply representation, frontier entry, checksum,
// and the empty dividend ledger.
func (s *Store) Initialize(txn *Transaction, genesis *core.Genesis) error {
	hash := genesis.Hash()
	account := genesis.Open.Hashables.Account
	if err := s.BlockPut(txn, hash, genesis.Open); err != nil {
		return err
	}
	info := core.AccountInfo{
		Head:          hash,
		RepBlock:      hash,
		OpenBlock:     hash,
		DividendBlock: core.DividendBase,
		Balance:       core.GenesisAmount,
		Modified:      secondsSinceEpoch(),
		BlockCount:    1,
		Epoch:         core.Epoch0,
	}
	if err := s.AccountPut(txn, account, info); err != nil {
		return err
	}
	if err := s.RepresentationPut(txn, account, core.GenesisAmount); err != nil {
		return err
	}
	var sum core.Checksum
	sum.Xor(hash)
	if err := s.ChecksumPut(txn, 0, 0, sum); err != nil {
		return err
	}
	if err := s.FrontierPut(txn, hash, account); err != nil {
		return err
	}
	return s.DividendPut(txn, core.DividendInfo{
		Head:       core.DividendBase,
		Balance:    core.Uint128{},
		Modified:   0,
		BlockCount: 0,
		Epoch:      core.Epoch1,
	})
}

// AccountCountsEmpty reports whether no account record exists yet.
func (s *Store) AccountCountsEmpty(txn *Transaction) bool {
	return s.AccountCount(txn) == 0
}

func secondsSinceEpoch() uint64 {
	return uint64(time.Now().Unix())
}

// metaKey builds the 32-byte big-endian meta table key.
func metaKey(n uint64) []byte {
	key := make([]byte, 32)
	key[31] = byte(n)
	key[30] = byte(n >> 8)
	key[29] = byte(n >> 16)
	key[28] = byte(n >> 24)
	return key
}

// VersionPut stores the schema version as a 32-byte big-endian integer
// under meta key 1.
func (s *Store) VersionPut(txn *Transaction, version int) error {
	value := make([]byte, 32)
	value[31] = byte(version)
	value[30] = byte(version >> 8)
	return txn.tx.Bucket(bucketMeta).Put(metaKey(1), value)
}

// VersionGet returns the schema version, defaulting to 1 when absent.
func (s *Store) VersionGet(txn *Transaction) int {
	v := txn.tx.Bucket(bucketMeta).Get(metaKey(1))
	if v == nil || len(v) != 32 {
		return 1
	}
	return int(v[31]) | int(v[30])<<8
}

// GetNodeID returns the node identity secret under meta key 3,
// generating and persisting one on first use. Requires a write
// transaction.
func (s *Store) GetNodeID(txn *Transaction) (core.RawKey, error) {
	var id core.RawKey
	v := txn.tx.Bucket(bucketMeta).Get(metaKey(3))
	if len(v) == 32 {
		copy(id[:], v)
		return id, nil
	}
	if _, err := rand.Read(id[:]); err != nil {
		return id, fmt.Errorf("store: node id: %w", err)
	}
	if err := txn.tx.Bucket(bucketMeta).Put(metaKey(3), id[:]); err != nil {
		return id, err
	}
	return id, nil
}

// DeleteNodeID removes the node identity secret.
func (s *Store) DeleteNodeID(txn *Transaction) error {
	return txn.tx.Bucket(bucketMeta).Delete(metaKey(3))
}

// Params returns the network constants this store was opened with.
func (s *Store) Params() core.NetworkParams {
	return s.params
}
