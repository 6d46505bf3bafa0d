package store

import (
	"path/filepath"
	"testing"

	"chratos.dev/node/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data.ldb"), core.NetworkTest, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func initializeGenesis(t *testing.T, s *Store) *core.Genesis {
	t.Helper()
	genesis, err := core.NewGenesis(core.NetworkTest)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if err := s.Update(func(txn *Transaction) error {
		return s.Initialize(txn, genesis)
	}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return genesis
}

func TestOpenCreatesSchemaVersion(t *testing.T) {
	s := openTestStore(t)
	if err := s.View(func(txn *Transaction) error {
		if got := s.VersionGet(txn); got != SchemaVersion {
			t.Fatalf("version %d, want %d", got, SchemaVersion)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestOpenRejectsFutureSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.ldb")
	s, err := Open(path, core.NetworkTest, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Update(func(txn *Transaction) error {
		return s.VersionPut(txn, SchemaVersion+1)
	}); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := Open(path, core.NetworkTest, nil); err == nil {
		t.Fatalf("future schema accepted")
	}
}

func TestInitializeGenesis(t *testing.T) {
	s := openTestStore(t)
	genesis := initializeGenesis(t, s)
	account := genesis.Open.Hashables.Account

	if err := s.View(func(txn *Transaction) error {
		info, err := s.AccountGet(txn, account)
		if err != nil {
			t.Fatalf("account get: %v", err)
		}
		if info.Head != genesis.Hash() || info.OpenBlock != genesis.Hash() {
			t.Fatalf("genesis account record wrong")
		}
		if !info.Balance.Equal(core.GenesisAmount) {
			t.Fatalf("genesis balance %s", info.Balance.EncodeDec())
		}
		if info.BlockCount != 1 {
			t.Fatalf("genesis block count %d", info.BlockCount)
		}
		if !info.DividendBlock.IsZero() {
			t.Fatalf("genesis dividend pointer should be the base")
		}
		if weight := s.RepresentationGet(txn, account); !weight.Equal(core.GenesisAmount) {
			t.Fatalf("genesis weight %s", weight.EncodeDec())
		}
		if s.FrontierGet(txn, genesis.Hash()) != account {
			t.Fatalf("genesis frontier missing")
		}
		dividend := s.DividendGet(txn)
		if dividend.Head != core.DividendBase || dividend.BlockCount != 0 {
			t.Fatalf("dividend singleton not empty")
		}
		if !s.BlockExists(txn, genesis.Hash()) {
			t.Fatalf("genesis block missing")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestNodeIDPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.ldb")
	s, err := Open(path, core.NetworkTest, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var first core.RawKey
	if err := s.Update(func(txn *Transaction) error {
		first, err = s.GetNodeID(txn)
		return err
	}); err != nil {
		t.Fatalf("node id: %v", err)
	}
	if first == (core.RawKey{}) {
		t.Fatalf("node id not generated")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path, core.NetworkTest, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	var second core.RawKey
	if err := s.Update(func(txn *Transaction) error {
		second, err = s.GetNodeID(txn)
		return err
	}); err != nil {
		t.Fatalf("node id: %v", err)
	}
	if first != second {
		t.Fatalf("node id changed across reopen")
	}

	if err := s.Update(func(txn *Transaction) error {
		if err := s.DeleteNodeID(txn); err != nil {
			return err
		}
		second, err = s.GetNodeID(txn)
		return err
	}); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if first == second {
		t.Fatalf("node id unchanged after delete")
	}
}

func TestAccountRecordRoundTrip(t *testing.T) {
	s := openTestStore(t)
	var account core.Account
	account[0] = 9
	info := core.AccountInfo{
		Head:          core.BlockHash{1},
		RepBlock:      core.BlockHash{2},
		OpenBlock:     core.BlockHash{3},
		DividendBlock: core.BlockHash{4},
		Balance:       core.U128FromUint64(555),
		Modified:      12345,
		BlockCount:    7,
		Epoch:         core.Epoch1,
	}
	if err := s.Update(func(txn *Transaction) error {
		return s.AccountPut(txn, account, info)
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.View(func(txn *Transaction) error {
		got, err := s.AccountGet(txn, account)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != info {
			t.Fatalf("record mismatch: %+v vs %+v", got, info)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	// Epoch change moves the record between table generations.
	info.Epoch = core.Epoch0
	if err := s.Update(func(txn *Transaction) error {
		if err := s.AccountDel(txn, account); err != nil {
			return err
		}
		return s.AccountPut(txn, account, info)
	}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := s.View(func(txn *Transaction) error {
		got, err := s.AccountGet(txn, account)
		if err != nil {
			return err
		}
		if got.Epoch != core.Epoch0 {
			t.Fatalf("epoch %d after rewrite", got.Epoch)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestChecksumSlot(t *testing.T) {
	s := openTestStore(t)
	if err := s.Update(func(txn *Transaction) error {
		sum, err := s.ChecksumGet(txn, 0, 0)
		if err != nil {
			t.Fatalf("checksum missing after open: %v", err)
		}
		sum.Xor(core.BlockHash{0xaa})
		if err := s.ChecksumPut(txn, 0, 0, sum); err != nil {
			return err
		}
		got, err := s.ChecksumGet(txn, 0, 0)
		if err != nil {
			return err
		}
		if got != sum {
			t.Fatalf("checksum not stored")
		}
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
}
