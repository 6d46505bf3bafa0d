package core

import "fmt"

// Epoch tags which table generation an account or pending entry belongs
// to, permitting in-place schema migrations.
type Epoch uint8

const (
	EpochInvalid     Epoch = 0
	EpochUnspecified Epoch = 1
	Epoch0           Epoch = 2
	Epoch1           Epoch = 3
)

func MaxEpoch(a, b Epoch) Epoch {
	if a > b {
		return a
	}
	return b
}

// AccountInfo is the latest information about an account. The epoch is not
// serialized; it is implied by which accounts table holds the record.
type AccountInfo struct {
	Head          BlockHash
	RepBlock      BlockHash
	OpenBlock     BlockHash
	DividendBlock BlockHash
	Balance       Uint128
	// Seconds since posix epoch.
	Modified   uint64
	BlockCount uint64
	Epoch      Epoch
}

const AccountInfoSize = 32 + 32 + 32 + 32 + 16 + 8 + 8

func (i *AccountInfo) Serialize() []byte {
	out := make([]byte, 0, AccountInfoSize)
	out = append(out, i.Head[:]...)
	out = append(out, i.RepBlock[:]...)
	out = append(out, i.OpenBlock[:]...)
	out = append(out, i.DividendBlock[:]...)
	out = appendAmount(out, i.Balance)
	out = appendU64LE(out, i.Modified)
	out = appendU64LE(out, i.BlockCount)
	return out
}

func (i *AccountInfo) Deserialize(data []byte) error {
	if len(data) != AccountInfoSize {
		return fmt.Errorf("account info: bad size %d", len(data))
	}
	c := newCursor(data)
	i.Head, _ = c.readHash()
	i.RepBlock, _ = c.readHash()
	i.OpenBlock, _ = c.readHash()
	i.DividendBlock, _ = c.readHash()
	i.Balance, _ = c.readAmount()
	i.Modified, _ = c.readU64LE()
	i.BlockCount, _ = c.readU64LE()
	return nil
}

// DividendInfo is the dividend-ledger singleton: the chain head and the
// cumulative balance distributed.
type DividendInfo struct {
	Head       BlockHash
	Balance    Uint128
	Modified   uint64
	BlockCount uint64
	Epoch      Epoch
}

const DividendInfoSize = 32 + 16 + 8 + 8

func (i *DividendInfo) Serialize() []byte {
	out := make([]byte, 0, DividendInfoSize)
	out = append(out, i.Head[:]...)
	out = appendAmount(out, i.Balance)
	out = appendU64LE(out, i.Modified)
	out = appendU64LE(out, i.BlockCount)
	return out
}

func (i *DividendInfo) Deserialize(data []byte) error {
	if len(data) != DividendInfoSize {
		return fmt.Errorf("dividend info: bad size %d", len(data))
	}
	c := newCursor(data)
	i.Head, _ = c.readHash()
	i.Balance, _ = c.readAmount()
	i.Modified, _ = c.readU64LE()
	i.BlockCount, _ = c.readU64LE()
	i.Epoch = Epoch1
	return nil
}

// PendingKey addresses an uncollected send: (receiving account, send hash).
type PendingKey struct {
	Account Account
	Hash    BlockHash
}

func (k PendingKey) Bytes() []byte {
	out := make([]byte, 0, 64)
	out = append(out, k.Account[:]...)
	return append(out, k.Hash[:]...)
}

func PendingKeyFromBytes(data []byte) (PendingKey, error) {
	var k PendingKey
	if len(data) != 64 {
		return k, fmt.Errorf("pending key: bad size %d", len(data))
	}
	copy(k.Account[:], data[:32])
	copy(k.Hash[:], data[32:])
	return k, nil
}

// PendingInfo describes an uncollected send: who sent it, how much, and
// the dividend-chain head the sender had observed. The epoch is implied by
// the pending table generation.
type PendingInfo struct {
	Source   Account
	Amount   Uint128
	Dividend BlockHash
	Epoch    Epoch
}

const PendingInfoSize = 32 + 16 + 32

func (i *PendingInfo) Serialize() []byte {
	out := make([]byte, 0, PendingInfoSize)
	out = append(out, i.Source[:]...)
	out = appendAmount(out, i.Amount)
	return append(out, i.Dividend[:]...)
}

func (i *PendingInfo) Deserialize(data []byte) error {
	if len(data) != PendingInfoSize {
		return fmt.Errorf("pending info: bad size %d", len(data))
	}
	c := newCursor(data)
	i.Source, _ = c.readAccount()
	i.Amount, _ = c.readAmount()
	i.Dividend, _ = c.readHash()
	return nil
}

// BlockInfo is a cached (account, balance) snapshot recorded every
// BlockInfoMax legacy blocks so chain walks can short-circuit.
type BlockInfo struct {
	Account Account
	Balance Uint128
}

const BlockInfoSize = 32 + 16

func (i *BlockInfo) Serialize() []byte {
	out := make([]byte, 0, BlockInfoSize)
	out = append(out, i.Account[:]...)
	return appendAmount(out, i.Balance)
}

func (i *BlockInfo) Deserialize(data []byte) error {
	if len(data) != BlockInfoSize {
		return fmt.Errorf("block info: bad size %d", len(data))
	}
	c := newCursor(data)
	i.Account, _ = c.readAccount()
	i.Balance, _ = c.readAmount()
	return nil
}
