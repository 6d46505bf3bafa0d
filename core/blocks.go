package core

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// BlockType is the one-byte wire tag preceding a serialized block.
type BlockType byte

const (
	BlockTypeInvalid   BlockType = 0
	BlockTypeNotABlock BlockType = 1
	BlockTypeState     BlockType = 2
	BlockTypeDividend  BlockType = 3
	BlockTypeClaim     BlockType = 4
	BlockTypeSend      BlockType = 5
	BlockTypeReceive   BlockType = 6
	BlockTypeOpen      BlockType = 7
	BlockTypeChange    BlockType = 8
)

func (t BlockType) String() string {
	switch t {
	case BlockTypeNotABlock:
		return "not_a_block"
	case BlockTypeState:
		return "state"
	case BlockTypeDividend:
		return "dividend"
	case BlockTypeClaim:
		return "claim"
	case BlockTypeSend:
		return "send"
	case BlockTypeReceive:
		return "receive"
	case BlockTypeOpen:
		return "open"
	case BlockTypeChange:
		return "change"
	}
	return "invalid"
}

// Serialized sizes, including signature and work.
const (
	SendBlockSize     = 32 + 32 + 16 + 32 + 64 + 8
	ReceiveBlockSize  = 32 + 32 + 32 + 64 + 8
	OpenBlockSize     = 32 + 32 + 32 + 32 + 64 + 8
	ChangeBlockSize   = 32 + 32 + 32 + 64 + 8
	StateBlockSize    = 32 + 32 + 32 + 16 + 32 + 32 + 64 + 8
	DividendBlockSize = 32 + 32 + 32 + 16 + 32 + 64 + 8
	ClaimBlockSize    = 32 + 32 + 32 + 16 + 32 + 64 + 8
)

// Block is one member of an account chain. Hash covers the hashable fields
// only; Root is the key proof-of-work is computed against and the key used
// for fork detection.
type Block interface {
	Hash() BlockHash
	Previous() BlockHash
	// Source block for open/receive blocks, zero otherwise.
	Source() BlockHash
	// Previous block, or the account for opening blocks.
	Root() BlockHash
	// Link field for state blocks, zero otherwise.
	Link() BlockHash
	// Dividend-chain head observed when the block was signed.
	Dividend() BlockHash
	Representative() Account
	Account() Account
	Type() BlockType
	BlockSignature() Signature
	SetSignature(Signature)
	BlockWork() uint64
	SetWork(uint64)
	Serialize() []byte
	ValidPredecessor(Block) bool
	ToJSON() ([]byte, error)
}

func hashBlock(chunks ...[]byte) BlockHash {
	h, _ := blake2b.New256(nil)
	for _, c := range chunks {
		h.Write(c)
	}
	var out BlockHash
	copy(out[:], h.Sum(nil))
	return out
}

// legacyPredecessor reports whether a legacy block may follow the given
// predecessor type. State blocks terminate legacy chains.
func legacyPredecessor(t BlockType) bool {
	switch t {
	case BlockTypeSend, BlockTypeReceive, BlockTypeOpen, BlockTypeChange, BlockTypeDividend:
		return true
	}
	return false
}

// SendHashables are the hashed fields of a legacy send.
type SendHashables struct {
	Previous    BlockHash
	Destination Account
	Balance     Uint128
	Dividend    BlockHash
}

type SendBlock struct {
	Hashables SendHashables
	Signature Signature
	Work      uint64
}

// NewSendBlock builds and signs a legacy send.
func NewSendBlock(previous BlockHash, destination Account, balance Uint128, dividend BlockHash, prv RawKey, pub Account, work uint64) *SendBlock {
	b := &SendBlock{
		Hashables: SendHashables{Previous: previous, Destination: destination, Balance: balance, Dividend: dividend},
		Work:      work,
	}
	b.Signature = SignMessage(prv, pub, b.Hash())
	return b
}

func (b *SendBlock) Hash() BlockHash {
	bal := b.Hashables.Balance.Bytes()
	return hashBlock(b.Hashables.Previous[:], b.Hashables.Destination[:], bal[:], b.Hashables.Dividend[:])
}

func (b *SendBlock) Previous() BlockHash       { return b.Hashables.Previous }
func (b *SendBlock) Source() BlockHash         { return BlockHash{} }
func (b *SendBlock) Root() BlockHash           { return b.Hashables.Previous }
func (b *SendBlock) Link() BlockHash           { return BlockHash{} }
func (b *SendBlock) Dividend() BlockHash       { return b.Hashables.Dividend }
func (b *SendBlock) Representative() Account   { return Account{} }
func (b *SendBlock) Account() Account          { return Account{} }
func (b *SendBlock) Type() BlockType           { return BlockTypeSend }
func (b *SendBlock) BlockSignature() Signature { return b.Signature }
func (b *SendBlock) SetSignature(s Signature)  { b.Signature = s }
func (b *SendBlock) BlockWork() uint64         { return b.Work }
func (b *SendBlock) SetWork(w uint64)          { b.Work = w }

func (b *SendBlock) Serialize() []byte {
	out := make([]byte, 0, SendBlockSize)
	out = append(out, b.Hashables.Previous[:]...)
	out = append(out, b.Hashables.Destination[:]...)
	out = appendAmount(out, b.Hashables.Balance)
	out = append(out, b.Hashables.Dividend[:]...)
	out = append(out, b.Signature[:]...)
	out = appendU64LE(out, b.Work)
	return out
}

func (b *SendBlock) ValidPredecessor(prev Block) bool {
	return legacyPredecessor(prev.Type())
}

func deserializeSend(c *cursor) (*SendBlock, error) {
	var b SendBlock
	var err error
	if b.Hashables.Previous, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Destination, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Balance, err = c.readAmount(); err != nil {
		return nil, err
	}
	if b.Hashables.Dividend, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Signature, err = c.readSignature(); err != nil {
		return nil, err
	}
	if b.Work, err = c.readU64LE(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ReceiveHashables are the hashed fields of a legacy receive.
type ReceiveHashables struct {
	Previous BlockHash
	Source   BlockHash
	Dividend BlockHash
}

type ReceiveBlock struct {
	Hashables ReceiveHashables
	Signature Signature
	Work      uint64
}

func NewReceiveBlock(previous, source, dividend BlockHash, prv RawKey, pub Account, work uint64) *ReceiveBlock {
	b := &ReceiveBlock{
		Hashables: ReceiveHashables{Previous: previous, Source: source, Dividend: dividend},
		Work:      work,
	}
	b.Signature = SignMessage(prv, pub, b.Hash())
	return b
}

func (b *ReceiveBlock) Hash() BlockHash {
	return hashBlock(b.Hashables.Previous[:], b.Hashables.Source[:], b.Hashables.Dividend[:])
}

func (b *ReceiveBlock) Previous() BlockHash       { return b.Hashables.Previous }
func (b *ReceiveBlock) Source() BlockHash         { return b.Hashables.Source }
func (b *ReceiveBlock) Root() BlockHash           { return b.Hashables.Previous }
func (b *ReceiveBlock) Link() BlockHash           { return BlockHash{} }
func (b *ReceiveBlock) Dividend() BlockHash       { return b.Hashables.Dividend }
func (b *ReceiveBlock) Representative() Account   { return Account{} }
func (b *ReceiveBlock) Account() Account          { return Account{} }
func (b *ReceiveBlock) Type() BlockType           { return BlockTypeReceive }
func (b *ReceiveBlock) BlockSignature() Signature { return b.Signature }
func (b *ReceiveBlock) SetSignature(s Signature)  { b.Signature = s }
func (b *ReceiveBlock) BlockWork() uint64         { return b.Work }
func (b *ReceiveBlock) SetWork(w uint64)          { b.Work = w }

func (b *ReceiveBlock) Serialize() []byte {
	out := make([]byte, 0, ReceiveBlockSize)
	out = append(out, b.Hashables.Previous[:]...)
	out = append(out, b.Hashables.Source[:]...)
	out = append(out, b.Hashables.Dividend[:]...)
	out = append(out, b.Signature[:]...)
	out = appendU64LE(out, b.Work)
	return out
}

func (b *ReceiveBlock) ValidPredecessor(prev Block) bool {
	return legacyPredecessor(prev.Type())
}

func deserializeReceive(c *cursor) (*ReceiveBlock, error) {
	var b ReceiveBlock
	var err error
	if b.Hashables.Previous, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Source, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Dividend, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Signature, err = c.readSignature(); err != nil {
		return nil, err
	}
	if b.Work, err = c.readU64LE(); err != nil {
		return nil, err
	}
	return &b, nil
}

// OpenHashables are the hashed fields of a legacy open.
type OpenHashables struct {
	Source         BlockHash
	Representative Account
	Account        Account
	Dividend       BlockHash
}

type OpenBlock struct {
	Hashables OpenHashables
	Signature Signature
	Work      uint64
}

func NewOpenBlock(source BlockHash, representative, account Account, dividend BlockHash, prv RawKey, pub Account, work uint64) *OpenBlock {
	b := &OpenBlock{
		Hashables: OpenHashables{Source: source, Representative: representative, Account: account, Dividend: dividend},
		Work:      work,
	}
	b.Signature = SignMessage(prv, pub, b.Hash())
	return b
}

func (b *OpenBlock) Hash() BlockHash {
	return hashBlock(b.Hashables.Source[:], b.Hashables.Representative[:], b.Hashables.Account[:], b.Hashables.Dividend[:])
}

func (b *OpenBlock) Previous() BlockHash       { return BlockHash{} }
func (b *OpenBlock) Source() BlockHash         { return b.Hashables.Source }
func (b *OpenBlock) Root() BlockHash           { return BlockHash(b.Hashables.Account) }
func (b *OpenBlock) Link() BlockHash           { return BlockHash{} }
func (b *OpenBlock) Dividend() BlockHash       { return b.Hashables.Dividend }
func (b *OpenBlock) Representative() Account   { return b.Hashables.Representative }
func (b *OpenBlock) Account() Account          { return b.Hashables.Account }
func (b *OpenBlock) Type() BlockType           { return BlockTypeOpen }
func (b *OpenBlock) BlockSignature() Signature { return b.Signature }
func (b *OpenBlock) SetSignature(s Signature)  { b.Signature = s }
func (b *OpenBlock) BlockWork() uint64         { return b.Work }
func (b *OpenBlock) SetWork(w uint64)          { b.Work = w }

func (b *OpenBlock) Serialize() []byte {
	out := make([]byte, 0, OpenBlockSize)
	out = append(out, b.Hashables.Source[:]...)
	out = append(out, b.Hashables.Representative[:]...)
	out = append(out, b.Hashables.Account[:]...)
	out = append(out, b.Hashables.Dividend[:]...)
	out = append(out, b.Signature[:]...)
	out = appendU64LE(out, b.Work)
	return out
}

func (b *OpenBlock) ValidPredecessor(Block) bool { return false }

func deserializeOpen(c *cursor) (*OpenBlock, error) {
	var b OpenBlock
	var err error
	if b.Hashables.Source, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Representative, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Account, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Dividend, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Signature, err = c.readSignature(); err != nil {
		return nil, err
	}
	if b.Work, err = c.readU64LE(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ChangeHashables are the hashed fields of a legacy representative change.
type ChangeHashables struct {
	Previous       BlockHash
	Representative Account
	Dividend       BlockHash
}

type ChangeBlock struct {
	Hashables ChangeHashables
	Signature Signature
	Work      uint64
}

func NewChangeBlock(previous BlockHash, representative Account, dividend BlockHash, prv RawKey, pub Account, work uint64) *ChangeBlock {
	b := &ChangeBlock{
		Hashables: ChangeHashables{Previous: previous, Representative: representative, Dividend: dividend},
		Work:      work,
	}
	b.Signature = SignMessage(prv, pub, b.Hash())
	return b
}

func (b *ChangeBlock) Hash() BlockHash {
	return hashBlock(b.Hashables.Previous[:], b.Hashables.Representative[:], b.Hashables.Dividend[:])
}

func (b *ChangeBlock) Previous() BlockHash       { return b.Hashables.Previous }
func (b *ChangeBlock) Source() BlockHash         { return BlockHash{} }
func (b *ChangeBlock) Root() BlockHash           { return b.Hashables.Previous }
func (b *ChangeBlock) Link() BlockHash           { return BlockHash{} }
func (b *ChangeBlock) Dividend() BlockHash       { return b.Hashables.Dividend }
func (b *ChangeBlock) Representative() Account   { return b.Hashables.Representative }
func (b *ChangeBlock) Account() Account          { return Account{} }
func (b *ChangeBlock) Type() BlockType           { return BlockTypeChange }
func (b *ChangeBlock) BlockSignature() Signature { return b.Signature }
func (b *ChangeBlock) SetSignature(s Signature)  { b.Signature = s }
func (b *ChangeBlock) BlockWork() uint64         { return b.Work }
func (b *ChangeBlock) SetWork(w uint64)          { b.Work = w }

func (b *ChangeBlock) Serialize() []byte {
	out := make([]byte, 0, ChangeBlockSize)
	out = append(out, b.Hashables.Previous[:]...)
	out = append(out, b.Hashables.Representative[:]...)
	out = append(out, b.Hashables.Dividend[:]...)
	out = append(out, b.Signature[:]...)
	out = appendU64LE(out, b.Work)
	return out
}

func (b *ChangeBlock) ValidPredecessor(prev Block) bool {
	return legacyPredecessor(prev.Type())
}

func deserializeChange(c *cursor) (*ChangeBlock, error) {
	var b ChangeBlock
	var err error
	if b.Hashables.Previous, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Representative, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Dividend, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Signature, err = c.readSignature(); err != nil {
		return nil, err
	}
	if b.Work, err = c.readU64LE(); err != nil {
		return nil, err
	}
	return &b, nil
}

// StateHashables are the hashed fields of a universal block. Link carries
// the destination account when sending, the source hash when receiving, and
// zero for a pure representative change.
type StateHashables struct {
	Account        Account
	Previous       BlockHash
	Representative Account
	Balance        Uint128
	Link           BlockHash
	Dividend       BlockHash
}

type StateBlock struct {
	Hashables StateHashables
	Signature Signature
	Work      uint64
}

func NewStateBlock(account Account, previous BlockHash, representative Account, balance Uint128, link, dividend BlockHash, prv RawKey, pub Account, work uint64) *StateBlock {
	b := &StateBlock{
		Hashables: StateHashables{Account: account, Previous: previous, Representative: representative, Balance: balance, Link: link, Dividend: dividend},
		Work:      work,
	}
	b.Signature = SignMessage(prv, pub, b.Hash())
	return b
}

// statePreamble is the block type tag zero-extended to 32 bytes, hashed
// ahead of the fields so a state hash can never collide with a legacy hash.
var statePreamble = func() [32]byte {
	var p [32]byte
	p[31] = byte(BlockTypeState)
	return p
}()

func (b *StateBlock) Hash() BlockHash {
	bal := b.Hashables.Balance.Bytes()
	return hashBlock(statePreamble[:], b.Hashables.Account[:], b.Hashables.Previous[:], b.Hashables.Representative[:], bal[:], b.Hashables.Link[:], b.Hashables.Dividend[:])
}

func (b *StateBlock) Previous() BlockHash { return b.Hashables.Previous }
func (b *StateBlock) Source() BlockHash   { return BlockHash{} }

func (b *StateBlock) Root() BlockHash {
	if !b.Hashables.Previous.IsZero() {
		return b.Hashables.Previous
	}
	return BlockHash(b.Hashables.Account)
}

func (b *StateBlock) Link() BlockHash           { return b.Hashables.Link }
func (b *StateBlock) Dividend() BlockHash       { return b.Hashables.Dividend }
func (b *StateBlock) Representative() Account   { return b.Hashables.Representative }
func (b *StateBlock) Account() Account          { return b.Hashables.Account }
func (b *StateBlock) Type() BlockType           { return BlockTypeState }
func (b *StateBlock) BlockSignature() Signature { return b.Signature }
func (b *StateBlock) SetSignature(s Signature)  { b.Signature = s }
func (b *StateBlock) BlockWork() uint64         { return b.Work }
func (b *StateBlock) SetWork(w uint64)          { b.Work = w }

func (b *StateBlock) Serialize() []byte {
	out := make([]byte, 0, StateBlockSize)
	out = append(out, b.Hashables.Account[:]...)
	out = append(out, b.Hashables.Previous[:]...)
	out = append(out, b.Hashables.Representative[:]...)
	out = appendAmount(out, b.Hashables.Balance)
	out = append(out, b.Hashables.Link[:]...)
	out = append(out, b.Hashables.Dividend[:]...)
	out = append(out, b.Signature[:]...)
	out = appendU64BE(out, b.Work)
	return out
}

func (b *StateBlock) ValidPredecessor(Block) bool { return true }

func deserializeState(c *cursor) (*StateBlock, error) {
	var b StateBlock
	var err error
	if b.Hashables.Account, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Previous, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Representative, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Balance, err = c.readAmount(); err != nil {
		return nil, err
	}
	if b.Hashables.Link, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Dividend, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Signature, err = c.readSignature(); err != nil {
		return nil, err
	}
	if b.Work, err = c.readU64BE(); err != nil {
		return nil, err
	}
	return &b, nil
}

// DividendHashables are the hashed fields of a dividend issuance. Dividend
// names the chain head being extended.
type DividendHashables struct {
	Account        Account
	Previous       BlockHash
	Representative Account
	Balance        Uint128
	Dividend       BlockHash
}

type DividendBlock struct {
	Hashables DividendHashables
	Signature Signature
	Work      uint64
}

func NewDividendBlock(account Account, previous BlockHash, representative Account, balance Uint128, dividend BlockHash, prv RawKey, pub Account, work uint64) *DividendBlock {
	b := &DividendBlock{
		Hashables: DividendHashables{Account: account, Previous: previous, Representative: representative, Balance: balance, Dividend: dividend},
		Work:      work,
	}
	b.Signature = SignMessage(prv, pub, b.Hash())
	return b
}

func (b *DividendBlock) Hash() BlockHash {
	bal := b.Hashables.Balance.Bytes()
	return hashBlock(b.Hashables.Account[:], b.Hashables.Previous[:], b.Hashables.Representative[:], bal[:], b.Hashables.Dividend[:])
}

func (b *DividendBlock) Previous() BlockHash       { return b.Hashables.Previous }
func (b *DividendBlock) Source() BlockHash         { return BlockHash{} }
func (b *DividendBlock) Root() BlockHash           { return b.Hashables.Previous }
func (b *DividendBlock) Link() BlockHash           { return BlockHash{} }
func (b *DividendBlock) Dividend() BlockHash       { return b.Hashables.Dividend }
func (b *DividendBlock) Representative() Account   { return b.Hashables.Representative }
func (b *DividendBlock) Account() Account          { return b.Hashables.Account }
func (b *DividendBlock) Type() BlockType           { return BlockTypeDividend }
func (b *DividendBlock) BlockSignature() Signature { return b.Signature }
func (b *DividendBlock) SetSignature(s Signature)  { b.Signature = s }
func (b *DividendBlock) BlockWork() uint64         { return b.Work }
func (b *DividendBlock) SetWork(w uint64)          { b.Work = w }

func (b *DividendBlock) Serialize() []byte {
	out := make([]byte, 0, DividendBlockSize)
	out = append(out, b.Hashables.Account[:]...)
	out = append(out, b.Hashables.Previous[:]...)
	out = append(out, b.Hashables.Representative[:]...)
	out = appendAmount(out, b.Hashables.Balance)
	out = append(out, b.Hashables.Dividend[:]...)
	out = append(out, b.Signature[:]...)
	out = appendU64LE(out, b.Work)
	return out
}

func (b *DividendBlock) ValidPredecessor(Block) bool { return true }

func deserializeDividend(c *cursor) (*DividendBlock, error) {
	var b DividendBlock
	var err error
	if b.Hashables.Account, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Previous, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Representative, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Balance, err = c.readAmount(); err != nil {
		return nil, err
	}
	if b.Hashables.Dividend, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Signature, err = c.readSignature(); err != nil {
		return nil, err
	}
	if b.Work, err = c.readU64LE(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ClaimHashables are the hashed fields of a dividend claim. Dividend names
// the dividend block whose share is being withdrawn.
type ClaimHashables struct {
	Account        Account
	Previous       BlockHash
	Representative Account
	Balance        Uint128
	Dividend       BlockHash
}

type ClaimBlock struct {
	Hashables ClaimHashables
	Signature Signature
	Work      uint64
}

func NewClaimBlock(account Account, previous BlockHash, representative Account, balance Uint128, dividend BlockHash, prv RawKey, pub Account, work uint64) *ClaimBlock {
	b := &ClaimBlock{
		Hashables: ClaimHashables{Account: account, Previous: previous, Representative: representative, Balance: balance, Dividend: dividend},
		Work:      work,
	}
	b.Signature = SignMessage(prv, pub, b.Hash())
	return b
}

func (b *ClaimBlock) Hash() BlockHash {
	bal := b.Hashables.Balance.Bytes()
	return hashBlock(b.Hashables.Account[:], b.Hashables.Previous[:], b.Hashables.Representative[:], bal[:], b.Hashables.Dividend[:])
}

func (b *ClaimBlock) Previous() BlockHash       { return b.Hashables.Previous }
func (b *ClaimBlock) Source() BlockHash         { return BlockHash{} }
func (b *ClaimBlock) Root() BlockHash           { return b.Hashables.Previous }
func (b *ClaimBlock) Link() BlockHash           { return BlockHash{} }
func (b *ClaimBlock) Dividend() BlockHash       { return b.Hashables.Dividend }
func (b *ClaimBlock) Representative() Account   { return b.Hashables.Representative }
func (b *ClaimBlock) Account() Account          { return b.Hashables.Account }
func (b *ClaimBlock) Type() BlockType           { return BlockTypeClaim }
func (b *ClaimBlock) BlockSignature() Signature { return b.Signature }
func (b *ClaimBlock) SetSignature(s Signature)  { b.Signature = s }
func (b *ClaimBlock) BlockWork() uint64         { return b.Work }
func (b *ClaimBlock) SetWork(w uint64)          { b.Work = w }

func (b *ClaimBlock) Serialize() []byte {
	out := make([]byte, 0, ClaimBlockSize)
	out = append(out, b.Hashables.Account[:]...)
	out = append(out, b.Hashables.Previous[:]...)
	out = append(out, b.Hashables.Representative[:]...)
	out = appendAmount(out, b.Hashables.Balance)
	out = append(out, b.Hashables.Dividend[:]...)
	out = append(out, b.Signature[:]...)
	out = appendU64LE(out, b.Work)
	return out
}

func (b *ClaimBlock) ValidPredecessor(Block) bool { return true }

func deserializeClaim(c *cursor) (*ClaimBlock, error) {
	var b ClaimBlock
	var err error
	if b.Hashables.Account, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Previous, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Hashables.Representative, err = c.readAccount(); err != nil {
		return nil, err
	}
	if b.Hashables.Balance, err = c.readAmount(); err != nil {
		return nil, err
	}
	if b.Hashables.Dividend, err = c.readHash(); err != nil {
		return nil, err
	}
	if b.Signature, err = c.readSignature(); err != nil {
		return nil, err
	}
	if b.Work, err = c.readU64LE(); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeserializeBlock parses a block of a known type. Trailing bytes after the
// block are left unread so stored values may carry a successor suffix.
func DeserializeBlock(data []byte, t BlockType) (Block, error) {
	c := newCursor(data)
	switch t {
	case BlockTypeSend:
		return deserializeSend(c)
	case BlockTypeReceive:
		return deserializeReceive(c)
	case BlockTypeOpen:
		return deserializeOpen(c)
	case BlockTypeChange:
		return deserializeChange(c)
	case BlockTypeState:
		return deserializeState(c)
	case BlockTypeDividend:
		return deserializeDividend(c)
	case BlockTypeClaim:
		return deserializeClaim(c)
	}
	return nil, fmt.Errorf("parse: unknown block type %d", t)
}

// SerializeBlockTagged prepends the one-byte type tag, the over-the-wire
// form.
func SerializeBlockTagged(b Block) []byte {
	body := b.Serialize()
	out := make([]byte, 0, 1+len(body))
	out = append(out, byte(b.Type()))
	return append(out, body...)
}

// DeserializeBlockTagged parses the tagged wire form and rejects trailing
// bytes.
func DeserializeBlockTagged(data []byte) (Block, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("parse: empty block")
	}
	b, err := DeserializeBlock(data[1:], BlockType(data[0]))
	if err != nil {
		return nil, err
	}
	if len(data) != 1+len(b.Serialize()) {
		return nil, fmt.Errorf("parse: trailing bytes")
	}
	return b, nil
}

// BlockEqual compares two blocks by content.
func BlockEqual(a, b Block) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	abytes := a.Serialize()
	bbytes := b.Serialize()
	if len(abytes) != len(bbytes) {
		return false
	}
	for i := range abytes {
		if abytes[i] != bbytes[i] {
			return false
		}
	}
	return true
}
