package core

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// votePrefix domain-separates vote hashes from block hashes.
const votePrefix = "vote "

// Vote is a signed statement by a representative about one or more blocks.
type Vote struct {
	// Vote round sequence number.
	Sequence uint64
	// Blocks carries full blocks; Hashes carries hash-only votes. At
	// least one of the two is non-empty.
	Blocks    []Block
	Hashes    []BlockHash
	Account   Account
	Signature Signature
}

// NewVote builds and signs a vote for a single block.
func NewVote(account Account, prv RawKey, sequence uint64, block Block) *Vote {
	v := &Vote{Sequence: sequence, Blocks: []Block{block}, Account: account}
	v.Signature = SignMessage(prv, account, v.Hash())
	return v
}

// NewVoteHashes builds and signs a hash-only vote.
func NewVoteHashes(account Account, prv RawKey, sequence uint64, hashes []BlockHash) *Vote {
	v := &Vote{Sequence: sequence, Hashes: hashes, Account: account}
	v.Signature = SignMessage(prv, account, v.Hash())
	return v
}

// VoteHashes lists every block hash the vote covers.
func (v *Vote) VoteHashes() []BlockHash {
	out := make([]BlockHash, 0, len(v.Blocks)+len(v.Hashes))
	for _, b := range v.Blocks {
		out = append(out, b.Hash())
	}
	return append(out, v.Hashes...)
}

// Hash digests the vote prefix, the covered hashes, and the sequence.
func (v *Vote) Hash() BlockHash {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(votePrefix))
	for _, bh := range v.VoteHashes() {
		h.Write(bh[:])
	}
	var seq [8]byte
	copy(seq[:], appendU64LE(nil, v.Sequence))
	h.Write(seq[:])
	var out BlockHash
	copy(out[:], h.Sum(nil))
	return out
}

// Validate reports whether the vote signature fails to verify.
func (v *Vote) Validate() bool {
	return ValidateMessage(v.Account, v.Hash(), v.Signature)
}

// Serialize renders account, signature, sequence, then each entry as a
// tagged block or a not-a-block tag followed by a raw hash.
func (v *Vote) Serialize() []byte {
	out := make([]byte, 0, 32+64+8+len(v.Hashes)*33)
	out = append(out, v.Account[:]...)
	out = append(out, v.Signature[:]...)
	out = appendU64LE(out, v.Sequence)
	for _, b := range v.Blocks {
		out = append(out, SerializeBlockTagged(b)...)
	}
	for _, h := range v.Hashes {
		out = append(out, byte(BlockTypeNotABlock))
		out = append(out, h[:]...)
	}
	return out
}

// DeserializeVote parses a serialized vote; at least one block or hash must
// be present.
func DeserializeVote(data []byte) (*Vote, error) {
	c := newCursor(data)
	var v Vote
	var err error
	if v.Account, err = c.readAccount(); err != nil {
		return nil, err
	}
	if v.Signature, err = c.readSignature(); err != nil {
		return nil, err
	}
	if v.Sequence, err = c.readU64LE(); err != nil {
		return nil, err
	}
	for c.remaining() > 0 {
		tag, err := c.readExact(1)
		if err != nil {
			return nil, err
		}
		if BlockType(tag[0]) == BlockTypeNotABlock {
			h, err := c.readHash()
			if err != nil {
				return nil, err
			}
			v.Hashes = append(v.Hashes, h)
			continue
		}
		block, err := DeserializeBlock(c.b[c.pos:], BlockType(tag[0]))
		if err != nil {
			return nil, err
		}
		c.pos += len(block.Serialize())
		v.Blocks = append(v.Blocks, block)
	}
	if len(v.Blocks) == 0 && len(v.Hashes) == 0 {
		return nil, fmt.Errorf("vote: empty")
	}
	return &v, nil
}
