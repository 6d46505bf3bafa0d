package core

import (
	"encoding/binary"
	"fmt"
)

type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b, pos: 0}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, fmt.Errorf("parse: truncated")
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readHash() (BlockHash, error) {
	var h BlockHash
	b, err := c.readExact(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func (c *cursor) readAccount() (Account, error) {
	h, err := c.readHash()
	return Account(h), err
}

func (c *cursor) readAmount() (Uint128, error) {
	b, err := c.readExact(16)
	if err != nil {
		return Uint128{}, err
	}
	var raw [16]byte
	copy(raw[:], b)
	return U128FromBytes(raw), nil
}

func (c *cursor) readSignature() (Signature, error) {
	var s Signature
	b, err := c.readExact(64)
	if err != nil {
		return s, err
	}
	copy(s[:], b)
	return s, nil
}

func (c *cursor) readU64BE() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (c *cursor) readU64LE() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func appendU64BE(out []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(out, tmp[:]...)
}

func appendU64LE(out []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(out, tmp[:]...)
}

func appendAmount(out []byte, a Uint128) []byte {
	b := a.Bytes()
	return append(out, b[:]...)
}
