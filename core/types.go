package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Account is a 256-bit ed25519 public key.
type Account [32]byte

// BlockHash is a 256-bit BLAKE2b digest of a block's hashables.
type BlockHash [32]byte

// Signature is a 512-bit ed25519-BLAKE2b signature.
type Signature [64]byte

// RawKey is a 256-bit private key seed.
type RawKey [32]byte

// Checksum is the XOR accumulator kept in the checksum table.
type Checksum [32]byte

func (a Account) IsZero() bool   { return a == Account{} }
func (h BlockHash) IsZero() bool { return h == BlockHash{} }

func (h BlockHash) String() string { return strings.ToUpper(hex.EncodeToString(h[:])) }
func (a Account) Hex() string      { return strings.ToUpper(hex.EncodeToString(a[:])) }
func (s Signature) Hex() string    { return strings.ToUpper(hex.EncodeToString(s[:])) }

func HashFromHex(s string) (BlockHash, error) {
	var h BlockHash
	if len(s) != 64 {
		return h, fmt.Errorf("hash: bad hex length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("hash: %w", err)
	}
	copy(h[:], b)
	return h, nil
}

func AccountFromHex(s string) (Account, error) {
	h, err := HashFromHex(s)
	return Account(h), err
}

func SignatureFromHex(s string) (Signature, error) {
	var sig Signature
	if len(s) != 128 {
		return sig, fmt.Errorf("signature: bad hex length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return sig, fmt.Errorf("signature: %w", err)
	}
	copy(sig[:], b)
	return sig, nil
}

const accountPrefix = "chr_"

// accountAlphabet maps 5-bit digits to characters. Ambiguous characters
// (0, 2, l, v) are excluded.
const accountAlphabet = "13456789abcdefghijkmnopqrstuwxyz"

var accountReverse = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(accountAlphabet); i++ {
		table[accountAlphabet[i]] = int8(i)
	}
	return table
}()

// ToAccount renders the key as chr_ followed by 52 base-32 characters of
// the zero-extended 260-bit key and 8 characters of BLAKE2b-40 checksum.
func (a Account) ToAccount() string {
	check, _ := blake2b.New(5, nil)
	check.Write(a[:])
	digest := check.Sum(nil)
	// Checksum digits are emitted from the reversed digest.
	var checksum uint64
	for i := 4; i >= 0; i-- {
		checksum = checksum<<8 | uint64(digest[i])
	}

	var out bytes.Buffer
	out.WriteString(accountPrefix)
	for i := 51; i >= 0; i-- {
		out.WriteByte(accountAlphabet[keyDigit(a, i)])
	}
	for i := 7; i >= 0; i-- {
		out.WriteByte(accountAlphabet[(checksum>>(uint(i)*5))&0x1f])
	}
	return out.String()
}

// keyDigit extracts the i-th 5-bit group of the 260-bit zero-extended key,
// counting from the least significant group.
func keyDigit(a Account, i int) byte {
	bit := uint(i) * 5
	var v uint
	for j := uint(0); j < 5; j++ {
		pos := bit + j
		if pos >= 256 {
			continue
		}
		byteIdx := 31 - int(pos/8)
		if a[byteIdx]&(1<<(pos%8)) != 0 {
			v |= 1 << j
		}
	}
	return byte(v)
}

// AccountFromAddress decodes a chr_ address, rejecting bad lengths, bad
// characters and checksum mismatches.
func AccountFromAddress(s string) (Account, error) {
	var a Account
	if !strings.HasPrefix(s, accountPrefix) {
		return a, fmt.Errorf("account: missing %q prefix", accountPrefix)
	}
	body := s[len(accountPrefix):]
	if len(body) != 60 {
		return a, fmt.Errorf("account: bad length %d", len(body))
	}
	for i := 0; i < 52; i++ {
		d := accountReverse[body[i]]
		if d < 0 {
			return a, fmt.Errorf("account: bad character %q", body[i])
		}
		setKeyDigit(&a, 51-i, byte(d))
	}
	// The top four bits of the 260-bit value must be zero.
	if accountReverse[body[0]] > 1 {
		return a, fmt.Errorf("account: overflow")
	}
	var checksum uint64
	for i := 0; i < 8; i++ {
		d := accountReverse[body[52+i]]
		if d < 0 {
			return a, fmt.Errorf("account: bad character %q", body[52+i])
		}
		checksum = checksum<<5 | uint64(d)
	}
	check, _ := blake2b.New(5, nil)
	check.Write(a[:])
	digest := check.Sum(nil)
	var expected uint64
	for i := 4; i >= 0; i-- {
		expected = expected<<8 | uint64(digest[i])
	}
	if checksum != expected {
		return a, fmt.Errorf("account: checksum mismatch")
	}
	return a, nil
}

func setKeyDigit(a *Account, i int, v byte) {
	bit := uint(i) * 5
	for j := uint(0); j < 5; j++ {
		pos := bit + j
		if pos >= 256 {
			continue
		}
		if v&(1<<j) != 0 {
			a[31-int(pos/8)] |= 1 << (pos % 8)
		}
	}
}

func (c *Checksum) Xor(h BlockHash) {
	for i := range c {
		c[i] ^= h[i]
	}
}
