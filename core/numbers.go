package core

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Balances and amounts are 128-bit unsigned integers. Uint128 keeps the
// value in a uint256.Int that is always < 2^128; every operation masks the
// result back into range, matching the wrapping semantics of the wire
// format.
type Uint128 struct {
	v uint256.Int
}

var max128 = func() *uint256.Int {
	var m uint256.Int
	m.SetAllOne()
	m.Rsh(&m, 128)
	return &m
}()

// MaxUint128 is 2^128 - 1, the genesis supply.
func MaxUint128() Uint128 {
	var a Uint128
	a.v.Set(max128)
	return a
}

// SI dividers for the chr unit.
var (
	GchrRatio = mustU128Dec("10000000000000000000000000000000000") // 10^34
	MchrRatio = mustU128Dec("10000000000000000000000000000000")    // 10^31
	KchrRatio = mustU128Dec("10000000000000000000000000000")       // 10^28
	ChrRatio  = mustU128Dec("10000000000000000000000000")          // 10^25
	MchrMilli = mustU128Dec("10000000000000000000000")             // 10^22
	UchrRatio = mustU128Dec("10000000000000000000")                // 10^19

	// MinimumDividendAmount is the smallest pool a dividend block may
	// distribute. Dividends at or below this are rejected.
	MinimumDividendAmount = MchrRatio
)

func mustU128Dec(s string) Uint128 {
	a, err := U128FromDec(s)
	if err != nil {
		panic(err)
	}
	return a
}

func U128FromUint64(v uint64) Uint128 {
	var a Uint128
	a.v.SetUint64(v)
	return a
}

func U128FromDec(s string) (Uint128, error) {
	var a Uint128
	n, err := uint256.FromDecimal(s)
	if err != nil {
		return a, fmt.Errorf("amount: %w", err)
	}
	if n.Cmp(max128) > 0 {
		return a, fmt.Errorf("amount: %q exceeds 128 bits", s)
	}
	a.v.Set(n)
	return a, nil
}

func U128FromHex(s string) (Uint128, error) {
	var a Uint128
	if len(s) == 0 || len(s) > 32 {
		return a, fmt.Errorf("amount: bad hex length %d", len(s))
	}
	n, err := uint256.FromHex("0x" + strings.TrimLeft(strings.ToLower(s), "0") + zeroIfEmpty(s))
	if err != nil {
		return a, fmt.Errorf("amount: %w", err)
	}
	if n.Cmp(max128) > 0 {
		return a, fmt.Errorf("amount: %q exceeds 128 bits", s)
	}
	a.v.Set(n)
	return a, nil
}

// uint256.FromHex rejects "0x" with no digits; preserve a lone zero.
func zeroIfEmpty(s string) string {
	if strings.Trim(s, "0") == "" {
		return "0"
	}
	return ""
}

// U128FromBytes reads a 16-byte big-endian amount.
func U128FromBytes(b [16]byte) Uint128 {
	var a Uint128
	a.v.SetBytes(b[:])
	return a
}

// Bytes returns the 16-byte big-endian form.
func (a Uint128) Bytes() [16]byte {
	var out [16]byte
	full := a.v.Bytes32()
	copy(out[:], full[16:])
	return out
}

func (a Uint128) Add(b Uint128) Uint128 {
	var r Uint128
	r.v.Add(&a.v, &b.v)
	r.v.And(&r.v, max128)
	return r
}

func (a Uint128) Sub(b Uint128) Uint128 {
	var r Uint128
	r.v.Sub(&a.v, &b.v)
	r.v.And(&r.v, max128)
	return r
}

func (a Uint128) Cmp(b Uint128) int {
	return a.v.Cmp(&b.v)
}

func (a Uint128) Lt(b Uint128) bool    { return a.v.Lt(&b.v) }
func (a Uint128) IsZero() bool         { return a.v.IsZero() }
func (a Uint128) Equal(b Uint128) bool { return a.v.Eq(&b.v) }

// Number exposes the value for wide arithmetic; callers must not mutate it.
func (a *Uint128) Number() *uint256.Int {
	return &a.v
}

// EncodeHex renders the amount as 32 uppercase hex characters.
func (a Uint128) EncodeHex() string {
	b := a.Bytes()
	return fmt.Sprintf("%032X", b[:])
}

// EncodeDec renders the amount in decimal with no padding.
func (a Uint128) EncodeDec() string {
	return a.v.Dec()
}
