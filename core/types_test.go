package core

import (
	"strings"
	"testing"
)

// Known pair from the test network genesis.
const (
	knownKeyHex  = "B0311EA55708D6A53C75CDBF88300259C6D018522FE3D4D0A242E431F9E8B6D0"
	knownAddress = "chr_3e3j5tkog48pnny9dmfzj1r16pg8t1e76dz5tmac6iq689wyjfpiij4txtdo"
)

func TestAccountEncodeKnownVector(t *testing.T) {
	account, err := AccountFromHex(knownKeyHex)
	if err != nil {
		t.Fatalf("account from hex: %v", err)
	}
	if got := account.ToAccount(); got != knownAddress {
		t.Fatalf("encoded %s, want %s", got, knownAddress)
	}
}

func TestAccountDecodeKnownVector(t *testing.T) {
	account, err := AccountFromAddress(knownAddress)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if account.Hex() != knownKeyHex {
		t.Fatalf("decoded %s, want %s", account.Hex(), knownKeyHex)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	var account Account
	for i := range account {
		account[i] = byte(i * 7)
	}
	decoded, err := AccountFromAddress(account.ToAccount())
	if err != nil {
		t.Fatalf("round trip decode: %v", err)
	}
	if decoded != account {
		t.Fatalf("round trip mismatch")
	}
}

func TestAccountZeroRoundTrip(t *testing.T) {
	address := BurnAccount.ToAccount()
	decoded, err := AccountFromAddress(address)
	if err != nil {
		t.Fatalf("decode burn address: %v", err)
	}
	if decoded != BurnAccount {
		t.Fatalf("burn address round trip mismatch")
	}
}

func TestAccountDecodeRejectsChecksumMismatch(t *testing.T) {
	// Swap the final checksum character for a different alphabet member.
	bad := []byte(knownAddress)
	last := bad[len(bad)-1]
	replacement := byte('1')
	if last == replacement {
		replacement = '3'
	}
	bad[len(bad)-1] = replacement
	if _, err := AccountFromAddress(string(bad)); err == nil {
		t.Fatalf("checksum mismatch accepted")
	}
}

func TestAccountDecodeRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"chr_",
		knownAddress[:len(knownAddress)-1],
		"xrb" + knownAddress[3:],
		"chr_" + strings.Repeat("0", 60), // '0' is not in the alphabet
	}
	for _, c := range cases {
		if _, err := AccountFromAddress(c); err == nil {
			t.Errorf("malformed address %q accepted", c)
		}
	}
}

func TestHashHexRoundTrip(t *testing.T) {
	var h BlockHash
	h[0] = 0xde
	h[31] = 0x01
	decoded, err := HashFromHex(h.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != h {
		t.Fatalf("hash hex round trip mismatch")
	}
	if _, err := HashFromHex("zz"); err == nil {
		t.Fatalf("bad hex accepted")
	}
}

func TestChecksumXorInvolution(t *testing.T) {
	var sum Checksum
	var h BlockHash
	h[7] = 0x42
	sum.Xor(h)
	if sum == (Checksum{}) {
		t.Fatalf("xor did not change the accumulator")
	}
	sum.Xor(h)
	if sum != (Checksum{}) {
		t.Fatalf("double xor should restore the accumulator")
	}
}
