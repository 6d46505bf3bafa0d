package core

import (
	"crypto/subtle"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
)

// The network signs with ed25519 instantiated over BLAKE2b-512 instead of
// SHA-512, so crypto/ed25519 cannot be used; the curve arithmetic runs on
// filippo.io/edwards25519 directly.

// PublicKey derives the account public key from a private key seed.
func PublicKey(prv RawKey) Account {
	digest := blake2b.Sum512(prv[:])
	s, err := new(edwards25519.Scalar).SetBytesWithClamping(digest[:32])
	if err != nil {
		panic(err)
	}
	A := new(edwards25519.Point).ScalarBaseMult(s)
	var pub Account
	copy(pub[:], A.Bytes())
	return pub
}

// SignMessage signs the 32-byte message (a block hash) with the seed.
func SignMessage(prv RawKey, pub Account, message BlockHash) Signature {
	digest := blake2b.Sum512(prv[:])
	s, err := new(edwards25519.Scalar).SetBytesWithClamping(digest[:32])
	if err != nil {
		panic(err)
	}
	prefix := digest[32:]

	rh, _ := blake2b.New512(nil)
	rh.Write(prefix)
	rh.Write(message[:])
	var rDigest [64]byte
	rh.Sum(rDigest[:0])
	r, err := new(edwards25519.Scalar).SetUniformBytes(rDigest[:])
	if err != nil {
		panic(err)
	}
	R := new(edwards25519.Point).ScalarBaseMult(r)

	kh, _ := blake2b.New512(nil)
	kh.Write(R.Bytes())
	kh.Write(pub[:])
	kh.Write(message[:])
	var kDigest [64]byte
	kh.Sum(kDigest[:0])
	k, err := new(edwards25519.Scalar).SetUniformBytes(kDigest[:])
	if err != nil {
		panic(err)
	}

	S := new(edwards25519.Scalar).MultiplyAdd(k, s, r)

	var sig Signature
	copy(sig[:32], R.Bytes())
	copy(sig[32:], S.Bytes())
	return sig
}

// ValidateMessage reports whether the signature fails to verify under the
// account key. The error-polarity (true means invalid) matches how the
// ledger processor consumes it.
func ValidateMessage(pub Account, message BlockHash, sig Signature) bool {
	A, err := new(edwards25519.Point).SetBytes(pub[:])
	if err != nil {
		return true
	}
	S, err := new(edwards25519.Scalar).SetCanonicalBytes(sig[32:])
	if err != nil {
		return true
	}

	kh, _ := blake2b.New512(nil)
	kh.Write(sig[:32])
	kh.Write(pub[:])
	kh.Write(message[:])
	var kDigest [64]byte
	kh.Sum(kDigest[:0])
	k, err := new(edwards25519.Scalar).SetUniformBytes(kDigest[:])
	if err != nil {
		return true
	}

	minusA := new(edwards25519.Point).Negate(A)
	R := new(edwards25519.Point).VarTimeDoubleScalarBaseMult(k, minusA, S)
	return subtle.ConstantTimeCompare(R.Bytes(), sig[:32]) != 1
}
