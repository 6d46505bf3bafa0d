package core

import "testing"

func TestVoteRoundTrip(t *testing.T) {
	prv, pub := testKeypair(20)
	var previous BlockHash
	previous[0] = 1
	block := NewStateBlock(pub, previous, pub, U128FromUint64(5), BlockHash{}, BlockHash{}, prv, pub, 0)

	vote := NewVote(pub, prv, 3, block)
	if vote.Validate() {
		t.Fatalf("fresh vote does not validate")
	}
	decoded, err := DeserializeVote(vote.Serialize())
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if decoded.Sequence != 3 || decoded.Account != pub {
		t.Fatalf("vote fields lost in round trip")
	}
	if len(decoded.Blocks) != 1 || !BlockEqual(decoded.Blocks[0], block) {
		t.Fatalf("vote block lost in round trip")
	}
	if decoded.Validate() {
		t.Fatalf("round-tripped vote does not validate")
	}
	if decoded.Hash() != vote.Hash() {
		t.Fatalf("vote hash changed across round trip")
	}
}

func TestVoteHashesRoundTrip(t *testing.T) {
	prv, pub := testKeypair(21)
	hashes := []BlockHash{{1}, {2}, {3}}
	vote := NewVoteHashes(pub, prv, 9, hashes)
	decoded, err := DeserializeVote(vote.Serialize())
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if len(decoded.Hashes) != 3 {
		t.Fatalf("hash votes lost: %d", len(decoded.Hashes))
	}
	if decoded.Validate() {
		t.Fatalf("hash vote does not validate")
	}
}

func TestVoteSequenceChangesHash(t *testing.T) {
	prv, pub := testKeypair(22)
	a := NewVoteHashes(pub, prv, 1, []BlockHash{{9}})
	b := NewVoteHashes(pub, prv, 2, []BlockHash{{9}})
	if a.Hash() == b.Hash() {
		t.Fatalf("votes with different sequences share a hash")
	}
}

func TestVoteEmptyRejected(t *testing.T) {
	prv, pub := testKeypair(23)
	vote := &Vote{Sequence: 1, Account: pub}
	vote.Signature = SignMessage(prv, pub, vote.Hash())
	if _, err := DeserializeVote(vote.Serialize()); err == nil {
		t.Fatalf("empty vote accepted")
	}
}
