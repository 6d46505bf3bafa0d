package core

import "fmt"

// Network selects which chain parameters are active.
type Network int

const (
	// NetworkTest is the unit-test network with a published genesis key.
	NetworkTest Network = iota
	NetworkBeta
	NetworkLive
)

// TestPrivateKeyData is the published private key of the test network
// genesis account.
const TestPrivateKeyData = "34F0A37AAD20F4A260F0A5B3CB3D7FB50673212263E58A380BC10474BB039CE4"

const (
	testPublicKeyData = "B0311EA55708D6A53C75CDBF88300259C6D018522FE3D4D0A242E431F9E8B6D0" // chr_3e3j5tkog48pnny9dmfzj1r16pg8t1e76dz5tmac6iq689wyjfpiij4txtdo
	betaPublicKeyData = "5DB43C7501AC8C1CE5C21C9CF4F2EA1973205F315BF419BD3401B2D3A009740D" // chr_1qfn9jti5d6e5mkw696wymsgn8dm63hm4pzn58yma1fktgi1kx1f9c5b35gb
	livePublicKeyData = "7E5EB032362A11DC9A591E53A12F9E231BE8FD5B25F1BAA4BAA44508DCAA0181" // chr_1zkyp1s5ecijukf7k9kmn6qswarux5yopbhjqckdob4735gcn1e34rpi75p4
)

const testGenesisData = `{
	"type": "open",
	"source": "B0311EA55708D6A53C75CDBF88300259C6D018522FE3D4D0A242E431F9E8B6D0",
	"representative": "chr_3e3j5tkog48pnny9dmfzj1r16pg8t1e76dz5tmac6iq689wyjfpiij4txtdo",
	"account": "chr_3e3j5tkog48pnny9dmfzj1r16pg8t1e76dz5tmac6iq689wyjfpiij4txtdo",
	"work": "9680625b39d3363d",
	"dividend": "0000000000000000000000000000000000000000000000000000000000000000",
	"signature": "ECDA914373A2F0CA1296475BAEE40500A7F0A7AD72A5A80C81D7FAB7F6C802B2CC7DB50F5DD0FB25B2EF11761FA7344A158DD5A700B21BD47DE5BD0F63153A02"
}`

const betaGenesisData = `{
	"type": "open",
	"source": "5DB43C7501AC8C1CE5C21C9CF4F2EA1973205F315BF419BD3401B2D3A009740D",
	"representative": "chr_1qfn9jti5d6e5mkw696wymsgn8dm63hm4pzn58yma1fktgi1kx1f9c5b35gb",
	"account": "chr_1qfn9jti5d6e5mkw696wymsgn8dm63hm4pzn58yma1fktgi1kx1f9c5b35gb",
	"work": "4a18a369468685b2",
	"dividend": "0000000000000000000000000000000000000000000000000000000000000000",
	"signature": "BBCF0BC4873D0007F338A980BC9BEDB1481B19507244E063DBB488BDB2977929F83E1300202DC6D997D8FDC2AA055D7123345698F580BF9A44104D0EAD8CDC0A"
}`

const liveGenesisData = `{
	"type": "open",
	"source": "7E5EB032362A11DC9A591E53A12F9E231BE8FD5B25F1BAA4BAA44508DCAA0181",
	"representative": "chr_1zkyp1s5ecijukf7k9kmn6qswarux5yopbhjqckdob4735gcn1e34rpi75p4",
	"account": "chr_1zkyp1s5ecijukf7k9kmn6qswarux5yopbhjqckdob4735gcn1e34rpi75p4",
	"work": "ace2c7809d970ebd",
	"dividend": "0000000000000000000000000000000000000000000000000000000000000000",
	"signature": "124D3D5BD0A6062587876C475BE0D27D69C8B6534B3E9905222A71245F2DEEFDAA150AA3206A14EBF62D7AFBD04BE84D594B3B5641107C94C460B251288A4001"
}`

// BurnAccount is the zero key; funds sent there are unspendable.
var BurnAccount = Account{}

// DividendBase is the sentinel predecessor of the first dividend.
var DividendBase = BlockHash{}

// GenesisAmount is the full initial supply, 2^128 - 1.
var GenesisAmount = MaxUint128()

// epochLinkV1 marks a state block as an epoch 1 upgrade when it appears in
// the link field.
var epochLinkV1 = func() BlockHash {
	var h BlockHash
	copy(h[:], "epoch v1 block")
	return h
}()

// NetworkParams are the chain constants that differ between networks.
type NetworkParams struct {
	GenesisAccount Account
	GenesisBlock   string
	// DividendAccount is the only account allowed to issue dividend
	// blocks. On the test network it is the genesis account so tests can
	// issue dividends with the published key.
	DividendAccount Account
	EpochLink       BlockHash
	EpochSigner     Account
}

// ParamsFor returns the constants of the given network.
func ParamsFor(n Network) NetworkParams {
	switch n {
	case NetworkBeta:
		account := mustAccountHex(betaPublicKeyData)
		return NetworkParams{
			GenesisAccount:  account,
			GenesisBlock:    betaGenesisData,
			DividendAccount: account,
			EpochLink:       epochLinkV1,
			EpochSigner:     account,
		}
	case NetworkLive:
		account := mustAccountHex(livePublicKeyData)
		return NetworkParams{
			GenesisAccount:  account,
			GenesisBlock:    liveGenesisData,
			DividendAccount: account,
			EpochLink:       epochLinkV1,
			EpochSigner:     account,
		}
	}
	account := mustAccountHex(testPublicKeyData)
	return NetworkParams{
		GenesisAccount:  account,
		GenesisBlock:    testGenesisData,
		DividendAccount: account,
		EpochLink:       epochLinkV1,
		EpochSigner:     account,
	}
}

func mustAccountHex(s string) Account {
	a, err := AccountFromHex(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Genesis carries the parsed genesis open block of a network.
type Genesis struct {
	Open *OpenBlock
}

func NewGenesis(n Network) (*Genesis, error) {
	params := ParamsFor(n)
	block, err := ParseBlockJSON([]byte(params.GenesisBlock))
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	open, ok := block.(*OpenBlock)
	if !ok {
		return nil, fmt.Errorf("genesis: not an open block")
	}
	return &Genesis{Open: open}, nil
}

func (g *Genesis) Hash() BlockHash {
	return g.Open.Hash()
}
