package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// blockJSON is the union of the textual fields across all variants.
type blockJSON struct {
	Type           string `json:"type"`
	Account        string `json:"account,omitempty"`
	Previous       string `json:"previous,omitempty"`
	Source         string `json:"source,omitempty"`
	Destination    string `json:"destination,omitempty"`
	Representative string `json:"representative,omitempty"`
	Balance        string `json:"balance,omitempty"`
	Link           string `json:"link,omitempty"`
	LinkAsAccount  string `json:"link_as_account,omitempty"`
	Dividend       string `json:"dividend"`
	Signature      string `json:"signature"`
	Work           string `json:"work"`
}

func workToHex(w uint64) string {
	return fmt.Sprintf("%016x", w)
}

func workFromHex(s string) (uint64, error) {
	if len(s) == 0 || len(s) > 16 {
		return 0, fmt.Errorf("work: bad hex length %d", len(s))
	}
	return strconv.ParseUint(s, 16, 64)
}

func (b *SendBlock) ToJSON() ([]byte, error) {
	return json.MarshalIndent(blockJSON{
		Type:        "send",
		Previous:    b.Hashables.Previous.String(),
		Destination: b.Hashables.Destination.ToAccount(),
		Balance:     b.Hashables.Balance.EncodeHex(),
		Dividend:    b.Hashables.Dividend.String(),
		Signature:   b.Signature.Hex(),
		Work:        workToHex(b.Work),
	}, "", "    ")
}

func (b *ReceiveBlock) ToJSON() ([]byte, error) {
	return json.MarshalIndent(blockJSON{
		Type:      "receive",
		Previous:  b.Hashables.Previous.String(),
		Source:    b.Hashables.Source.String(),
		Dividend:  b.Hashables.Dividend.String(),
		Signature: b.Signature.Hex(),
		Work:      workToHex(b.Work),
	}, "", "    ")
}

func (b *OpenBlock) ToJSON() ([]byte, error) {
	return json.MarshalIndent(blockJSON{
		Type:           "open",
		Source:         b.Hashables.Source.String(),
		Representative: b.Hashables.Representative.ToAccount(),
		Account:        b.Hashables.Account.ToAccount(),
		Dividend:       b.Hashables.Dividend.String(),
		Signature:      b.Signature.Hex(),
		Work:           workToHex(b.Work),
	}, "", "    ")
}

func (b *ChangeBlock) ToJSON() ([]byte, error) {
	return json.MarshalIndent(blockJSON{
		Type:           "change",
		Previous:       b.Hashables.Previous.String(),
		Representative: b.Hashables.Representative.ToAccount(),
		Dividend:       b.Hashables.Dividend.String(),
		Signature:      b.Signature.Hex(),
		Work:           workToHex(b.Work),
	}, "", "    ")
}

func (b *StateBlock) ToJSON() ([]byte, error) {
	return json.MarshalIndent(blockJSON{
		Type:           "state",
		Account:        b.Hashables.Account.ToAccount(),
		Previous:       b.Hashables.Previous.String(),
		Representative: b.Hashables.Representative.ToAccount(),
		Balance:        b.Hashables.Balance.EncodeDec(),
		Link:           b.Hashables.Link.String(),
		LinkAsAccount:  Account(b.Hashables.Link).ToAccount(),
		Dividend:       b.Hashables.Dividend.String(),
		Signature:      b.Signature.Hex(),
		Work:           workToHex(b.Work),
	}, "", "    ")
}

func (b *DividendBlock) ToJSON() ([]byte, error) {
	return json.MarshalIndent(blockJSON{
		Type:           "dividend",
		Account:        b.Hashables.Account.ToAccount(),
		Previous:       b.Hashables.Previous.String(),
		Representative: b.Hashables.Representative.ToAccount(),
		Balance:        b.Hashables.Balance.EncodeDec(),
		Dividend:       b.Hashables.Dividend.String(),
		Signature:      b.Signature.Hex(),
		Work:           workToHex(b.Work),
	}, "", "    ")
}

func (b *ClaimBlock) ToJSON() ([]byte, error) {
	return json.MarshalIndent(blockJSON{
		Type:           "claim",
		Account:        b.Hashables.Account.ToAccount(),
		Previous:       b.Hashables.Previous.String(),
		Representative: b.Hashables.Representative.ToAccount(),
		Balance:        b.Hashables.Balance.EncodeDec(),
		Dividend:       b.Hashables.Dividend.String(),
		Signature:      b.Signature.Hex(),
		Work:           workToHex(b.Work),
	}, "", "    ")
}

// ParseBlockJSON parses the textual form of any variant.
func ParseBlockJSON(data []byte) (Block, error) {
	var j blockJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("block json: %w", err)
	}
	sig, err := SignatureFromHex(j.Signature)
	if err != nil {
		return nil, err
	}
	work, err := workFromHex(j.Work)
	if err != nil {
		return nil, err
	}
	dividend, err := hashOrZero(j.Dividend)
	if err != nil {
		return nil, err
	}

	switch j.Type {
	case "send":
		previous, err := HashFromHex(j.Previous)
		if err != nil {
			return nil, err
		}
		destination, err := AccountFromAddress(j.Destination)
		if err != nil {
			return nil, err
		}
		balance, err := U128FromHex(j.Balance)
		if err != nil {
			return nil, err
		}
		return &SendBlock{
			Hashables: SendHashables{Previous: previous, Destination: destination, Balance: balance, Dividend: dividend},
			Signature: sig,
			Work:      work,
		}, nil
	case "receive":
		previous, err := HashFromHex(j.Previous)
		if err != nil {
			return nil, err
		}
		source, err := HashFromHex(j.Source)
		if err != nil {
			return nil, err
		}
		return &ReceiveBlock{
			Hashables: ReceiveHashables{Previous: previous, Source: source, Dividend: dividend},
			Signature: sig,
			Work:      work,
		}, nil
	case "open":
		source, err := HashFromHex(j.Source)
		if err != nil {
			return nil, err
		}
		representative, err := AccountFromAddress(j.Representative)
		if err != nil {
			return nil, err
		}
		account, err := AccountFromAddress(j.Account)
		if err != nil {
			return nil, err
		}
		return &OpenBlock{
			Hashables: OpenHashables{Source: source, Representative: representative, Account: account, Dividend: dividend},
			Signature: sig,
			Work:      work,
		}, nil
	case "change":
		previous, err := HashFromHex(j.Previous)
		if err != nil {
			return nil, err
		}
		representative, err := AccountFromAddress(j.Representative)
		if err != nil {
			return nil, err
		}
		return &ChangeBlock{
			Hashables: ChangeHashables{Previous: previous, Representative: representative, Dividend: dividend},
			Signature: sig,
			Work:      work,
		}, nil
	case "state":
		account, err := AccountFromAddress(j.Account)
		if err != nil {
			return nil, err
		}
		previous, err := hashOrZero(j.Previous)
		if err != nil {
			return nil, err
		}
		representative, err := AccountFromAddress(j.Representative)
		if err != nil {
			return nil, err
		}
		balance, err := U128FromDec(j.Balance)
		if err != nil {
			return nil, err
		}
		link, err := hashOrZero(j.Link)
		if err != nil {
			return nil, err
		}
		return &StateBlock{
			Hashables: StateHashables{Account: account, Previous: previous, Representative: representative, Balance: balance, Link: link, Dividend: dividend},
			Signature: sig,
			Work:      work,
		}, nil
	case "dividend":
		account, err := AccountFromAddress(j.Account)
		if err != nil {
			return nil, err
		}
		previous, err := HashFromHex(j.Previous)
		if err != nil {
			return nil, err
		}
		representative, err := AccountFromAddress(j.Representative)
		if err != nil {
			return nil, err
		}
		balance, err := U128FromDec(j.Balance)
		if err != nil {
			return nil, err
		}
		return &DividendBlock{
			Hashables: DividendHashables{Account: account, Previous: previous, Representative: representative, Balance: balance, Dividend: dividend},
			Signature: sig,
			Work:      work,
		}, nil
	case "claim":
		account, err := AccountFromAddress(j.Account)
		if err != nil {
			return nil, err
		}
		previous, err := HashFromHex(j.Previous)
		if err != nil {
			return nil, err
		}
		representative, err := AccountFromAddress(j.Representative)
		if err != nil {
			return nil, err
		}
		balance, err := U128FromDec(j.Balance)
		if err != nil {
			return nil, err
		}
		return &ClaimBlock{
			Hashables: ClaimHashables{Account: account, Previous: previous, Representative: representative, Balance: balance, Dividend: dividend},
			Signature: sig,
			Work:      work,
		}, nil
	}
	return nil, fmt.Errorf("block json: unknown type %q", j.Type)
}

func hashOrZero(s string) (BlockHash, error) {
	if s == "" || s == "0" {
		return BlockHash{}, nil
	}
	return HashFromHex(s)
}
