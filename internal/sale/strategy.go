// Package sale normalizes indexed sale strategies, picks the one a mint should
// go through and prices the mint.
package sale

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/subgraph"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

type Type string

const (
	TypeFixedPrice Type = "fixedPrice"
	TypeERC20      Type = "erc20"
	TypeAllowList  Type = "allowlist"
	TypeTimed      Type = "timed"
)

// ParseType accepts the sale type names used on the command line. An empty
// string means no preference.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case "", TypeFixedPrice, TypeERC20, TypeAllowList, TypeTimed:
		return t, nil
	default:
		return "", fmt.Errorf("unknown sale type %q", s)
	}
}

type (
	// Strategy is one of FixedPrice, ERC20, AllowList or Timed.
	Strategy interface {
		Type() Type
		Common() Base
		isStrategy()
	}

	// Base holds what every strategy has. A nil SaleEnd means the sale never ends.
	Base struct {
		Address            common.Address
		SaleStart          uint64
		SaleEnd            *uint64
		MintFeePerQuantity *uint256.Int
	}

	FixedPrice struct {
		Base
		PricePerToken       *uint256.Int
		MaxTokensPerAddress uint64
	}

	// ERC20 sells for an ERC-20 currency. Its mint fee is always zero.
	ERC20 struct {
		Base
		PricePerToken       *uint256.Int
		MaxTokensPerAddress uint64
		Currency            common.Address
	}

	AllowList struct {
		Base
		MerkleRoot common.Hash
	}

	// Timed is the timed sale strategy whose secondary market opens on an ERC-20
	// pool once the primary sale is over.
	Timed struct {
		Base
		ERC20Z             common.Address
		Pool               common.Address
		SecondaryActivated bool
		MarketCountdown    *uint64
		MinimumMarketEth   *uint256.Int
	}
)

func (b Base) Common() Base { return b }

func (FixedPrice) Type() Type { return TypeFixedPrice }
func (ERC20) Type() Type      { return TypeERC20 }
func (AllowList) Type() Type  { return TypeAllowList }
func (Timed) Type() Type      { return TypeTimed }

func (FixedPrice) isStrategy() {}
func (ERC20) isStrategy()      {}
func (AllowList) isStrategy()  {}
func (Timed) isStrategy()      {}

// Parse decodes an indexer record. contractMintFee is the collection's per-token
// mint fee, charged by every strategy except ERC-20 and timed, which price
// their own fee.
func Parse(record subgraph.SalesStrategy, contractMintFee *uint256.Int) (Strategy, error) {
	if contractMintFee == nil {
		contractMintFee = new(uint256.Int)
	}

	p := parser{}
	switch record.Type {
	case subgraph.TypeFixedPrice:
		r := record.FixedPrice
		if r == nil {
			return nil, missing(record.Type)
		}
		s := FixedPrice{
			Base: Base{
				Address:            p.address("address", r.Address),
				SaleStart:          p.uint64("saleStart", r.SaleStart),
				SaleEnd:            ptr(p.uint64("saleEnd", r.SaleEnd)),
				MintFeePerQuantity: contractMintFee.Clone(),
			},
			PricePerToken:       p.uint256("pricePerToken", r.PricePerToken),
			MaxTokensPerAddress: p.uint64("maxTokensPerAddress", r.MaxTokensPerAddress),
		}
		return s, p.err
	case subgraph.TypeERC20:
		r := record.ERC20Minter
		if r == nil {
			return nil, missing(record.Type)
		}
		s := ERC20{
			Base: Base{
				Address:            p.address("address", r.Address),
				SaleStart:          p.uint64("saleStart", r.SaleStart),
				SaleEnd:            ptr(p.uint64("saleEnd", r.SaleEnd)),
				MintFeePerQuantity: new(uint256.Int),
			},
			PricePerToken:       p.uint256("pricePerToken", r.PricePerToken),
			MaxTokensPerAddress: p.uint64("maxTokensPerAddress", r.MaxTokensPerAddress),
			Currency:            p.address("currency", r.Currency),
		}
		return s, p.err
	case subgraph.TypePresale:
		r := record.Presale
		if r == nil {
			return nil, missing(record.Type)
		}
		s := AllowList{
			Base: Base{
				Address:            p.address("address", r.Address),
				SaleStart:          p.uint64("presaleStart", r.PresaleStart),
				SaleEnd:            ptr(p.uint64("presaleEnd", r.PresaleEnd)),
				MintFeePerQuantity: contractMintFee.Clone(),
			},
			MerkleRoot: p.hash("merkleRoot", r.MerkleRoot),
		}
		return s, p.err
	case subgraph.TypeZoraTimed:
		r := record.ZoraTimedMinter
		if r == nil {
			return nil, missing(record.Type)
		}
		s := Timed{
			Base: Base{
				Address:            p.address("address", r.Address),
				SaleStart:          p.uint64("saleStart", r.SaleStart),
				MintFeePerQuantity: p.uint256("mintFee", r.MintFee),
			},
			ERC20Z:             p.address("erc20Z", r.ERC20Z.ID),
			Pool:               p.address("pool", r.ERC20Z.Pool),
			SecondaryActivated: r.SecondaryActivated,
		}
		// a timed sale end of zero means the countdown has not started
		if end := p.uint64("saleEnd", r.SaleEnd); end > 0 {
			s.SaleEnd = &end
		}
		if r.MarketCountdown != "" {
			s.MarketCountdown = ptr(p.uint64("marketCountdown", r.MarketCountdown))
		}
		if r.MinimumMarketEth != "" {
			s.MinimumMarketEth = p.uint256("minimumMarketEth", r.MinimumMarketEth)
		}
		return s, p.err
	default:
		return nil, &premint.DecodeError{Field: "type", Value: record.Type, Err: fmt.Errorf("unsupported sale strategy type")}
	}
}

// ParseAll decodes records in order.
func ParseAll(records []subgraph.SalesStrategy, contractMintFee *uint256.Int) ([]Strategy, error) {
	out := make([]Strategy, 0, len(records))
	for i, r := range records {
		s, err := Parse(r, contractMintFee)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sale strategy %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func missing(typ string) error {
	return &premint.DecodeError{Field: "salesStrategy", Value: typ, Err: fmt.Errorf("record has no %s details", typ)}
}

// parser keeps the first decode failure.
type parser struct {
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) uint256(field, s string) *uint256.Int {
	v, err := ParseUint256(field, s)
	if err != nil {
		p.fail(err)
		return new(uint256.Int)
	}
	return v
}

func (p *parser) uint64(field, s string) uint64 {
	if !isDecimal(s) {
		p.fail(&premint.DecodeError{Field: field, Value: s, Err: fmt.Errorf("not an unsigned decimal integer")})
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		p.fail(&premint.DecodeError{Field: field, Value: s, Err: err})
	}
	return v
}

func (p *parser) address(field, s string) common.Address {
	if !common.IsHexAddress(s) {
		p.fail(&premint.DecodeError{Field: field, Value: s, Err: fmt.Errorf("not a hex address")})
		return common.Address{}
	}
	return common.HexToAddress(s)
}

func (p *parser) hash(field, s string) common.Hash {
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		p.fail(&premint.DecodeError{Field: field, Value: s, Err: fmt.Errorf("not bytes32")})
		return common.Hash{}
	}
	return common.BytesToHash(b)
}

// ParseUint256 accepts an unsigned base-10 integer that fits in 256 bits.
func ParseUint256(field, s string) (*uint256.Int, error) {
	if !isDecimal(s) {
		return nil, &premint.DecodeError{Field: field, Value: s, Err: fmt.Errorf("not an unsigned decimal integer")}
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, &premint.DecodeError{Field: field, Value: s, Err: err}
	}
	return v, nil
}

// FromBig converts a non-negative big integer, failing when it needs more than 256 bits.
func FromBig(field string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, &premint.ArithmeticOverflowError{Field: field, Bits: 256}
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, &premint.ArithmeticOverflowError{Field: field, Bits: 256}
	}
	return out, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func ptr[T any](v T) *T {
	return &v
}
