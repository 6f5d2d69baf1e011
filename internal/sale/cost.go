package sale

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/compose-network/premint/internal/allowlist"
	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Cost is the exact price of a mint. TotalNativeCost is the transaction value.
// For ERC-20 sales PurchaseCost is denominated in PurchaseCurrency and is not
// part of TotalNativeCost.
type Cost struct {
	MintFee          *big.Int        `json:"mintFee" yaml:"mint-fee"`
	PurchaseCost     *big.Int        `json:"purchaseCost" yaml:"purchase-cost"`
	PurchaseCurrency *common.Address `json:"purchaseCurrency,omitempty" yaml:"purchase-currency,omitempty"`
	TotalNativeCost  *big.Int        `json:"totalNativeCost" yaml:"total-native-cost"`
}

// ComputeCost prices quantity tokens. An allow-list entry, when given, always
// overrides the strategy's price.
func ComputeCost(strategy Strategy, quantity uint64, entry *allowlist.Entry) (Cost, error) {
	if strategy == nil {
		return Cost{}, errors.New("no sale strategy to price")
	}
	qty := uint256.NewInt(quantity)

	price, err := unitPrice(strategy, entry)
	if err != nil {
		return Cost{}, err
	}

	perQuantity := strategy.Common().MintFeePerQuantity
	if perQuantity == nil {
		perQuantity = new(uint256.Int)
	}

	mintFee, overflow := new(uint256.Int).MulOverflow(perQuantity, qty)
	if overflow {
		return Cost{}, &premint.ArithmeticOverflowError{Field: "mintFee", Bits: 256}
	}
	purchase, overflow := new(uint256.Int).MulOverflow(price, qty)
	if overflow {
		return Cost{}, &premint.ArithmeticOverflowError{Field: "purchaseCost", Bits: 256}
	}

	cost := Cost{MintFee: mintFee.ToBig(), PurchaseCost: purchase.ToBig()}

	native := purchase
	if erc20, ok := strategy.(ERC20); ok {
		currency := erc20.Currency
		cost.PurchaseCurrency = &currency
		native = new(uint256.Int)
	}

	total, overflow := new(uint256.Int).AddOverflow(mintFee, native)
	if overflow {
		return Cost{}, &premint.ArithmeticOverflowError{Field: "totalNativeCost", Bits: 256}
	}
	cost.TotalNativeCost = total.ToBig()
	return cost, nil
}

func unitPrice(strategy Strategy, entry *allowlist.Entry) (*uint256.Int, error) {
	if entry != nil {
		return FromBig("allowListEntry.price", entry.Price)
	}

	switch s := strategy.(type) {
	case FixedPrice:
		return orZero(s.PricePerToken), nil
	case ERC20:
		return orZero(s.PricePerToken), nil
	case AllowList, Timed:
		return new(uint256.Int), nil
	default:
		return nil, fmt.Errorf("unknown sale strategy type %T", strategy)
	}
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
