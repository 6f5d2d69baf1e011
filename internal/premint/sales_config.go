package premint

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// FixedPriceSalesConfig is the premintSalesConfig blob for the fixed price minter.
	FixedPriceSalesConfig struct {
		Duration            uint64
		MaxTokensPerAddress uint64
		PricePerToken       *big.Int // uint96
		FundsRecipient      common.Address
	}

	// ERC20SalesConfig is the premintSalesConfig blob for the ERC-20 minter.
	ERC20SalesConfig struct {
		Duration            uint64
		MaxTokensPerAddress uint64
		PricePerToken       *big.Int // uint256, denominated in Currency
		FundsRecipient      common.Address
		Currency            common.Address
	}
)

var (
	fixedPriceSalesConfigArgs = mustArguments("uint64", "uint64", "uint96", "address")
	erc20SalesConfigArgs      = mustArguments("uint64", "uint64", "uint256", "address", "address")
)

func EncodeFixedPriceSalesConfig(c FixedPriceSalesConfig) ([]byte, error) {
	if err := checkUint("premintSalesConfig.pricePerToken", c.PricePerToken, 96); err != nil {
		return nil, err
	}
	return fixedPriceSalesConfigArgs.Pack(c.Duration, c.MaxTokensPerAddress, c.PricePerToken, c.FundsRecipient)
}

func DecodeFixedPriceSalesConfig(data []byte) (FixedPriceSalesConfig, error) {
	values, err := fixedPriceSalesConfigArgs.Unpack(data)
	if err != nil {
		return FixedPriceSalesConfig{}, &DecodeError{Field: "premintSalesConfig", Value: common.Bytes2Hex(data), Err: err}
	}
	return FixedPriceSalesConfig{
		Duration:            values[0].(uint64),
		MaxTokensPerAddress: values[1].(uint64),
		PricePerToken:       values[2].(*big.Int),
		FundsRecipient:      values[3].(common.Address),
	}, nil
}

func EncodeERC20SalesConfig(c ERC20SalesConfig) ([]byte, error) {
	if err := checkUint("premintSalesConfig.pricePerToken", c.PricePerToken, 256); err != nil {
		return nil, err
	}
	return erc20SalesConfigArgs.Pack(c.Duration, c.MaxTokensPerAddress, c.PricePerToken, c.FundsRecipient, c.Currency)
}

func DecodeERC20SalesConfig(data []byte) (ERC20SalesConfig, error) {
	values, err := erc20SalesConfigArgs.Unpack(data)
	if err != nil {
		return ERC20SalesConfig{}, &DecodeError{Field: "premintSalesConfig", Value: common.Bytes2Hex(data), Err: err}
	}
	return ERC20SalesConfig{
		Duration:            values[0].(uint64),
		MaxTokensPerAddress: values[1].(uint64),
		PricePerToken:       values[2].(*big.Int),
		FundsRecipient:      values[3].(common.Address),
		Currency:            values[4].(common.Address),
	}, nil
}

// NativePricePerToken is the per-token price paid in the native currency when
// the premint is redeemed. Premints sold through the ERC-20 minter are paid
// separately and report zero.
func NativePricePerToken(tc TokenConfig, erc20Minter common.Address) (*big.Int, error) {
	switch c := tc.(type) {
	case TokenConfigV1:
		return cloneInt(c.PricePerToken), checkUint("pricePerToken", c.PricePerToken, 96)
	case TokenConfigV2:
		return cloneInt(c.PricePerToken), checkUint("pricePerToken", c.PricePerToken, 96)
	case TokenConfigV3:
		if erc20Minter != (common.Address{}) && c.Minter == erc20Minter {
			return new(big.Int), nil
		}
		sales, err := DecodeFixedPriceSalesConfig(c.PremintSalesConfig)
		if err != nil {
			return nil, err
		}
		return sales.PricePerToken, nil
	default:
		return nil, fmt.Errorf("unknown token config type %T", tc)
	}
}

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}
