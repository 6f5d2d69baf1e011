package redemption

import (
	"math/big"
	"testing"

	"github.com/compose-network/premint/internal/contracts"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premint/encoding"
	"github.com/compose-network/premint/internal/sale"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	executor    = common.HexToAddress("0x7777773606e7e46C8Ba8B98C08f5cD218e31d340")
	erc20Minter = common.HexToAddress("0x777777E8850d8D6d98De2B5f64fae401F96eFF31")
	fixedMinter = common.HexToAddress("0x04E2516A2c207E84a1839755675dfd8eF6302F0a")
	creator     = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	minter      = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	referral    = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	deployed    = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	usdc        = common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	mintFee     = big.NewInt(777_000_000_000_000)
)

func signedV2(price int64) premint.SignedPremint {
	return premint.SignedPremint{
		Collection: &premint.CollectionConfig{ContractAdmin: creator, ContractName: "Testing", ContractURI: "ipfs://collection"},
		Config: premint.Config{
			UID:     3,
			Version: 1,
			TokenConfig: premint.TokenConfigV2{
				TokenURI:         "ipfs://token",
				MaxSupply:        big.NewInt(100),
				PricePerToken:    big.NewInt(price),
				MintDuration:     3600,
				PayoutRecipient:  creator,
				FixedPriceMinter: fixedMinter,
			},
		},
		Signature: make([]byte, 65),
	}
}

type unpacked struct {
	creation          contracts.ContractCreationConfig
	premintCollection common.Address
	config            encoding.PremintConfigEncoded
	quantity          *big.Int
	mintArgs          contracts.MintArguments
	firstMinter       common.Address
	signerContract    common.Address
}

func unpack(t *testing.T, call contracts.Call) unpacked {
	t.Helper()
	method, args, err := call.Unpack(contracts.PremintExecutor)
	require.NoError(t, err)
	require.Equal(t, "premint", method)
	require.Len(t, args, 8)

	return unpacked{
		creation:          *abi.ConvertType(args[0], new(contracts.ContractCreationConfig)).(*contracts.ContractCreationConfig),
		premintCollection: args[1].(common.Address),
		config:            *abi.ConvertType(args[2], new(encoding.PremintConfigEncoded)).(*encoding.PremintConfigEncoded),
		quantity:          args[4].(*big.Int),
		mintArgs:          *abi.ConvertType(args[5], new(contracts.MintArguments)).(*contracts.MintArguments),
		firstMinter:       args[6].(common.Address),
		signerContract:    args[7].(common.Address),
	}
}

func TestBuildWithInlineCollection(t *testing.T) {
	signed := signedV2(1_000_000)

	call, err := NewBuilder(executor, erc20Minter).Build(signed, signed.Target(), mintFee, Args{
		Minter:       minter,
		Quantity:     5,
		MintComment:  "gm",
		MintReferral: referral,
	})
	require.NoError(t, err)

	assert.Equal(t, executor, call.To)
	// (777000000000000 + 1000000) * 5
	assert.Equal(t, big.NewInt(3_885_000_005_000_000), call.Value)

	got := unpack(t, call)
	assert.Equal(t, creator, got.creation.ContractAdmin)
	assert.Equal(t, "Testing", got.creation.ContractName)
	assert.Empty(t, got.creation.AdditionalAdmins)
	assert.Equal(t, common.Address{}, got.premintCollection)
	assert.Equal(t, uint32(3), got.config.UID)
	assert.Equal(t, uint32(1), got.config.Version)
	assert.Equal(t, [32]byte(premint.V2.Hash()), got.config.PremintConfigVersion)
	assert.Equal(t, big.NewInt(5), got.quantity)
	assert.Equal(t, minter, got.mintArgs.MintRecipient)
	assert.Equal(t, "gm", got.mintArgs.MintComment)
	assert.Equal(t, []common.Address{referral, {}}, got.mintArgs.MintRewardsRecipients)
	assert.Equal(t, minter, got.firstMinter)
	assert.Equal(t, common.Address{}, got.signerContract)
}

func TestBuildWithDeployedCollection(t *testing.T) {
	signed := signedV2(0)
	recipient := common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")

	call, err := NewBuilder(executor, erc20Minter).Build(signed, premint.CollectionAt(deployed), mintFee, Args{
		Minter:           minter,
		Quantity:         1,
		MintRecipient:    recipient,
		FirstMinter:      referral,
		PlatformReferral: referral,
	})
	require.NoError(t, err)
	assert.Equal(t, mintFee, call.Value)

	got := unpack(t, call)
	assert.Equal(t, common.Address{}, got.creation.ContractAdmin)
	assert.Empty(t, got.creation.ContractName)
	assert.Empty(t, got.creation.AdditionalAdmins)
	assert.Equal(t, deployed, got.premintCollection)
	assert.Equal(t, recipient, got.mintArgs.MintRecipient)
	assert.Equal(t, []common.Address{{}, referral}, got.mintArgs.MintRewardsRecipients)
	assert.Equal(t, referral, got.firstMinter)
}

func TestBuildRejectsBadArgs(t *testing.T) {
	signed := signedV2(0)
	b := NewBuilder(executor, erc20Minter)

	tests := map[string]struct {
		signed premint.SignedPremint
		target premint.Collection
		args   Args
	}{
		"zero quantity":     {signed, signed.Target(), Args{Minter: minter}},
		"no minter":         {signed, signed.Target(), Args{Quantity: 1}},
		"no target":         {signed, premint.Collection{}, Args{Minter: minter, Quantity: 1}},
		"missing signature": {premint.SignedPremint{Collection: signed.Collection, Config: signed.Config}, signed.Target(), Args{Minter: minter, Quantity: 1}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := b.Build(tt.signed, tt.target, mintFee, tt.args)
			assert.Error(t, err)
		})
	}
}

func TestCostOfERC20Premint(t *testing.T) {
	blob, err := premint.EncodeERC20SalesConfig(premint.ERC20SalesConfig{
		PricePerToken:  big.NewInt(2_000_000),
		FundsRecipient: creator,
		Currency:       usdc,
	})
	require.NoError(t, err)
	tc := premint.TokenConfigV3{
		TokenURI:           "ipfs://token",
		MaxSupply:          big.NewInt(10),
		PayoutRecipient:    creator,
		Minter:             erc20Minter,
		PremintSalesConfig: blob,
	}

	cost, err := NewBuilder(executor, erc20Minter).Cost(tc, mintFee, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4_000_000), cost.PurchaseCost)
	require.NotNil(t, cost.PurchaseCurrency)
	assert.Equal(t, usdc, *cost.PurchaseCurrency)
	assert.Equal(t, big.NewInt(1_554_000_000_000_000), cost.TotalNativeCost)
}

func TestCostMatchesFixedPriceSale(t *testing.T) {
	got, err := NewBuilder(executor, erc20Minter).Cost(signedV2(1_000).Config.TokenConfig, mintFee, 3)
	require.NoError(t, err)

	want, err := sale.ComputeCost(sale.FixedPrice{
		Base:          sale.Base{Address: fixedMinter, MintFeePerQuantity: uint256.MustFromBig(mintFee)},
		PricePerToken: uint256.NewInt(1_000),
	}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, big.NewInt(3*777_000_000_000_000+3_000), got.TotalNativeCost)
	assert.Nil(t, got.PurchaseCurrency)
}

func TestCostRejectsNegativeFee(t *testing.T) {
	_, err := NewBuilder(executor, erc20Minter).Cost(signedV2(1).Config.TokenConfig, big.NewInt(-1), 1)
	assert.ErrorIs(t, err, premint.ErrArithmeticOverflow)
}
