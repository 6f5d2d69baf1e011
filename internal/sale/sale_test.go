package sale

import (
	"math/big"
	"testing"

	"github.com/compose-network/premint/internal/allowlist"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/subgraph"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	strategyAddress = common.HexToAddress("0x04E2516A2c207E84a1839755675dfd8eF6302F0a")
	currency        = common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
)

func end(v uint64) *uint64 { return &v }

func fixedPrice(price, fee uint64, saleEnd *uint64) FixedPrice {
	return FixedPrice{
		Base: Base{
			Address:            strategyAddress,
			SaleEnd:            saleEnd,
			MintFeePerQuantity: uint256.NewInt(fee),
		},
		PricePerToken: uint256.NewInt(price),
	}
}

func TestComputeCostFixedPrice(t *testing.T) {
	cost, err := ComputeCost(fixedPrice(1_000_000, 777, nil), 5, nil)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(3885), cost.MintFee)
	assert.Equal(t, big.NewInt(5_000_000), cost.PurchaseCost)
	assert.Equal(t, big.NewInt(5_003_885), cost.TotalNativeCost)
	assert.Nil(t, cost.PurchaseCurrency)
}

func TestComputeCostAllowListEntryOverridesPrice(t *testing.T) {
	entry := &allowlist.Entry{MaxCanMint: 10, Price: big.NewInt(500_000)}

	cost, err := ComputeCost(fixedPrice(1_000_000, 777, nil), 5, entry)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(2_500_000), cost.PurchaseCost)
	assert.Equal(t, big.NewInt(2_503_885), cost.TotalNativeCost)
}

func TestComputeCostERC20IsExcludedFromNative(t *testing.T) {
	strategy := ERC20{
		Base:          Base{Address: strategyAddress, MintFeePerQuantity: uint256.NewInt(0)},
		PricePerToken: uint256.NewInt(1_000),
		Currency:      currency,
	}

	cost, err := ComputeCost(strategy, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(3_000), cost.PurchaseCost)
	assert.Equal(t, cost.MintFee, cost.TotalNativeCost)
	require.NotNil(t, cost.PurchaseCurrency)
	assert.Equal(t, currency, *cost.PurchaseCurrency)
}

func TestComputeCostAllowListWithoutEntryChargesFeeOnly(t *testing.T) {
	strategy := AllowList{Base: Base{MintFeePerQuantity: uint256.NewInt(777)}}

	cost, err := ComputeCost(strategy, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1554), cost.TotalNativeCost)
	assert.Equal(t, 0, cost.PurchaseCost.Sign())
}

func TestComputeCostOverflow(t *testing.T) {
	huge := new(uint256.Int).SetAllOne()
	strategy := FixedPrice{Base: Base{MintFeePerQuantity: uint256.NewInt(1)}, PricePerToken: huge}

	_, err := ComputeCost(strategy, 2, nil)
	var overflow *premint.ArithmeticOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, "purchaseCost", overflow.Field)

	_, err = ComputeCost(fixedPrice(1, 1, nil), 1, &allowlist.Entry{Price: big.NewInt(-1)})
	assert.ErrorIs(t, err, premint.ErrArithmeticOverflow)
}

func TestResolveSoonestEndWins(t *testing.T) {
	later := fixedPrice(1, 1, end(200))
	sooner := fixedPrice(2, 1, end(100))

	got, err := Resolve([]Strategy{later, sooner}, "", 50)
	require.NoError(t, err)
	assert.Equal(t, sooner, got.Strategy)
	assert.True(t, got.PrimaryMintActive)
	assert.Equal(t, uint64(100), *got.PrimaryMintEnd)
}

func TestResolveNoEndSortsLast(t *testing.T) {
	forever := fixedPrice(1, 1, nil)
	ending := fixedPrice(2, 1, end(1_000))

	got, err := Resolve([]Strategy{forever, ending}, "", 50)
	require.NoError(t, err)
	assert.Equal(t, ending, got.Strategy)
}

func TestResolveTiesKeepInputOrder(t *testing.T) {
	first := fixedPrice(1, 1, end(100))
	second := fixedPrice(2, 1, end(100))

	got, err := Resolve([]Strategy{first, second}, "", 50)
	require.NoError(t, err)
	assert.Equal(t, first, got.Strategy)
}

func TestResolveDropsInactive(t *testing.T) {
	expired := fixedPrice(1, 1, end(100))
	notStarted := fixedPrice(2, 1, nil)
	notStarted.SaleStart = 500

	_, err := Resolve([]Strategy{expired, notStarted}, "", 100)
	assert.ErrorIs(t, err, premint.ErrNoEligibleSaleStrategy)
}

func TestResolveKeepsTimedWithSecondaryMarket(t *testing.T) {
	timed := Timed{
		Base:               Base{SaleEnd: end(10), MintFeePerQuantity: uint256.NewInt(111)},
		SecondaryActivated: true,
	}

	got, err := Resolve([]Strategy{timed}, "", 100)
	require.NoError(t, err)
	assert.False(t, got.PrimaryMintActive)
	assert.True(t, got.SecondaryMarketActive)
}

func TestResolvePreferredType(t *testing.T) {
	fixed := fixedPrice(1, 1, end(100))
	erc20 := ERC20{Base: Base{SaleEnd: end(200), MintFeePerQuantity: uint256.NewInt(0)}, PricePerToken: uint256.NewInt(1)}
	timed := Timed{Base: Base{SaleEnd: end(50), MintFeePerQuantity: uint256.NewInt(111)}}

	got, err := Resolve([]Strategy{fixed, erc20, timed}, TypeERC20, 10)
	require.NoError(t, err)
	assert.Equal(t, TypeERC20, got.Strategy.Type())

	// allowlist is absent, the earliest fixed price or ERC-20 strategy is used
	got, err = Resolve([]Strategy{timed, erc20, fixed}, TypeAllowList, 10)
	require.NoError(t, err)
	assert.Equal(t, fixed, got.Strategy)

	_, err = Resolve([]Strategy{timed}, TypeAllowList, 10)
	assert.ErrorIs(t, err, premint.ErrNoEligibleSaleStrategy)
}

func TestParse(t *testing.T) {
	fee := uint256.NewInt(777)

	fixed, err := Parse(subgraph.SalesStrategy{
		Type: subgraph.TypeFixedPrice,
		FixedPrice: &subgraph.FixedPriceResult{
			Address: strategyAddress.Hex(), PricePerToken: "1000000", SaleStart: "0", SaleEnd: "100", MaxTokensPerAddress: "3",
		},
	}, fee)
	require.NoError(t, err)
	require.IsType(t, FixedPrice{}, fixed)
	assert.Equal(t, uint256.NewInt(777), fixed.Common().MintFeePerQuantity)
	assert.Equal(t, uint64(3), fixed.(FixedPrice).MaxTokensPerAddress)

	erc20, err := Parse(subgraph.SalesStrategy{
		Type: subgraph.TypeERC20,
		ERC20Minter: &subgraph.ERC20Result{
			FixedPriceResult: subgraph.FixedPriceResult{
				Address: strategyAddress.Hex(), PricePerToken: "5", SaleStart: "0", SaleEnd: "100", MaxTokensPerAddress: "0",
			},
			Currency: currency.Hex(),
		},
	}, fee)
	require.NoError(t, err)
	assert.True(t, erc20.Common().MintFeePerQuantity.IsZero())

	presale, err := Parse(subgraph.SalesStrategy{
		Type: subgraph.TypePresale,
		Presale: &subgraph.PresaleResult{
			Address: strategyAddress.Hex(), PresaleStart: "0", PresaleEnd: "100",
			MerkleRoot: "1111111111111111111111111111111111111111111111111111111111111111",
		},
	}, fee)
	require.NoError(t, err)
	assert.Equal(t, TypeAllowList, presale.Type())

	timed, err := Parse(subgraph.SalesStrategy{
		Type: subgraph.TypeZoraTimed,
		ZoraTimedMinter: &subgraph.TimedResult{
			Address: strategyAddress.Hex(), MintFee: "111000000000000", SaleStart: "0", SaleEnd: "0",
			ERC20Z: subgraph.ERC20ZResult{ID: common.Address{}.Hex(), Pool: common.Address{}.Hex()},
		},
	}, fee)
	require.NoError(t, err)
	assert.Nil(t, timed.Common().SaleEnd)
	assert.Equal(t, uint256.NewInt(111_000_000_000_000), timed.Common().MintFeePerQuantity)
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := map[string]subgraph.SalesStrategy{
		"negative price": {Type: subgraph.TypeFixedPrice, FixedPrice: &subgraph.FixedPriceResult{
			Address: strategyAddress.Hex(), PricePerToken: "-1", SaleStart: "0", SaleEnd: "1", MaxTokensPerAddress: "0",
		}},
		"fractional end": {Type: subgraph.TypeFixedPrice, FixedPrice: &subgraph.FixedPriceResult{
			Address: strategyAddress.Hex(), PricePerToken: "1", SaleStart: "0", SaleEnd: "1.5", MaxTokensPerAddress: "0",
		}},
		"missing details": {Type: subgraph.TypePresale},
		"unknown type":    {Type: "UNISWAP"},
	}

	for name, record := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(record, uint256.NewInt(1))
			assert.ErrorIs(t, err, premint.ErrDecode)
		})
	}
}

func TestResolveForToken(t *testing.T) {
	token := subgraph.Token{
		TokenID:       "1",
		TokenStandard: subgraph.StandardERC1155,
		SalesStrategies: []subgraph.SalesStrategy{{
			Type: subgraph.TypeFixedPrice,
			FixedPrice: &subgraph.FixedPriceResult{
				Address: strategyAddress.Hex(), PricePerToken: "1000000", SaleStart: "0", SaleEnd: "200", MaxTokensPerAddress: "0",
			},
		}},
		Contract: subgraph.Contract{
			Address:            currency.Hex(),
			MintFeePerQuantity: "777",
		},
	}

	got, err := ResolveForToken(token, big.NewInt(1), "", 100)
	require.NoError(t, err)
	cost, err := ComputeCost(got.Strategy, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_003_885), cost.TotalNativeCost)

	// contract level has no strategies
	_, err = ResolveForToken(token, nil, "", 100)
	assert.ErrorIs(t, err, premint.ErrNoEligibleSaleStrategy)
}

func TestParseToken(t *testing.T) {
	info, err := ParseToken(subgraph.Token{
		TokenID:       "4",
		TokenStandard: subgraph.StandardERC1155,
		TotalMinted:   "2",
		MaxSupply:     "10",
		Contract:      subgraph.Contract{Address: currency.Hex(), ContractVersion: "2.9.0"},
	})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4), info.TokenID)
	assert.Equal(t, "2.9.0", info.ContractVersion)
	assert.False(t, info.IsERC721())

	_, err = ParseToken(subgraph.Token{TokenStandard: "ERC20", Contract: subgraph.Contract{Address: currency.Hex()}})
	assert.Error(t, err)
}
