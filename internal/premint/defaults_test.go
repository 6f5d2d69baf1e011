package premint

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTokenConfigDefaults(t *testing.T) {
	defaults := TokenDefaults{Creator: creator, FixedPriceMinter: fixedMinter}

	tc, err := BuildTokenConfig(V2, TokenConfigInput{TokenURI: "ipfs://x"}, defaults)
	require.NoError(t, err)

	v2 := tc.(TokenConfigV2)
	assert.Equal(t, OpenEditionMintSize, v2.MaxSupply)
	assert.Equal(t, uint64(0), v2.MaxTokensPerAddress)
	assert.Equal(t, 0, v2.PricePerToken.Sign())
	assert.Equal(t, uint64(604800), v2.MintDuration)
	assert.Equal(t, uint32(1000), v2.RoyaltyBPS)
	assert.Equal(t, creator, v2.PayoutRecipient)
	assert.Equal(t, fixedMinter, v2.FixedPriceMinter)
	assert.Equal(t, common.Address{}, v2.CreateReferral)
}

func TestBuildTokenConfigV1RejectsCreateReferral(t *testing.T) {
	_, err := BuildTokenConfig(V1, TokenConfigInput{CreateReferral: &referral}, TokenDefaults{Creator: creator})

	var mismatch *VersionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, V1, mismatch.Requested)
	assert.Equal(t, "createReferral", mismatch.Field)
}

func TestBuildTokenConfigV1UsesRoyaltyRecipient(t *testing.T) {
	payout := common.HexToAddress("0xbeef")
	tc, err := BuildTokenConfig(V1, TokenConfigInput{PayoutRecipient: &payout}, TokenDefaults{Creator: creator})
	require.NoError(t, err)

	v1 := tc.(TokenConfigV1)
	assert.Equal(t, payout, v1.RoyaltyRecipient)
	assert.Equal(t, uint32(0), v1.RoyaltyMintSchedule)
}

func TestBuildTokenConfigV3PacksFixedPriceSale(t *testing.T) {
	maxPerAddress := uint64(3)
	tc, err := BuildTokenConfig(V3, TokenConfigInput{
		TokenURI:            "ipfs://v3",
		PricePerToken:       big.NewInt(42),
		MaxTokensPerAddress: &maxPerAddress,
	}, TokenDefaults{Creator: creator, FixedPriceMinter: fixedMinter})
	require.NoError(t, err)

	v3 := tc.(TokenConfigV3)
	assert.Equal(t, fixedMinter, v3.Minter)

	sales, err := DecodeFixedPriceSalesConfig(v3.PremintSalesConfig)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), sales.PricePerToken)
	assert.Equal(t, uint64(3), sales.MaxTokensPerAddress)
	assert.Equal(t, DefaultMintDuration, sales.Duration)
	assert.Equal(t, creator, sales.FundsRecipient)

	price, err := NativePricePerToken(v3, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), price)
}

func TestBuildTokenConfigV3RejectsSaleTermsNextToBlob(t *testing.T) {
	_, err := BuildTokenConfig(V3, TokenConfigInput{
		PricePerToken:      big.NewInt(1),
		PremintSalesConfig: []byte{0x01},
	}, TokenDefaults{Creator: creator})
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestNativePriceOfERC20Premint(t *testing.T) {
	erc20Minter := common.HexToAddress("0x777777E8850d8D6d98De2B5f64fae401F96eFF31")
	blob, err := EncodeERC20SalesConfig(ERC20SalesConfig{
		PricePerToken: big.NewInt(5_000),
		Currency:      common.HexToAddress("0xc0ffee"),
	})
	require.NoError(t, err)

	price, err := NativePricePerToken(TokenConfigV3{
		MaxSupply:          big.NewInt(1),
		Minter:             erc20Minter,
		PremintSalesConfig: blob,
	}, erc20Minter)
	require.NoError(t, err)
	assert.Equal(t, 0, price.Sign())

	decoded, err := DecodeERC20SalesConfig(blob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_000), decoded.PricePerToken)
	assert.Equal(t, common.HexToAddress("0xc0ffee"), decoded.Currency)
}

func TestSelectVersion(t *testing.T) {
	collection := common.HexToAddress("0x1")

	v, err := SelectVersion(collection, []ConfigVersion{V1, V2, V3}, []ConfigVersion{V1, V2})
	require.NoError(t, err)
	assert.Equal(t, V2, v)

	v, err = SelectVersion(collection, []ConfigVersion{V1}, []ConfigVersion{V1, V2})
	require.NoError(t, err)
	assert.Equal(t, V1, v)

	_, err = SelectVersion(collection, []ConfigVersion{V3}, []ConfigVersion{V1, V2})
	require.ErrorIs(t, err, ErrVersionMismatch)

	require.NoError(t, RequireVersion(collection, []ConfigVersion{V1, V2}, V2))
	require.ErrorIs(t, RequireVersion(collection, []ConfigVersion{V1}, V2), ErrVersionMismatch)
}

func TestParseConfigVersion(t *testing.T) {
	v, err := ParseConfigVersion("")
	require.NoError(t, err)
	assert.Equal(t, V1, v)

	v, err = ParseConfigVersion("3")
	require.NoError(t, err)
	assert.Equal(t, V3, v)

	_, err = ParseConfigVersion("4")
	require.ErrorIs(t, err, ErrDecode)
}

func TestVersionHashesDiffer(t *testing.T) {
	assert.NotEqual(t, V1.Hash(), V2.Hash())
	assert.NotEqual(t, V2.Hash(), V3.Hash())
}

func TestCollectionConfigDigest(t *testing.T) {
	a := CollectionConfig{ContractAdmin: creator, ContractURI: "ab", ContractName: "c"}
	b := CollectionConfig{ContractAdmin: creator, ContractURI: "a", ContractName: "bc"}

	assert.Equal(t, a.Digest(), a.Digest())
	assert.NotEqual(t, a.Digest(), b.Digest())

	withAdmin := a
	withAdmin.AdditionalAdmins = []common.Address{referral}
	assert.NotEqual(t, a.Digest(), withAdmin.Digest())
	assert.True(t, withAdmin.IsAdmin(referral))
	assert.False(t, a.IsAdmin(referral))
}

func TestCollectionValidate(t *testing.T) {
	require.Error(t, Collection{}.Validate())
	require.NoError(t, CollectionAt(creator).Validate())
	require.Error(t, CollectionFrom(CollectionConfig{ContractName: "x"}).Validate())

	both := CollectionFrom(CollectionConfig{ContractAdmin: creator, ContractName: "x"})
	both.Address = creator
	require.Error(t, both.Validate())
}
