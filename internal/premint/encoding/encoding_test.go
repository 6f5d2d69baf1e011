package encoding

import (
	"math/big"
	"testing"

	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	creator     = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	fixedMinter = common.HexToAddress("0x04E2516A2c207E84a1839755675dfd8eF6302F0a")
)

func tokenConfigs(t *testing.T) map[premint.ConfigVersion]premint.TokenConfig {
	t.Helper()
	out := make(map[premint.ConfigVersion]premint.TokenConfig)
	for _, v := range premint.AllVersions {
		tc, err := premint.BuildTokenConfig(v, premint.TokenConfigInput{
			TokenURI:      "ipfs://encoded",
			MaxSupply:     big.NewInt(1000),
			PricePerToken: big.NewInt(777),
		}, premint.TokenDefaults{Creator: creator, FixedPriceMinter: fixedMinter})
		require.NoError(t, err)
		out[v] = tc
	}
	return out
}

func TestTokenConfigRoundTrip(t *testing.T) {
	for version, tc := range tokenConfigs(t) {
		t.Run("v"+string(version), func(t *testing.T) {
			data, err := EncodeTokenConfig(tc)
			require.NoError(t, err)

			decoded, err := DecodeTokenConfig(version, data)
			require.NoError(t, err)
			assert.Equal(t, version, decoded.ConfigVersion())
			assert.Equal(t, premint.TokenURI(tc), premint.TokenURI(decoded))

			again, err := EncodeTokenConfig(decoded)
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestEncodePremintConfigTagsVersion(t *testing.T) {
	configs := tokenConfigs(t)

	encoded, err := EncodePremintConfig(premint.Config{TokenConfig: configs[premint.V2], UID: 5, Version: 2})
	require.NoError(t, err)

	assert.Equal(t, uint32(5), encoded.UID)
	assert.Equal(t, uint32(2), encoded.Version)
	assert.False(t, encoded.Deleted)
	assert.Equal(t, [32]byte(crypto.Keccak256Hash([]byte("2"))), encoded.PremintConfigVersion)

	cfg, err := DecodePremintConfig(encoded)
	require.NoError(t, err)
	assert.Equal(t, premint.V2, cfg.ConfigVersion())
	assert.Equal(t, uint32(5), cfg.UID)
}

func TestEncodingsDifferAcrossVersions(t *testing.T) {
	configs := tokenConfigs(t)

	v1, err := EncodeTokenConfig(configs[premint.V1])
	require.NoError(t, err)
	v2, err := EncodeTokenConfig(configs[premint.V2])
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeTokenConfig(premint.V2, []byte{0x01, 0x02})
	require.ErrorIs(t, err, premint.ErrDecode)

	_, err = DecodePremintConfig(PremintConfigEncoded{PremintConfigVersion: [32]byte{0xff}})
	require.ErrorIs(t, err, premint.ErrDecode)
}

func TestEncodeRejectsOverflow(t *testing.T) {
	tc := tokenConfigs(t)[premint.V1].(premint.TokenConfigV1)
	tc.PricePerToken = new(big.Int).Lsh(big.NewInt(1), 100)

	_, err := EncodeTokenConfig(tc)
	require.ErrorIs(t, err, premint.ErrArithmeticOverflow)
}
