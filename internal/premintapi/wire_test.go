package premintapi

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	creator     = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	fixedMinter = common.HexToAddress("0x04E2516A2c207E84a1839755675dfd8eF6302F0a")
)

const v1Record = `{
	"collection": {"contractAdmin": "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", "contractURI": "ipfs://c", "contractName": "Drop"},
	"premint": {
		"uid": 3,
		"version": 1,
		"deleted": false,
		"tokenConfig": {
			"tokenURI": "ipfs://t",
			"maxSupply": "18446744073709551615",
			"maxTokensPerAddress": 0,
			"pricePerToken": "0",
			"mintStart": "0",
			"mintDuration": "604800",
			"royaltyMintSchedule": 0,
			"royaltyBPS": 1000,
			"royaltyRecipient": "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
			"fixedPriceMinter": "0x04e2516a2c207e84a1839755675dfd8ef6302f0a"
		}
	},
	"signature": "0x1234"
}`

func TestDecodeSignatureWithoutVersionIsV1(t *testing.T) {
	var resp SignatureResponse
	require.NoError(t, json.Unmarshal([]byte(v1Record), &resp))

	signed, err := DecodeSignature(resp)
	require.NoError(t, err)

	assert.Equal(t, premint.V1, signed.Config.ConfigVersion())
	assert.Equal(t, uint32(3), signed.Config.UID)
	assert.Equal(t, uint32(1), signed.Config.Version)
	assert.Equal(t, []byte{0x12, 0x34}, signed.Signature)
	require.NotNil(t, signed.Collection)
	assert.Equal(t, creator, signed.Collection.ContractAdmin)

	tc := signed.Config.TokenConfig.(premint.TokenConfigV1)
	assert.Equal(t, premint.OpenEditionMintSize, tc.MaxSupply)
	assert.Equal(t, uint64(604800), tc.MintDuration)
	assert.Equal(t, fixedMinter, tc.FixedPriceMinter)
}

func TestEncodeDecodePremint(t *testing.T) {
	sales, err := premint.EncodeFixedPriceSalesConfig(premint.FixedPriceSalesConfig{
		Duration:       100,
		PricePerToken:  big.NewInt(5),
		FundsRecipient: creator,
	})
	require.NoError(t, err)

	configs := map[string]premint.TokenConfig{
		"v1": premint.TokenConfigV1{
			TokenURI: "ipfs://t", MaxSupply: big.NewInt(10), PricePerToken: big.NewInt(7),
			MintDuration: 60, RoyaltyBPS: 100, RoyaltyRecipient: creator, FixedPriceMinter: fixedMinter,
		},
		"v2": premint.TokenConfigV2{
			TokenURI: "ipfs://t", MaxSupply: big.NewInt(10), MaxTokensPerAddress: 2, PricePerToken: big.NewInt(7),
			MintStart: 5, MintDuration: 60, RoyaltyBPS: 100, PayoutRecipient: creator, FixedPriceMinter: fixedMinter,
			CreateReferral: fixedMinter,
		},
		"v3": premint.TokenConfigV3{
			TokenURI: "ipfs://t", MaxSupply: big.NewInt(10), RoyaltyBPS: 100, PayoutRecipient: creator,
			MintStart: 5, Minter: fixedMinter, PremintSalesConfig: sales,
		},
	}

	for name, tc := range configs {
		t.Run(name, func(t *testing.T) {
			cfg := premint.Config{TokenConfig: tc, UID: 9, Version: 2}

			encoded, err := EncodePremint(cfg)
			require.NoError(t, err)
			assert.Equal(t, string(tc.ConfigVersion()), encoded.ConfigVersion)

			raw, err := json.Marshal(encoded)
			require.NoError(t, err)
			var wire PremintJSON
			require.NoError(t, json.Unmarshal(raw, &wire))

			decoded, err := DecodePremint(wire)
			require.NoError(t, err)
			assert.Equal(t, cfg, decoded)
		})
	}
}

func TestDecodeRejectsMalformedNumerics(t *testing.T) {
	tests := map[string]func(*TokenConfigJSON){
		"negative price":     func(j *TokenConfigJSON) { j.PricePerToken = "-1" },
		"price over 96 bits": func(j *TokenConfigJSON) { j.PricePerToken = "79228162514264337593543950336" },
		"signed":             func(j *TokenConfigJSON) { j.MaxSupply = "+5" },
		"hex":                func(j *TokenConfigJSON) { j.MaxSupply = "0x10" },
		"missing supply":     func(j *TokenConfigJSON) { j.MaxSupply = "" },
		"mint start":         func(j *TokenConfigJSON) { j.MintStart = "1.5" },
		"bad address":        func(j *TokenConfigJSON) { j.PayoutRecipient = "0x1234" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := EncodePremint(premint.Config{TokenConfig: premint.TokenConfigV2{
				TokenURI: "ipfs://t", MaxSupply: big.NewInt(1), PricePerToken: big.NewInt(1),
				PayoutRecipient: creator, FixedPriceMinter: fixedMinter,
			}})
			require.NoError(t, err)
			mutate(&p.TokenConfig)

			_, err = DecodePremint(p)
			var decodeErr *premint.DecodeError
			require.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestDecodeOverflowKeepsCause(t *testing.T) {
	_, err := ParseUint("pricePerToken", "79228162514264337593543950336", 96)
	assert.ErrorIs(t, err, premint.ErrDecode)
	assert.ErrorIs(t, err, premint.ErrArithmeticOverflow)

	n, err := ParseUint("pricePerToken", "79228162514264337593543950335", 96)
	require.NoError(t, err)
	assert.Equal(t, 96, n.BitLen())
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := DecodePremint(PremintJSON{ConfigVersion: "9"})
	assert.ErrorIs(t, err, premint.ErrDecode)
}

func TestDecodeRequiresATarget(t *testing.T) {
	var resp SignatureResponse
	require.NoError(t, json.Unmarshal([]byte(v1Record), &resp))
	resp.Collection = nil

	_, err := DecodeSignature(resp)
	assert.ErrorIs(t, err, premint.ErrDecode)
}

func TestDecimalAcceptsNumbersAndStrings(t *testing.T) {
	var out struct {
		A Decimal `json:"a"`
		B Decimal `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12, "b": "34"}`), &out))
	assert.Equal(t, Decimal("12"), out.A)
	assert.Equal(t, Decimal("34"), out.B)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "12", "b": "34"}`, string(raw))
}
