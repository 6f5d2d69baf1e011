// Package encoding ABI-encodes premint configs the way the executor decodes them.
package encoding

import (
	"fmt"
	"math/big"

	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type (
	tokenConfigV1Tuple struct {
		TokenURI            string         `abi:"tokenURI"`
		MaxSupply           *big.Int       `abi:"maxSupply"`
		MaxTokensPerAddress uint64         `abi:"maxTokensPerAddress"`
		PricePerToken       *big.Int       `abi:"pricePerToken"`
		MintStart           uint64         `abi:"mintStart"`
		MintDuration        uint64         `abi:"mintDuration"`
		RoyaltyMintSchedule uint32         `abi:"royaltyMintSchedule"`
		RoyaltyBPS          uint32         `abi:"royaltyBPS"`
		RoyaltyRecipient    common.Address `abi:"royaltyRecipient"`
		FixedPriceMinter    common.Address `abi:"fixedPriceMinter"`
	}

	tokenConfigV2Tuple struct {
		TokenURI            string         `abi:"tokenURI"`
		MaxSupply           *big.Int       `abi:"maxSupply"`
		MaxTokensPerAddress uint64         `abi:"maxTokensPerAddress"`
		PricePerToken       *big.Int       `abi:"pricePerToken"`
		MintStart           uint64         `abi:"mintStart"`
		MintDuration        uint64         `abi:"mintDuration"`
		RoyaltyBPS          uint32         `abi:"royaltyBPS"`
		PayoutRecipient     common.Address `abi:"payoutRecipient"`
		FixedPriceMinter    common.Address `abi:"fixedPriceMinter"`
		CreateReferral      common.Address `abi:"createReferral"`
	}

	tokenConfigV3Tuple struct {
		TokenURI           string         `abi:"tokenURI"`
		MaxSupply          *big.Int       `abi:"maxSupply"`
		RoyaltyBPS         uint32         `abi:"royaltyBPS"`
		PayoutRecipient    common.Address `abi:"payoutRecipient"`
		CreateReferral     common.Address `abi:"createReferral"`
		MintStart          uint64         `abi:"mintStart"`
		Minter             common.Address `abi:"minter"`
		PremintSalesConfig []byte         `abi:"premintSalesConfig"`
	}

	// PremintConfigEncoded is the version-agnostic config struct accepted by the
	// executor's premint entrypoint.
	PremintConfigEncoded struct {
		UID                  uint32   `abi:"uid"`
		Version              uint32   `abi:"version"`
		Deleted              bool     `abi:"deleted"`
		TokenConfig          []byte   `abi:"tokenConfig"`
		PremintConfigVersion [32]byte `abi:"premintConfigVersion"`
	}
)

var tokenConfigArgs = map[premint.ConfigVersion]abi.Arguments{
	premint.V1: tupleArguments(
		component("tokenURI", "string"),
		component("maxSupply", "uint256"),
		component("maxTokensPerAddress", "uint64"),
		component("pricePerToken", "uint96"),
		component("mintStart", "uint64"),
		component("mintDuration", "uint64"),
		component("royaltyMintSchedule", "uint32"),
		component("royaltyBPS", "uint32"),
		component("royaltyRecipient", "address"),
		component("fixedPriceMinter", "address"),
	),
	premint.V2: tupleArguments(
		component("tokenURI", "string"),
		component("maxSupply", "uint256"),
		component("maxTokensPerAddress", "uint64"),
		component("pricePerToken", "uint96"),
		component("mintStart", "uint64"),
		component("mintDuration", "uint64"),
		component("royaltyBPS", "uint32"),
		component("payoutRecipient", "address"),
		component("fixedPriceMinter", "address"),
		component("createReferral", "address"),
	),
	premint.V3: tupleArguments(
		component("tokenURI", "string"),
		component("maxSupply", "uint256"),
		component("royaltyBPS", "uint32"),
		component("payoutRecipient", "address"),
		component("createReferral", "address"),
		component("mintStart", "uint64"),
		component("minter", "address"),
		component("premintSalesConfig", "bytes"),
	),
}

func component(name, typ string) abi.ArgumentMarshaling {
	return abi.ArgumentMarshaling{Name: name, Type: typ}
}

func tupleArguments(components ...abi.ArgumentMarshaling) abi.Arguments {
	typ, err := abi.NewType("tuple", "", components)
	if err != nil {
		panic(fmt.Sprintf("encoding: invalid tuple definition: %v", err))
	}
	return abi.Arguments{{Name: "tokenConfig", Type: typ}}
}

// EncodeTokenConfig returns abi.encode(tokenConfig) for the config's own schema.
func EncodeTokenConfig(tc premint.TokenConfig) ([]byte, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	args := tokenConfigArgs[tc.ConfigVersion()]
	var (
		data []byte
		err  error
	)
	switch c := tc.(type) {
	case premint.TokenConfigV1:
		data, err = args.Pack(tokenConfigV1Tuple{
			TokenURI:            c.TokenURI,
			MaxSupply:           c.MaxSupply,
			MaxTokensPerAddress: c.MaxTokensPerAddress,
			PricePerToken:       c.PricePerToken,
			MintStart:           c.MintStart,
			MintDuration:        c.MintDuration,
			RoyaltyMintSchedule: c.RoyaltyMintSchedule,
			RoyaltyBPS:          c.RoyaltyBPS,
			RoyaltyRecipient:    c.RoyaltyRecipient,
			FixedPriceMinter:    c.FixedPriceMinter,
		})
	case premint.TokenConfigV2:
		data, err = args.Pack(tokenConfigV2Tuple{
			TokenURI:            c.TokenURI,
			MaxSupply:           c.MaxSupply,
			MaxTokensPerAddress: c.MaxTokensPerAddress,
			PricePerToken:       c.PricePerToken,
			MintStart:           c.MintStart,
			MintDuration:        c.MintDuration,
			RoyaltyBPS:          c.RoyaltyBPS,
			PayoutRecipient:     c.PayoutRecipient,
			FixedPriceMinter:    c.FixedPriceMinter,
			CreateReferral:      c.CreateReferral,
		})
	case premint.TokenConfigV3:
		data, err = args.Pack(tokenConfigV3Tuple{
			TokenURI:           c.TokenURI,
			MaxSupply:          c.MaxSupply,
			RoyaltyBPS:         c.RoyaltyBPS,
			PayoutRecipient:    c.PayoutRecipient,
			CreateReferral:     c.CreateReferral,
			MintStart:          c.MintStart,
			Minter:             c.Minter,
			PremintSalesConfig: c.PremintSalesConfig,
		})
	default:
		return nil, fmt.Errorf("unknown token config type %T", tc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode v%s token config: %w", tc.ConfigVersion(), err)
	}
	return data, nil
}

// EncodePremintConfig wraps the encoded token config with its version tag.
func EncodePremintConfig(cfg premint.Config) (PremintConfigEncoded, error) {
	if cfg.TokenConfig == nil {
		return PremintConfigEncoded{}, fmt.Errorf("premint config has no token config")
	}
	tokenConfig, err := EncodeTokenConfig(cfg.TokenConfig)
	if err != nil {
		return PremintConfigEncoded{}, err
	}
	return PremintConfigEncoded{
		UID:                  cfg.UID,
		Version:              cfg.Version,
		Deleted:              cfg.Deleted,
		TokenConfig:          tokenConfig,
		PremintConfigVersion: cfg.ConfigVersion().Hash(),
	}, nil
}

// DecodeTokenConfig is the inverse of EncodeTokenConfig.
func DecodeTokenConfig(version premint.ConfigVersion, data []byte) (premint.TokenConfig, error) {
	args, ok := tokenConfigArgs[version]
	if !ok {
		return nil, &premint.VersionMismatchError{Requested: version}
	}

	values, err := args.Unpack(data)
	if err != nil {
		return nil, &premint.DecodeError{Field: "tokenConfig", Value: common.Bytes2Hex(data), Err: err}
	}

	switch version {
	case premint.V1:
		t := *abi.ConvertType(values[0], new(tokenConfigV1Tuple)).(*tokenConfigV1Tuple)
		return premint.TokenConfigV1(t), nil
	case premint.V2:
		t := *abi.ConvertType(values[0], new(tokenConfigV2Tuple)).(*tokenConfigV2Tuple)
		return premint.TokenConfigV2(t), nil
	default:
		t := *abi.ConvertType(values[0], new(tokenConfigV3Tuple)).(*tokenConfigV3Tuple)
		return premint.TokenConfigV3(t), nil
	}
}

// DecodePremintConfig rebuilds a config from its encoded form. The version tag
// must match a known schema.
func DecodePremintConfig(encoded PremintConfigEncoded) (premint.Config, error) {
	for _, v := range premint.AllVersions {
		if v.Hash() != encoded.PremintConfigVersion {
			continue
		}
		tc, err := DecodeTokenConfig(v, encoded.TokenConfig)
		if err != nil {
			return premint.Config{}, err
		}
		return premint.Config{TokenConfig: tc, UID: encoded.UID, Version: encoded.Version, Deleted: encoded.Deleted}, nil
	}
	return premint.Config{}, &premint.DecodeError{
		Field: "premintConfigVersion",
		Value: common.Bytes2Hex(encoded.PremintConfigVersion[:]),
	}
}
