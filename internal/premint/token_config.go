package premint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenConfig is the version-specific token creation config. The set of
// implementations is closed: TokenConfigV1, TokenConfigV2 and TokenConfigV3.
type TokenConfig interface {
	ConfigVersion() ConfigVersion
	// Validate rejects values that do not fit their on-chain widths.
	Validate() error
	clone() TokenConfig
	isTokenConfig()
}

type (
	TokenConfigV1 struct {
		TokenURI            string
		MaxSupply           *big.Int // uint256
		MaxTokensPerAddress uint64
		PricePerToken       *big.Int // uint96
		MintStart           uint64
		MintDuration        uint64
		RoyaltyMintSchedule uint32 // deprecated, always 0
		RoyaltyBPS          uint32
		RoyaltyRecipient    common.Address
		FixedPriceMinter    common.Address
	}

	TokenConfigV2 struct {
		TokenURI            string
		MaxSupply           *big.Int // uint256
		MaxTokensPerAddress uint64
		PricePerToken       *big.Int // uint96
		MintStart           uint64
		MintDuration        uint64
		RoyaltyBPS          uint32
		PayoutRecipient     common.Address
		FixedPriceMinter    common.Address
		CreateReferral      common.Address
	}

	// TokenConfigV3 moves sale terms into a minter-specific PremintSalesConfig blob.
	TokenConfigV3 struct {
		TokenURI           string
		MaxSupply          *big.Int // uint256
		RoyaltyBPS         uint32
		PayoutRecipient    common.Address
		CreateReferral     common.Address
		MintStart          uint64
		Minter             common.Address
		PremintSalesConfig []byte
	}
)

func (TokenConfigV1) ConfigVersion() ConfigVersion { return V1 }
func (TokenConfigV2) ConfigVersion() ConfigVersion { return V2 }
func (TokenConfigV3) ConfigVersion() ConfigVersion { return V3 }

func (TokenConfigV1) isTokenConfig() {}
func (TokenConfigV2) isTokenConfig() {}
func (TokenConfigV3) isTokenConfig() {}

func (c TokenConfigV1) Validate() error {
	var schedule error
	if c.RoyaltyMintSchedule != 0 {
		schedule = fmt.Errorf("royaltyMintSchedule is deprecated and must be 0, got %d", c.RoyaltyMintSchedule)
	}
	return errors.Join(
		checkUint("maxSupply", c.MaxSupply, 256),
		checkUint("pricePerToken", c.PricePerToken, 96),
		schedule,
	)
}

func (c TokenConfigV2) Validate() error {
	return errors.Join(
		checkUint("maxSupply", c.MaxSupply, 256),
		checkUint("pricePerToken", c.PricePerToken, 96),
	)
}

func (c TokenConfigV3) Validate() error {
	return checkUint("maxSupply", c.MaxSupply, 256)
}

func (c TokenConfigV1) clone() TokenConfig {
	c.MaxSupply = cloneInt(c.MaxSupply)
	c.PricePerToken = cloneInt(c.PricePerToken)
	return c
}

func (c TokenConfigV2) clone() TokenConfig {
	c.MaxSupply = cloneInt(c.MaxSupply)
	c.PricePerToken = cloneInt(c.PricePerToken)
	return c
}

func (c TokenConfigV3) clone() TokenConfig {
	c.MaxSupply = cloneInt(c.MaxSupply)
	c.PremintSalesConfig = append([]byte(nil), c.PremintSalesConfig...)
	return c
}

// MigrateToV2 converts a V1 config, moving the royalty recipient into the
// payout recipient slot.
func MigrateToV2(c TokenConfigV1, createReferral common.Address) TokenConfigV2 {
	return TokenConfigV2{
		TokenURI:            c.TokenURI,
		MaxSupply:           cloneInt(c.MaxSupply),
		MaxTokensPerAddress: c.MaxTokensPerAddress,
		PricePerToken:       cloneInt(c.PricePerToken),
		MintStart:           c.MintStart,
		MintDuration:        c.MintDuration,
		RoyaltyBPS:          c.RoyaltyBPS,
		PayoutRecipient:     c.RoyaltyRecipient,
		FixedPriceMinter:    c.FixedPriceMinter,
		CreateReferral:      createReferral,
	}
}

// TokenURI returns the metadata uri of any token config.
func TokenURI(tc TokenConfig) string {
	switch c := tc.(type) {
	case TokenConfigV1:
		return c.TokenURI
	case TokenConfigV2:
		return c.TokenURI
	case TokenConfigV3:
		return c.TokenURI
	default:
		panic("premint: unknown token config type")
	}
}

func checkUint(field string, v *big.Int, bits int) error {
	if v == nil || v.Sign() < 0 || v.BitLen() > bits {
		return &ArithmeticOverflowError{Field: field, Bits: bits}
	}
	return nil
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
