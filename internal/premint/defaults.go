package premint

import (
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultMintDuration = uint64(7 * 24 * time.Hour / time.Second)
	DefaultRoyaltyBPS   = uint32(1000)
)

// OpenEditionMintSize is the max supply used when none is given.
var OpenEditionMintSize = new(big.Int).SetUint64(math.MaxUint64)

type (
	// TokenConfigInput is what a creator supplies. Nil fields take defaults.
	TokenConfigInput struct {
		TokenURI            string
		MaxSupply           *big.Int
		MaxTokensPerAddress *uint64
		PricePerToken       *big.Int
		MintStart           *uint64
		MintDuration        *uint64
		RoyaltyBPS          *uint32
		PayoutRecipient     *common.Address
		CreateReferral      *common.Address
		Minter              *common.Address
		PremintSalesConfig  []byte
	}

	// TokenDefaults are chain-dependent defaults.
	TokenDefaults struct {
		Creator          common.Address
		FixedPriceMinter common.Address
	}
)

// BuildTokenConfig shapes creator input into the token config of version.
// Fields the version cannot carry are rejected with VersionMismatchError.
func BuildTokenConfig(version ConfigVersion, in TokenConfigInput, defaults TokenDefaults) (TokenConfig, error) {
	payout := defaults.Creator
	if in.PayoutRecipient != nil {
		payout = *in.PayoutRecipient
	}

	var tc TokenConfig
	switch version {
	case V1:
		if err := rejectFields(V1,
			field{"createReferral", in.CreateReferral != nil && *in.CreateReferral != (common.Address{})},
			field{"minter", in.Minter != nil},
			field{"premintSalesConfig", in.PremintSalesConfig != nil},
		); err != nil {
			return nil, err
		}
		tc = TokenConfigV1{
			TokenURI:            in.TokenURI,
			MaxSupply:           intOr(in.MaxSupply, OpenEditionMintSize),
			MaxTokensPerAddress: uint64Or(in.MaxTokensPerAddress, 0),
			PricePerToken:       intOr(in.PricePerToken, new(big.Int)),
			MintStart:           uint64Or(in.MintStart, 0),
			MintDuration:        uint64Or(in.MintDuration, DefaultMintDuration),
			RoyaltyMintSchedule: 0,
			RoyaltyBPS:          uint32Or(in.RoyaltyBPS, DefaultRoyaltyBPS),
			RoyaltyRecipient:    payout,
			FixedPriceMinter:    defaults.FixedPriceMinter,
		}
	case V2:
		if err := rejectFields(V2,
			field{"minter", in.Minter != nil},
			field{"premintSalesConfig", in.PremintSalesConfig != nil},
		); err != nil {
			return nil, err
		}
		tc = TokenConfigV2{
			TokenURI:            in.TokenURI,
			MaxSupply:           intOr(in.MaxSupply, OpenEditionMintSize),
			MaxTokensPerAddress: uint64Or(in.MaxTokensPerAddress, 0),
			PricePerToken:       intOr(in.PricePerToken, new(big.Int)),
			MintStart:           uint64Or(in.MintStart, 0),
			MintDuration:        uint64Or(in.MintDuration, DefaultMintDuration),
			RoyaltyBPS:          uint32Or(in.RoyaltyBPS, DefaultRoyaltyBPS),
			PayoutRecipient:     payout,
			FixedPriceMinter:    defaults.FixedPriceMinter,
			CreateReferral:      addressOr(in.CreateReferral, common.Address{}),
		}
	case V3:
		salesConfig := in.PremintSalesConfig
		if salesConfig != nil {
			// sale terms already live in the minter-specific blob
			if err := rejectFields(V3,
				field{"maxTokensPerAddress", in.MaxTokensPerAddress != nil},
				field{"pricePerToken", in.PricePerToken != nil},
				field{"mintDuration", in.MintDuration != nil},
			); err != nil {
				return nil, err
			}
		} else {
			encoded, err := EncodeFixedPriceSalesConfig(FixedPriceSalesConfig{
				Duration:            uint64Or(in.MintDuration, DefaultMintDuration),
				MaxTokensPerAddress: uint64Or(in.MaxTokensPerAddress, 0),
				PricePerToken:       intOr(in.PricePerToken, new(big.Int)),
				FundsRecipient:      payout,
			})
			if err != nil {
				return nil, err
			}
			salesConfig = encoded
		}
		tc = TokenConfigV3{
			TokenURI:           in.TokenURI,
			MaxSupply:          intOr(in.MaxSupply, OpenEditionMintSize),
			RoyaltyBPS:         uint32Or(in.RoyaltyBPS, DefaultRoyaltyBPS),
			PayoutRecipient:    payout,
			CreateReferral:     addressOr(in.CreateReferral, common.Address{}),
			MintStart:          uint64Or(in.MintStart, 0),
			Minter:             addressOr(in.Minter, defaults.FixedPriceMinter),
			PremintSalesConfig: append([]byte(nil), salesConfig...),
		}
	default:
		return nil, &VersionMismatchError{Requested: version}
	}

	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return tc, nil
}

func intOr(v, fallback *big.Int) *big.Int {
	if v == nil {
		return new(big.Int).Set(fallback)
	}
	return new(big.Int).Set(v)
}

func uint64Or(v *uint64, fallback uint64) uint64 {
	if v == nil {
		return fallback
	}
	return *v
}

func uint32Or(v *uint32, fallback uint32) uint32 {
	if v == nil {
		return fallback
	}
	return *v
}

func addressOr(v *common.Address, fallback common.Address) common.Address {
	if v == nil {
		return fallback
	}
	return *v
}
