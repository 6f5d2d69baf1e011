package premint

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type (
	// Config is the signed unit of a premint. UID names the logical token inside
	// its collection. Version increases by one for every resubmission.
	Config struct {
		TokenConfig TokenConfig
		UID         uint32
		Version     uint32
		Deleted     bool
	}

	// SignedPremint is a config together with the collection it targets and the
	// creator signature, as persisted by the premint API.
	SignedPremint struct {
		Collection        *CollectionConfig
		CollectionAddress common.Address
		Config            Config
		Signature         []byte
	}

	// TokenConfigUpdate holds field-level overrides. Nil fields keep their value.
	TokenConfigUpdate struct {
		TokenURI            *string
		MaxSupply           *big.Int
		MaxTokensPerAddress *uint64
		PricePerToken       *big.Int
		MintStart           *uint64
		MintDuration        *uint64
		RoyaltyBPS          *uint32
		RoyaltyRecipient    *common.Address
		PayoutRecipient     *common.Address
		FixedPriceMinter    *common.Address
		CreateReferral      *common.Address
		Minter              *common.Address
		PremintSalesConfig  []byte
	}
)

// NewConfig starts a new uid at version 0.
func NewConfig(tokenConfig TokenConfig, uid uint32) Config {
	return Config{TokenConfig: tokenConfig, UID: uid, Version: 0, Deleted: false}
}

func (c Config) ConfigVersion() ConfigVersion {
	return c.TokenConfig.ConfigVersion()
}

func (c Config) Validate() error {
	if c.TokenConfig == nil {
		return errors.New("premint config has no token config")
	}
	return c.TokenConfig.Validate()
}

// Target returns the collection the signed premint should be redeemed against.
func (s SignedPremint) Target() Collection {
	if s.Collection != nil {
		return CollectionFrom(*s.Collection)
	}
	return CollectionAt(s.CollectionAddress)
}

// ApplyUpdate applies overrides to the latest config and returns the next
// version. Updates always produce a live record. A deleted uid cannot be revived.
func ApplyUpdate(latest Config, update TokenConfigUpdate) (Config, error) {
	if latest.Deleted {
		return Config{}, &DeletedError{UID: latest.UID, Version: latest.Version}
	}

	next, err := nextVersion(latest.Version)
	if err != nil {
		return Config{}, err
	}

	updated, err := applyTokenUpdate(latest.TokenConfig.clone(), update)
	if err != nil {
		return Config{}, err
	}
	if err := updated.Validate(); err != nil {
		return Config{}, err
	}

	return Config{TokenConfig: updated, UID: latest.UID, Version: next, Deleted: false}, nil
}

// MarkDeleted produces the next version with the deleted flag set. A deleted
// uid stays deleted.
func MarkDeleted(latest Config) (Config, error) {
	if latest.Deleted {
		return Config{}, &DeletedError{UID: latest.UID, Version: latest.Version}
	}

	next, err := nextVersion(latest.Version)
	if err != nil {
		return Config{}, err
	}

	return Config{TokenConfig: latest.TokenConfig.clone(), UID: latest.UID, Version: next, Deleted: true}, nil
}

func nextVersion(v uint32) (uint32, error) {
	if v == math.MaxUint32 {
		return 0, &ArithmeticOverflowError{Field: "version", Bits: 32}
	}
	return v + 1, nil
}

func applyTokenUpdate(tc TokenConfig, u TokenConfigUpdate) (TokenConfig, error) {
	switch c := tc.(type) {
	case TokenConfigV1:
		if err := rejectFields(V1,
			field{"payoutRecipient", u.PayoutRecipient != nil},
			field{"createReferral", u.CreateReferral != nil},
			field{"minter", u.Minter != nil},
			field{"premintSalesConfig", u.PremintSalesConfig != nil},
		); err != nil {
			return nil, err
		}
		setString(&c.TokenURI, u.TokenURI)
		setInt(&c.MaxSupply, u.MaxSupply)
		setUint64(&c.MaxTokensPerAddress, u.MaxTokensPerAddress)
		setInt(&c.PricePerToken, u.PricePerToken)
		setUint64(&c.MintStart, u.MintStart)
		setUint64(&c.MintDuration, u.MintDuration)
		setUint32(&c.RoyaltyBPS, u.RoyaltyBPS)
		setAddress(&c.RoyaltyRecipient, u.RoyaltyRecipient)
		setAddress(&c.FixedPriceMinter, u.FixedPriceMinter)
		return c, nil
	case TokenConfigV2:
		if err := rejectFields(V2,
			field{"royaltyRecipient", u.RoyaltyRecipient != nil},
			field{"minter", u.Minter != nil},
			field{"premintSalesConfig", u.PremintSalesConfig != nil},
		); err != nil {
			return nil, err
		}
		setString(&c.TokenURI, u.TokenURI)
		setInt(&c.MaxSupply, u.MaxSupply)
		setUint64(&c.MaxTokensPerAddress, u.MaxTokensPerAddress)
		setInt(&c.PricePerToken, u.PricePerToken)
		setUint64(&c.MintStart, u.MintStart)
		setUint64(&c.MintDuration, u.MintDuration)
		setUint32(&c.RoyaltyBPS, u.RoyaltyBPS)
		setAddress(&c.PayoutRecipient, u.PayoutRecipient)
		setAddress(&c.FixedPriceMinter, u.FixedPriceMinter)
		setAddress(&c.CreateReferral, u.CreateReferral)
		return c, nil
	case TokenConfigV3:
		if err := rejectFields(V3,
			field{"royaltyRecipient", u.RoyaltyRecipient != nil},
			field{"maxTokensPerAddress", u.MaxTokensPerAddress != nil},
			field{"pricePerToken", u.PricePerToken != nil},
			field{"mintDuration", u.MintDuration != nil},
			field{"fixedPriceMinter", u.FixedPriceMinter != nil},
		); err != nil {
			return nil, err
		}
		setString(&c.TokenURI, u.TokenURI)
		setInt(&c.MaxSupply, u.MaxSupply)
		setUint64(&c.MintStart, u.MintStart)
		setUint32(&c.RoyaltyBPS, u.RoyaltyBPS)
		setAddress(&c.PayoutRecipient, u.PayoutRecipient)
		setAddress(&c.CreateReferral, u.CreateReferral)
		setAddress(&c.Minter, u.Minter)
		if u.PremintSalesConfig != nil {
			c.PremintSalesConfig = append([]byte(nil), u.PremintSalesConfig...)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown token config type %T", tc)
	}
}

type field struct {
	name string
	set  bool
}

// rejectFields fails on the first field the version does not carry.
func rejectFields(version ConfigVersion, fields ...field) error {
	for _, f := range fields {
		if f.set {
			return &VersionMismatchError{Requested: version, Field: f.name}
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst **big.Int, v *big.Int) {
	if v != nil {
		*dst = new(big.Int).Set(v)
	}
}

func setUint64(dst *uint64, v *uint64) {
	if v != nil {
		*dst = *v
	}
}

func setUint32(dst *uint32, v *uint32) {
	if v != nil {
		*dst = *v
	}
}

func setAddress(dst *common.Address, v *common.Address) {
	if v != nil {
		*dst = *v
	}
}
