package lifecycle

import (
	"math/big"

	"github.com/compose-network/premint/internal/contracts"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/redemption"
	"github.com/compose-network/premint/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

type (
	CreateRequest struct {
		Collection premint.Collection
		Token      premint.TokenConfigInput
		// Creator defaults the payout recipient. Defaults to the collection admin.
		Creator common.Address
		// UID is assigned by the persistence API when nil.
		UID *uint32
		// Version forces a config version instead of the newest one both sides support.
		Version premint.ConfigVersion
	}

	UpdateRequest struct {
		Collection premint.Collection
		UID        uint32
		Update     premint.TokenConfigUpdate
	}

	RedeemRequest struct {
		Collection premint.Collection
		UID        uint32
		// HeldVersion is the version the caller last saw. When set, a newer
		// persisted version fails the redemption instead of silently minting it.
		HeldVersion *uint32
		// ValidateSignature checks the signer's rights before building the call.
		ValidateSignature bool
		Args              redemption.Args
	}

	// Prepared is a config ready to be signed. Nothing is persisted until it is
	// submitted with a signature.
	Prepared struct {
		Collection        premint.Collection `json:"-" yaml:"-"`
		CollectionAddress common.Address     `json:"collectionAddress" yaml:"collection-address"`
		ChainID           int64              `json:"chainId" yaml:"chain-id"`
		Config            premint.Config     `json:"-" yaml:"-"`
		TypedData         apitypes.TypedData `json:"typedData" yaml:"-"`
		Digest            common.Hash        `json:"digest" yaml:"digest"`
		URL               string             `json:"url" yaml:"url"`
	}

	Redemption struct {
		Call              contracts.Call        `json:"call" yaml:"call"`
		Cost              sale.Cost             `json:"cost" yaml:"cost"`
		Signed            premint.SignedPremint `json:"-" yaml:"-"`
		CollectionAddress common.Address        `json:"collectionAddress" yaml:"collection-address"`
		// Signer is set when the signature was validated.
		Signer *common.Address `json:"signer,omitempty" yaml:"signer,omitempty"`
		// TokenID is set when the premint was already brought on chain.
		TokenID *big.Int `json:"tokenId,omitempty" yaml:"token-id,omitempty"`
	}

	// CollectionPremint is a persisted premint and, once minted, its token id.
	CollectionPremint struct {
		Signed  premint.SignedPremint
		TokenID *big.Int
		URL     string
	}
)
