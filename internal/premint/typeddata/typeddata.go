// Package typeddata builds the EIP-712 payload a creator signs to authorize a
// premint, and recovers signers from it.
package typeddata

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	DomainName  = "Preminter"
	PrimaryType = "CreatorAttribution"

	tokenConfigType = "TokenCreationConfig"
	domainType      = "EIP712Domain"
	signatureLength = crypto.SignatureLength
)

var domainFields = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

var attributionFields = []apitypes.Type{
	{Name: "tokenConfig", Type: tokenConfigType},
	{Name: "uid", Type: "uint32"},
	{Name: "version", Type: "uint32"},
	{Name: "deleted", Type: "bool"},
}

// tokenConfigFields are the TokenCreationConfig members per schema, in the
// order they are hashed.
var tokenConfigFields = map[premint.ConfigVersion][]apitypes.Type{
	premint.V1: {
		{Name: "tokenURI", Type: "string"},
		{Name: "maxSupply", Type: "uint256"},
		{Name: "maxTokensPerAddress", Type: "uint64"},
		{Name: "pricePerToken", Type: "uint96"},
		{Name: "mintStart", Type: "uint64"},
		{Name: "mintDuration", Type: "uint64"},
		{Name: "royaltyMintSchedule", Type: "uint32"},
		{Name: "royaltyBPS", Type: "uint32"},
		{Name: "royaltyRecipient", Type: "address"},
		{Name: "fixedPriceMinter", Type: "address"},
	},
	premint.V2: {
		{Name: "tokenURI", Type: "string"},
		{Name: "maxSupply", Type: "uint256"},
		{Name: "maxTokensPerAddress", Type: "uint64"},
		{Name: "pricePerToken", Type: "uint96"},
		{Name: "mintStart", Type: "uint64"},
		{Name: "mintDuration", Type: "uint64"},
		{Name: "royaltyBPS", Type: "uint32"},
		{Name: "payoutRecipient", Type: "address"},
		{Name: "fixedPriceMinter", Type: "address"},
		{Name: "createReferral", Type: "address"},
	},
	premint.V3: {
		{Name: "tokenURI", Type: "string"},
		{Name: "maxSupply", Type: "uint256"},
		{Name: "royaltyBPS", Type: "uint32"},
		{Name: "payoutRecipient", Type: "address"},
		{Name: "createReferral", Type: "address"},
		{Name: "mintStart", Type: "uint64"},
		{Name: "minter", Type: "address"},
		{Name: "premintSalesConfig", Type: "bytes"},
	},
}

// ErrMalformedSignature is returned when a signature cannot be recovered.
var ErrMalformedSignature = errors.New("malformed signature")

// Build returns the payload for cfg, signed under the executor domain for
// chainID. Integers are carried as decimal strings so the payload survives a
// JSON round trip without losing precision.
func Build(verifyingContract common.Address, chainID int64, cfg premint.Config) (apitypes.TypedData, error) {
	if err := cfg.Validate(); err != nil {
		return apitypes.TypedData{}, fmt.Errorf("failed to validate premint config: %w", err)
	}

	version := cfg.ConfigVersion()
	fields, ok := tokenConfigFields[version]
	if !ok {
		return apitypes.TypedData{}, &premint.VersionMismatchError{Requested: version}
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			domainType:      domainFields,
			PrimaryType:     attributionFields,
			tokenConfigType: fields,
		},
		PrimaryType: PrimaryType,
		Domain:      domain(DomainName, string(version), chainID, verifyingContract),
		Message: apitypes.TypedDataMessage{
			"tokenConfig": tokenConfigMessage(cfg.TokenConfig),
			"uid":         decimal(uint64(cfg.UID)),
			"version":     decimal(uint64(cfg.Version)),
			"deleted":     cfg.Deleted,
		},
	}, nil
}

func domain(name, version string, chainID int64, verifyingContract common.Address) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              name,
		Version:           version,
		ChainId:           math.NewHexOrDecimal256(chainID),
		VerifyingContract: verifyingContract.Hex(),
	}
}

func tokenConfigMessage(tc premint.TokenConfig) map[string]interface{} {
	switch c := tc.(type) {
	case premint.TokenConfigV1:
		return map[string]interface{}{
			"tokenURI":            c.TokenURI,
			"maxSupply":           c.MaxSupply.String(),
			"maxTokensPerAddress": decimal(c.MaxTokensPerAddress),
			"pricePerToken":       c.PricePerToken.String(),
			"mintStart":           decimal(c.MintStart),
			"mintDuration":        decimal(c.MintDuration),
			"royaltyMintSchedule": decimal(uint64(c.RoyaltyMintSchedule)),
			"royaltyBPS":          decimal(uint64(c.RoyaltyBPS)),
			"royaltyRecipient":    c.RoyaltyRecipient.Hex(),
			"fixedPriceMinter":    c.FixedPriceMinter.Hex(),
		}
	case premint.TokenConfigV2:
		return map[string]interface{}{
			"tokenURI":            c.TokenURI,
			"maxSupply":           c.MaxSupply.String(),
			"maxTokensPerAddress": decimal(c.MaxTokensPerAddress),
			"pricePerToken":       c.PricePerToken.String(),
			"mintStart":           decimal(c.MintStart),
			"mintDuration":        decimal(c.MintDuration),
			"royaltyBPS":          decimal(uint64(c.RoyaltyBPS)),
			"payoutRecipient":     c.PayoutRecipient.Hex(),
			"fixedPriceMinter":    c.FixedPriceMinter.Hex(),
			"createReferral":      c.CreateReferral.Hex(),
		}
	case premint.TokenConfigV3:
		return map[string]interface{}{
			"tokenURI":           c.TokenURI,
			"maxSupply":          c.MaxSupply.String(),
			"royaltyBPS":         decimal(uint64(c.RoyaltyBPS)),
			"payoutRecipient":    c.PayoutRecipient.Hex(),
			"createReferral":     c.CreateReferral.Hex(),
			"mintStart":          decimal(c.MintStart),
			"minter":             c.Minter.Hex(),
			"premintSalesConfig": hexutil.Encode(c.PremintSalesConfig),
		}
	default:
		panic(fmt.Sprintf("typeddata: unknown token config type %T", tc))
	}
}

func decimal(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}

// Hash returns the EIP-712 digest keccak256(0x1901 ‖ domainSeparator ‖ hashStruct(message)).
func Hash(td apitypes.TypedData) (common.Hash, error) {
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return common.BytesToHash(digest), nil
}

// Marshal renders the payload as JSON for wallets and display.
func Marshal(td apitypes.TypedData) ([]byte, error) {
	return json.MarshalIndent(td, "", "  ")
}

// Unmarshal parses a payload produced by Marshal.
func Unmarshal(data []byte) (apitypes.TypedData, error) {
	var td apitypes.TypedData
	if err := json.Unmarshal(data, &td); err != nil {
		return apitypes.TypedData{}, fmt.Errorf("failed to parse typed data: %w", err)
	}
	if td.PrimaryType == "" || td.Types[td.PrimaryType] == nil {
		return apitypes.TypedData{}, fmt.Errorf("typed data has no definition for primary type %q", td.PrimaryType)
	}
	return td, nil
}

// Sign produces a 65 byte signature with v in {27, 28}. It is meant for tests
// and local tooling.
func Sign(td apitypes.TypedData, key *ecdsa.PrivateKey) ([]byte, error) {
	digest, err := Hash(td)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Recover returns the account that signed td. Both v in {0, 1} and {27, 28}
// are accepted.
func Recover(td apitypes.TypedData, sig []byte) (common.Address, error) {
	digest, err := Hash(td)
	if err != nil {
		return common.Address{}, err
	}
	return recoverDigest(digest, sig)
}

// RecoverFromAttribution recovers the creator of a token from the fields of an
// emitted CreatorAttribution event, where structHash is the event's hash of the
// signed config.
func RecoverFromAttribution(
	domainName, version string,
	chainID int64,
	tokenContract common.Address,
	structHash common.Hash,
	sig []byte,
) (common.Address, error) {
	td := apitypes.TypedData{
		Types:  apitypes.Types{domainType: domainFields},
		Domain: domain(domainName, version, chainID, tokenContract),
	}
	separator, err := td.HashStruct(domainType, td.Domain.Map())
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	raw := make([]byte, 0, 2+2*common.HashLength)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, separator...)
	raw = append(raw, structHash.Bytes()...)

	return recoverDigest(crypto.Keccak256Hash(raw), sig)
}

func recoverDigest(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != signatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, signatureLength, len(sig))
	}

	normalized := make([]byte, signatureLength)
	copy(normalized, sig)
	v := normalized[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, fmt.Errorf("%w: invalid recovery id %d", ErrMalformedSignature, sig[crypto.RecoveryIDOffset])
	}
	normalized[crypto.RecoveryIDOffset] = v

	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
