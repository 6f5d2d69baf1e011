package premintapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Decimal is an integer carried as a JSON string. Bare JSON numbers are
// accepted on input since older records were written that way.
type Decimal string

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = Decimal(n.String())
	return nil
}

type (
	// TokenConfigJSON is the union of every token config version as sent over
	// the wire. config_version on the enclosing premint says which fields apply.
	TokenConfigJSON struct {
		TokenURI            string  `json:"tokenURI"`
		MaxSupply           Decimal `json:"maxSupply"`
		MaxTokensPerAddress Decimal `json:"maxTokensPerAddress,omitempty"`
		PricePerToken       Decimal `json:"pricePerToken,omitempty"`
		MintStart           Decimal `json:"mintStart"`
		MintDuration        Decimal `json:"mintDuration,omitempty"`
		RoyaltyMintSchedule *uint32 `json:"royaltyMintSchedule,omitempty"`
		RoyaltyBPS          uint32  `json:"royaltyBPS"`
		RoyaltyRecipient    string  `json:"royaltyRecipient,omitempty"`
		PayoutRecipient     string  `json:"payoutRecipient,omitempty"`
		FixedPriceMinter    string  `json:"fixedPriceMinter,omitempty"`
		CreateReferral      string  `json:"createReferral,omitempty"`
		Minter              string  `json:"minter,omitempty"`
		PremintSalesConfig  string  `json:"premintSalesConfig,omitempty"`
	}

	PremintJSON struct {
		ConfigVersion string          `json:"config_version,omitempty"`
		UID           uint32          `json:"uid"`
		Version       uint32          `json:"version"`
		Deleted       bool            `json:"deleted"`
		TokenConfig   TokenConfigJSON `json:"tokenConfig"`
	}

	CollectionJSON struct {
		ContractAdmin    string   `json:"contractAdmin"`
		ContractURI      string   `json:"contractURI"`
		ContractName     string   `json:"contractName"`
		AdditionalAdmins []string `json:"additionalAdmins,omitempty"`
	}

	SignatureRequest struct {
		ChainName         string          `json:"chain_name"`
		Collection        *CollectionJSON `json:"collection,omitempty"`
		CollectionAddress string          `json:"collection_address,omitempty"`
		Premint           PremintJSON     `json:"premint"`
		Signature         string          `json:"signature"`
	}

	SignatureResponse struct {
		Collection        *CollectionJSON `json:"collection,omitempty"`
		CollectionAddress string          `json:"collection_address,omitempty"`
		Premint           PremintJSON     `json:"premint"`
		Signature         string          `json:"signature"`
	}

	SubmitResponse struct {
		OK bool `json:"ok"`
	}

	NextUIDResponse struct {
		NextUID uint32 `json:"next_uid"`
	}

	CollectionPremintJSON struct {
		Premint   PremintJSON `json:"premint"`
		Signature string      `json:"signature"`
	}

	CollectionResponse struct {
		Collection        *CollectionJSON         `json:"collection,omitempty"`
		CollectionAddress string                  `json:"collection_address,omitempty"`
		Premints          []CollectionPremintJSON `json:"premints"`
	}
)

// EncodeSignature builds the request body that persists signed.
func EncodeSignature(chainName string, signed premint.SignedPremint) (SignatureRequest, error) {
	p, err := EncodePremint(signed.Config)
	if err != nil {
		return SignatureRequest{}, err
	}

	req := SignatureRequest{
		ChainName: chainName,
		Premint:   p,
		Signature: hexutil.Encode(signed.Signature),
	}
	if signed.Collection != nil {
		req.Collection = encodeCollection(*signed.Collection)
	}
	if signed.CollectionAddress != (common.Address{}) {
		req.CollectionAddress = signed.CollectionAddress.Hex()
	}
	return req, nil
}

// DecodeSignature parses a persisted record into a signed premint.
func DecodeSignature(resp SignatureResponse) (premint.SignedPremint, error) {
	return decodeSigned(resp.Collection, resp.CollectionAddress, resp.Premint, resp.Signature)
}

// DecodeCollection parses every premint of a collection listing.
func DecodeCollection(resp CollectionResponse) ([]premint.SignedPremint, error) {
	out := make([]premint.SignedPremint, 0, len(resp.Premints))
	for _, p := range resp.Premints {
		signed, err := decodeSigned(resp.Collection, resp.CollectionAddress, p.Premint, p.Signature)
		if err != nil {
			return nil, fmt.Errorf("failed to decode premint uid %d: %w", p.Premint.UID, err)
		}
		out = append(out, signed)
	}
	return out, nil
}

func decodeSigned(collection *CollectionJSON, address string, p PremintJSON, signature string) (premint.SignedPremint, error) {
	cfg, err := DecodePremint(p)
	if err != nil {
		return premint.SignedPremint{}, err
	}

	sig, err := parseBytes("signature", signature)
	if err != nil {
		return premint.SignedPremint{}, err
	}

	signed := premint.SignedPremint{Config: cfg, Signature: sig}
	if collection != nil {
		c, err := decodeCollection(*collection)
		if err != nil {
			return premint.SignedPremint{}, err
		}
		signed.Collection = &c
	}
	if address != "" {
		if signed.CollectionAddress, err = parseAddress("collection_address", address); err != nil {
			return premint.SignedPremint{}, err
		}
	}
	if signed.Collection == nil && signed.CollectionAddress == (common.Address{}) {
		return premint.SignedPremint{}, &premint.DecodeError{Field: "collection", Value: "", Err: fmt.Errorf("record carries neither a collection nor an address")}
	}
	return signed, nil
}

func EncodePremint(cfg premint.Config) (PremintJSON, error) {
	if err := cfg.Validate(); err != nil {
		return PremintJSON{}, err
	}

	p := PremintJSON{
		ConfigVersion: string(cfg.ConfigVersion()),
		UID:           cfg.UID,
		Version:       cfg.Version,
		Deleted:       cfg.Deleted,
	}

	switch tc := cfg.TokenConfig.(type) {
	case premint.TokenConfigV1:
		schedule := tc.RoyaltyMintSchedule
		p.TokenConfig = TokenConfigJSON{
			TokenURI:            tc.TokenURI,
			MaxSupply:           Decimal(tc.MaxSupply.String()),
			MaxTokensPerAddress: uint64Decimal(tc.MaxTokensPerAddress),
			PricePerToken:       Decimal(tc.PricePerToken.String()),
			MintStart:           uint64Decimal(tc.MintStart),
			MintDuration:        uint64Decimal(tc.MintDuration),
			RoyaltyMintSchedule: &schedule,
			RoyaltyBPS:          tc.RoyaltyBPS,
			RoyaltyRecipient:    tc.RoyaltyRecipient.Hex(),
			FixedPriceMinter:    tc.FixedPriceMinter.Hex(),
		}
	case premint.TokenConfigV2:
		p.TokenConfig = TokenConfigJSON{
			TokenURI:            tc.TokenURI,
			MaxSupply:           Decimal(tc.MaxSupply.String()),
			MaxTokensPerAddress: uint64Decimal(tc.MaxTokensPerAddress),
			PricePerToken:       Decimal(tc.PricePerToken.String()),
			MintStart:           uint64Decimal(tc.MintStart),
			MintDuration:        uint64Decimal(tc.MintDuration),
			RoyaltyBPS:          tc.RoyaltyBPS,
			PayoutRecipient:     tc.PayoutRecipient.Hex(),
			FixedPriceMinter:    tc.FixedPriceMinter.Hex(),
			CreateReferral:      tc.CreateReferral.Hex(),
		}
	case premint.TokenConfigV3:
		p.TokenConfig = TokenConfigJSON{
			TokenURI:           tc.TokenURI,
			MaxSupply:          Decimal(tc.MaxSupply.String()),
			MintStart:          uint64Decimal(tc.MintStart),
			RoyaltyBPS:         tc.RoyaltyBPS,
			PayoutRecipient:    tc.PayoutRecipient.Hex(),
			CreateReferral:     tc.CreateReferral.Hex(),
			Minter:             tc.Minter.Hex(),
			PremintSalesConfig: hexutil.Encode(tc.PremintSalesConfig),
		}
	default:
		return PremintJSON{}, fmt.Errorf("unknown token config type %T", cfg.TokenConfig)
	}
	return p, nil
}

// DecodePremint parses and range-checks every field before building the typed
// config. A missing config_version is V1.
func DecodePremint(p PremintJSON) (premint.Config, error) {
	version, err := premint.ParseConfigVersion(p.ConfigVersion)
	if err != nil {
		return premint.Config{}, err
	}

	tc, err := decodeTokenConfig(version, p.TokenConfig)
	if err != nil {
		return premint.Config{}, err
	}

	return premint.Config{TokenConfig: tc, UID: p.UID, Version: p.Version, Deleted: p.Deleted}, nil
}

func decodeTokenConfig(version premint.ConfigVersion, j TokenConfigJSON) (premint.TokenConfig, error) {
	d := decoder{}
	switch version {
	case premint.V1:
		tc := premint.TokenConfigV1{
			TokenURI:            j.TokenURI,
			MaxSupply:           d.uint("maxSupply", j.MaxSupply, 256),
			MaxTokensPerAddress: d.uint64("maxTokensPerAddress", j.MaxTokensPerAddress),
			PricePerToken:       d.uint("pricePerToken", j.PricePerToken, 96),
			MintStart:           d.uint64("mintStart", j.MintStart),
			MintDuration:        d.uint64("mintDuration", j.MintDuration),
			RoyaltyBPS:          j.RoyaltyBPS,
			RoyaltyRecipient:    d.address("royaltyRecipient", j.RoyaltyRecipient),
			FixedPriceMinter:    d.address("fixedPriceMinter", j.FixedPriceMinter),
		}
		if j.RoyaltyMintSchedule != nil {
			tc.RoyaltyMintSchedule = *j.RoyaltyMintSchedule
		}
		return tc, d.err
	case premint.V2:
		tc := premint.TokenConfigV2{
			TokenURI:            j.TokenURI,
			MaxSupply:           d.uint("maxSupply", j.MaxSupply, 256),
			MaxTokensPerAddress: d.uint64("maxTokensPerAddress", j.MaxTokensPerAddress),
			PricePerToken:       d.uint("pricePerToken", j.PricePerToken, 96),
			MintStart:           d.uint64("mintStart", j.MintStart),
			MintDuration:        d.uint64("mintDuration", j.MintDuration),
			RoyaltyBPS:          j.RoyaltyBPS,
			PayoutRecipient:     d.address("payoutRecipient", j.PayoutRecipient),
			FixedPriceMinter:    d.address("fixedPriceMinter", j.FixedPriceMinter),
			CreateReferral:      d.address("createReferral", j.CreateReferral),
		}
		return tc, d.err
	case premint.V3:
		tc := premint.TokenConfigV3{
			TokenURI:           j.TokenURI,
			MaxSupply:          d.uint("maxSupply", j.MaxSupply, 256),
			RoyaltyBPS:         j.RoyaltyBPS,
			PayoutRecipient:    d.address("payoutRecipient", j.PayoutRecipient),
			CreateReferral:     d.address("createReferral", j.CreateReferral),
			MintStart:          d.uint64("mintStart", j.MintStart),
			Minter:             d.address("minter", j.Minter),
			PremintSalesConfig: d.bytes("premintSalesConfig", j.PremintSalesConfig),
		}
		return tc, d.err
	default:
		return nil, &premint.DecodeError{Field: "config_version", Value: string(version)}
	}
}

func encodeCollection(c premint.CollectionConfig) *CollectionJSON {
	out := &CollectionJSON{
		ContractAdmin: c.ContractAdmin.Hex(),
		ContractURI:   c.ContractURI,
		ContractName:  c.ContractName,
	}
	for _, admin := range c.AdditionalAdmins {
		out.AdditionalAdmins = append(out.AdditionalAdmins, admin.Hex())
	}
	return out
}

func decodeCollection(j CollectionJSON) (premint.CollectionConfig, error) {
	d := decoder{}
	c := premint.CollectionConfig{
		ContractAdmin: d.address("contractAdmin", j.ContractAdmin),
		ContractURI:   j.ContractURI,
		ContractName:  j.ContractName,
	}
	for _, admin := range j.AdditionalAdmins {
		c.AdditionalAdmins = append(c.AdditionalAdmins, d.address("additionalAdmins", admin))
	}
	return c, d.err
}

// decoder keeps the first failure so a struct literal can be decoded field by field.
type decoder struct {
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) uint(field string, v Decimal, bits int) *big.Int {
	n, err := ParseUint(field, string(v), bits)
	if err != nil {
		d.fail(err)
	}
	return n
}

func (d *decoder) uint64(field string, v Decimal) uint64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(string(v), 10, 64)
	if err != nil {
		d.fail(&premint.DecodeError{Field: field, Value: string(v), Err: err})
	}
	return n
}

func (d *decoder) address(field, v string) common.Address {
	if v == "" {
		return common.Address{}
	}
	a, err := parseAddress(field, v)
	if err != nil {
		d.fail(err)
	}
	return a
}

func (d *decoder) bytes(field, v string) []byte {
	b, err := parseBytes(field, v)
	if err != nil {
		d.fail(err)
	}
	return b
}

// ParseUint accepts an unsigned base-10 integer of at most bits bits.
func ParseUint(field, s string, bits int) (*big.Int, error) {
	if s == "" {
		return nil, &premint.DecodeError{Field: field, Value: s, Err: fmt.Errorf("value is required")}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, &premint.DecodeError{Field: field, Value: s, Err: fmt.Errorf("not an unsigned decimal integer")}
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, &premint.DecodeError{Field: field, Value: s, Err: fmt.Errorf("not an unsigned decimal integer")}
	}
	if n.BitLen() > bits {
		return nil, &premint.DecodeError{Field: field, Value: s, Err: &premint.ArithmeticOverflowError{Field: field, Bits: bits}}
	}
	return n, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, &premint.DecodeError{Field: field, Value: s, Err: fmt.Errorf("not a hex address")}
	}
	return common.HexToAddress(s), nil
}

func parseBytes(field, s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, &premint.DecodeError{Field: field, Value: s, Err: err}
	}
	return b, nil
}

func uint64Decimal(v uint64) Decimal {
	return Decimal(strconv.FormatUint(v, 10))
}
