package cli

import (
	"encoding/json"
	"fmt"

	"github.com/compose-network/premint/configs"
	"github.com/compose-network/premint/internal/lifecycle"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premint/typeddata"
	"github.com/compose-network/premint/internal/premintapi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/spf13/cobra"
)

// payloadDocument is what a prepared premint looks like on disk between
// preparation and submission. Record is the persistence API record without
// its signature.
type payloadDocument struct {
	ChainID   int64                        `json:"chainId" yaml:"chain-id"`
	Record    premintapi.SignatureResponse `json:"record" yaml:"record"`
	TypedData apitypes.TypedData           `json:"typedData" yaml:"-"`
	Digest    common.Hash                  `json:"digest" yaml:"digest"`
	URL       string                       `json:"url" yaml:"url"`
}

func newPayloadDocument(chainName string, p lifecycle.Prepared) (payloadDocument, error) {
	req, err := premintapi.EncodeSignature(chainName, premint.SignedPremint{
		Collection:        p.Collection.Config,
		CollectionAddress: p.CollectionAddress,
		Config:            p.Config,
	})
	if err != nil {
		return payloadDocument{}, fmt.Errorf("failed to encode premint: %w", err)
	}

	return payloadDocument{
		ChainID: p.ChainID,
		Record: premintapi.SignatureResponse{
			Collection:        req.Collection,
			CollectionAddress: req.CollectionAddress,
			Premint:           req.Premint,
		},
		TypedData: p.TypedData,
		Digest:    p.Digest,
		URL:       p.URL,
	}, nil
}

// prepared rebuilds the premint the document was written for. The typed data
// is rebuilt from the record so an edited payload cannot drift from what is
// submitted.
func (d payloadDocument) prepared() (lifecycle.Prepared, error) {
	record := d.Record
	record.Signature = ""
	signed, err := premintapi.DecodeSignature(record)
	if err != nil {
		return lifecycle.Prepared{}, fmt.Errorf("failed to decode payload record: %w", err)
	}
	if signed.CollectionAddress == (common.Address{}) {
		return lifecycle.Prepared{}, fmt.Errorf("payload record has no collection_address")
	}

	td, err := typeddata.Build(signed.CollectionAddress, d.ChainID, signed.Config)
	if err != nil {
		return lifecycle.Prepared{}, fmt.Errorf("failed to build typed data: %w", err)
	}
	digest, err := typeddata.Hash(td)
	if err != nil {
		return lifecycle.Prepared{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	if d.Digest != (common.Hash{}) && d.Digest != digest {
		return lifecycle.Prepared{}, fmt.Errorf("payload digest %s does not match its record (%s)", d.Digest.Hex(), digest.Hex())
	}

	return lifecycle.Prepared{
		Collection:        signed.Target(),
		CollectionAddress: signed.CollectionAddress,
		ChainID:           d.ChainID,
		Config:            signed.Config,
		TypedData:         td,
		Digest:            digest,
		URL:               d.URL,
	}, nil
}

func readPayload(path string) (payloadDocument, error) {
	data, err := readInput(path)
	if err != nil {
		return payloadDocument{}, err
	}
	var doc payloadDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return payloadDocument{}, fmt.Errorf("failed to parse payload %s: %w", path, err)
	}
	return doc, nil
}

// PayloadCMD prepares premint payloads for signing.
var PayloadCMD = &cobra.Command{
	Use:   "payload",
	Short: "Prepare premint payloads for signing",
	Long: `Prepares the typed data a creator signs to create, update or delete a premint.
Nothing is persisted. Submit the payload with its signature using the submit command.`,
}

var payloadCreateCMD = &cobra.Command{
	Use:   "create",
	Short: "Prepare a new premint",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newFlagReader(cmd.Flags())
		req := lifecycle.CreateRequest{
			Collection: r.collection(),
			Token:      readTokenInput(r),
			Creator:    r.address("creator"),
			UID:        r.optionalUint32("uid"),
			Version:    premint.ConfigVersion(r.string("config-version")),
		}
		if req.Token.TokenURI == "" {
			r.fail(fmt.Errorf("--token-uri is required"))
		}
		if err := r.err(); err != nil {
			return err
		}
		if req.Version != "" && !req.Version.Valid() {
			return fmt.Errorf("--config-version %q must be 1, 2 or 3", req.Version)
		}

		return preparePayload(cmd, func(e *env) (lifecycle.Prepared, error) {
			return e.orchestrator.Create(cmd.Context(), req)
		})
	},
}

var payloadUpdateCMD = &cobra.Command{
	Use:   "update",
	Short: "Prepare the next version of a premint",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newFlagReader(cmd.Flags())
		req := lifecycle.UpdateRequest{
			Collection: r.collection(),
			UID:        r.uint32("uid"),
			Update:     readTokenUpdate(r),
		}
		if err := r.err(); err != nil {
			return err
		}

		return preparePayload(cmd, func(e *env) (lifecycle.Prepared, error) {
			return e.orchestrator.Update(cmd.Context(), req)
		})
	},
}

var payloadDeleteCMD = &cobra.Command{
	Use:   "delete",
	Short: "Prepare the deletion of a premint",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newFlagReader(cmd.Flags())
		collection := r.collection()
		uid := r.uint32("uid")
		if err := r.err(); err != nil {
			return err
		}

		return preparePayload(cmd, func(e *env) (lifecycle.Prepared, error) {
			return e.orchestrator.Delete(cmd.Context(), collection, uid)
		})
	},
}

func preparePayload(cmd *cobra.Command, prepare func(e *env) (lifecycle.Prepared, error)) error {
	e, err := chainEnv(cmd.Context(), configs.Values)
	if err != nil {
		return err
	}
	defer e.close()

	p, err := prepare(e)
	if err != nil {
		return err
	}
	doc, err := newPayloadDocument(e.network.BackendChainName, p)
	if err != nil {
		return err
	}
	return writeOutput(cmd, doc)
}

func declareTokenFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String("token-uri", "", "Token metadata URI")
	fs.String("max-supply", "", "Max supply, defaults to an open edition")
	fs.Uint64("max-tokens-per-address", 0, "Max tokens one address may mint, 0 for unlimited")
	fs.String("price-per-token", "", "Price per token in wei")
	fs.Uint64("mint-start", 0, "Sale start as a unix timestamp, 0 starts on first mint")
	fs.Uint64("mint-duration", 0, "Sale duration in seconds, 0 never ends")
	fs.Uint32("royalty-bps", 0, "Royalty in basis points")
	fs.String("payout-recipient", "", "Recipient of sale proceeds")
	fs.String("create-referral", "", "Create referral reward recipient")
	fs.String("minter", "", "Minter contract of a version 3 premint")
	fs.String("premint-sales-config", "", "Hex encoded minter sales config of a version 3 premint")
}

func readTokenInput(r *flagReader) premint.TokenConfigInput {
	return premint.TokenConfigInput{
		TokenURI:            r.string("token-uri"),
		MaxSupply:           r.optionalBig("max-supply"),
		MaxTokensPerAddress: r.optionalUint64("max-tokens-per-address"),
		PricePerToken:       r.optionalBig("price-per-token"),
		MintStart:           r.optionalUint64("mint-start"),
		MintDuration:        r.optionalUint64("mint-duration"),
		RoyaltyBPS:          r.optionalUint32("royalty-bps"),
		PayoutRecipient:     r.optionalAddress("payout-recipient"),
		CreateReferral:      r.optionalAddress("create-referral"),
		Minter:              r.optionalAddress("minter"),
		PremintSalesConfig:  r.bytes("premint-sales-config"),
	}
}

func readTokenUpdate(r *flagReader) premint.TokenConfigUpdate {
	return premint.TokenConfigUpdate{
		TokenURI:            r.optionalString("token-uri"),
		MaxSupply:           r.optionalBig("max-supply"),
		MaxTokensPerAddress: r.optionalUint64("max-tokens-per-address"),
		PricePerToken:       r.optionalBig("price-per-token"),
		MintStart:           r.optionalUint64("mint-start"),
		MintDuration:        r.optionalUint64("mint-duration"),
		RoyaltyBPS:          r.optionalUint32("royalty-bps"),
		RoyaltyRecipient:    r.optionalAddress("royalty-recipient"),
		PayoutRecipient:     r.optionalAddress("payout-recipient"),
		FixedPriceMinter:    r.optionalAddress("fixed-price-minter"),
		CreateReferral:      r.optionalAddress("create-referral"),
		Minter:              r.optionalAddress("minter"),
		PremintSalesConfig:  r.bytes("premint-sales-config"),
	}
}

func init() {
	declareCollectionFlags(payloadCreateCMD.Flags())
	declareTokenFlags(payloadCreateCMD)
	payloadCreateCMD.Flags().String("creator", "", "Creator account, defaults to the collection admin")
	payloadCreateCMD.Flags().Uint32("uid", 0, "Existing uid to create the next version of, assigned by the API when omitted")
	payloadCreateCMD.Flags().String("config-version", "", "Config version to create, defaults to the newest supported one")

	declareCollectionFlags(payloadUpdateCMD.Flags())
	declareTokenFlags(payloadUpdateCMD)
	payloadUpdateCMD.Flags().Uint32("uid", 0, "Uid of the premint to update")
	payloadUpdateCMD.Flags().String("royalty-recipient", "", "Royalty recipient of a version 1 premint")
	payloadUpdateCMD.Flags().String("fixed-price-minter", "", "Fixed price minter of a version 1 or 2 premint")
	_ = payloadUpdateCMD.MarkFlagRequired("uid")

	declareCollectionFlags(payloadDeleteCMD.Flags())
	payloadDeleteCMD.Flags().Uint32("uid", 0, "Uid of the premint to delete")
	_ = payloadDeleteCMD.MarkFlagRequired("uid")

	for _, cmd := range []*cobra.Command{payloadCreateCMD, payloadUpdateCMD, payloadDeleteCMD} {
		cmd.Flags().String(flagOut, "", "Write the payload to this file instead of stdout")
	}
	PayloadCMD.AddCommand(payloadCreateCMD, payloadUpdateCMD, payloadDeleteCMD)
}
