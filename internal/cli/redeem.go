package cli

import (
	"math/big"

	"github.com/compose-network/premint/configs"
	"github.com/compose-network/premint/internal/lifecycle"
	"github.com/compose-network/premint/internal/premintapi"
	"github.com/compose-network/premint/internal/redemption"
	"github.com/spf13/cobra"
)

type listEntry struct {
	UID     uint32                 `json:"uid" yaml:"uid"`
	Version uint32                 `json:"version" yaml:"version"`
	Deleted bool                   `json:"deleted" yaml:"deleted"`
	TokenID *big.Int               `json:"tokenId,omitempty" yaml:"token-id,omitempty"`
	URL     string                 `json:"url" yaml:"url"`
	Premint premintapi.PremintJSON `json:"premint" yaml:"premint"`
}

// RedeemCMD builds the executor call that mints a premint.
var RedeemCMD = &cobra.Command{
	Use:   "redeem",
	Short: "Build the call that brings a premint on chain and mints it",
	Long: `Builds the premint executor call for the latest version of a premint.
The call is printed with its value and never sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newFlagReader(cmd.Flags())
		req := lifecycle.RedeemRequest{
			Collection:        r.collection(),
			UID:               r.uint32("uid"),
			HeldVersion:       r.optionalUint32("held-version"),
			ValidateSignature: r.bool("validate"),
			Args: redemption.Args{
				Minter:           r.requiredAddress("minter"),
				Quantity:         r.uint64("quantity"),
				MintRecipient:    r.address("mint-recipient"),
				MintComment:      r.string("mint-comment"),
				MintReferral:     r.address("mint-referral"),
				PlatformReferral: r.address("platform-referral"),
				FirstMinter:      r.address("first-minter"),
				SignerContract:   r.address("signer-contract"),
			},
		}
		if err := r.err(); err != nil {
			return err
		}

		e, err := chainEnv(cmd.Context(), configs.Values)
		if err != nil {
			return err
		}
		defer e.close()

		redeemed, err := e.orchestrator.Redeem(cmd.Context(), req)
		if err != nil {
			return err
		}
		return writeOutput(cmd, redeemed)
	},
}

// ListCMD lists the premints of a collection.
var ListCMD = &cobra.Command{
	Use:   "list",
	Short: "List the premints of a collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newFlagReader(cmd.Flags())
		collection := r.collection()
		if err := r.err(); err != nil {
			return err
		}

		e, err := chainEnv(cmd.Context(), configs.Values)
		if err != nil {
			return err
		}
		defer e.close()

		premints, err := e.orchestrator.ListOfCollection(cmd.Context(), collection)
		if err != nil {
			return err
		}

		out := make([]listEntry, 0, len(premints))
		for _, p := range premints {
			encoded, err := premintapi.EncodePremint(p.Signed.Config)
			if err != nil {
				return err
			}
			out = append(out, listEntry{
				UID:     p.Signed.Config.UID,
				Version: p.Signed.Config.Version,
				Deleted: p.Signed.Config.Deleted,
				TokenID: p.TokenID,
				URL:     p.URL,
				Premint: encoded,
			})
		}
		return writeOutput(cmd, out)
	},
}

func init() {
	declareCollectionFlags(RedeemCMD.Flags())
	RedeemCMD.Flags().Uint32("uid", 0, "Uid of the premint to redeem")
	RedeemCMD.Flags().Uint32("held-version", 0, "Version last seen by the caller, fails when a newer one is persisted")
	RedeemCMD.Flags().Bool("validate", false, "Check the creator signature before building the call")
	RedeemCMD.Flags().String("minter", "", "Account sending the transaction")
	RedeemCMD.Flags().Uint64("quantity", 1, "Quantity to mint")
	RedeemCMD.Flags().String("mint-recipient", "", "Recipient of the tokens, defaults to the minter")
	RedeemCMD.Flags().String("mint-comment", "", "Comment attached to the mint")
	RedeemCMD.Flags().String("mint-referral", "", "Mint referral reward recipient")
	RedeemCMD.Flags().String("platform-referral", "", "Platform referral reward recipient")
	RedeemCMD.Flags().String("first-minter", "", "Account credited as first minter, defaults to the minter")
	RedeemCMD.Flags().String("signer-contract", "", "Smart wallet of the creator when it signs through ERC-1271")
	_ = RedeemCMD.MarkFlagRequired("uid")
	_ = RedeemCMD.MarkFlagRequired("minter")

	declareCollectionFlags(ListCMD.Flags())
}
