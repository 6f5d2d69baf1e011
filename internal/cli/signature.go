package cli

import (
	"errors"
	"fmt"

	"github.com/compose-network/premint/configs"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premint/typeddata"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type (
	recoverOutput struct {
		Signer            common.Address  `json:"signer" yaml:"signer"`
		Digest            common.Hash     `json:"digest" yaml:"digest"`
		CollectionAddress *common.Address `json:"collectionAddress,omitempty" yaml:"collection-address,omitempty"`
		// IsAuthorized is only set with --check.
		IsAuthorized *bool `json:"isAuthorized,omitempty" yaml:"is-authorized,omitempty"`
	}

	submitOutput struct {
		CollectionAddress common.Address `json:"collectionAddress" yaml:"collection-address"`
		UID               uint32         `json:"uid" yaml:"uid"`
		Version           uint32         `json:"version" yaml:"version"`
		Deleted           bool           `json:"deleted" yaml:"deleted"`
		URL               string         `json:"url" yaml:"url"`
	}
)

func parseSignature(raw string) ([]byte, error) {
	if raw == "" {
		return nil, errors.New("--signature is required")
	}
	sig, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("--signature is not 0x-prefixed hex: %w", err)
	}
	return sig, nil
}

// RecoverCMD recovers the signer of a payload and optionally checks its rights.
var RecoverCMD = &cobra.Command{
	Use:   "recover",
	Short: "Recover the signer of a signed premint payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("payload")
		rawSig, _ := cmd.Flags().GetString("signature")
		check, _ := cmd.Flags().GetBool("check")

		doc, err := readPayload(path)
		if err != nil {
			return err
		}
		prepared, err := doc.prepared()
		if err != nil {
			return err
		}
		sig, err := parseSignature(rawSig)
		if err != nil {
			return err
		}

		signer, err := typeddata.Recover(prepared.TypedData, sig)
		if err != nil {
			return err
		}
		out := recoverOutput{Signer: signer, Digest: prepared.Digest}

		if check {
			e, err := chainEnv(cmd.Context(), configs.Values)
			if err != nil {
				return err
			}
			defer e.close()

			res, err := e.validator.Validate(cmd.Context(), premint.SignedPremint{
				Collection:        prepared.Collection.Config,
				CollectionAddress: prepared.CollectionAddress,
				Config:            prepared.Config,
				Signature:         sig,
			})
			if err != nil {
				return err
			}
			out.IsAuthorized = &res.IsAuthorized
			out.CollectionAddress = &res.CollectionAddress
		}

		return writeOutput(cmd, out)
	},
}

// SubmitCMD persists a signed payload.
var SubmitCMD = &cobra.Command{
	Use:   "submit",
	Short: "Submit a signed premint payload to the premint API",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("payload")
		rawSig, _ := cmd.Flags().GetString("signature")

		doc, err := readPayload(path)
		if err != nil {
			return err
		}
		prepared, err := doc.prepared()
		if err != nil {
			return err
		}
		sig, err := parseSignature(rawSig)
		if err != nil {
			return err
		}

		e, err := chainEnv(cmd.Context(), configs.Values)
		if err != nil {
			return err
		}
		defer e.close()
		if prepared.ChainID != e.network.ChainID {
			return fmt.Errorf("payload was prepared for chain %d, configured chain is %d", prepared.ChainID, e.network.ChainID)
		}

		signed, err := e.orchestrator.Submit(cmd.Context(), prepared, sig)
		if err != nil {
			return err
		}

		return writeOutput(cmd, submitOutput{
			CollectionAddress: signed.CollectionAddress,
			UID:               signed.Config.UID,
			Version:           signed.Config.Version,
			Deleted:           signed.Config.Deleted,
			URL:               e.network.PremintURL(signed.CollectionAddress, signed.Config.UID),
		})
	},
}

func init() {
	RecoverCMD.Flags().String("payload", "", "Payload file written by the payload command, - for stdin")
	RecoverCMD.Flags().String("signature", "", "Hex encoded creator signature")
	RecoverCMD.Flags().Bool("check", false, "Also ask the executor whether the signer may create premints")
	_ = RecoverCMD.MarkFlagRequired("payload")

	SubmitCMD.Flags().String("payload", "", "Payload file written by the payload command, - for stdin")
	SubmitCMD.Flags().String("signature", "", "Hex encoded creator signature")
	_ = SubmitCMD.MarkFlagRequired("payload")
}
