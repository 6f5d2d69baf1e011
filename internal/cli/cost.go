package cli

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/compose-network/premint/configs"
	"github.com/compose-network/premint/internal/allowlist"
	"github.com/compose-network/premint/internal/contracts"
	"github.com/compose-network/premint/internal/mint"
	"github.com/compose-network/premint/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var errSecondaryOnly = errors.New("primary sale is over, the token only trades on its secondary market")

type costReport struct {
	Contract              common.Address   `json:"contract" yaml:"contract"`
	TokenID               *big.Int         `json:"tokenId,omitempty" yaml:"token-id,omitempty"`
	Standard              string           `json:"standard" yaml:"standard"`
	ContractVersion       string           `json:"contractVersion" yaml:"contract-version"`
	BlockTime             uint64           `json:"blockTime" yaml:"block-time"`
	SaleType              sale.Type        `json:"saleType" yaml:"sale-type"`
	Strategy              common.Address   `json:"strategy" yaml:"strategy"`
	PrimaryMintActive     bool             `json:"primaryMintActive" yaml:"primary-mint-active"`
	SecondaryMarketActive bool             `json:"secondaryMarketActive" yaml:"secondary-market-active"`
	PrimaryMintEnd        *uint64          `json:"primaryMintEnd,omitempty" yaml:"primary-mint-end,omitempty"`
	AllowListEntry        *allowlist.Entry `json:"allowListEntry,omitempty" yaml:"allow-list-entry,omitempty"`
	Cost                  sale.Cost        `json:"cost" yaml:"cost"`
	Call                  *contracts.Call  `json:"call,omitempty" yaml:"call,omitempty"`
}

type costRequest struct {
	contract  common.Address
	tokenID   *big.Int
	preferred sale.Type
	quantity  uint64
	blockTime *uint64
	args      mint.Args
}

// CostCMD prices a mint of an on-chain token and optionally builds the call.
var CostCMD = &cobra.Command{
	Use:   "cost",
	Short: "Price a mint of an on-chain token",
	Long: `Resolves the sale strategy a mint of the token goes through and prices it.
With --minter the mint call is built as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newFlagReader(cmd.Flags())
		preferred, err := sale.ParseType(r.string("sale-type"))
		if err != nil {
			r.fail(err)
		}
		req := costRequest{
			contract:  r.requiredAddress("contract"),
			tokenID:   r.optionalBig("token-id"),
			preferred: preferred,
			quantity:  r.uint64("quantity"),
			blockTime: r.optionalUint64("block-time"),
			args: mint.Args{
				Minter:        r.address("minter"),
				MintRecipient: r.address("mint-recipient"),
				MintComment:   r.string("mint-comment"),
				MintReferral:  r.address("mint-referral"),
			},
		}
		req.args.Quantity = req.quantity
		if err := r.err(); err != nil {
			return err
		}

		var e *env
		if req.blockTime != nil {
			e, err = offlineEnv(configs.Values)
		} else {
			e, err = chainEnv(cmd.Context(), configs.Values)
		}
		if err != nil {
			return err
		}
		defer e.close()

		report, err := e.cost(cmd.Context(), req)
		if err != nil {
			return err
		}
		return writeOutput(cmd, report)
	},
}

func (e *env) cost(ctx context.Context, req costRequest) (costReport, error) {
	token, err := e.indexer.Token(ctx, req.contract, req.tokenID)
	if err != nil {
		return costReport{}, err
	}
	info, err := sale.ParseToken(token)
	if err != nil {
		return costReport{}, err
	}
	if info.ContractVersion == "" && e.collections != nil {
		if info.ContractVersion, err = e.collections.ContractVersion(ctx, info.Contract); err != nil {
			return costReport{}, err
		}
	}

	blockTime, err := e.blockTime(ctx, req.blockTime)
	if err != nil {
		return costReport{}, err
	}

	resolution, err := sale.ResolveForToken(token, req.tokenID, req.preferred, blockTime)
	if err != nil {
		return costReport{}, err
	}
	strategy := resolution.Strategy

	report := costReport{
		Contract:              info.Contract,
		TokenID:               info.TokenID,
		Standard:              info.Standard,
		ContractVersion:       info.ContractVersion,
		BlockTime:             blockTime,
		SaleType:              strategy.Type(),
		Strategy:              strategy.Common().Address,
		PrimaryMintActive:     resolution.PrimaryMintActive,
		SecondaryMarketActive: resolution.SecondaryMarketActive,
		PrimaryMintEnd:        resolution.PrimaryMintEnd,
	}

	if list, ok := strategy.(sale.AllowList); ok && req.args.Minter != (common.Address{}) {
		entry, found, err := e.allowList.Lookup(ctx, req.args.Minter, list.MerkleRoot)
		if err != nil {
			return costReport{}, err
		}
		if !found {
			return costReport{}, fmt.Errorf("%s is not on the allow list %s", req.args.Minter.Hex(), list.MerkleRoot.Hex())
		}
		report.AllowListEntry = &entry
	}

	if req.args.Minter == (common.Address{}) {
		report.Cost, err = sale.ComputeCost(strategy, req.quantity, report.AllowListEntry)
		return report, err
	}

	if !resolution.PrimaryMintActive {
		return costReport{}, errSecondaryOnly
	}
	req.args.AllowListEntry = report.AllowListEntry
	built, err := mint.Build(info, strategy, req.args)
	if err != nil {
		return costReport{}, err
	}
	report.Cost = built.Cost
	report.Call = &built.Call
	return report, nil
}

// blockTime returns override, or the timestamp of the latest block.
func (e *env) blockTime(ctx context.Context, override *uint64) (uint64, error) {
	if override != nil {
		return *override, nil
	}
	if e.eth == nil {
		return 0, errors.New("a block time or an RPC connection is required")
	}
	header, err := e.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch latest block header: %w", err)
	}
	return header.Time, nil
}

func init() {
	CostCMD.Flags().String("contract", "", "Collection address")
	CostCMD.Flags().String("token-id", "", "Token id, omit for 721 collections")
	CostCMD.Flags().String("sale-type", "", "Preferred sale type (fixedPrice, erc20, allowlist, timed)")
	CostCMD.Flags().Uint64("quantity", 1, "Quantity to mint")
	CostCMD.Flags().Uint64("block-time", 0, "Price at this unix time instead of the latest block")
	CostCMD.Flags().String("minter", "", "Account minting, builds the mint call when set")
	CostCMD.Flags().String("mint-recipient", "", "Recipient of the tokens, defaults to the minter")
	CostCMD.Flags().String("mint-comment", "", "Comment attached to the mint")
	CostCMD.Flags().String("mint-referral", "", "Mint referral reward recipient")
	_ = CostCMD.MarkFlagRequired("contract")
}
