// Package redemption assembles the premint executor call that deploys a
// collection when needed, creates the signed token and mints it.
package redemption

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/compose-network/premint/internal/contracts"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premint/encoding"
	"github.com/compose-network/premint/internal/sale"
	"github.com/ethereum/go-ethereum/common"
)

// Args are the caller-chosen parts of a redemption. Zero addresses fall back
// to the documented defaults.
type Args struct {
	Minter   common.Address
	Quantity uint64
	// MintRecipient receives the tokens. Defaults to Minter.
	MintRecipient    common.Address
	MintComment      string
	MintReferral     common.Address
	PlatformReferral common.Address
	// FirstMinter is credited as the first minter. Defaults to Minter.
	FirstMinter common.Address
	// SignerContract is set when the creator is a smart wallet verifying via ERC-1271.
	SignerContract common.Address
}

func (a Args) Validate() error {
	var errs []error
	if a.Minter == (common.Address{}) {
		errs = append(errs, errors.New("minter account is required"))
	}
	if a.Quantity < 1 {
		errs = append(errs, errors.New("quantity to mint must be at least 1"))
	}
	return errors.Join(errs...)
}

// Builder builds calls against one network's executor.
type Builder struct {
	executor    common.Address
	erc20Minter common.Address
}

func NewBuilder(executor, erc20Minter common.Address) *Builder {
	return &Builder{executor: executor, erc20Minter: erc20Minter}
}

// Cost prices a redemption of quantity tokens. Premints sold through the ERC-20
// minter report their purchase cost in the sale currency, outside the native total.
func (b *Builder) Cost(tc premint.TokenConfig, mintFee *big.Int, quantity uint64) (sale.Cost, error) {
	strategy, err := b.strategy(tc, mintFee)
	if err != nil {
		return sale.Cost{}, err
	}
	return sale.ComputeCost(strategy, quantity, nil)
}

// strategy is the sale a redeemed token is minted through. The executor charges
// mintFee per token on top of it, ERC-20 sales included.
func (b *Builder) strategy(tc premint.TokenConfig, mintFee *big.Int) (sale.Strategy, error) {
	fee, err := sale.FromBig("mintFee", mintFee)
	if err != nil {
		return nil, err
	}

	if v3, ok := tc.(premint.TokenConfigV3); ok && b.erc20Minter != (common.Address{}) && v3.Minter == b.erc20Minter {
		sales, err := premint.DecodeERC20SalesConfig(v3.PremintSalesConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to decode erc20 sales config: %w", err)
		}
		price, err := sale.FromBig("pricePerToken", sales.PricePerToken)
		if err != nil {
			return nil, err
		}
		return sale.ERC20{
			Base:          sale.Base{Address: v3.Minter, MintFeePerQuantity: fee},
			PricePerToken: price,
			Currency:      sales.Currency,
		}, nil
	}

	nativePrice, err := premint.NativePricePerToken(tc, b.erc20Minter)
	if err != nil {
		return nil, fmt.Errorf("failed to read price per token: %w", err)
	}
	price, err := sale.FromBig("pricePerToken", nativePrice)
	if err != nil {
		return nil, err
	}
	return sale.FixedPrice{
		Base:          sale.Base{Address: minterOf(tc), MintFeePerQuantity: fee},
		PricePerToken: price,
	}, nil
}

func minterOf(tc premint.TokenConfig) common.Address {
	switch c := tc.(type) {
	case premint.TokenConfigV1:
		return c.FixedPriceMinter
	case premint.TokenConfigV2:
		return c.FixedPriceMinter
	case premint.TokenConfigV3:
		return c.Minter
	default:
		return common.Address{}
	}
}

// Build assembles the executor premint call for signed against target. mintFee
// is the per-token fee the executor charges for the collection.
func (b *Builder) Build(signed premint.SignedPremint, target premint.Collection, mintFee *big.Int, args Args) (contracts.Call, error) {
	if err := args.Validate(); err != nil {
		return contracts.Call{}, err
	}
	if err := target.Validate(); err != nil {
		return contracts.Call{}, err
	}
	if len(signed.Signature) == 0 {
		return contracts.Call{}, errors.New("premint has no signature")
	}

	cost, err := b.Cost(signed.Config.TokenConfig, mintFee, args.Quantity)
	if err != nil {
		return contracts.Call{}, err
	}

	encoded, err := encoding.EncodePremintConfig(signed.Config)
	if err != nil {
		return contracts.Call{}, fmt.Errorf("failed to encode premint config: %w", err)
	}

	// an inline config makes the executor deploy, so no address is passed
	creation := contracts.ContractCreationConfig{AdditionalAdmins: []common.Address{}}
	premintCollection := target.Address
	if target.HasConfig() {
		cfg := target.Config.WithDefaults()
		creation = contracts.ContractCreationConfig{
			ContractAdmin:    cfg.ContractAdmin,
			ContractURI:      cfg.ContractURI,
			ContractName:     cfg.ContractName,
			AdditionalAdmins: cfg.AdditionalAdmins,
		}
		premintCollection = common.Address{}
	}

	mintArgs := contracts.MintArguments{
		MintRecipient:         or(args.MintRecipient, args.Minter),
		MintComment:           args.MintComment,
		MintRewardsRecipients: []common.Address{args.MintReferral, args.PlatformReferral},
	}

	return contracts.NewCall(contracts.PremintExecutor, b.executor, cost.TotalNativeCost, "premint",
		creation,
		premintCollection,
		encoded,
		signed.Signature,
		new(big.Int).SetUint64(args.Quantity),
		mintArgs,
		or(args.FirstMinter, args.Minter),
		args.SignerContract,
	)
}

func or(v, fallback common.Address) common.Address {
	if v == (common.Address{}) {
		return fallback
	}
	return v
}
