// Package mint builds calls that mint tokens through a sale strategy that is
// already live on chain.
package mint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Masterminds/semver/v3"
	"github.com/compose-network/premint/internal/allowlist"
	"github.com/compose-network/premint/internal/contracts"
	"github.com/compose-network/premint/internal/sale"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// newMintVersion is the first 1155 contract version exposing mint with a
// rewards recipient list.
var newMintVersion = semver.MustParse("2.9.0")

var (
	fixedPriceMinterArgs = arguments("address", "string")
	allowListMinterArgs  = arguments("address", "uint256", "uint256", "bytes32[]")
)

type Args struct {
	Minter   common.Address
	Quantity uint64
	// MintRecipient defaults to Minter.
	MintRecipient common.Address
	MintComment   string
	MintReferral  common.Address
	// AllowListEntry is required for allow-list sales.
	AllowListEntry *allowlist.Entry
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

func (a Args) recipient() common.Address {
	if a.MintRecipient == (common.Address{}) {
		return a.Minter
	}
	return a.MintRecipient
}

// Mint is an assembled mint call and what it costs.
type Mint struct {
	Call contracts.Call `json:"call" yaml:"call"`
	Cost sale.Cost      `json:"cost" yaml:"cost"`
}

// SupportsRewardsMint reports whether an 1155 contract at version has the
// mint entrypoint taking a rewards recipient list. Unparseable versions are
// treated as old contracts.
func SupportsRewardsMint(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	core := semver.New(v.Major(), v.Minor(), v.Patch(), "", "")
	return !core.LessThan(newMintVersion)
}

// Build assembles the call minting args.Quantity tokens of token through strategy.
func Build(token sale.TokenInfo, strategy sale.Strategy, args Args) (Mint, error) {
	if err := args.Validate(); err != nil {
		return Mint{}, err
	}
	if strategy == nil {
		return Mint{}, errors.New("no sale strategy to mint through")
	}

	var entry *allowlist.Entry
	if strategy.Type() == sale.TypeAllowList {
		if args.AllowListEntry == nil {
			return Mint{}, errors.New("allow-list sale requires an allow-list entry")
		}
		entry = args.AllowListEntry
	}

	cost, err := sale.ComputeCost(strategy, args.Quantity, entry)
	if err != nil {
		return Mint{}, err
	}

	var call contracts.Call
	if token.IsERC721() {
		call, err = build721(token, cost, args)
	} else {
		call, err = build1155(token, strategy, cost, args)
	}
	if err != nil {
		return Mint{}, err
	}
	return Mint{Call: call, Cost: cost}, nil
}

func build721(token sale.TokenInfo, cost sale.Cost, args Args) (contracts.Call, error) {
	return contracts.NewCall(contracts.ERC721Drop, token.Contract, cost.TotalNativeCost, "mintWithRewards",
		args.recipient(),
		quantity(args),
		args.MintComment,
		args.MintReferral,
	)
}

func build1155(token sale.TokenInfo, strategy sale.Strategy, cost sale.Cost, args Args) (contracts.Call, error) {
	if token.TokenID == nil {
		return contracts.Call{}, errors.New("1155 mint requires a token id")
	}

	switch s := strategy.(type) {
	case sale.ERC20:
		return contracts.NewCall(contracts.ERC20Minter, s.Address, nil, "mint",
			args.recipient(),
			quantity(args),
			token.Contract,
			token.TokenID,
			cost.PurchaseCost,
			s.Currency,
			args.MintReferral,
			args.MintComment,
		)
	case sale.Timed:
		return contracts.NewCall(contracts.TimedSaleStrategy, s.Address, cost.TotalNativeCost, "mint",
			args.recipient(),
			quantity(args),
			token.Contract,
			token.TokenID,
			args.MintReferral,
			args.MintComment,
		)
	case sale.FixedPrice, sale.AllowList:
		minterArguments, err := packMinterArguments(s, args)
		if err != nil {
			return contracts.Call{}, err
		}

		if SupportsRewardsMint(token.ContractVersion) {
			rewards := []common.Address{}
			if args.MintReferral != (common.Address{}) {
				rewards = append(rewards, args.MintReferral)
			}
			return contracts.NewCall(contracts.Creator1155, token.Contract, cost.TotalNativeCost, "mint",
				s.Common().Address,
				token.TokenID,
				quantity(args),
				rewards,
				minterArguments,
			)
		}
		return contracts.NewCall(contracts.Creator1155, token.Contract, cost.TotalNativeCost, "mintWithRewards",
			s.Common().Address,
			token.TokenID,
			quantity(args),
			minterArguments,
			args.MintReferral,
		)
	default:
		return contracts.Call{}, fmt.Errorf("unsupported sale strategy %s", strategy.Type())
	}
}

func packMinterArguments(strategy sale.Strategy, args Args) ([]byte, error) {
	if strategy.Type() == sale.TypeFixedPrice {
		return fixedPriceMinterArgs.Pack(args.recipient(), args.MintComment)
	}

	entry := args.AllowListEntry
	price := entry.Price
	if price == nil {
		price = new(big.Int)
	}
	proof := make([][32]byte, len(entry.Proof))
	for i, h := range entry.Proof {
		proof[i] = h
	}
	data, err := allowListMinterArgs.Pack(args.recipient(), new(big.Int).SetUint64(entry.MaxCanMint), price, proof)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allow-list minter arguments: %w", err)
	}
	return data, nil
}

func quantity(args Args) *big.Int {
	return new(big.Int).SetUint64(args.Quantity)
}

func arguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("invalid abi type %s: %v", t, err))
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}
