package sale

import (
	"cmp"
	"fmt"
	"math/big"
	"slices"

	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/subgraph"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// Resolution is the strategy a mint goes through.
	Resolution struct {
		Strategy              Strategy
		PrimaryMintActive     bool
		SecondaryMarketActive bool
		// PrimaryMintEnd is nil for sales without an end.
		PrimaryMintEnd *uint64
	}

	// TokenInfo is the indexed description of a token or contract.
	TokenInfo struct {
		Contract        common.Address
		ContractName    string
		ContractURI     string
		ContractVersion string
		// TokenID is nil for 721 collections and contract-level records.
		TokenID     *big.Int
		TokenURI    string
		Standard    string
		Creator     common.Address
		TotalMinted *big.Int
		MaxSupply   *big.Int
	}
)

func (i TokenInfo) IsERC721() bool {
	return i.Standard == subgraph.StandardERC721
}

func primaryActive(b Base, blockTime uint64) bool {
	if b.SaleStart > blockTime {
		return false
	}
	return b.SaleEnd == nil || *b.SaleEnd > blockTime
}

func secondaryActive(s Strategy) bool {
	timed, ok := s.(Timed)
	return ok && timed.SecondaryActivated
}

// Resolve picks the strategy to mint through at blockTime. Strategies that are
// not live are dropped, except timed strategies whose secondary market is
// active. With a preferred type the first eligible strategy of that type wins,
// falling back to the first fixed price or ERC-20 one. Without a preference
// the soonest sale end wins and a missing end sorts last. Ties keep input order.
// No eligible strategy is premint.ErrNoEligibleSaleStrategy.
func Resolve(strategies []Strategy, preferred Type, blockTime uint64) (Resolution, error) {
	eligible := make([]Resolution, 0, len(strategies))
	for _, s := range strategies {
		r := Resolution{
			Strategy:              s,
			PrimaryMintActive:     primaryActive(s.Common(), blockTime),
			SecondaryMarketActive: secondaryActive(s),
			PrimaryMintEnd:        s.Common().SaleEnd,
		}
		if r.PrimaryMintActive || r.SecondaryMarketActive {
			eligible = append(eligible, r)
		}
	}

	slices.SortStableFunc(eligible, func(a, b Resolution) int {
		return compareEnd(a.PrimaryMintEnd, b.PrimaryMintEnd)
	})

	if preferred != "" {
		if i := slices.IndexFunc(eligible, func(r Resolution) bool { return r.Strategy.Type() == preferred }); i >= 0 {
			return eligible[i], nil
		}
		if i := slices.IndexFunc(eligible, func(r Resolution) bool {
			t := r.Strategy.Type()
			return t == TypeFixedPrice || t == TypeERC20
		}); i >= 0 {
			return eligible[i], nil
		}
		return Resolution{}, premint.ErrNoEligibleSaleStrategy
	}

	if len(eligible) == 0 {
		return Resolution{}, premint.ErrNoEligibleSaleStrategy
	}
	return eligible[0], nil
}

func compareEnd(a, b *uint64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}

// ResolveForToken resolves against the token's own strategies when tokenID is
// given and against the contract-level strategies otherwise.
func ResolveForToken(token subgraph.Token, tokenID *big.Int, preferred Type, blockTime uint64) (Resolution, error) {
	fee, err := ParseUint256("mintFeePerQuantity", token.Contract.MintFeePerQuantity)
	if err != nil {
		return Resolution{}, err
	}

	records := token.Contract.SalesStrategies
	if tokenID != nil {
		records = token.SalesStrategies
	}

	strategies, err := ParseAll(records, fee)
	if err != nil {
		return Resolution{}, err
	}
	return Resolve(strategies, preferred, blockTime)
}

// ParseToken decodes the token description of an indexer record.
func ParseToken(token subgraph.Token) (TokenInfo, error) {
	p := parser{}
	info := TokenInfo{
		Contract:        p.address("contract.address", token.Contract.Address),
		ContractName:    token.Contract.Name,
		ContractURI:     token.Contract.ContractURI,
		ContractVersion: token.Contract.ContractVersion,
		TokenURI:        token.URI,
		Standard:        token.TokenStandard,
		TotalMinted:     p.optionalBig("totalMinted", token.TotalMinted),
		MaxSupply:       p.optionalBig("maxSupply", token.MaxSupply),
	}
	if token.Creator != "" {
		info.Creator = p.address("creator", token.Creator)
	}
	if token.TokenID != "" && !info.IsERC721() {
		info.TokenID = p.uint256("tokenId", token.TokenID).ToBig()
	}
	if info.Standard != subgraph.StandardERC1155 && !info.IsERC721() {
		p.fail(fmt.Errorf("unknown token standard %q", token.TokenStandard))
	}
	return info, p.err
}

func (p *parser) optionalBig(field, s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	return p.uint256(field, s).ToBig()
}
