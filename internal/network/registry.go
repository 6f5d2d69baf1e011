package network

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const subgraphBase = "https://api.goldsky.com/api/public/project_clhk16b61ay9t49vm6ntn4mkz/subgraphs"

// Well-known protocol deployments. They are deployed deterministically and share
// the same address on every supported chain.
var (
	PremintExecutorAddress     = common.HexToAddress("0x7777773606e7e46C8Ba8B98C08f5cD218e31d340")
	FixedPriceStrategyAddress  = common.HexToAddress("0x04E2516A2c207E84a1839755675dfd8eF6302F0a")
	ERC20MinterAddress         = common.HexToAddress("0x777777E8850d8D6d98De2B5f64fae401F96eFF31")
	TimedSaleStrategyAddress   = common.HexToAddress("0x777777722D078c97c6ad07d9f36801e653E356Ae")
	defaultProtocolDeployments = Contracts{
		PremintExecutor:    PremintExecutorAddress,
		FixedPriceStrategy: FixedPriceStrategyAddress,
		ERC20Minter:        ERC20MinterAddress,
		TimedSaleStrategy:  TimedSaleStrategyAddress,
	}
)

type (
	// Contracts lists the protocol contracts a chain exposes.
	Contracts struct {
		PremintExecutor    common.Address `json:"premintExecutor" yaml:"premint-executor"`
		FixedPriceStrategy common.Address `json:"fixedPriceStrategy" yaml:"fixed-price-strategy"`
		ERC20Minter        common.Address `json:"erc20Minter" yaml:"erc20-minter"`
		TimedSaleStrategy  common.Address `json:"timedSaleStrategy" yaml:"timed-sale-strategy"`
	}

	// Network describes how one chain is addressed by the backend, the collect
	// pages and the indexer.
	Network struct {
		ChainID              int64     `json:"chainId" yaml:"chain-id"`
		BackendChainName     string    `json:"backendChainName" yaml:"backend-chain-name"`
		CollectPathChainName string    `json:"collectPathChainName" yaml:"collect-path-chain-name"`
		IsTestnet            bool      `json:"isTestnet" yaml:"is-testnet"`
		SubgraphURL          string    `json:"subgraphUrl" yaml:"subgraph-url"`
		Contracts            Contracts `json:"contracts" yaml:"contracts"`
	}

	// Registry is an immutable lookup of networks by chain id.
	Registry struct {
		networks map[int64]Network
	}
)

// NewRegistry builds a registry from the given networks. Later entries win
// over earlier ones with the same chain id.
func NewRegistry(networks ...Network) *Registry {
	r := &Registry{networks: make(map[int64]Network, len(networks))}
	for _, n := range networks {
		r.networks[n.ChainID] = n
	}
	return r
}

// DefaultRegistry returns a fresh registry holding the known networks.
func DefaultRegistry() *Registry {
	return NewRegistry(
		newNetwork(1, "ETHEREUM-MAINNET", "eth", false, "zora-create-mainnet"),
		newNetwork(5, "ETHEREUM-GOERLI", "gor", true, "zora-create-goerli"),
		newNetwork(7777777, "ZORA-MAINNET", "zora", false, "zora-create-zora-mainnet"),
		newNetwork(999, "ZORA-GOERLI", "zgor", true, "zora-create-zora-testnet"),
		newNetwork(999999999, "ZORA-SEPOLIA", "zsep", true, "zora-create-zora-sepolia"),
		newNetwork(10, "OPTIMISM-MAINNET", "opt", false, "zora-create-optimism"),
		newNetwork(420, "OPTIMISM-GOERLI", "ogor", true, "zora-create-optimism-goerli"),
		newNetwork(8453, "BASE-MAINNET", "base", false, "zora-create-base-mainnet"),
		newNetwork(84531, "BASE-GOERLI", "bgor", true, "zora-create-base-goerli"),
		// local foundry/anvil forks of zora testnet
		newNetwork(31337, "ZORA-GOERLI", "zgor", true, "zora-create-zora-testnet"),
	)
}

func newNetwork(chainID int64, backendName, collectName string, testnet bool, subgraph string) Network {
	return Network{
		ChainID:              chainID,
		BackendChainName:     backendName,
		CollectPathChainName: collectName,
		IsTestnet:            testnet,
		SubgraphURL:          fmt.Sprintf("%s/%s/stable/gn", subgraphBase, subgraph),
		Contracts:            defaultProtocolDeployments,
	}
}

// Lookup returns the network for chainID.
func (r *Registry) Lookup(chainID int64) (Network, error) {
	n, ok := r.networks[chainID]
	if !ok {
		return Network{}, fmt.Errorf("chain id %d network not configured", chainID)
	}
	return n, nil
}

// With returns a copy of the registry where n replaces any entry with the same chain id.
func (r *Registry) With(n Network) *Registry {
	out := &Registry{networks: make(map[int64]Network, len(r.networks)+1)}
	for id, existing := range r.networks {
		out.networks[id] = existing
	}
	out.networks[n.ChainID] = n
	return out
}

// Networks lists every entry ordered by chain id.
func (r *Registry) Networks() []Network {
	out := make([]Network, 0, len(r.networks))
	for _, n := range r.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// CollectURL links to the collect page of a minted token.
func (n Network) CollectURL(collection common.Address, tokenID string) string {
	return n.collectBase(collection) + "/" + tokenID
}

// PremintURL links to the collect page of a premint that may not be on chain yet.
func (n Network) PremintURL(collection common.Address, uid uint32) string {
	return fmt.Sprintf("%s/premint-%d", n.collectBase(collection), uid)
}

func (n Network) collectBase(collection common.Address) string {
	host := "zora.co"
	if n.IsTestnet {
		host = "testnet.zora.co"
	}
	return fmt.Sprintf("https://%s/collect/%s:%s", host, n.CollectPathChainName, strings.ToLower(collection.Hex()))
}
