package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/compose-network/premint/configs"
	"github.com/compose-network/premint/internal/allowlist"
	"github.com/compose-network/premint/internal/auth"
	"github.com/compose-network/premint/internal/contracts"
	"github.com/compose-network/premint/internal/httpapi"
	"github.com/compose-network/premint/internal/lifecycle"
	"github.com/compose-network/premint/internal/logger"
	"github.com/compose-network/premint/internal/metrics"
	"github.com/compose-network/premint/internal/network"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premintapi"
	"github.com/compose-network/premint/internal/resolver"
	"github.com/compose-network/premint/internal/retry"
	"github.com/compose-network/premint/internal/subgraph"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	collectors = prometheus.NewRegistry()
	appMetrics = sync.OnceValue(func() *metrics.Metrics { return metrics.New(collectors) })
)

// env holds the collaborators of one command invocation.
type env struct {
	cfg          configs.Config
	registry     *network.Registry
	network      network.Network
	eth          *ethclient.Client
	executor     *contracts.ExecutorReader
	collections  *contracts.CollectionReader
	resolver     *resolver.Resolver
	validator    *auth.Validator
	store        *premintapi.Client
	indexer      *subgraph.Client
	allowList    *allowlist.Client
	orchestrator *lifecycle.Orchestrator
	logger       *slog.Logger
}

// offlineEnv builds the HTTP collaborators only. Nothing is dialed.
func offlineEnv(cfg configs.Config) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry, net, err := resolveNetwork(cfg)
	if err != nil {
		return nil, err
	}

	m := appMetrics()
	return &env{
		cfg:       cfg,
		registry:  registry,
		network:   net,
		store:     premintapi.New(net, httpOptions(cfg, cfg.API.BaseURL, m), cfg.API.RetrySignaturePost),
		indexer:   subgraph.New(net.SubgraphURL, httpOptions(cfg, "", m)),
		allowList: allowlist.New(httpOptions(cfg, cfg.AllowList.BaseURL, m)),
		logger:    logger.Named("cli").With("chain_id", net.ChainID),
	}, nil
}

// chainEnv builds every collaborator, dialing the configured RPC.
func chainEnv(ctx context.Context, cfg configs.Config) (*env, error) {
	e, err := offlineEnv(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Chain.RPCURL == "" {
		return nil, errors.New("chain.rpc-url is required for commands that read the chain")
	}

	e.eth, err = ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", cfg.Chain.RPCURL, err)
	}

	e.executor, err = contracts.NewExecutorReader(e.network.Contracts.PremintExecutor, e.eth)
	if err != nil {
		e.close()
		return nil, err
	}
	e.collections, err = contracts.NewCollectionReader(e.eth)
	if err != nil {
		e.close()
		return nil, err
	}
	e.resolver, err = resolver.New(e.network.ChainID, e.executor, cfg.Premint.AddressCacheSize)
	if err != nil {
		e.close()
		return nil, err
	}
	e.validator = auth.NewValidator(e.network.ChainID, e.executor, e.resolver)

	opts, err := orchestratorOptions(cfg)
	if err != nil {
		e.close()
		return nil, err
	}
	opts.Metrics = appMetrics()

	e.orchestrator, err = lifecycle.New(e.registry, e.network.ChainID, lifecycle.Dependencies{
		Executor:  e.executor,
		Resolver:  e.resolver,
		Validator: e.validator,
		Store:     e.store,
		Indexer:   e.indexer,
	}, opts)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("failed to create premint orchestrator: %w", err)
	}

	e.logger.
		With("rpc_url", cfg.Chain.RPCURL).
		With("executor", e.network.Contracts.PremintExecutor.Hex()).
		Debug("chain environment ready")
	return e, nil
}

func (e *env) close() {
	if e.eth != nil {
		e.eth.Close()
	}
}

// resolveNetwork looks up the configured chain and applies the address and
// subgraph overrides.
func resolveNetwork(cfg configs.Config) (*network.Registry, network.Network, error) {
	registry := network.DefaultRegistry()
	net, err := registry.Lookup(int64(cfg.Chain.ChainID))
	if err != nil {
		return nil, network.Network{}, err
	}

	override := func(dst *common.Address, hex string) {
		if hex != "" {
			*dst = common.HexToAddress(hex)
		}
	}
	override(&net.Contracts.PremintExecutor, cfg.Chain.PremintExecutor)
	override(&net.Contracts.FixedPriceStrategy, cfg.Chain.FixedPriceStrategy)
	override(&net.Contracts.ERC20Minter, cfg.Chain.ERC20Minter)
	override(&net.Contracts.TimedSaleStrategy, cfg.Chain.TimedSaleStrategy)
	if cfg.Subgraph.URL != "" {
		net.SubgraphURL = cfg.Subgraph.URL
	}

	return registry.With(net), net, nil
}

func httpOptions(cfg configs.Config, baseURL string, m *metrics.Metrics) httpapi.Options {
	return httpapi.Options{
		BaseURL:           baseURL,
		Timeout:           cfg.API.Timeout,
		Retry:             retry.Policy{MaxAttempts: cfg.API.MaxAttempts, Backoff: cfg.API.Backoff},
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Metrics:           m,
	}
}

func orchestratorOptions(cfg configs.Config) (lifecycle.Options, error) {
	fee, err := cfg.Premint.FallbackMintFee()
	if err != nil {
		return lifecycle.Options{}, err
	}

	allowed := make([]premint.ConfigVersion, 0, len(cfg.Premint.AllowedVersions))
	for _, raw := range cfg.Premint.AllowedVersions {
		v, err := premint.ParseConfigVersion(raw)
		if err != nil {
			return lifecycle.Options{}, err
		}
		allowed = append(allowed, v)
	}

	return lifecycle.Options{AllowedVersions: allowed, FallbackMintFee: fee}, nil
}

// LogMetricsSummary logs every collaborator counter touched by the command.
func LogMetricsSummary() {
	keys, values, err := metrics.Summarize(collectors)
	if err != nil {
		slog.With("err", err.Error()).Warn("failed to summarize metrics")
		return
	}
	if len(keys) == 0 {
		return
	}

	log := logger.Named("metrics")
	for _, k := range keys {
		log.With("metric", k).With("value", values[k]).Debug("collaborator metric")
	}
}
