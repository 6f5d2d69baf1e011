package configs

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var Values Config

type (
	Config struct {
		Chain     Chain     `mapstructure:"chain"`
		API       API       `mapstructure:"api"`
		AllowList AllowList `mapstructure:"allow-list"`
		Subgraph  Subgraph  `mapstructure:"subgraph"`
		Premint   Premint   `mapstructure:"premint"`
		Log       Log       `mapstructure:"log"`
	}

	// Chain selects the network. Contract addresses override the registry
	// defaults when set.
	Chain struct {
		ChainID            int    `mapstructure:"chain-id"`
		RPCURL             string `mapstructure:"rpc-url"`
		PremintExecutor    string `mapstructure:"premint-executor"`
		FixedPriceStrategy string `mapstructure:"fixed-price-strategy"`
		ERC20Minter        string `mapstructure:"erc20-minter"`
		TimedSaleStrategy  string `mapstructure:"timed-sale-strategy"`
	}

	API struct {
		BaseURL            string        `mapstructure:"base-url"`
		Timeout            time.Duration `mapstructure:"timeout"`
		MaxAttempts        int           `mapstructure:"max-attempts"`
		Backoff            time.Duration `mapstructure:"backoff"`
		RequestsPerSecond  float64       `mapstructure:"requests-per-second"`
		RetrySignaturePost bool          `mapstructure:"retry-signature-post"`
	}

	AllowList struct {
		BaseURL string `mapstructure:"base-url"`
	}

	// Subgraph overrides the indexer URL of the selected network.
	Subgraph struct {
		URL string `mapstructure:"url"`
	}

	Premint struct {
		AllowedVersions    []string `mapstructure:"allowed-versions"`
		FallbackMintFeeWei string   `mapstructure:"fallback-mint-fee-wei"`
		AddressCacheSize   int      `mapstructure:"address-cache-size"`
	}

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	}
)

// FallbackMintFee parses premint.fallback-mint-fee-wei. Empty means unset.
func (c Premint) FallbackMintFee() (*big.Int, error) {
	if c.FallbackMintFeeWei == "" {
		return nil, nil
	}
	fee, ok := new(big.Int).SetString(c.FallbackMintFeeWei, 10)
	if !ok || fee.Sign() < 0 {
		return nil, fmt.Errorf("premint.fallback-mint-fee-wei %q is not a non-negative integer", c.FallbackMintFeeWei)
	}
	return fee, nil
}

// Validate checks every section. Only the chain id is required, the RPC URL
// is checked by commands that read the chain.
func (c *Config) Validate() error {
	var errs []error

	if c.Chain.ChainID <= 0 {
		errs = append(errs, errors.New("chain.chain-id is required"))
	}
	for key, addr := range map[string]string{
		"chain.premint-executor":     c.Chain.PremintExecutor,
		"chain.fixed-price-strategy": c.Chain.FixedPriceStrategy,
		"chain.erc20-minter":         c.Chain.ERC20Minter,
		"chain.timed-sale-strategy":  c.Chain.TimedSaleStrategy,
	} {
		if addr != "" && !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Errorf("%s %q is not a hex address", key, addr))
		}
	}

	for key, raw := range map[string]string{
		"chain.rpc-url":       c.Chain.RPCURL,
		"api.base-url":        c.API.BaseURL,
		"allow-list.base-url": c.AllowList.BaseURL,
		"subgraph.url":        c.Subgraph.URL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q is not an absolute URL", key, raw))
		}
	}

	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout must not be negative"))
	}
	if c.API.MaxAttempts < 1 {
		errs = append(errs, errors.New("api.max-attempts must be at least 1"))
	}
	if c.API.Backoff < 0 {
		errs = append(errs, errors.New("api.backoff must not be negative"))
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("api.requests-per-second must not be negative"))
	}

	for _, v := range c.Premint.AllowedVersions {
		if v != "1" && v != "2" && v != "3" {
			errs = append(errs, fmt.Errorf("premint.allowed-versions contains unknown version %q", v))
		}
	}
	if _, err := c.Premint.FallbackMintFee(); err != nil {
		errs = append(errs, err)
	}
	if c.Premint.AddressCacheSize < 0 {
		errs = append(errs, errors.New("premint.address-cache-size must not be negative"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format %q must be either 'json' or 'text'", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}
