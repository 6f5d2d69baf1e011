// Package resolver maps premint collection targets to collection addresses.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compose-network/premint/internal/contracts"
	"github.com/compose-network/premint/internal/logger"
	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 1024

type (
	addressReader interface {
		CollectionAddress(ctx context.Context, cfg contracts.ContractCreationConfig) (common.Address, error)
	}

	cacheKey struct {
		chainID int64
		digest  common.Hash
	}

	// Resolver computes collection addresses through the executor and
	// remembers them. The executor's answer is a pure function of the config,
	// so entries never go stale.
	Resolver struct {
		chainID int64
		reader  addressReader
		cache   *lru.Cache[cacheKey, common.Address]
		logger  *slog.Logger
	}
)

func New(chainID int64, reader addressReader, cacheSize int) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, common.Address](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create address cache: %w", err)
	}
	return &Resolver{
		chainID: chainID,
		reader:  reader,
		cache:   cache,
		logger:  logger.Named("resolver"),
	}, nil
}

// Resolve returns the address of target. A bare address is returned as is.
func (r *Resolver) Resolve(ctx context.Context, target premint.Collection) (common.Address, error) {
	if err := target.Validate(); err != nil {
		return common.Address{}, err
	}
	if !target.HasConfig() {
		return target.Address, nil
	}

	cfg := target.Config.WithDefaults()
	key := cacheKey{chainID: r.chainID, digest: cfg.Digest()}
	if addr, ok := r.cache.Get(key); ok {
		return addr, nil
	}

	addr, err := r.reader.CollectionAddress(ctx, ToContractConfig(cfg))
	if err != nil {
		return common.Address{}, &premint.TransientFetchError{Op: "getContractWithAdditionalAdminsAddress", Attempts: 1, Err: err}
	}

	r.cache.Add(key, addr)
	r.logger.
		With("chain_id", r.chainID).
		With("collection", addr.Hex()).
		Debug("resolved collection address")
	return addr, nil
}

// ToContractConfig converts a collection config into the executor tuple.
func ToContractConfig(cfg premint.CollectionConfig) contracts.ContractCreationConfig {
	cfg = cfg.WithDefaults()
	return contracts.ContractCreationConfig{
		ContractAdmin:    cfg.ContractAdmin,
		ContractURI:      cfg.ContractURI,
		ContractName:     cfg.ContractName,
		AdditionalAdmins: cfg.AdditionalAdmins,
	}
}
