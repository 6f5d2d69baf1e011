// Package lifecycle drives premints through create, update, delete, submit
// and redeem against the persistence API and the chain.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/compose-network/premint/internal/auth"
	"github.com/compose-network/premint/internal/logger"
	"github.com/compose-network/premint/internal/metrics"
	"github.com/compose-network/premint/internal/network"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premint/typeddata"
	"github.com/compose-network/premint/internal/redemption"
	"github.com/compose-network/premint/internal/subgraph"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// DefaultMintFee is charged when the executor's fee cannot be read: 0.000777 ETH.
var DefaultMintFee = big.NewInt(777_000_000_000_000)

type (
	executor interface {
		SupportedVersions(ctx context.Context, collection common.Address) ([]string, error)
		MintFee(ctx context.Context, collection common.Address) (*big.Int, error)
	}

	addressResolver interface {
		Resolve(ctx context.Context, target premint.Collection) (common.Address, error)
	}

	validator interface {
		Require(ctx context.Context, signed premint.SignedPremint) (auth.Result, error)
	}

	store interface {
		NextUID(ctx context.Context, collection common.Address) (uint32, error)
		Get(ctx context.Context, collection common.Address, uid uint32) (premint.SignedPremint, error)
		ListOfCollection(ctx context.Context, collection common.Address) ([]premint.SignedPremint, error)
		Submit(ctx context.Context, signed premint.SignedPremint) error
	}

	indexer interface {
		PremintTokenIDs(ctx context.Context, contract common.Address) ([]subgraph.PremintToken, error)
	}

	// Dependencies are the collaborators of one chain. Indexer is optional.
	Dependencies struct {
		Executor  executor
		Resolver  addressResolver
		Validator validator
		Store     store
		Indexer   indexer
	}

	Options struct {
		// AllowedVersions limits the versions new premints are created at.
		// Defaults to every known version.
		AllowedVersions []premint.ConfigVersion
		// FallbackMintFee is used when the executor fee read fails.
		FallbackMintFee *big.Int
		Metrics         *metrics.Metrics
	}

	Orchestrator struct {
		network  network.Network
		deps     Dependencies
		allowed  []premint.ConfigVersion
		fallback *big.Int
		builder  *redemption.Builder
		metrics  *metrics.Metrics
		logger   *slog.Logger
	}
)

// New binds an orchestrator to the network of chainID in registry.
func New(registry *network.Registry, chainID int64, deps Dependencies, opts Options) (*Orchestrator, error) {
	net, err := registry.Lookup(chainID)
	if err != nil {
		return nil, err
	}

	var errs []error
	if deps.Executor == nil {
		errs = append(errs, errors.New("executor is required"))
	}
	if deps.Resolver == nil {
		errs = append(errs, errors.New("address resolver is required"))
	}
	if deps.Validator == nil {
		errs = append(errs, errors.New("signature validator is required"))
	}
	if deps.Store == nil {
		errs = append(errs, errors.New("premint store is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	allowed := opts.AllowedVersions
	if len(allowed) == 0 {
		allowed = premint.AllVersions
	}
	fallback := opts.FallbackMintFee
	if fallback == nil {
		fallback = DefaultMintFee
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNoop()
	}

	return &Orchestrator{
		network:  net,
		deps:     deps,
		allowed:  allowed,
		fallback: new(big.Int).Set(fallback),
		builder:  redemption.NewBuilder(net.Contracts.PremintExecutor, net.Contracts.ERC20Minter),
		metrics:  m,
		logger:   logger.Named("lifecycle").With("chain_id", chainID),
	}, nil
}

func (o *Orchestrator) Network() network.Network {
	return o.network
}

// Create prepares a new premint, or the next version of an existing uid when
// req.UID names one.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (Prepared, error) {
	addr, err := o.deps.Resolver.Resolve(ctx, req.Collection)
	if err != nil {
		return Prepared{}, fmt.Errorf("failed to resolve collection address: %w", err)
	}

	version, err := o.selectVersion(ctx, addr, req.Version)
	if err != nil {
		return Prepared{}, err
	}

	creator := req.Creator
	if creator == (common.Address{}) && req.Collection.HasConfig() {
		creator = req.Collection.Config.ContractAdmin
	}
	if creator == (common.Address{}) {
		return Prepared{}, errors.New("creator is required when the collection is given by address")
	}

	tc, err := premint.BuildTokenConfig(version, req.Token, premint.TokenDefaults{
		Creator:          creator,
		FixedPriceMinter: o.network.Contracts.FixedPriceStrategy,
	})
	if err != nil {
		return Prepared{}, err
	}

	uid, next, err := o.assignUID(ctx, addr, req.UID)
	if err != nil {
		return Prepared{}, err
	}

	cfg := premint.NewConfig(tc, uid)
	cfg.Version = next

	o.logger.
		With("collection", addr.Hex()).
		With("uid", uid).
		With("version", cfg.Version).
		With("config_version", version).
		Info("prepared premint")

	return o.prepare(req.Collection, addr, cfg)
}

// Update prepares the next version of uid with the overrides applied.
func (o *Orchestrator) Update(ctx context.Context, req UpdateRequest) (Prepared, error) {
	addr, latest, err := o.latest(ctx, req.Collection, req.UID)
	if err != nil {
		return Prepared{}, err
	}

	cfg, err := premint.ApplyUpdate(latest.Config, req.Update)
	if err != nil {
		return Prepared{}, o.annotate(err, addr)
	}
	return o.prepare(req.Collection, addr, cfg)
}

// Delete prepares the deletion of uid. Once submitted the uid can never be
// redeemed again.
func (o *Orchestrator) Delete(ctx context.Context, collection premint.Collection, uid uint32) (Prepared, error) {
	addr, latest, err := o.latest(ctx, collection, uid)
	if err != nil {
		return Prepared{}, err
	}

	cfg, err := premint.MarkDeleted(latest.Config)
	if err != nil {
		return Prepared{}, o.annotate(err, addr)
	}
	return o.prepare(collection, addr, cfg)
}

// Submit persists prepared with its creator signature. The signer must be
// authorized and the version must advance past the latest persisted one.
func (o *Orchestrator) Submit(ctx context.Context, prepared Prepared, signature []byte) (premint.SignedPremint, error) {
	signed := premint.SignedPremint{
		Collection:        prepared.Collection.Config,
		CollectionAddress: prepared.CollectionAddress,
		Config:            prepared.Config,
		Signature:         signature,
	}
	if err := signed.Config.Validate(); err != nil {
		return premint.SignedPremint{}, err
	}

	res, err := o.deps.Validator.Require(ctx, signed)
	if err != nil {
		return premint.SignedPremint{}, err
	}

	latest, err := o.deps.Store.Get(ctx, prepared.CollectionAddress, prepared.Config.UID)
	switch {
	case errors.Is(err, premint.ErrPremintNotFound):
	case err != nil:
		return premint.SignedPremint{}, fmt.Errorf("failed to fetch latest premint: %w", err)
	case signed.Config.Version <= latest.Config.Version:
		return premint.SignedPremint{}, &premint.StaleVersionError{
			Collection: prepared.CollectionAddress,
			UID:        prepared.Config.UID,
			Attempted:  signed.Config.Version,
			Latest:     latest.Config.Version,
		}
	}

	if err := o.deps.Store.Submit(ctx, signed); err != nil {
		return premint.SignedPremint{}, fmt.Errorf("failed to submit premint: %w", err)
	}

	o.logger.
		With("collection", prepared.CollectionAddress.Hex()).
		With("uid", signed.Config.UID).
		With("version", signed.Config.Version).
		With("signer", res.RecoveredSigner.Hex()).
		Info("submitted premint")
	return signed, nil
}

// Redeem builds the executor call that brings the latest version of uid on
// chain and mints it.
func (o *Orchestrator) Redeem(ctx context.Context, req RedeemRequest) (Redemption, error) {
	addr, latest, err := o.latest(ctx, req.Collection, req.UID)
	if err != nil {
		return Redemption{}, err
	}
	if latest.Config.Deleted {
		return Redemption{}, &premint.DeletedError{Collection: addr, UID: req.UID, Version: latest.Config.Version}
	}
	if req.HeldVersion != nil && *req.HeldVersion < latest.Config.Version {
		return Redemption{}, &premint.StaleVersionError{
			Collection: addr,
			UID:        req.UID,
			Attempted:  *req.HeldVersion,
			Latest:     latest.Config.Version,
		}
	}

	var (
		signer  *common.Address
		mintFee *big.Int
		tokenID *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	if req.ValidateSignature {
		g.Go(func() error {
			res, err := o.deps.Validator.Require(gctx, latest)
			if err != nil {
				return err
			}
			signer = res.RecoveredSigner
			return nil
		})
	}
	g.Go(func() error {
		fee, err := o.mintFee(gctx, addr)
		mintFee = fee
		return err
	})
	g.Go(func() error {
		tokenID = o.tokenID(gctx, addr, req.UID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Redemption{}, err
	}

	cost, err := o.builder.Cost(latest.Config.TokenConfig, mintFee, req.Args.Quantity)
	if err != nil {
		return Redemption{}, err
	}
	call, err := o.builder.Build(latest, latest.Target(), mintFee, req.Args)
	if err != nil {
		return Redemption{}, fmt.Errorf("failed to build redemption call: %w", err)
	}

	o.logger.
		With("collection", addr.Hex()).
		With("uid", req.UID).
		With("version", latest.Config.Version).
		With("quantity", req.Args.Quantity).
		With("value", call.Value.String()).
		Info("built redemption call")

	return Redemption{
		Call:              call,
		Cost:              cost,
		Signed:            latest,
		CollectionAddress: addr,
		Signer:            signer,
		TokenID:           tokenID,
	}, nil
}

// ListOfCollection returns every premint of collection, with token ids for
// those already brought on chain.
func (o *Orchestrator) ListOfCollection(ctx context.Context, collection premint.Collection) ([]CollectionPremint, error) {
	addr, err := o.deps.Resolver.Resolve(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve collection address: %w", err)
	}

	var (
		signed []premint.SignedPremint
		minted map[uint32]*big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		signed, err = o.deps.Store.ListOfCollection(gctx, addr)
		if err != nil {
			return fmt.Errorf("failed to list premints: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		minted = o.mintedTokens(gctx, addr)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]CollectionPremint, 0, len(signed))
	for _, s := range signed {
		out = append(out, CollectionPremint{
			Signed:  s,
			TokenID: minted[s.Config.UID],
			URL:     o.network.PremintURL(addr, s.Config.UID),
		})
	}
	return out, nil
}

func (o *Orchestrator) prepare(target premint.Collection, addr common.Address, cfg premint.Config) (Prepared, error) {
	if err := cfg.Validate(); err != nil {
		return Prepared{}, err
	}

	td, err := typeddata.Build(addr, o.network.ChainID, cfg)
	if err != nil {
		return Prepared{}, fmt.Errorf("failed to build typed data: %w", err)
	}
	digest, err := typeddata.Hash(td)
	if err != nil {
		return Prepared{}, fmt.Errorf("failed to hash typed data: %w", err)
	}

	return Prepared{
		Collection:        target,
		CollectionAddress: addr,
		ChainID:           o.network.ChainID,
		Config:            cfg,
		TypedData:         td,
		Digest:            digest,
		URL:               o.network.PremintURL(addr, cfg.UID),
	}, nil
}

func (o *Orchestrator) latest(ctx context.Context, collection premint.Collection, uid uint32) (common.Address, premint.SignedPremint, error) {
	addr, err := o.deps.Resolver.Resolve(ctx, collection)
	if err != nil {
		return common.Address{}, premint.SignedPremint{}, fmt.Errorf("failed to resolve collection address: %w", err)
	}

	latest, err := o.deps.Store.Get(ctx, addr, uid)
	if err != nil {
		return common.Address{}, premint.SignedPremint{}, fmt.Errorf("failed to fetch premint %d: %w", uid, err)
	}
	if latest.CollectionAddress == (common.Address{}) {
		latest.CollectionAddress = addr
	}
	return addr, latest, nil
}

// assignUID returns the uid and the version the next config takes. A supplied
// uid with a persisted record continues from it. A deleted uid stays deleted.
func (o *Orchestrator) assignUID(ctx context.Context, addr common.Address, requested *uint32) (uint32, uint32, error) {
	if requested == nil {
		uid, err := o.deps.Store.NextUID(ctx, addr)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to get next uid: %w", err)
		}
		return uid, 0, nil
	}

	uid := *requested
	existing, err := o.deps.Store.Get(ctx, addr, uid)
	switch {
	case errors.Is(err, premint.ErrPremintNotFound):
		return uid, 0, nil
	case err != nil:
		return 0, 0, fmt.Errorf("failed to fetch premint %d: %w", uid, err)
	case existing.Config.Deleted:
		return 0, 0, &premint.DeletedError{Collection: addr, UID: uid, Version: existing.Config.Version}
	case existing.Config.Version == math.MaxUint32:
		return 0, 0, &premint.ArithmeticOverflowError{Field: "version", Bits: 32}
	default:
		return uid, existing.Config.Version + 1, nil
	}
}

func (o *Orchestrator) selectVersion(ctx context.Context, addr common.Address, requested premint.ConfigVersion) (premint.ConfigVersion, error) {
	raw, err := o.deps.Executor.SupportedVersions(ctx, addr)
	o.metrics.RecordChainRead("supportedPremintSignatureVersions", err)
	if err != nil {
		return "", &premint.TransientFetchError{Op: "supportedPremintSignatureVersions", Attempts: 1, Err: err}
	}

	supported := make([]premint.ConfigVersion, 0, len(raw))
	for _, s := range raw {
		v := premint.ConfigVersion(s)
		if !v.Valid() {
			o.logger.With("version", s).Debug("ignoring unknown premint version supported by collection")
			continue
		}
		supported = append(supported, v)
	}

	if requested != "" {
		if err := premint.RequireVersion(addr, supported, requested); err != nil {
			return "", err
		}
		return requested, nil
	}
	return premint.SelectVersion(addr, supported, o.allowed)
}

// mintFee reads the executor's fee for addr, falling back to the configured
// default. Only cancellation is an error.
func (o *Orchestrator) mintFee(ctx context.Context, addr common.Address) (*big.Int, error) {
	fee, err := o.deps.Executor.MintFee(ctx, addr)
	o.metrics.RecordChainRead("mintFee", err)
	if err == nil && fee != nil {
		return fee, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	o.metrics.RecordMintFeeFallback()
	o.logger.
		With("collection", addr.Hex()).
		With("fallback_wei", o.fallback.String()).
		With("error", err).
		Warn("failed to read mint fee, using fallback")
	return new(big.Int).Set(o.fallback), nil
}

func (o *Orchestrator) tokenID(ctx context.Context, addr common.Address, uid uint32) *big.Int {
	return o.mintedTokens(ctx, addr)[uid]
}

// mintedTokens maps uids to token ids from the indexer. Indexer failures only
// cost the informational token ids.
func (o *Orchestrator) mintedTokens(ctx context.Context, addr common.Address) map[uint32]*big.Int {
	if o.deps.Indexer == nil {
		return nil
	}
	tokens, err := o.deps.Indexer.PremintTokenIDs(ctx, addr)
	if err != nil {
		o.logger.With("collection", addr.Hex()).With("error", err).Warn("failed to fetch premint token ids")
		return nil
	}

	out := make(map[uint32]*big.Int, len(tokens))
	for _, t := range tokens {
		out[t.UID] = t.TokenID
	}
	return out
}

// annotate fills in the collection on domain errors raised without one.
func (o *Orchestrator) annotate(err error, addr common.Address) error {
	var deleted *premint.DeletedError
	if errors.As(err, &deleted) && deleted.Collection == (common.Address{}) {
		deleted.Collection = addr
	}
	var mismatch *premint.VersionMismatchError
	if errors.As(err, &mismatch) && mismatch.Collection == (common.Address{}) {
		mismatch.Collection = addr
	}
	return err
}
