// Package auth recovers premint signers and checks their rights on chain.
package auth

import (
	"context"
	"log/slog"

	"github.com/compose-network/premint/internal/logger"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premint/typeddata"
	"github.com/ethereum/go-ethereum/common"
)

type (
	authorizer interface {
		IsAuthorized(ctx context.Context, signer, admin, collection common.Address, additionalAdmins []common.Address) (bool, error)
	}

	addressResolver interface {
		Resolve(ctx context.Context, target premint.Collection) (common.Address, error)
	}

	// Result of a validation. RecoveredSigner is nil when the signature could
	// not be recovered, in which case IsAuthorized is false.
	Result struct {
		RecoveredSigner   *common.Address
		IsAuthorized      bool
		CollectionAddress common.Address
	}

	Validator struct {
		chainID    int64
		authorizer authorizer
		resolver   addressResolver
		logger     *slog.Logger
	}
)

func NewValidator(chainID int64, authorizer authorizer, resolver addressResolver) *Validator {
	return &Validator{
		chainID:    chainID,
		authorizer: authorizer,
		resolver:   resolver,
		logger:     logger.Named("auth"),
	}
}

// Validate recovers the signer of signed against the payload rebuilt from its
// own config and asks the executor whether that signer may create premints on
// the collection. For collections that are not deployed yet the executor
// judges against the admin list carried in the signed collection config.
//
// Malformed signatures are not errors. They yield a Result without a signer.
func (v *Validator) Validate(ctx context.Context, signed premint.SignedPremint) (Result, error) {
	collection, err := v.collectionAddress(ctx, signed)
	if err != nil {
		return Result{}, err
	}

	td, err := typeddata.Build(collection, v.chainID, signed.Config)
	if err != nil {
		return Result{}, err
	}

	l := v.logger.With("collection", collection.Hex()).With("uid", signed.Config.UID).With("version", signed.Config.Version)

	signer, err := typeddata.Recover(td, signed.Signature)
	if err != nil {
		l.With("error", err).Debug("could not recover premint signer")
		return Result{CollectionAddress: collection}, nil
	}

	var (
		admin  common.Address
		admins []common.Address
	)
	if signed.Collection != nil {
		admin = signed.Collection.ContractAdmin
		admins = signed.Collection.WithDefaults().AdditionalAdmins
	}

	ok, err := v.authorizer.IsAuthorized(ctx, signer, admin, collection, admins)
	if err != nil {
		return Result{}, &premint.TransientFetchError{Op: "isAuthorizedToCreatePremintWithAdditionalAdmins", Attempts: 1, Err: err}
	}

	l.With("signer", signer.Hex()).With("authorized", ok).Debug("validated premint signature")
	return Result{RecoveredSigner: &signer, IsAuthorized: ok, CollectionAddress: collection}, nil
}

// Require is Validate that fails with UnauthorizedSignerError unless the
// signer is authorized.
func (v *Validator) Require(ctx context.Context, signed premint.SignedPremint) (Result, error) {
	res, err := v.Validate(ctx, signed)
	if err != nil {
		return Result{}, err
	}
	if !res.IsAuthorized {
		return res, &premint.UnauthorizedSignerError{
			Collection: res.CollectionAddress,
			UID:        signed.Config.UID,
			Signer:     res.RecoveredSigner,
		}
	}
	return res, nil
}

func (v *Validator) collectionAddress(ctx context.Context, signed premint.SignedPremint) (common.Address, error) {
	if signed.Collection == nil {
		return signed.CollectionAddress, nil
	}
	if signed.CollectionAddress != (common.Address{}) {
		return signed.CollectionAddress, nil
	}
	return v.resolver.Resolve(ctx, premint.CollectionFrom(*signed.Collection))
}
