package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// ContractCreationConfig is the executor's collection creation tuple.
	ContractCreationConfig struct {
		ContractAdmin    common.Address   `abi:"contractAdmin"`
		ContractURI      string           `abi:"contractURI"`
		ContractName     string           `abi:"contractName"`
		AdditionalAdmins []common.Address `abi:"additionalAdmins"`
	}

	MintArguments struct {
		MintRecipient         common.Address   `abi:"mintRecipient"`
		MintComment           string           `abi:"mintComment"`
		MintRewardsRecipients []common.Address `abi:"mintRewardsRecipients"`
	}

	// ExecutorReader binds the read-only surface of the premint executor.
	ExecutorReader struct {
		address  common.Address
		contract *bind.BoundContract
	}
)

func NewExecutorReader(address common.Address, caller bind.ContractCaller) (*ExecutorReader, error) {
	parsed, err := Load(PremintExecutor)
	if err != nil {
		return nil, err
	}
	return &ExecutorReader{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, caller, nil, nil),
	}, nil
}

func (r *ExecutorReader) Address() common.Address {
	return r.address
}

// CollectionAddress asks the executor for the deterministic address of a
// collection created from cfg.
func (r *ExecutorReader) CollectionAddress(ctx context.Context, cfg ContractCreationConfig) (common.Address, error) {
	if cfg.AdditionalAdmins == nil {
		cfg.AdditionalAdmins = []common.Address{}
	}

	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getContractWithAdditionalAdminsAddress", cfg); err != nil {
		return common.Address{}, fmt.Errorf("failed to call getContractWithAdditionalAdminsAddress: %w", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// IsAuthorized reports whether signer may create premints on collection. For a
// collection that is not deployed yet the executor checks against admin and
// additionalAdmins.
func (r *ExecutorReader) IsAuthorized(
	ctx context.Context,
	signer, admin, collection common.Address,
	additionalAdmins []common.Address,
) (bool, error) {
	if additionalAdmins == nil {
		additionalAdmins = []common.Address{}
	}

	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isAuthorizedToCreatePremintWithAdditionalAdmins",
		signer, admin, collection, additionalAdmins)
	if err != nil {
		return false, fmt.Errorf("failed to call isAuthorizedToCreatePremintWithAdditionalAdmins: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (r *ExecutorReader) SupportedVersions(ctx context.Context, collection common.Address) ([]string, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "supportedPremintSignatureVersions", collection); err != nil {
		return nil, fmt.Errorf("failed to call supportedPremintSignatureVersions: %w", err)
	}
	return *abi.ConvertType(out[0], new([]string)).(*[]string), nil
}

func (r *ExecutorReader) MintFee(ctx context.Context, collection common.Address) (*big.Int, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "mintFee", collection); err != nil {
		return nil, fmt.Errorf("failed to call mintFee: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
