package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// CollectionReader reads deployed 1155 collections.
type CollectionReader struct {
	caller bind.ContractCaller
	abi    abi.ABI
}

func NewCollectionReader(caller bind.ContractCaller) (*CollectionReader, error) {
	parsed, err := Load(Creator1155)
	if err != nil {
		return nil, err
	}
	return &CollectionReader{caller: caller, abi: parsed}, nil
}

func (r *CollectionReader) bound(address common.Address) *bind.BoundContract {
	return bind.NewBoundContract(address, r.abi, r.caller, nil, nil)
}

func (r *CollectionReader) ContractVersion(ctx context.Context, collection common.Address) (string, error) {
	var out []interface{}
	if err := r.bound(collection).Call(&bind.CallOpts{Context: ctx}, &out, "contractVersion"); err != nil {
		return "", fmt.Errorf("failed to call contractVersion on %s: %w", collection.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// MintFee is the per-quantity fee charged by the collection itself.
func (r *CollectionReader) MintFee(ctx context.Context, collection common.Address) (*big.Int, error) {
	var out []interface{}
	if err := r.bound(collection).Call(&bind.CallOpts{Context: ctx}, &out, "mintFee"); err != nil {
		return nil, fmt.Errorf("failed to call mintFee on %s: %w", collection.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
