package auth

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/compose-network/premint/internal/contracts"
	"github.com/compose-network/premint/internal/contracts/contractstest"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premint/typeddata"
	"github.com/compose-network/premint/internal/resolver"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chainID  = int64(999)
	adminKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	otherKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var (
	admin      = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	other      = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	collection = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
)

// adminCheck authorizes the contract admin and any additional admin.
func adminCheck(_ common.Address, args []interface{}) ([]interface{}, error) {
	signer := args[0].(common.Address)
	contractAdmin := args[1].(common.Address)
	for _, a := range args[3].([]common.Address) {
		if a == signer {
			return []interface{}{true}, nil
		}
	}
	return []interface{}{signer == contractAdmin}, nil
}

func newValidator(t *testing.T, caller *contractstest.Caller) *Validator {
	t.Helper()
	reader, err := contracts.NewExecutorReader(common.HexToAddress("0x7777773606e7e46C8Ba8B98C08f5cD218e31d340"), caller)
	require.NoError(t, err)
	r, err := resolver.New(chainID, reader, 0)
	require.NoError(t, err)
	return NewValidator(chainID, reader, r)
}

func signedPremint(t *testing.T, key string, cfg premint.CollectionConfig) premint.SignedPremint {
	t.Helper()
	tc, err := premint.BuildTokenConfig(premint.V2, premint.TokenConfigInput{TokenURI: "ipfs://auth", PricePerToken: big.NewInt(0)},
		premint.TokenDefaults{Creator: admin, FixedPriceMinter: common.HexToAddress("0x04E2516A2c207E84a1839755675dfd8eF6302F0a")})
	require.NoError(t, err)

	config := premint.NewConfig(tc, 1)
	td, err := typeddata.Build(collection, chainID, config)
	require.NoError(t, err)

	pk, err := crypto.HexToECDSA(key)
	require.NoError(t, err)
	sig, err := typeddata.Sign(td, pk)
	require.NoError(t, err)

	return premint.SignedPremint{Collection: &cfg, CollectionAddress: collection, Config: config, Signature: sig}
}

func executorCaller() *contractstest.Caller {
	return contractstest.NewCaller(contracts.PremintExecutor).
		Returns("getContractWithAdditionalAdminsAddress", collection).
		Handle("isAuthorizedToCreatePremintWithAdditionalAdmins", adminCheck)
}

func TestValidateAuthorizedAdmin(t *testing.T) {
	v := newValidator(t, executorCaller())

	res, err := v.Validate(context.Background(), signedPremint(t, adminKey, premint.CollectionConfig{ContractAdmin: admin, ContractName: "c"}))
	require.NoError(t, err)
	require.NotNil(t, res.RecoveredSigner)
	assert.Equal(t, admin, *res.RecoveredSigner)
	assert.True(t, res.IsAuthorized)
}

func TestValidateAdditionalAdmin(t *testing.T) {
	v := newValidator(t, executorCaller())

	cfg := premint.CollectionConfig{ContractAdmin: admin, ContractName: "c", AdditionalAdmins: []common.Address{other}}
	res, err := v.Require(context.Background(), signedPremint(t, otherKey, cfg))
	require.NoError(t, err)
	assert.Equal(t, other, *res.RecoveredSigner)
}

func TestRequireRejectsStranger(t *testing.T) {
	v := newValidator(t, executorCaller())

	_, err := v.Require(context.Background(), signedPremint(t, otherKey, premint.CollectionConfig{ContractAdmin: admin, ContractName: "c"}))

	var unauthorized *premint.UnauthorizedSignerError
	require.ErrorAs(t, err, &unauthorized)
	require.NotNil(t, unauthorized.Signer)
	assert.Equal(t, other, *unauthorized.Signer)
	assert.Equal(t, uint32(1), unauthorized.UID)
	assert.ErrorIs(t, err, premint.ErrUnauthorizedSigner)
}

func TestValidateMalformedSignature(t *testing.T) {
	caller := executorCaller()
	v := newValidator(t, caller)

	signed := signedPremint(t, adminKey, premint.CollectionConfig{ContractAdmin: admin, ContractName: "c"})
	signed.Signature = []byte{0x01, 0x02}

	res, err := v.Validate(context.Background(), signed)
	require.NoError(t, err)
	assert.Nil(t, res.RecoveredSigner)
	assert.False(t, res.IsAuthorized)
	assert.Zero(t, caller.Calls("isAuthorizedToCreatePremintWithAdditionalAdmins"))

	_, err = v.Require(context.Background(), signed)
	require.ErrorIs(t, err, premint.ErrUnauthorizedSigner)
}

func TestValidateMutatedConfig(t *testing.T) {
	v := newValidator(t, executorCaller())

	signed := signedPremint(t, adminKey, premint.CollectionConfig{ContractAdmin: admin, ContractName: "c"})
	signed.Config.Version = 5

	res, err := v.Validate(context.Background(), signed)
	require.NoError(t, err)
	if res.RecoveredSigner != nil {
		assert.NotEqual(t, admin, *res.RecoveredSigner)
	}
	assert.False(t, res.IsAuthorized)
}

func TestValidateChainFailureIsTransient(t *testing.T) {
	caller := contractstest.NewCaller(contracts.PremintExecutor).
		Fails("isAuthorizedToCreatePremintWithAdditionalAdmins", errors.New("timeout"))
	v := newValidator(t, caller)

	_, err := v.Validate(context.Background(), signedPremint(t, adminKey, premint.CollectionConfig{ContractAdmin: admin, ContractName: "c"}))
	require.ErrorIs(t, err, premint.ErrTransientFetch)
}
