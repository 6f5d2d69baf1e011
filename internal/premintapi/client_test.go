package premintapi

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/compose-network/premint/internal/httpapi"
	"github.com/compose-network/premint/internal/network"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/retry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var collectionAddress = common.HexToAddress("0xAbCdEf0123456789aBcDeF0123456789abCDef01")

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	net, err := network.DefaultRegistry().Lookup(999999999)
	require.NoError(t, err)
	return New(net, httpapi.Options{
		BaseURL: srv.URL,
		Retry:   retry.Policy{MaxAttempts: 2, Backoff: time.Millisecond},
	}, false)
}

func TestNextUIDUsesLowercasePath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/premint/signature/ZORA-SEPOLIA/0xabcdef0123456789abcdef0123456789abcdef01/next_uid", r.URL.Path)
		_, _ = w.Write([]byte(`{"next_uid": 42}`))
	})

	uid, err := c.NextUID(context.Background(), collectionAddress)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), uid)
}

func TestGetDecodesRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/premint/signature/ZORA-SEPOLIA/0xabcdef0123456789abcdef0123456789abcdef01/3", r.URL.Path)
		_, _ = w.Write([]byte(v1Record))
	})

	signed, err := c.Get(context.Background(), collectionAddress, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), signed.Config.UID)
	assert.Equal(t, collectionAddress, signed.CollectionAddress)
}

func TestGetMissingIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Get(context.Background(), collectionAddress, 3)
	assert.ErrorIs(t, err, premint.ErrPremintNotFound)
}

func TestGetMalformedRecordIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"premint": {"config_version": "2", "tokenConfig": {"maxSupply": "-1"}}, "signature": "0x"}`))
	})

	_, err := c.Get(context.Background(), collectionAddress, 3)
	assert.ErrorIs(t, err, premint.ErrDecode)
}

func TestSubmitPostsSignature(t *testing.T) {
	var posted SignatureRequest
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/premint/signature", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	collection := premint.CollectionConfig{ContractAdmin: creator, ContractURI: "ipfs://c", ContractName: "Drop"}
	err := c.Submit(context.Background(), premint.SignedPremint{
		Collection: &collection,
		Config: premint.Config{UID: 1, Version: 0, TokenConfig: premint.TokenConfigV2{
			TokenURI: "ipfs://t", MaxSupply: big.NewInt(1), PricePerToken: big.NewInt(2),
			PayoutRecipient: creator, FixedPriceMinter: fixedMinter,
		}},
		Signature: []byte{0xab},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, "ZORA-SEPOLIA", posted.ChainName)
	assert.Equal(t, "0xab", posted.Signature)
	assert.Equal(t, "2", posted.Premint.ConfigVersion)
	assert.Equal(t, Decimal("2"), posted.Premint.TokenConfig.PricePerToken)
	require.NotNil(t, posted.Collection)
	assert.Equal(t, "Drop", posted.Collection.ContractName)
	assert.Empty(t, posted.CollectionAddress)
}

func TestSubmitIsNotRetriedByDefault(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.Submit(context.Background(), premint.SignedPremint{
		CollectionAddress: collectionAddress,
		Config: premint.Config{TokenConfig: premint.TokenConfigV2{
			MaxSupply: big.NewInt(1), PricePerToken: big.NewInt(2),
		}},
	})
	assert.ErrorIs(t, err, premint.ErrTransientFetch)
	assert.EqualValues(t, 1, calls.Load())
}

func TestListOfCollection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/premint/signature/ZORA-SEPOLIA/0xabcdef0123456789abcdef0123456789abcdef01", r.URL.Path)
		var record SignatureResponse
		assert.NoError(t, json.Unmarshal([]byte(v1Record), &record))
		_ = json.NewEncoder(w).Encode(CollectionResponse{
			Collection: record.Collection,
			Premints: []CollectionPremintJSON{
				{Premint: record.Premint, Signature: record.Signature},
				{Premint: record.Premint, Signature: record.Signature},
			},
		})
	})

	premints, err := c.ListOfCollection(context.Background(), collectionAddress)
	require.NoError(t, err)
	require.Len(t, premints, 2)
	assert.Equal(t, collectionAddress, premints[1].CollectionAddress)
}

func TestListOfUnknownCollectionIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	premints, err := c.ListOfCollection(context.Background(), collectionAddress)
	require.NoError(t, err)
	assert.Empty(t, premints)
}
