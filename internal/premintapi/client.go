// Package premintapi talks to the premint persistence API that stores signed
// premints and hands out uids.
package premintapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/compose-network/premint/internal/httpapi"
	"github.com/compose-network/premint/internal/network"
	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultBaseURL = "https://api.zora.co/"
	clientName     = "premint-api"
)

type Client struct {
	chainName string
	http      *httpapi.Client
	// retrySignature marks the signature POST retry-safe.
	retrySignature bool
}

// New returns a client scoped to the backend chain name of net.
func New(net network.Network, opts httpapi.Options, retrySignature bool) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Client{
		chainName:      net.BackendChainName,
		http:           httpapi.New(clientName, opts),
		retrySignature: retrySignature,
	}
}

// NextUID asks the backend for the next free uid of collection.
func (c *Client) NextUID(ctx context.Context, collection common.Address) (uint32, error) {
	var resp NextUIDResponse
	if err := c.http.Get(ctx, "next_uid", c.collectionPath(collection)+"/next_uid", &resp); err != nil {
		return 0, fmt.Errorf("failed to fetch next uid: %w", err)
	}
	return resp.NextUID, nil
}

// Get returns the latest signed record of uid. A missing record is
// premint.ErrPremintNotFound.
func (c *Client) Get(ctx context.Context, collection common.Address, uid uint32) (premint.SignedPremint, error) {
	var resp SignatureResponse
	err := c.http.Get(ctx, "get_signature", fmt.Sprintf("%s/%d", c.collectionPath(collection), uid), &resp)
	if httpapi.IsNotFound(err) {
		return premint.SignedPremint{}, fmt.Errorf("collection %s uid %d: %w", collection.Hex(), uid, premint.ErrPremintNotFound)
	}
	if err != nil {
		return premint.SignedPremint{}, fmt.Errorf("failed to fetch premint: %w", err)
	}

	signed, err := DecodeSignature(resp)
	if err != nil {
		return premint.SignedPremint{}, err
	}
	if signed.CollectionAddress == (common.Address{}) {
		signed.CollectionAddress = collection
	}
	return signed, nil
}

// ListOfCollection returns the latest record of every uid in collection. An
// unknown collection has no premints.
func (c *Client) ListOfCollection(ctx context.Context, collection common.Address) ([]premint.SignedPremint, error) {
	var resp CollectionResponse
	err := c.http.Get(ctx, "get_collection", c.collectionPath(collection), &resp)
	if httpapi.IsNotFound(err) {
		return []premint.SignedPremint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch premints of collection: %w", err)
	}

	signed, err := DecodeCollection(resp)
	if err != nil {
		return nil, err
	}
	for i := range signed {
		if signed[i].CollectionAddress == (common.Address{}) {
			signed[i].CollectionAddress = collection
		}
	}
	return signed, nil
}

// Submit persists signed.
func (c *Client) Submit(ctx context.Context, signed premint.SignedPremint) error {
	body, err := EncodeSignature(c.chainName, signed)
	if err != nil {
		return fmt.Errorf("failed to encode premint: %w", err)
	}

	var resp SubmitResponse
	if err := c.http.Post(ctx, "post_signature", "/premint/signature", body, &resp, c.retrySignature); err != nil {
		return fmt.Errorf("failed to submit premint: %w", err)
	}
	return nil
}

func (c *Client) collectionPath(collection common.Address) string {
	return fmt.Sprintf("/premint/signature/%s/%s", c.chainName, strings.ToLower(collection.Hex()))
}
