// Package subgraph queries the indexer for token sale state and the tokens
// created from premints.
package subgraph

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/compose-network/premint/internal/httpapi"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/premintapi"
	"github.com/ethereum/go-ethereum/common"
)

const clientName = "subgraph"

// Indexer strategy type names.
const (
	TypeFixedPrice = "FIXED_PRICE"
	TypeERC20      = "ERC_20_MINTER"
	TypePresale    = "PRESALE"
	TypeZoraTimed  = "ZORA_TIMED"
)

const (
	StandardERC1155 = "ERC1155"
	StandardERC721  = "ERC721"
)

var ErrTokenNotFound = errors.New("token not indexed")

type (
	FixedPriceResult struct {
		Address             string `json:"address"`
		PricePerToken       string `json:"pricePerToken"`
		SaleEnd             string `json:"saleEnd"`
		SaleStart           string `json:"saleStart"`
		MaxTokensPerAddress string `json:"maxTokensPerAddress"`
	}

	ERC20Result struct {
		FixedPriceResult
		Currency string `json:"currency"`
	}

	PresaleResult struct {
		Address      string `json:"address"`
		PresaleStart string `json:"presaleStart"`
		PresaleEnd   string `json:"presaleEnd"`
		MerkleRoot   string `json:"merkleRoot"`
	}

	ERC20ZResult struct {
		ID   string `json:"id"`
		Pool string `json:"pool"`
	}

	TimedResult struct {
		Address            string       `json:"address"`
		MintFee            string       `json:"mintFee"`
		SaleStart          string       `json:"saleStart"`
		SaleEnd            string       `json:"saleEnd"`
		ERC20Z             ERC20ZResult `json:"erc20Z"`
		SecondaryActivated bool         `json:"secondaryActivated"`
		MarketCountdown    string       `json:"marketCountdown,omitempty"`
		MinimumMarketEth   string       `json:"minimumMarketEth,omitempty"`
	}

	// SalesStrategy is one indexed strategy record. Type says which of the
	// pointers is set.
	SalesStrategy struct {
		Type            string            `json:"type"`
		FixedPrice      *FixedPriceResult `json:"fixedPrice,omitempty"`
		ERC20Minter     *ERC20Result      `json:"erc20Minter,omitempty"`
		Presale         *PresaleResult    `json:"presale,omitempty"`
		ZoraTimedMinter *TimedResult      `json:"zoraTimedMinter,omitempty"`
	}

	Contract struct {
		Address            string          `json:"address"`
		MintFeePerQuantity string          `json:"mintFeePerQuantity"`
		ContractVersion    string          `json:"contractVersion"`
		ContractURI        string          `json:"contractURI"`
		Name               string          `json:"name"`
		SalesStrategies    []SalesStrategy `json:"salesStrategies"`
	}

	Token struct {
		TokenID         string          `json:"tokenId,omitempty"`
		Creator         string          `json:"creator"`
		URI             string          `json:"uri"`
		TotalMinted     string          `json:"totalMinted"`
		MaxSupply       string          `json:"maxSupply"`
		TokenStandard   string          `json:"tokenStandard"`
		SalesStrategies []SalesStrategy `json:"salesStrategies"`
		Contract        Contract        `json:"contract"`
	}

	// PremintToken maps a premint uid to the token it created.
	PremintToken struct {
		UID     uint32
		TokenID *big.Int
	}

	Client struct {
		url  string
		http *httpapi.Client
	}

	request struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}

	graphQLError struct {
		Message string `json:"message"`
	}

	response[T any] struct {
		Data   T              `json:"data"`
		Errors []graphQLError `json:"errors,omitempty"`
	}
)

// New returns a client for the subgraph at url.
func New(url string, opts httpapi.Options) *Client {
	opts.BaseURL = ""
	return &Client{url: url, http: httpapi.New(clientName, opts)}
}

// Token fetches one token. A nil tokenID selects the contract-level record,
// which the indexer stores under token id 0.
func (c *Client) Token(ctx context.Context, contract common.Address, tokenID *big.Int) (Token, error) {
	id := "0"
	if tokenID != nil {
		id = tokenID.String()
	}

	data, err := query[struct {
		Token *Token `json:"zoraCreateToken"`
	}](ctx, c, "token", tokenQuery, map[string]any{"id": lower(contract) + "-" + id})
	if err != nil {
		return Token{}, err
	}
	if data.Token == nil {
		return Token{}, fmt.Errorf("%s-%s: %w", lower(contract), id, ErrTokenNotFound)
	}
	return *data.Token, nil
}

func (c *Client) ContractTokens(ctx context.Context, contract common.Address) ([]Token, error) {
	data, err := query[struct {
		Tokens []Token `json:"zoraCreateTokens"`
	}](ctx, c, "contract_tokens", contractTokensQuery, map[string]any{"contract": lower(contract)})
	if err != nil {
		return nil, err
	}
	return data.Tokens, nil
}

// PremintTokenIDs lists the tokens of contract that were created by redeeming premints.
func (c *Client) PremintTokenIDs(ctx context.Context, contract common.Address) ([]PremintToken, error) {
	data, err := query[struct {
		Premints []struct {
			UID     string `json:"uid"`
			TokenID string `json:"tokenId"`
		} `json:"premints"`
	}](ctx, c, "premints_of_contract", premintsOfContractQuery, map[string]any{"contractAddress": lower(contract)})
	if err != nil {
		return nil, err
	}

	out := make([]PremintToken, 0, len(data.Premints))
	for _, p := range data.Premints {
		uid, err := strconv.ParseUint(p.UID, 10, 32)
		if err != nil {
			return nil, &premint.DecodeError{Field: "uid", Value: p.UID, Err: err}
		}
		tokenID, err := premintapi.ParseUint("tokenId", p.TokenID, 256)
		if err != nil {
			return nil, err
		}
		out = append(out, PremintToken{UID: uint32(uid), TokenID: tokenID})
	}
	return out, nil
}

// DefaultMintPrice returns the protocol-wide mint fee the indexer tracks. ok is
// false when the indexer has no value.
func (c *Client) DefaultMintPrice(ctx context.Context) (price *big.Int, ok bool, err error) {
	data, err := query[struct {
		DefaultMintPrice *struct {
			PricePerToken string `json:"pricePerToken"`
		} `json:"defaultMintPrice"`
	}](ctx, c, "default_mint_price", defaultMintPriceQuery, map[string]any{})
	if err != nil {
		return nil, false, err
	}
	if data.DefaultMintPrice == nil || data.DefaultMintPrice.PricePerToken == "" {
		return nil, false, nil
	}

	price, err = premintapi.ParseUint("pricePerToken", data.DefaultMintPrice.PricePerToken, 256)
	if err != nil {
		return nil, false, err
	}
	return price, true, nil
}

// query posts a GraphQL read. Reads are idempotent, so the post is retried.
func query[T any](ctx context.Context, c *Client, op, q string, variables map[string]any) (T, error) {
	var resp response[T]
	if err := c.http.Post(ctx, op, c.url, request{Query: q, Variables: variables}, &resp, true); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to query subgraph: %w", err)
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		var zero T
		return zero, fmt.Errorf("subgraph %s query failed: %s", op, strings.Join(messages, "; "))
	}
	return resp.Data, nil
}

func lower(a common.Address) string {
	return strings.ToLower(a.Hex())
}
