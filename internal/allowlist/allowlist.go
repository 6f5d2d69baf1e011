// Package allowlist resolves allow-list entries for presale strategies.
package allowlist

import (
	"cmp"
	"context"
	"fmt"
	"math/big"
	"net/url"
	"slices"
	"strings"

	"github.com/compose-network/premint/internal/httpapi"
	"github.com/compose-network/premint/internal/premintapi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	DefaultBaseURL = "http://allowlist.zora.co/"
	clientName     = "allow-list"
)

type (
	// Entry is one allow-list leaf for a user with the proof that it belongs to the root.
	Entry struct {
		MaxCanMint uint64        `json:"maxCanMint" yaml:"max-can-mint"`
		Price      *big.Int      `json:"price" yaml:"price"`
		Proof      []common.Hash `json:"proof" yaml:"proof"`
	}

	// Member is an allow-list row used to create a new list.
	Member struct {
		User       common.Address
		MaxCanMint uint64
		Price      *big.Int
	}

	entryJSON struct {
		MaxCanMint uint64             `json:"maxCanMint"`
		Price      premintapi.Decimal `json:"price"`
		Proof      []string           `json:"proof"`
	}

	memberJSON struct {
		User       string             `json:"user"`
		MaxCanMint uint64             `json:"maxCanMint"`
		Price      premintapi.Decimal `json:"price"`
	}

	createRequest struct {
		Entries []memberJSON `json:"entries"`
	}

	createResponse struct {
		Success bool   `json:"success"`
		Root    string `json:"root"`
	}

	Client struct {
		http *httpapi.Client
	}
)

// SelectEntry picks the cheapest entry, then the one allowing the most mints.
// Remaining ties keep input order.
func SelectEntry(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c
		}
		return cmp.Compare(b.MaxCanMint, a.MaxCanMint)
	})
	return sorted[0], true
}

func New(opts httpapi.Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Client{http: httpapi.New(clientName, opts)}
}

// Lookup returns the best entry of user in the list with root. ok is false when
// the user has no entry with a proof.
func (c *Client) Lookup(ctx context.Context, user common.Address, root common.Hash) (entry Entry, ok bool, err error) {
	query := url.Values{}
	query.Set("user", user.Hex())
	query.Set("root", root.Hex())

	var resp []entryJSON
	if err := c.http.Get(ctx, "allowed", "/allowed?"+query.Encode(), &resp); err != nil {
		return Entry{}, false, fmt.Errorf("failed to fetch allow-list entry: %w", err)
	}

	entries := make([]Entry, 0, len(resp))
	for _, raw := range resp {
		e, err := decodeEntry(raw)
		if err != nil {
			return Entry{}, false, err
		}
		entries = append(entries, e)
	}

	entry, ok = SelectEntry(entries)
	if !ok || len(entry.Proof) == 0 {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Create uploads a new list and returns its merkle root.
func (c *Client) Create(ctx context.Context, members []Member) (common.Hash, error) {
	req := createRequest{Entries: make([]memberJSON, 0, len(members))}
	for _, m := range members {
		price := m.Price
		if price == nil {
			price = new(big.Int)
		}
		req.Entries = append(req.Entries, memberJSON{
			User:       m.User.Hex(),
			MaxCanMint: m.MaxCanMint,
			Price:      premintapi.Decimal(price.String()),
		})
	}

	var resp createResponse
	if err := c.http.Post(ctx, "create", "/allowlist", req, &resp, true); err != nil {
		return common.Hash{}, fmt.Errorf("failed to create allow-list: %w", err)
	}

	root, err := hexutil.Decode(padHex(resp.Root))
	if err != nil || len(root) != common.HashLength {
		return common.Hash{}, fmt.Errorf("allow-list api returned invalid root %q", resp.Root)
	}
	return common.BytesToHash(root), nil
}

func decodeEntry(raw entryJSON) (Entry, error) {
	price, err := premintapi.ParseUint("price", string(raw.Price), 256)
	if err != nil {
		return Entry{}, err
	}

	proof := make([]common.Hash, 0, len(raw.Proof))
	for _, p := range raw.Proof {
		b, err := hexutil.Decode(padHex(p))
		if err != nil || len(b) != common.HashLength {
			return Entry{}, fmt.Errorf("allow-list proof element %q is not bytes32", p)
		}
		proof = append(proof, common.BytesToHash(b))
	}
	return Entry{MaxCanMint: raw.MaxCanMint, Price: price, Proof: proof}, nil
}

func padHex(s string) string {
	if strings.HasPrefix(s, "0x") {
		return s
	}
	return "0x" + s
}
