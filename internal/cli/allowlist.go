package cli

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/compose-network/premint/configs"
	"github.com/compose-network/premint/internal/allowlist"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// AllowListCMD manages allow-lists on the allow-list API.
var AllowListCMD = &cobra.Command{
	Use:   "allowlist",
	Short: "Create and query allow-lists",
}

var allowListCreateCMD = &cobra.Command{
	Use:   "create",
	Short: "Upload an allow-list and print its merkle root",
	Long: `Uploads the members of a CSV file with rows of user,maxCanMint,priceWei.
A header row starting with "user" is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("members")
		data, err := readInput(path)
		if err != nil {
			return err
		}
		members, err := parseMembers(bytes.NewReader(data))
		if err != nil {
			return err
		}

		e, err := offlineEnv(configs.Values)
		if err != nil {
			return err
		}
		root, err := e.allowList.Create(cmd.Context(), members)
		if err != nil {
			return err
		}

		e.logger.With("root", root.Hex()).With("members", len(members)).Info("allow-list created")
		return writeOutput(cmd, map[string]any{
			"root":    root,
			"members": len(members),
		})
	},
}

var allowListLookupCMD = &cobra.Command{
	Use:   "lookup",
	Short: "Print the best allow-list entry of a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newFlagReader(cmd.Flags())
		user := r.requiredAddress("user")
		rawRoot := r.string("root")
		if err := r.err(); err != nil {
			return err
		}
		root := common.HexToHash(rawRoot)

		e, err := offlineEnv(configs.Values)
		if err != nil {
			return err
		}
		entry, ok, err := e.allowList.Lookup(cmd.Context(), user, root)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is not on the allow list %s", user.Hex(), root.Hex())
		}
		return writeOutput(cmd, entry)
	},
}

// parseMembers reads user,maxCanMint,priceWei rows.
func parseMembers(r io.Reader) ([]allowlist.Member, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}

	members := make([]allowlist.Member, 0, len(rows))
	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "user") {
			continue
		}
		line := i + 1
		if !common.IsHexAddress(row[0]) {
			return nil, fmt.Errorf("line %d: %q is not a hex address", line, row[0])
		}
		maxCanMint, err := strconv.ParseUint(row[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid maxCanMint %q: %w", line, row[1], err)
		}
		price, ok := new(big.Int).SetString(row[2], 10)
		if !ok || price.Sign() < 0 {
			return nil, fmt.Errorf("line %d: invalid price %q", line, row[2])
		}
		members = append(members, allowlist.Member{
			User:       common.HexToAddress(row[0]),
			MaxCanMint: maxCanMint,
			Price:      price,
		})
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("allow-list has no members")
	}
	return members, nil
}

func init() {
	allowListCreateCMD.Flags().String("members", "", "CSV file of members, - for stdin")
	_ = allowListCreateCMD.MarkFlagRequired("members")

	allowListLookupCMD.Flags().String("user", "", "Account to look up")
	allowListLookupCMD.Flags().String("root", "", "Merkle root of the list")
	_ = allowListLookupCMD.MarkFlagRequired("root")

	AllowListCMD.AddCommand(allowListCreateCMD, allowListLookupCMD)
}
