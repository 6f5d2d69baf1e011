package cli

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/compose-network/premint/internal/premint"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/pflag"
)

// flagReader reads typed values off a flag set, collecting every parse error.
// Optional readers return nil when the flag was not given.
type flagReader struct {
	fs   *pflag.FlagSet
	errs []error
}

func newFlagReader(fs *pflag.FlagSet) *flagReader {
	return &flagReader{fs: fs}
}

func (r *flagReader) err() error {
	return errors.Join(r.errs...)
}

func (r *flagReader) fail(err error) {
	r.errs = append(r.errs, err)
}

func (r *flagReader) string(name string) string {
	v, err := r.fs.GetString(name)
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *flagReader) optionalString(name string) *string {
	if !r.fs.Changed(name) {
		return nil
	}
	v := r.string(name)
	return &v
}

func (r *flagReader) address(name string) common.Address {
	raw := r.string(name)
	if raw == "" {
		return common.Address{}
	}
	if !common.IsHexAddress(raw) {
		r.fail(fmt.Errorf("--%s %q is not a hex address", name, raw))
		return common.Address{}
	}
	return common.HexToAddress(raw)
}

func (r *flagReader) requiredAddress(name string) common.Address {
	if r.string(name) == "" {
		r.fail(fmt.Errorf("--%s is required", name))
		return common.Address{}
	}
	return r.address(name)
}

func (r *flagReader) optionalAddress(name string) *common.Address {
	if !r.fs.Changed(name) {
		return nil
	}
	addr := r.address(name)
	return &addr
}

func (r *flagReader) addresses(name string) []common.Address {
	raw, err := r.fs.GetStringSlice(name)
	if err != nil {
		r.fail(err)
		return nil
	}
	out := make([]common.Address, 0, len(raw))
	for _, s := range raw {
		if !common.IsHexAddress(s) {
			r.fail(fmt.Errorf("--%s %q is not a hex address", name, s))
			continue
		}
		out = append(out, common.HexToAddress(s))
	}
	return out
}

func (r *flagReader) optionalBig(name string) *big.Int {
	if !r.fs.Changed(name) {
		return nil
	}
	raw := r.string(name)
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		r.fail(fmt.Errorf("--%s %q is not a non-negative integer", name, raw))
		return nil
	}
	return v
}

func (r *flagReader) uint64(name string) uint64 {
	v, err := r.fs.GetUint64(name)
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *flagReader) optionalUint64(name string) *uint64 {
	if !r.fs.Changed(name) {
		return nil
	}
	v := r.uint64(name)
	return &v
}

func (r *flagReader) uint32(name string) uint32 {
	v, err := r.fs.GetUint32(name)
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *flagReader) optionalUint32(name string) *uint32 {
	if !r.fs.Changed(name) {
		return nil
	}
	v := r.uint32(name)
	return &v
}

func (r *flagReader) bytes(name string) []byte {
	raw := r.string(name)
	if raw == "" {
		return nil
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		r.fail(fmt.Errorf("--%s is not 0x-prefixed hex: %w", name, err))
		return nil
	}
	return b
}

func (r *flagReader) bool(name string) bool {
	v, err := r.fs.GetBool(name)
	if err != nil {
		r.fail(err)
	}
	return v
}

const (
	flagCollectionAddress = "collection-address"
	flagContractAdmin     = "contract-admin"
	flagContractURI       = "contract-uri"
	flagContractName      = "contract-name"
	flagAdditionalAdmin   = "additional-admin"
)

func declareCollectionFlags(fs *pflag.FlagSet) {
	fs.String(flagCollectionAddress, "", "Address of a deployed collection")
	fs.String(flagContractAdmin, "", "Admin of a collection created on first redemption")
	fs.String(flagContractURI, "", "Contract URI of a collection created on first redemption")
	fs.String(flagContractName, "", "Name of a collection created on first redemption")
	fs.StringSlice(flagAdditionalAdmin, nil, "Additional admins of a collection created on first redemption")
}

// collection targets a deployed address when --collection-address is given and
// a collection config otherwise.
func (r *flagReader) collection() premint.Collection {
	if r.string(flagCollectionAddress) != "" {
		return premint.CollectionAt(r.address(flagCollectionAddress))
	}
	return premint.CollectionFrom(premint.CollectionConfig{
		ContractAdmin:    r.address(flagContractAdmin),
		ContractURI:      r.string(flagContractURI),
		ContractName:     r.string(flagContractName),
		AdditionalAdmins: r.addresses(flagAdditionalAdmin),
	})
}

// readInput returns the contents of path, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("an input file is required")
	}
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
