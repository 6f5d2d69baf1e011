package contracts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

type Name string

const (
	PremintExecutor       Name = "PremintExecutor"
	Creator1155           Name = "ZoraCreator1155"
	ERC20Minter           Name = "ERC20Minter"
	TimedSaleStrategy     Name = "ZoraTimedSaleStrategy"
	ERC721Drop            Name = "ERC721Drop"
	embeddedABIDir        = "abi"
	embeddedABIFileSuffix = ".json"
)

//go:embed abi/*.json
var abiFS embed.FS

var (
	loadOnce sync.Once
	loaded   map[Name]abi.ABI
	loadErr  error
)

// Load returns the parsed ABI of an embedded contract. All ABIs are parsed on
// the first call.
func Load(name Name) (abi.ABI, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parseAll()
	})
	if loadErr != nil {
		return abi.ABI{}, loadErr
	}

	parsed, ok := loaded[name]
	if !ok {
		return abi.ABI{}, fmt.Errorf("unknown contract %q", name)
	}
	return parsed, nil
}

// MustLoad is Load for package initialization, where the ABIs are known to be embedded.
func MustLoad(name Name) abi.ABI {
	parsed, err := Load(name)
	if err != nil {
		panic(err)
	}
	return parsed
}

func parseAll() (map[Name]abi.ABI, error) {
	out := make(map[Name]abi.ABI)
	for _, name := range []Name{PremintExecutor, Creator1155, ERC20Minter, TimedSaleStrategy, ERC721Drop} {
		data, err := abiFS.ReadFile(embeddedABIDir + "/" + string(name) + embeddedABIFileSuffix)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded ABI for %s: %w", name, err)
		}

		parsed, err := abi.JSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
		}
		out[name] = parsed
	}
	return out, nil
}
