package cli

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagDef defines a command-line flag bound to a configuration key.
type (
	flagType interface {
		string | int | bool
	}

	flagDef[T flagType] struct {
		name         string
		viperKey     string
		defaultValue T
		description  string
	}
)

var (
	stringFlags = []flagDef[string]{
		// Chain
		{"rpc-url", "chain.rpc-url", "", "JSON-RPC URL used for read-only contract calls"},
		{"premint-executor", "chain.premint-executor", "", "Premint executor address override"},
		{"erc20-minter", "chain.erc20-minter", "", "ERC-20 minter address override"},

		// Collaborators
		{"api-base-url", "api.base-url", "https://api.zora.co/", "Premint persistence API base URL"},
		{"api-timeout", "api.timeout", "30s", "Per-request timeout for HTTP collaborators"},
		{"api-backoff", "api.backoff", "200ms", "Linear backoff step between retries"},
		{"allow-list-base-url", "allow-list.base-url", "http://allowlist.zora.co/", "Allow-list API base URL"},
		{"subgraph-url", "subgraph.url", "", "Subgraph URL override"},

		// Premint
		{"fallback-mint-fee-wei", "premint.fallback-mint-fee-wei", "777000000000000", "Mint fee used when the executor fee cannot be read"},

		// Logging
		{"log-level", "log.level", "info", "Log level (debug, info, warn, error)"},
		{"log-format", "log.format", "json", "Log format (json or text)"},

		// Output
		{"output", "output", "json", "Output format (json or yaml, networks also accepts table)"},
	}

	intFlags = []flagDef[int]{
		{"chain-id", "chain.chain-id", 999999999, "Chain id of the target network"},
		{"api-max-attempts", "api.max-attempts", 3, "Attempts per HTTP read before giving up"},
		{"address-cache-size", "premint.address-cache-size", 1024, "Entries kept by the collection address cache"},
	}

	boolFlags = []flagDef[bool]{
		{"retry-signature-post", "api.retry-signature-post", false, "Retry the signature POST on transient failures"},
	}
)

// DeclareFlags declares the configuration flags on fs and binds them to viper.
func DeclareFlags(fs *pflag.FlagSet) error {
	if err := declareFlags(fs, stringFlags); err != nil {
		return err
	}
	if err := declareFlags(fs, intFlags); err != nil {
		return err
	}
	return declareFlags(fs, boolFlags)
}

// declareFlags declares multiple flags and binds them to viper configuration keys.
func declareFlags[T flagType](fs *pflag.FlagSet, flags []flagDef[T]) error {
	for _, flag := range flags {
		if err := declareFlag(fs, flag.name, flag.viperKey, flag.defaultValue, flag.description); err != nil {
			return err
		}
	}
	return nil
}

// declareFlag declares a single flag and binds it to a viper configuration key.
// The type parameter T determines the flag type (string, int, or bool).
func declareFlag[T flagType](fs *pflag.FlagSet, flagName, viperKey string, defaultValue T, description string) error {
	var zero T
	switch any(zero).(type) {
	case string:
		fs.String(flagName, any(defaultValue).(string), description)
	case int:
		fs.Int(flagName, any(defaultValue).(int), description)
	case bool:
		fs.Bool(flagName, any(defaultValue).(bool), description)
	}
	if err := viper.BindPFlag(viperKey, fs.Lookup(flagName)); err != nil {
		return fmt.Errorf("failed to bind flag %s: %w", flagName, err)
	}
	return nil
}
