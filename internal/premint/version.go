package premint

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ConfigVersion identifies a premint config schema. It is also the EIP-712
// domain version the config is signed under.
type ConfigVersion string

const (
	V1 ConfigVersion = "1"
	V2 ConfigVersion = "2"
	V3 ConfigVersion = "3"
)

// AllVersions lists every known schema, oldest first.
var AllVersions = []ConfigVersion{V1, V2, V3}

// ParseConfigVersion accepts "1", "2" or "3". An empty string is V1, which is how
// records written before versioning are stored.
func ParseConfigVersion(s string) (ConfigVersion, error) {
	switch ConfigVersion(s) {
	case "", V1:
		return V1, nil
	case V2:
		return V2, nil
	case V3:
		return V3, nil
	default:
		return "", &DecodeError{Field: "config_version", Value: s, Err: fmt.Errorf("unknown premint config version")}
	}
}

func (v ConfigVersion) Valid() bool {
	return slices.Contains(AllVersions, v)
}

// Hash is the bytes32 tag the executor uses to tell encoded configs apart.
func (v ConfigVersion) Hash() common.Hash {
	return crypto.Keccak256Hash([]byte(v))
}

func (v ConfigVersion) rank() int {
	return slices.Index(AllVersions, v)
}

// Newer reports whether v is a later schema than other.
func (v ConfigVersion) Newer(other ConfigVersion) bool {
	return v.rank() > other.rank()
}

// SelectVersion picks the newest version both the collection supports and the
// caller allows.
func SelectVersion(collection common.Address, supported, allowed []ConfigVersion) (ConfigVersion, error) {
	var best ConfigVersion
	for _, v := range supported {
		if !v.Valid() || !slices.Contains(allowed, v) {
			continue
		}
		if best == "" || v.Newer(best) {
			best = v
		}
	}

	if best == "" {
		return "", &VersionMismatchError{Collection: collection, Supported: supported}
	}
	return best, nil
}

// RequireVersion checks that an explicitly requested version is supported.
func RequireVersion(collection common.Address, supported []ConfigVersion, requested ConfigVersion) error {
	if !slices.Contains(supported, requested) {
		return &VersionMismatchError{Collection: collection, Requested: requested, Supported: supported}
	}
	return nil
}
