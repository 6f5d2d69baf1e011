package premint

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type (
	// CollectionConfig describes a collection that may not be deployed yet.
	// AdditionalAdmins only take effect on executors supporting V2 and later.
	CollectionConfig struct {
		ContractAdmin    common.Address   `json:"contractAdmin"`
		ContractURI      string           `json:"contractURI"`
		ContractName     string           `json:"contractName"`
		AdditionalAdmins []common.Address `json:"additionalAdmins,omitempty"`
	}

	// Collection targets a collection either by its creation config or by the
	// address of an already deployed contract. Exactly one is set.
	Collection struct {
		Config  *CollectionConfig
		Address common.Address
	}
)

// CollectionAt targets a deployed collection.
func CollectionAt(address common.Address) Collection {
	return Collection{Address: address}
}

// CollectionFrom targets a collection by config.
func CollectionFrom(cfg CollectionConfig) Collection {
	return Collection{Config: &cfg}
}

func (c Collection) HasConfig() bool {
	return c.Config != nil
}

func (c Collection) Validate() error {
	if c.Config == nil && c.Address == (common.Address{}) {
		return errors.New("collection requires a config or an address")
	}
	if c.Config != nil && c.Address != (common.Address{}) {
		return errors.New("collection must be given by config or by address, not both")
	}
	if c.Config != nil {
		return c.Config.Validate()
	}
	return nil
}

func (c CollectionConfig) Validate() error {
	var errs []error
	if c.ContractAdmin == (common.Address{}) {
		errs = append(errs, errors.New("collection contractAdmin is required"))
	}
	if strings.TrimSpace(c.ContractName) == "" {
		errs = append(errs, errors.New("collection contractName is required"))
	}
	return errors.Join(errs...)
}

// WithDefaults returns a copy where a nil admin list becomes empty, which is
// what the executor ABI expects.
func (c CollectionConfig) WithDefaults() CollectionConfig {
	if c.AdditionalAdmins == nil {
		c.AdditionalAdmins = []common.Address{}
	}
	return c
}

// IsAdmin reports whether account is the contract admin or an additional admin.
func (c CollectionConfig) IsAdmin(account common.Address) bool {
	if c.ContractAdmin == account {
		return true
	}
	for _, admin := range c.AdditionalAdmins {
		if admin == account {
			return true
		}
	}
	return false
}

// Digest identifies the config for caching. Fields are length-prefixed so
// distinct configs cannot share a digest.
func (c CollectionConfig) Digest() common.Hash {
	var buf bytes.Buffer
	buf.Write(c.ContractAdmin.Bytes())
	writeString(&buf, c.ContractURI)
	writeString(&buf, c.ContractName)
	for _, admin := range c.AdditionalAdmins {
		buf.Write(admin.Bytes())
	}
	return crypto.Keccak256Hash(buf.Bytes())
}

func writeString(buf *bytes.Buffer, s string) {
	n := len(s)
	buf.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	buf.WriteString(s)
}
