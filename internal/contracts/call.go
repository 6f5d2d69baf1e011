package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Call is an assembled contract call. It is handed to a submitter and never
// sent from here.
type Call struct {
	To       common.Address `json:"to" yaml:"to"`
	Data     hexutil.Bytes  `json:"data" yaml:"data"`
	Value    *big.Int       `json:"value" yaml:"value"`
	Function string         `json:"function" yaml:"function"`
}

// NewCall packs method of contract name with args.
func NewCall(name Name, to common.Address, value *big.Int, method string, args ...interface{}) (Call, error) {
	parsed, err := Load(name)
	if err != nil {
		return Call{}, err
	}

	m, ok := parsed.Methods[method]
	if !ok {
		return Call{}, fmt.Errorf("contract %s has no method %s", name, method)
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return Call{}, fmt.Errorf("failed to pack %s.%s: %w", name, method, err)
	}

	if value == nil {
		value = new(big.Int)
	}
	return Call{To: to, Data: data, Value: new(big.Int).Set(value), Function: m.Sig}, nil
}

// Unpack decodes the arguments of a call built by NewCall. It is the inverse
// used when inspecting assembled calls.
func (c Call) Unpack(name Name) (string, []interface{}, error) {
	parsed, err := Load(name)
	if err != nil {
		return "", nil, err
	}
	if len(c.Data) < 4 {
		return "", nil, fmt.Errorf("call data too short: %d bytes", len(c.Data))
	}

	m, err := parsed.MethodById(c.Data[:4])
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve selector %x: %w", c.Data[:4], err)
	}
	args, err := m.Inputs.Unpack(c.Data[4:])
	if err != nil {
		return "", nil, fmt.Errorf("failed to unpack %s arguments: %w", m.Name, err)
	}
	return m.Name, args, nil
}
