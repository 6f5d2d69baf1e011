// Package contractstest provides an in-memory bind.ContractCaller that answers
// calls against the embedded ABIs.
package contractstest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/compose-network/premint/internal/contracts"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Handler answers one method. args are the unpacked inputs, the returned values
// are packed as the method outputs.
type Handler func(to common.Address, args []interface{}) ([]interface{}, error)

type Caller struct {
	mu       sync.Mutex
	abis     []abi.ABI
	handlers map[string]Handler
	calls    map[string]int
}

func NewCaller(names ...contracts.Name) *Caller {
	c := &Caller{handlers: make(map[string]Handler), calls: make(map[string]int)}
	for _, name := range names {
		c.abis = append(c.abis, contracts.MustLoad(name))
	}
	return c
}

// Handle registers fn for method, replacing any previous handler.
func (c *Caller) Handle(method string, fn Handler) *Caller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = fn
	return c
}

// Returns registers a handler that always answers with values.
func (c *Caller) Returns(method string, values ...interface{}) *Caller {
	return c.Handle(method, func(common.Address, []interface{}) ([]interface{}, error) {
		return values, nil
	})
}

// Fails registers a handler that always fails with err.
func (c *Caller) Fails(method string, err error) *Caller {
	return c.Handle(method, func(common.Address, []interface{}) ([]interface{}, error) {
		return nil, err
	})
}

// Calls reports how often method was invoked.
func (c *Caller) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *Caller) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (c *Caller) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(call.Data) < 4 {
		return nil, errors.New("call data too short")
	}

	method, err := c.method(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method.Name, err)
	}

	c.mu.Lock()
	handler, ok := c.handlers[method.Name]
	c.calls[method.Name]++
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no handler for %s", method.Name)
	}

	var to common.Address
	if call.To != nil {
		to = *call.To
	}
	out, err := handler(to, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (c *Caller) method(selector []byte) (*abi.Method, error) {
	for _, parsed := range c.abis {
		if m, err := parsed.MethodById(selector); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown selector %x", selector)
}
