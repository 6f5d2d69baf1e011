package premint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrVersionMismatch        = errors.New("premint config version not supported by collection")
	ErrStaleVersion           = errors.New("premint version is not newer than the latest known version")
	ErrPremintDeleted         = errors.New("premint has been deleted")
	ErrUnauthorizedSigner     = errors.New("signer is not authorized to create premints for collection")
	ErrTransientFetch         = errors.New("transient fetch failure")
	ErrNoEligibleSaleStrategy = errors.New("no eligible sale strategy, token is not currently mintable")
	ErrArithmeticOverflow     = errors.New("arithmetic overflow")
	ErrDecode                 = errors.New("failed to decode value")
	ErrPremintNotFound        = errors.New("premint not found")
)

type (
	// VersionMismatchError reports a config or field that the target collection
	// cannot accept.
	VersionMismatchError struct {
		Collection common.Address
		Requested  ConfigVersion
		Supported  []ConfigVersion
		Field      string
	}

	// StaleVersionError reports a premint whose version does not advance past
	// the latest persisted record for the same uid.
	StaleVersionError struct {
		Collection common.Address
		UID        uint32
		Attempted  uint32
		Latest     uint32
	}

	// DeletedError reports a uid whose latest record is a deletion.
	DeletedError struct {
		Collection common.Address
		UID        uint32
		Version    uint32
	}

	// UnauthorizedSignerError reports a signature from an account without admin rights.
	// Signer is nil when nothing could be recovered.
	UnauthorizedSignerError struct {
		Collection common.Address
		UID        uint32
		Signer     *common.Address
	}

	// TransientFetchError reports a collaborator failure that survived every retry.
	TransientFetchError struct {
		Op       string
		Attempts int
		Err      error
	}

	ArithmeticOverflowError struct {
		Field string
		Bits  int
	}

	// DecodeError reports a malformed value at an API boundary.
	DecodeError struct {
		Field string
		Value string
		Err   error
	}
)

func (e *VersionMismatchError) Error() string {
	supported := make([]string, 0, len(e.Supported))
	for _, v := range e.Supported {
		supported = append(supported, string(v))
	}

	msg := fmt.Sprintf("collection %s: version %q not supported (supported: [%s])",
		e.Collection.Hex(), e.Requested, strings.Join(supported, ","))
	if e.Field != "" {
		msg = fmt.Sprintf("collection %s: field %s requires a newer or different version than %q",
			e.Collection.Hex(), e.Field, e.Requested)
	}
	return msg
}

func (e *VersionMismatchError) Unwrap() error { return ErrVersionMismatch }

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("collection %s uid %d: version %d is not newer than latest version %d",
		e.Collection.Hex(), e.UID, e.Attempted, e.Latest)
}

func (e *StaleVersionError) Unwrap() error { return ErrStaleVersion }

func (e *DeletedError) Error() string {
	return fmt.Sprintf("collection %s uid %d: premint deleted at version %d", e.Collection.Hex(), e.UID, e.Version)
}

func (e *DeletedError) Unwrap() error { return ErrPremintDeleted }

func (e *UnauthorizedSignerError) Error() string {
	signer := "<unrecoverable>"
	if e.Signer != nil {
		signer = e.Signer.Hex()
	}
	return fmt.Sprintf("collection %s uid %d: signer %s is not authorized", e.Collection.Hex(), e.UID, signer)
}

func (e *UnauthorizedSignerError) Unwrap() error { return ErrUnauthorizedSigner }

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *TransientFetchError) Unwrap() []error { return []error{ErrTransientFetch, e.Err} }

func (e *ArithmeticOverflowError) Error() string {
	return fmt.Sprintf("%s: value out of range for uint%d", e.Field, e.Bits)
}

func (e *ArithmeticOverflowError) Unwrap() error { return ErrArithmeticOverflow }

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s from %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("decode %s from %q", e.Field, e.Value)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}
