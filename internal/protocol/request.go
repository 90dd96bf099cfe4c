package protocol

import (
	"errors"
	"fmt"

	"github.com/mkuiper/sqlbrowse/internal/codec"
)

// SSRP request kind bytes (CLNT_* message identifiers)
const (
	CmdBroadcastAll    byte = 0x02 // CLNT_BCAST_EX
	CmdUnicastAll      byte = 0x03 // CLNT_UCAST_EX
	CmdUnicastInstance byte = 0x04 // CLNT_UCAST_INST
	CmdUnicastDAC      byte = 0x0f // CLNT_UCAST_DAC
)

// SSRPVersion is the only protocol version this client speaks. It appears in
// DAC requests and responses.
const SSRPVersion byte = 0x01

// MaxInstanceNameBytes is the maximum encoded length of an instance name in
// a request. Longer names are a caller error, not a protocol error.
const MaxInstanceNameBytes = 32

// ErrInstanceNameTooLong is returned when an instance name exceeds
// MaxInstanceNameBytes once encoded.
var ErrInstanceNameTooLong = errors.New("instance name exceeds 32 encoded bytes")

// ValidateInstanceName checks the request-side precondition for an instance
// name: it must be representable in the codec's codepage and at most
// MaxInstanceNameBytes when encoded.
func ValidateInstanceName(c *codec.Codec, name string) error {
	n, err := c.ByteLength(name)
	if err != nil {
		return fmt.Errorf("invalid instance name: %w", err)
	}
	if n > MaxInstanceNameBytes {
		return fmt.Errorf("instance name %q: %w", name, ErrInstanceNameTooLong)
	}
	return nil
}

// BuildBroadcastAll builds the CLNT_BCAST_EX request asking every browser
// service on the segment to enumerate its instances.
func BuildBroadcastAll() []byte {
	return []byte{CmdBroadcastAll}
}

// BuildUnicastAll builds the CLNT_UCAST_EX request asking a single host to
// enumerate all of its instances.
func BuildUnicastAll() []byte {
	return []byte{CmdUnicastAll}
}

// BuildUnicastInstance builds the CLNT_UCAST_INST request asking a host
// about one named instance. Layout: 0x04 + encoded name + NUL.
func BuildUnicastInstance(c *codec.Codec, instance string) ([]byte, error) {
	if err := ValidateInstanceName(c, instance); err != nil {
		return nil, err
	}

	encoded, err := c.Encode(instance)
	if err != nil {
		return nil, err
	}

	req := make([]byte, 0, len(encoded)+2)
	req = append(req, CmdUnicastInstance)
	req = append(req, encoded...)
	req = append(req, 0x00)
	return req, nil
}

// BuildUnicastDAC builds the CLNT_UCAST_DAC request asking for the dedicated
// admin connection port of one named instance. Layout: 0x0F + version +
// encoded name + NUL.
func BuildUnicastDAC(c *codec.Codec, instance string) ([]byte, error) {
	if err := ValidateInstanceName(c, instance); err != nil {
		return nil, err
	}

	encoded, err := c.Encode(instance)
	if err != nil {
		return nil, err
	}

	req := make([]byte, 0, len(encoded)+3)
	req = append(req, CmdUnicastDAC, SSRPVersion)
	req = append(req, encoded...)
	req = append(req, 0x00)
	return req, nil
}
