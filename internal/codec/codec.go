// Package codec converts between Go strings and the single-byte legacy
// codepage encoding used on the SSRP wire.
//
// The browser service measures every string length in encoded bytes, not
// characters, so ByteLength is used throughout the protocol packages for
// wire-size validation.
package codec

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultCodepage is the codepage assumed when none is configured. Windows
// SQL Server hosts almost always run the browser service with a Windows-125x
// ANSI codepage; 1252 is the common case. Hosts using a different system
// codepage need the codepage set explicitly (see ForName).
const DefaultCodepage = "windows-1252"

// Codec performs text conversion for one fixed single-byte codepage.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// Default returns a codec for the default Windows-1252 codepage.
func Default() *Codec {
	return &Codec{name: DefaultCodepage, enc: charmap.Windows1252}
}

// ForName returns a codec for the codepage with the given IANA name
// (for example "windows-1252" or "ISO-8859-1").
func ForName(name string) (*Codec, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown codepage %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("codepage %q is not supported", name)
	}
	return &Codec{name: name, enc: enc}, nil
}

// Name returns the IANA name of the codec's codepage.
func (c *Codec) Name() string {
	return c.name
}

// Encode converts text to its wire representation. It fails if any rune has
// no mapping in the codepage; such strings cannot be transmitted.
func (c *Codec) Encode(text string) ([]byte, error) {
	out, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("text not representable in %s: %w", c.name, err)
	}
	return out, nil
}

// Decode converts wire bytes back to text. Single-byte codepages decode
// every byte, so for protocol payloads this never fails in practice.
func (c *Codec) Decode(data []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.name, err)
	}
	return string(out), nil
}

// ByteLength returns the encoded size of text in bytes.
func (c *Codec) ByteLength(text string) (int, error) {
	out, err := c.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}
