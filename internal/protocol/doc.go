// Package protocol implements the SSRP discovery wire format.
//
// SSRP (SQL Server Resolution Protocol) is the UDP request/response protocol
// spoken by the SQL Server Browser service on port 1434. Clients send a
// one-shot request datagram and receive zero or more response datagrams.
//
// # Request Format
//
// Four request kinds exist, identified by the first byte:
//   - CLNT_BCAST_EX  (0x02): single byte, broadcast sweep of all instances
//   - CLNT_UCAST_EX  (0x03): single byte, unicast sweep of all instances
//   - CLNT_UCAST_INST (0x04): 0x04 + encoded instance name + 0x00
//   - CLNT_UCAST_DAC (0x0F): 0x0F + version (0x01) + encoded name + 0x00
//
// Instance names travel in a single-byte legacy codepage encoding and may be
// at most 32 encoded bytes.
//
// # Response Format
//
// Every response starts with marker byte 0x05 followed by a little-endian
// 16-bit payload size. Instance-list payloads are encoded text: fields are
// separated by ";" and instances are terminated by ";;". DAC responses are
// exactly 6 bytes: marker, size (=6), protocol version (0x01), and the
// little-endian 16-bit DAC port.
//
// # Instance Text Grammar
//
// Each instance chunk carries eight fixed fields (ServerName, InstanceName,
// IsClustered, Version literals alternating with their values) followed by
// optional tagged connection-info groups: np, tcp, via, rpc, spx, adsp, and
// the three-value bv group. A tag may appear at most once; an unknown or
// duplicate tag, a malformed value, or trailing bytes after the final ";;"
// invalidate the entire response.
//
// # Error Handling
//
// The parser distinguishes two tiers:
//   - Fatal structure violations return an error; callers are expected to
//     discard the whole datagram (the browser does exactly that and keeps
//     listening).
//   - Length advisories from the protocol reference (instance name over 16
//     characters, oversized via or rpc style fields) are logged as warnings
//     and never fail a parse.
//
// All parsing and construction functions are stateless and safe for
// concurrent use.
package protocol
