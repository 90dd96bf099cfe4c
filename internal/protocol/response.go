package protocol

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mkuiper/sqlbrowse/internal/codec"
)

// Response framing constants
const (
	// RespMarker is the first byte of every browser response (SVR_RESP)
	RespMarker byte = 0x05

	// DACResponseSize is the exact length of a CLNT_UCAST_DAC response:
	// marker + size + version + 16-bit port
	DACResponseSize = 6

	// MaxInstanceChunkBytes caps one instance's encoded text including its
	// ";;" terminator
	MaxInstanceChunkBytes = 1024

	respHeaderSize = 3
)

// versionPattern matches valid instance version strings ("12.0.2000.8")
var versionPattern = regexp.MustCompile(`^[0-9.]+$`)

// Parser validates and decodes browser response datagrams.
//
// Parse errors mean the whole datagram is unusable; the protocol policy is
// to discard such datagrams rather than salvage partial data, since replies
// arrive unauthenticated over broadcast UDP. Length advisories go to the
// logger as warnings and never fail a parse.
type Parser struct {
	codec *codec.Codec
	log   *zap.Logger
}

// NewParser creates a parser using the given codec for text decoding and
// byte-length checks. A nil logger silences warnings.
func NewParser(c *codec.Codec, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{codec: c, log: log}
}

// ParseInstanceList decodes an instance-list response datagram into the
// instances it reports, in wire order. Any structural violation fails the
// whole datagram.
func (p *Parser) ParseInstanceList(data []byte) ([]Instance, error) {
	payload, err := p.payload(data)
	if err != nil {
		return nil, err
	}

	text, err := p.codec.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("undecodable payload: %w", err)
	}

	var instances []Instance

	// The payload is a run of chunks each terminated by ";;". It must end
	// exactly on a chunk boundary; trailing bytes after the last terminator
	// invalidate the whole message.
	rest := text
	for len(rest) > 0 {
		idx := strings.Index(rest, ";;")
		if idx < 0 {
			return nil, fmt.Errorf("instance chunk missing \";;\" terminator")
		}
		chunk := rest[:idx]
		rest = rest[idx+2:]

		n, err := p.codec.ByteLength(chunk)
		if err != nil {
			return nil, fmt.Errorf("instance chunk: %w", err)
		}
		if n+2 > MaxInstanceChunkBytes {
			return nil, fmt.Errorf("instance chunk is %d bytes, limit %d", n+2, MaxInstanceChunkBytes)
		}

		inst, err := p.parseInstance(chunk)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *inst)
	}

	return instances, nil
}

// ParseDacPort decodes a CLNT_UCAST_DAC response datagram into the DAC TCP
// port it reports.
func (p *Parser) ParseDacPort(data []byte) (int, error) {
	if data == nil {
		return 0, fmt.Errorf("nil datagram")
	}
	if len(data) != DACResponseSize {
		return 0, fmt.Errorf("DAC response is %d bytes, expected %d", len(data), DACResponseSize)
	}
	if data[0] != RespMarker {
		return 0, fmt.Errorf("bad response marker 0x%02x (expected 0x%02x)", data[0], RespMarker)
	}
	if size := binary.LittleEndian.Uint16(data[1:3]); size != DACResponseSize {
		return 0, fmt.Errorf("bad DAC size field %d (expected %d)", size, DACResponseSize)
	}
	if data[3] != SSRPVersion {
		return 0, fmt.Errorf("unsupported protocol version 0x%02x", data[3])
	}

	return int(binary.LittleEndian.Uint16(data[4:6])), nil
}

// payload validates the common response header and returns the payload slice.
func (p *Parser) payload(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("nil datagram")
	}
	if len(data) < respHeaderSize {
		return nil, fmt.Errorf("datagram too short: %d bytes", len(data))
	}
	if data[0] != RespMarker {
		return nil, fmt.Errorf("bad response marker 0x%02x (expected 0x%02x)", data[0], RespMarker)
	}

	size := int(binary.LittleEndian.Uint16(data[1:3]))
	if size == 0 {
		return nil, fmt.Errorf("zero payload size")
	}
	if respHeaderSize+size > len(data) {
		return nil, fmt.Errorf("payload size %d exceeds datagram length %d", size, len(data))
	}

	return data[respHeaderSize : respHeaderSize+size], nil
}

// parseInstance decodes one ";"-separated instance chunk. Positions 0-7 are
// the fixed mandatory fields; from position 8 on, tagged optional groups.
func (p *Parser) parseInstance(chunk string) (*Instance, error) {
	fields := strings.Split(chunk, ";")
	if len(fields) < 8 {
		return nil, fmt.Errorf("instance chunk has %d fields, need at least 8", len(fields))
	}

	if fields[0] != "ServerName" {
		return nil, fmt.Errorf("expected ServerName token, got %q", fields[0])
	}
	server := fields[1]
	if server == "" {
		return nil, fmt.Errorf("empty server name")
	}
	if err := p.requireMaxBytes("server name", server, 255); err != nil {
		return nil, err
	}

	if fields[2] != "InstanceName" {
		return nil, fmt.Errorf("expected InstanceName token, got %q", fields[2])
	}
	name := fields[3]
	if name == "" {
		return nil, fmt.Errorf("empty instance name")
	}
	if err := p.requireMaxBytes("instance name", name, 255); err != nil {
		return nil, err
	}
	if n := len([]rune(name)); n > 16 {
		p.log.Warn("instance name exceeds 16 characters",
			zap.String("name", name),
			zap.Int("length", n),
		)
	}

	if fields[4] != "IsClustered" {
		return nil, fmt.Errorf("expected IsClustered token, got %q", fields[4])
	}
	var clustered bool
	switch fields[5] {
	case "Yes":
		clustered = true
	case "No":
		clustered = false
	default:
		return nil, fmt.Errorf("invalid IsClustered value %q", fields[5])
	}

	if fields[6] != "Version" {
		return nil, fmt.Errorf("expected Version token, got %q", fields[6])
	}
	version := fields[7]
	if err := p.requireMaxBytes("version", version, 16); err != nil {
		return nil, err
	}
	if !versionPattern.MatchString(version) {
		return nil, fmt.Errorf("invalid version %q", version)
	}

	inst := &Instance{
		Server:      server,
		Name:        name,
		IsClustered: clustered,
		Version:     version,
		TCPPort:     -1,
	}

	// Optional tagged groups. Each tag may appear once; anything
	// unrecognized poisons the whole response.
	seen := make(map[string]bool)
	i := 8
	next := func(tag string) (string, error) {
		if i >= len(fields) {
			return "", fmt.Errorf("%q tag is missing its value", tag)
		}
		v := fields[i]
		i++
		return v, nil
	}

	for i < len(fields) {
		tag := fields[i]
		i++
		if seen[tag] {
			return nil, fmt.Errorf("duplicate %q tag", tag)
		}
		seen[tag] = true

		switch tag {
		case "np":
			v, err := next(tag)
			if err != nil {
				return nil, err
			}
			inst.PipeName = v

		case "tcp":
			v, err := next(tag)
			if err != nil {
				return nil, err
			}
			port, err := parsePort16(v)
			if err != nil {
				return nil, fmt.Errorf("tcp tag: %w", err)
			}
			inst.TCPPort = port

		case "via":
			v, err := next(tag)
			if err != nil {
				return nil, err
			}
			if err := p.parseVia(inst, v); err != nil {
				return nil, err
			}

		case "rpc":
			v, err := next(tag)
			if err != nil {
				return nil, err
			}
			p.warnOver127("rpc computer name", v)
			inst.RPCName = v

		case "spx":
			v, err := next(tag)
			if err != nil {
				return nil, err
			}
			if err := p.requireMaxBytes("spx service name", v, 1024); err != nil {
				return nil, err
			}
			p.warnOver127("spx service name", v)
			inst.SPXName = v

		case "adsp":
			v, err := next(tag)
			if err != nil {
				return nil, err
			}
			p.warnOver127("adsp object name", v)
			inst.ADSPName = v

		case "bv":
			// Banyan VINES: item, group and org names travel together
			for _, dst := range []*string{&inst.BVItemName, &inst.BVGroupName, &inst.BVOrgName} {
				v, err := next(tag)
				if err != nil {
					return nil, err
				}
				p.warnOver127("bv name", v)
				*dst = v
			}

		default:
			return nil, fmt.Errorf("unknown field tag %q", tag)
		}
	}

	return inst, nil
}

// parseVia decodes a via value: "netbios,nic1:port1,nic2:port2,...".
func (p *Parser) parseVia(inst *Instance, value string) error {
	if n, err := p.codec.ByteLength(value); err == nil && n > 128 {
		p.log.Warn("via endpoint list exceeds 128 bytes", zap.Int("bytes", n))
	}

	parts := strings.Split(value, ",")
	netbios := parts[0]
	if err := p.requireMaxBytes("via NetBIOS name", netbios, 15); err != nil {
		return err
	}
	if len(parts) < 2 {
		return fmt.Errorf("via field has no listeners")
	}

	listeners := make([]ViaListener, 0, len(parts)-1)
	for _, seg := range parts[1:] {
		nic, portStr, ok := strings.Cut(seg, ":")
		if !ok {
			return fmt.Errorf("malformed via listener %q", seg)
		}
		port, err := parsePort16(portStr)
		if err != nil {
			return fmt.Errorf("via listener %q: %w", seg, err)
		}
		listeners = append(listeners, ViaListener{NIC: nic, Port: port})
	}

	inst.NetBIOSName = netbios
	inst.Via = listeners
	return nil
}

// requireMaxBytes fails when a value exceeds its encoded-byte limit.
func (p *Parser) requireMaxBytes(field, value string, max int) error {
	n, err := p.codec.ByteLength(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if n > max {
		return fmt.Errorf("%s is %d bytes, limit %d", field, n, max)
	}
	return nil
}

// warnOver127 logs the protocol reference's 127-character advisory.
func (p *Parser) warnOver127(field, value string) {
	if n := len([]rune(value)); n > 127 {
		p.log.Warn(field+" exceeds 127 characters", zap.Int("length", n))
	}
}

// parsePort16 parses a decimal port in the 0-65535 range.
func parsePort16(v string) (int, error) {
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", v)
	}
	return int(n), nil
}
