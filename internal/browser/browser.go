package browser

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/mkuiper/sqlbrowse/internal/codec"
	"github.com/mkuiper/sqlbrowse/internal/protocol"
)

const (
	// BrowserPort is the well-known UDP port of the SQL Server Browser service
	BrowserPort = 1434

	// DefaultTimeout is the default response-collection window
	DefaultTimeout = 1 * time.Second

	// DefaultMulticastHops is the default IPv6 multicast hop limit
	DefaultMulticastHops = 1

	// maxDatagramSize is the largest UDP payload a response can occupy
	maxDatagramSize = 65535
)

// Browser performs SSRP discovery exchanges. The exported fields may be
// adjusted after construction and before the first call.
type Browser struct {
	// Timeout is the response-collection window for one call
	Timeout time.Duration

	// MulticastHops is the hop limit applied to multicast sweeps
	MulticastHops int

	// Port is the UDP port requests are sent to, normally BrowserPort
	Port int

	codec  *codec.Codec
	parser *protocol.Parser
	log    *zap.Logger
}

// New creates a browser client using the default windows-1252 codec.
func New(log *zap.Logger) *Browser {
	return NewWithCodec(codec.Default(), log)
}

// NewWithCodec creates a browser client with an explicit wire codec, for
// hosts whose browser service runs under a different system codepage.
func NewWithCodec(c *codec.Codec, log *zap.Logger) *Browser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Browser{
		Timeout:       DefaultTimeout,
		MulticastHops: DefaultMulticastHops,
		Port:          BrowserPort,
		codec:         c,
		parser:        protocol.NewParser(c, log),
		log:           log,
	}
}

// Codec returns the wire codec the browser was built with.
func (b *Browser) Codec() *codec.Codec {
	return b.codec
}

// ListAllInstances sweeps a broadcast or multicast address and returns every
// instance reported before the timeout elapses, in arrival order. An empty
// result means no server answered in time; that is not an error.
func (b *Browser) ListAllInstances(ctx context.Context, addr net.IP) ([]protocol.Instance, error) {
	var out []protocol.Instance
	err := b.exchange(ctx, addr, protocol.BuildBroadcastAll(), func(data []byte) bool {
		out = b.collectList(out, data)
		return false
	})
	return out, err
}

// ListInstances queries a single server. With an empty instance name it asks
// for all instances on the host and waits out the full timeout window. With
// a named instance it returns as soon as one reply parses to a non-empty
// list, since only one server can answer.
func (b *Browser) ListInstances(ctx context.Context, addr net.IP, instance string) ([]protocol.Instance, error) {
	var req []byte
	if instance == "" {
		req = protocol.BuildUnicastAll()
	} else {
		var err error
		req, err = protocol.BuildUnicastInstance(b.codec, instance)
		if err != nil {
			return nil, err
		}
	}

	var out []protocol.Instance
	err := b.exchange(ctx, addr, req, func(data []byte) bool {
		before := len(out)
		out = b.collectList(out, data)
		return instance != "" && len(out) > before
	})
	return out, err
}

// DacPort retrieves the dedicated admin connection port of a named instance.
// ok is false when no server answered in time or the reply was unusable.
func (b *Browser) DacPort(ctx context.Context, addr net.IP, instance string) (port int, ok bool, err error) {
	if instance == "" {
		return 0, false, fmt.Errorf("instance name required for DAC lookup")
	}

	req, err := protocol.BuildUnicastDAC(b.codec, instance)
	if err != nil {
		return 0, false, err
	}

	// Any reply is terminal here: exactly one server can answer and it
	// sends exactly one datagram, so there is nothing to keep waiting for.
	err = b.exchange(ctx, addr, req, func(data []byte) bool {
		p, perr := b.parser.ParseDacPort(data)
		if perr != nil {
			b.log.Debug("discarding malformed DAC response", zap.Error(perr))
			return true
		}
		port, ok = p, true
		return true
	})
	if err != nil {
		return 0, false, err
	}
	return port, ok, nil
}

// collectList appends the instances from one datagram, dropping the whole
// datagram if it does not parse.
func (b *Browser) collectList(acc []protocol.Instance, data []byte) []protocol.Instance {
	list, err := b.parser.ParseInstanceList(data)
	if err != nil {
		b.log.Debug("discarding malformed browser response", zap.Error(err))
		return acc
	}
	return append(acc, list...)
}

// exchange runs one request/collect cycle: bind, configure, send, then hand
// every datagram that arrives before the deadline to handle. A true return
// from handle ends the call early. The endpoint is closed on every exit
// path; reaching the deadline returns nil.
func (b *Browser) exchange(ctx context.Context, addr net.IP, req []byte, handle func(data []byte) bool) error {
	if addr == nil {
		return fmt.Errorf("target address required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Bind the wildcard of the target's address family on an ephemeral
	// port; each call gets its own endpoint so calls never interfere.
	network := "udp6"
	if addr.To4() != nil {
		network = "udp4"
	}
	conn, err := net.ListenUDP(network, nil)
	if err != nil {
		return fmt.Errorf("bind discovery endpoint: %w", err)
	}
	defer conn.Close()

	if err := b.configureEndpoint(conn, addr); err != nil {
		return err
	}

	target := &net.UDPAddr{IP: addr, Port: b.port()}
	if _, err := conn.WriteToUDP(req, target); err != nil {
		return fmt.Errorf("send discovery request: %w", err)
	}
	b.log.Debug("discovery request sent",
		zap.Stringer("target", target),
		zap.Int("bytes", len(req)),
	)

	deadline := time.Now().Add(b.timeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("arm collection deadline: %w", err)
	}

	buf := make([]byte, maxDatagramSize)
	for {
		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// Deadline reached; whatever was collected stands.
				return nil
			}
			return fmt.Errorf("receive discovery response: %w", err)
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		b.log.Debug("datagram received",
			zap.Stringer("peer", peer),
			zap.Int("bytes", n),
		)

		if handle(data) {
			return nil
		}
	}
}

// configureEndpoint applies per-target socket options. The net package
// already enables SO_BROADCAST on UDP sockets, so IPv4 broadcast targets
// need no extra setup; multicast targets get a hop limit and group join.
func (b *Browser) configureEndpoint(conn *net.UDPConn, addr net.IP) error {
	if !addr.IsMulticast() {
		return nil
	}

	group := &net.UDPAddr{IP: addr}
	if addr.To4() != nil {
		p := ipv4.NewPacketConn(conn)
		if err := p.SetMulticastTTL(b.hops()); err != nil {
			return fmt.Errorf("set multicast ttl: %w", err)
		}
		if err := p.JoinGroup(nil, group); err != nil {
			return fmt.Errorf("join multicast group %s: %w", addr, err)
		}
		return nil
	}

	p := ipv6.NewPacketConn(conn)
	if err := p.SetMulticastHopLimit(b.hops()); err != nil {
		return fmt.Errorf("set multicast hop limit: %w", err)
	}
	if err := p.JoinGroup(nil, group); err != nil {
		return fmt.Errorf("join multicast group %s: %w", addr, err)
	}
	return nil
}

func (b *Browser) timeout() time.Duration {
	if b.Timeout > 0 {
		return b.Timeout
	}
	return DefaultTimeout
}

func (b *Browser) port() int {
	if b.Port > 0 {
		return b.Port
	}
	return BrowserPort
}

func (b *Browser) hops() int {
	if b.MulticastHops > 0 {
		return b.MulticastHops
	}
	return DefaultMulticastHops
}
