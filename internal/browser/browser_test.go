package browser

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mkuiper/sqlbrowse/internal/protocol"
)

// startResponder runs a fake browser service on loopback. replies receives
// each request and returns the datagrams to send back.
func startResponder(t *testing.T, replies func(req []byte) [][]byte) int {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to bind responder: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, 1024)
		for {
			n, peer, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req := make([]byte, n)
			copy(req, buf[:n])
			for _, resp := range replies(req) {
				_, _ = conn.WriteToUDP(resp, peer)
			}
		}
	}()

	return conn.LocalAddr().(*net.UDPAddr).Port
}

// unusedPort reserves and releases a loopback port so sends to it go nowhere.
func unusedPort(t *testing.T) int {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to pick unused port: %v", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	_ = conn.Close()
	return port
}

// listDatagram frames an ASCII instance-list payload as a response datagram.
func listDatagram(payload string) []byte {
	resp := make([]byte, 3+len(payload))
	resp[0] = 0x05
	binary.LittleEndian.PutUint16(resp[1:3], uint16(len(payload)))
	copy(resp[3:], payload)
	return resp
}

func instancePayload(name string) string {
	return "ServerName;HOST;InstanceName;" + name + ";IsClustered;No;Version;12.0.2000.8;tcp;1433;;"
}

func newTestBrowser(port int) *Browser {
	b := New(zap.NewNop())
	b.Port = port
	return b
}

var loopback = net.IPv4(127, 0, 0, 1)

func TestListInstancesStopsOnFirstReply(t *testing.T) {
	port := startResponder(t, func(req []byte) [][]byte {
		return [][]byte{listDatagram(instancePayload("SQLEXPRESS"))}
	})

	b := newTestBrowser(port)
	b.Timeout = 3 * time.Second

	start := time.Now()
	got, err := b.ListInstances(context.Background(), loopback, "SQLEXPRESS")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("ListInstances() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "SQLEXPRESS" {
		t.Fatalf("ListInstances() = %v, want one SQLEXPRESS instance", got)
	}
	if elapsed > 2*time.Second {
		t.Errorf("ListInstances() waited %v, should stop well before the 3s timeout", elapsed)
	}
}

func TestListInstancesSkipsMalformedReply(t *testing.T) {
	port := startResponder(t, func(req []byte) [][]byte {
		return [][]byte{
			{0x01, 0x02, 0x03}, // not a browser response
			listDatagram(instancePayload("GOOD")),
		}
	})

	b := newTestBrowser(port)
	b.Timeout = 3 * time.Second

	got, err := b.ListInstances(context.Background(), loopback, "GOOD")
	if err != nil {
		t.Fatalf("ListInstances() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "GOOD" {
		t.Fatalf("ListInstances() = %v, want the instance from the valid datagram", got)
	}
}

func TestListInstancesUnicastAllWaitsOutTimeout(t *testing.T) {
	port := startResponder(t, func(req []byte) [][]byte {
		if req[0] != protocol.CmdUnicastAll {
			t.Errorf("request kind = 0x%02x, want CLNT_UCAST_EX", req[0])
		}
		return [][]byte{
			listDatagram(instancePayload("FIRST")),
			listDatagram(instancePayload("SECOND")),
		}
	})

	b := newTestBrowser(port)
	b.Timeout = 400 * time.Millisecond

	start := time.Now()
	got, err := b.ListInstances(context.Background(), loopback, "")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("ListInstances() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d instances, want 2", len(got))
	}
	if got[0].Name != "FIRST" || got[1].Name != "SECOND" {
		t.Errorf("arrival order = %q, %q", got[0].Name, got[1].Name)
	}
	// An "all instances" sweep never stops early
	if elapsed < 350*time.Millisecond {
		t.Errorf("sweep returned after %v, should wait out the timeout window", elapsed)
	}
}

func TestListAllInstancesCollectsMultipleReplies(t *testing.T) {
	port := startResponder(t, func(req []byte) [][]byte {
		if req[0] != protocol.CmdBroadcastAll {
			t.Errorf("request kind = 0x%02x, want CLNT_BCAST_EX", req[0])
		}
		return [][]byte{
			listDatagram(instancePayload("ALPHA")),
			listDatagram(instancePayload("BETA") + instancePayload("GAMMA")),
		}
	})

	b := newTestBrowser(port)
	b.Timeout = 400 * time.Millisecond

	got, err := b.ListAllInstances(context.Background(), loopback)
	if err != nil {
		t.Fatalf("ListAllInstances() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d instances, want 3", len(got))
	}
	want := []string{"ALPHA", "BETA", "GAMMA"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("instance %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestListAllInstancesCollectsFromDistinctSenders(t *testing.T) {
	// Two replies from two different sockets, as with two hosts answering
	// the same broadcast sweep.
	front, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to bind responder: %v", err)
	}
	t.Cleanup(func() { _ = front.Close() })

	second, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to bind second responder: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	go func() {
		buf := make([]byte, 1024)
		_, peer, err := front.ReadFromUDP(buf)
		if err != nil {
			return
		}
		_, _ = front.WriteToUDP(listDatagram(instancePayload("HOSTA")), peer)
		_, _ = second.WriteToUDP(listDatagram(instancePayload("HOSTB")), peer)
	}()

	b := newTestBrowser(front.LocalAddr().(*net.UDPAddr).Port)
	b.Timeout = 400 * time.Millisecond

	got, err := b.ListAllInstances(context.Background(), loopback)
	if err != nil {
		t.Fatalf("ListAllInstances() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d instances, want one from each sender", len(got))
	}
	names := map[string]bool{got[0].Name: true, got[1].Name: true}
	if !names["HOSTA"] || !names["HOSTB"] {
		t.Errorf("instances = %q, %q; want HOSTA and HOSTB", got[0].Name, got[1].Name)
	}
}

func TestListAllInstancesEmptyOnTimeout(t *testing.T) {
	b := newTestBrowser(unusedPort(t))
	b.Timeout = 200 * time.Millisecond

	got, err := b.ListAllInstances(context.Background(), loopback)
	if err != nil {
		t.Fatalf("ListAllInstances() error = %v, timeout is not an error", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d instances from silence, want 0", len(got))
	}
}

func TestListInstancesRejectsLongNameBeforeNetwork(t *testing.T) {
	// Port where nothing listens: a precondition failure must surface
	// before any socket activity, so no timeout is ever waited out.
	b := newTestBrowser(unusedPort(t))
	b.Timeout = 5 * time.Second

	start := time.Now()
	_, err := b.ListInstances(context.Background(), loopback, strings.Repeat("A", 33))
	elapsed := time.Since(start)

	if !errors.Is(err, protocol.ErrInstanceNameTooLong) {
		t.Fatalf("ListInstances() error = %v, want ErrInstanceNameTooLong", err)
	}
	if elapsed > time.Second {
		t.Errorf("precondition check took %v, should not touch the network", elapsed)
	}
}

func TestListInstancesNilAddress(t *testing.T) {
	b := newTestBrowser(BrowserPort)
	if _, err := b.ListInstances(context.Background(), nil, "SQLEXPRESS"); err == nil {
		t.Error("ListInstances() with nil address should fail")
	}
}

func TestDacPort(t *testing.T) {
	reqCh := make(chan []byte, 1)
	port := startResponder(t, func(req []byte) [][]byte {
		reqCh <- req
		return [][]byte{{0x05, 0x06, 0x00, 0x01, 0x1f, 0xc7}}
	})

	b := newTestBrowser(port)
	b.Timeout = 3 * time.Second

	got, ok, err := b.DacPort(context.Background(), loopback, "SQLEXPRESS")
	if err != nil {
		t.Fatalf("DacPort() error = %v", err)
	}
	if !ok || got != 50975 {
		t.Fatalf("DacPort() = %d, %v; want 50975, true", got, ok)
	}

	req := <-reqCh
	if req[0] != protocol.CmdUnicastDAC || req[1] != protocol.SSRPVersion {
		t.Errorf("request header = % x, want 0f 01", req[:2])
	}
	if req[len(req)-1] != 0x00 {
		t.Error("request should be NUL terminated")
	}
}

func TestDacPortBadVersionReplyIsTerminal(t *testing.T) {
	port := startResponder(t, func(req []byte) [][]byte {
		return [][]byte{{0x05, 0x06, 0x00, 0x02, 0x1f, 0xc7}} // version 2
	})

	b := newTestBrowser(port)
	b.Timeout = 3 * time.Second

	start := time.Now()
	_, ok, err := b.DacPort(context.Background(), loopback, "SQLEXPRESS")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("DacPort() error = %v, parse failures are not call errors", err)
	}
	if ok {
		t.Error("DacPort() ok = true for an unusable reply")
	}
	if elapsed > 2*time.Second {
		t.Errorf("DacPort() waited %v, any reply should be terminal", elapsed)
	}
}

func TestDacPortTimeout(t *testing.T) {
	b := newTestBrowser(unusedPort(t))
	b.Timeout = 200 * time.Millisecond

	_, ok, err := b.DacPort(context.Background(), loopback, "SQLEXPRESS")
	if err != nil {
		t.Fatalf("DacPort() error = %v, timeout is not an error", err)
	}
	if ok {
		t.Error("DacPort() ok = true with no responder")
	}
}

func TestDacPortRequiresInstanceName(t *testing.T) {
	b := newTestBrowser(BrowserPort)
	if _, _, err := b.DacPort(context.Background(), loopback, ""); err == nil {
		t.Error("DacPort() with empty instance name should fail")
	}
}
