package protocol

import (
	"fmt"
	"strings"
)

// Instance represents one SQL Server instance reported in an SSRP
// instance-list response. Instances are built only by the parser from
// validated wire data and are not modified afterwards.
type Instance struct {
	// Server is the host machine name (SERVERNAME field)
	Server string

	// Name is the instance name (INSTANCENAME field), e.g. "SQLEXPRESS"
	Name string

	// IsClustered reports whether the instance is part of a failover cluster
	IsClustered bool

	// Version is the version string, digits and dots only (e.g. "12.0.2000.8")
	Version string

	// PipeName is the named-pipe endpoint ("np" tag), empty if not reported
	PipeName string

	// TCPPort is the TCP endpoint port ("tcp" tag), -1 if not reported
	TCPPort int

	// NetBIOSName is the VIA machine name ("via" tag), empty if not reported
	NetBIOSName string

	// Via lists the VIA listener endpoints, in wire order; non-empty exactly
	// when NetBIOSName is set
	Via []ViaListener

	// RPCName is the RPC computer name ("rpc" tag), empty if not reported
	RPCName string

	// SPXName is the SPX service name ("spx" tag), empty if not reported
	SPXName string

	// ADSPName is the AppleTalk object name ("adsp" tag), empty if not reported
	ADSPName string

	// BVItemName, BVGroupName and BVOrgName form the Banyan VINES triple
	// ("bv" tag); the wire format reports all three together or none
	BVItemName  string
	BVGroupName string
	BVOrgName   string
}

// ViaListener is one NIC/port pair from an instance's VIA endpoint list.
type ViaListener struct {
	NIC  string
	Port int
}

// String returns a human-readable summary of the instance.
func (i *Instance) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\\%s v%s", i.Server, i.Name, i.Version)
	if i.IsClustered {
		b.WriteString(" clustered")
	}
	if i.TCPPort >= 0 {
		fmt.Fprintf(&b, " tcp=%d", i.TCPPort)
	}
	if i.PipeName != "" {
		fmt.Fprintf(&b, " np=%s", i.PipeName)
	}
	return b.String()
}

// String returns the listener in the wire's nic:port form.
func (v ViaListener) String() string {
	return fmt.Sprintf("%s:%d", v.NIC, v.Port)
}
