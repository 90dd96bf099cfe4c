// Package browser drives SSRP discovery exchanges against SQL Server
// Browser services.
//
// Each discovery call owns exactly one UDP endpoint and one deadline; calls
// are independent and may run concurrently. The exchange model is strictly
// one-shot: the request is sent once with no retransmission, and the call
// collects whatever responses arrive before the deadline.
//
// # Termination Policy
//
// How a call ends depends on the request kind:
//   - Broadcast and unicast "all instances" sweeps never stop early; many
//     servers (or repeated datagrams) may answer, so the call always waits
//     out the full timeout window and returns everything collected.
//   - A query for one named instance stops on the first reply that parses
//     to a non-empty instance list.
//   - A DAC port query stops on the first reply, whether or not it parses;
//     a malformed reply yields no port.
//
// # Error Handling
//
// Malformed datagrams are never surfaced to the caller: they are logged and
// skipped, as if they had not arrived. Reaching the deadline is the normal
// terminal condition, not an error; an empty result means nothing answered
// in time. Only caller mistakes (nil address, oversized instance name) and
// socket failures produce errors.
//
// # Network Requirements
//
// - Browser services listen on UDP port 1434
// - Broadcast sweeps need a directed or limited broadcast address reachable
//   from a local interface
// - IPv6 sweeps use a multicast group; the endpoint joins it for the
//   duration of the call
package browser
