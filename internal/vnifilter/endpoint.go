package vnifilter

import (
	"errors"
	"fmt"
	"net/netip"
)

// -------------------------------------------------------------------------
// Endpoint Classification — group vs remote
// -------------------------------------------------------------------------

// EndpointKind distinguishes the replication semantics of a filter
// entry's destination address.
type EndpointKind uint8

const (
	// EndpointNone means no endpoint is associated with the entry.
	EndpointNone EndpointKind = iota

	// EndpointGroup is a multicast address used for broadcast and
	// unknown-unicast replication.
	EndpointGroup

	// EndpointRemote is a unicast point-to-point peer address.
	EndpointRemote
)

// String returns the keyword used for the kind in CLI grammar and output.
func (k EndpointKind) String() string {
	switch k {
	case EndpointGroup:
		return "group"
	case EndpointRemote:
		return "remote"
	default:
		return "none"
	}
}

// Sentinel errors for endpoint validation.
var (
	// ErrInvalidGroupAddress indicates a group endpoint whose address is
	// not multicast for its family.
	ErrInvalidGroupAddress = errors.New("invalid group address")

	// ErrInvalidAddress indicates an endpoint address that is not a
	// valid IP address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrGroupAndRemote indicates a request carrying both a group and a
	// remote endpoint.
	ErrGroupAndRemote = errors.New("both group and remote cannot be specified")
)

// Endpoint associates an optional destination address with a filter
// entry. The zero value is "no endpoint".
type Endpoint struct {
	Kind EndpointKind
	Addr netip.Addr
}

// IsNone reports whether no endpoint is set.
func (e Endpoint) IsNone() bool {
	return e.Kind == EndpointNone
}

// Is6 reports whether the endpoint address is IPv6. IPv4-mapped IPv6
// addresses are normalized to IPv4 at construction time.
func (e Endpoint) Is6() bool {
	return e.Addr.Is6()
}

// GroupEndpoint builds a multicast group endpoint. The address must be a
// valid multicast address for its family.
func GroupEndpoint(addr netip.Addr) (Endpoint, error) {
	if !addr.IsValid() {
		return Endpoint{}, ErrInvalidAddress
	}
	addr = addr.Unmap()
	if !addr.IsMulticast() {
		return Endpoint{}, fmt.Errorf("%s: %w", addr, ErrInvalidGroupAddress)
	}
	return Endpoint{Kind: EndpointGroup, Addr: addr}, nil
}

// RemoteEndpoint builds a unicast remote endpoint. Any valid address is
// accepted; the kernel does not reject multicast under "remote", and a
// decoded multicast address is displayed as "group" regardless of the
// keyword that produced it.
func RemoteEndpoint(addr netip.Addr) (Endpoint, error) {
	if !addr.IsValid() {
		return Endpoint{}, ErrInvalidAddress
	}
	return Endpoint{Kind: EndpointRemote, Addr: addr.Unmap()}, nil
}

// classifyAddr derives the display classification of a decoded endpoint
// address. The kernel uses an all-zero address to mean "unspecified", so
// that decodes as no endpoint; otherwise classification follows the
// address's multicast bit alone, independent of the request that
// installed the entry.
func classifyAddr(addr netip.Addr) Endpoint {
	if !addr.IsValid() || addr.IsUnspecified() {
		return Endpoint{}
	}
	if addr.IsMulticast() {
		return Endpoint{Kind: EndpointGroup, Addr: addr}
	}
	return Endpoint{Kind: EndpointRemote, Addr: addr}
}
