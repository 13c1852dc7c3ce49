package vnifilter

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/mdlayher/netlink"
)

// ErrBadEndpointLength indicates an endpoint attribute whose payload is
// not 4 (IPv4) or 16 (IPv6) bytes. This is protocol corruption, not a
// forward-compatibility case.
var ErrBadEndpointLength = errors.New("endpoint attribute has wrong length")

// UnmarshalEntries decodes the filter entries of one tunnel message
// payload (the bytes following the tunnel header). Top-level attributes
// other than VXLAN_VNIFILTER_ENTRY containers are skipped, as are
// unrecognized attribute types within a container; the wire format may
// carry attributes this decoder does not know. The input is untrusted:
// every access is bounds-checked against the declared attribute lengths,
// and a malformed length fails the whole decode.
func UnmarshalEntries(payload []byte) ([]FilterEntry, error) {
	ad, err := netlink.NewAttributeDecoder(payload)
	if err != nil {
		return nil, fmt.Errorf("decode tunnel message attributes: %w", err)
	}

	var entries []FilterEntry
	for ad.Next() {
		if ad.Type() != attrVNIFilterEntry {
			continue
		}
		var e FilterEntry
		ad.Nested(e.decode)
		entries = append(entries, e)
	}
	if err := ad.Err(); err != nil {
		return nil, fmt.Errorf("decode vni filter entry: %w", err)
	}
	return entries, nil
}

// decode fills e from the attributes of one entry container.
func (e *FilterEntry) decode(ad *netlink.AttributeDecoder) error {
	for ad.Next() {
		switch ad.Type() {
		case entryAttrStart:
			e.Range.Start = ad.Uint32() & MaxVNI
		case entryAttrEnd:
			e.Range.End = ad.Uint32() & MaxVNI
		case entryAttrGroup:
			addr, err := endpointAddr(ad.Bytes(), 4)
			if err != nil {
				return err
			}
			e.Endpoint = classifyAddr(addr)
		case entryAttrGroup6:
			addr, err := endpointAddr(ad.Bytes(), 16)
			if err != nil {
				return err
			}
			e.Endpoint = classifyAddr(addr)
		case entryAttrStats:
			s := new(EntryStats)
			ad.Nested(s.decode)
			e.Stats = s
		}
	}
	return nil
}

// endpointAddr converts an endpoint attribute payload to an address,
// enforcing the exact length for its family.
func endpointAddr(b []byte, want int) (netip.Addr, error) {
	if len(b) != want {
		return netip.Addr{}, fmt.Errorf("%w: got %d bytes, want %d", ErrBadEndpointLength, len(b), want)
	}
	addr, _ := netip.AddrFromSlice(b)
	return addr, nil
}

// decode fills s from a VXLAN_VNIFILTER_ENTRY_STATS container. Counters
// whose attributes are absent stay nil; a counter present with value 0
// decodes as 0.
func (s *EntryStats) decode(ad *netlink.AttributeDecoder) error {
	for ad.Next() {
		switch ad.Type() {
		case statsAttrRxBytes:
			s.RxBytes = u64ptr(ad.Uint64())
		case statsAttrRxPkts:
			s.RxPkts = u64ptr(ad.Uint64())
		case statsAttrRxDrops:
			s.RxDrops = u64ptr(ad.Uint64())
		case statsAttrRxErrors:
			s.RxErrors = u64ptr(ad.Uint64())
		case statsAttrTxBytes:
			s.TxBytes = u64ptr(ad.Uint64())
		case statsAttrTxPkts:
			s.TxPkts = u64ptr(ad.Uint64())
		case statsAttrTxDrops:
			s.TxDrops = u64ptr(ad.Uint64())
		case statsAttrTxErrors:
			s.TxErrors = u64ptr(ad.Uint64())
		}
	}
	return nil
}

func u64ptr(v uint64) *uint64 {
	return &v
}
