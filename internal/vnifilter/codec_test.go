package vnifilter_test

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/mdlayher/netlink"

	"github.com/dantte-lp/vnictl/internal/vnifilter"
)

// Wire attribute types as declared in linux/if_link.h, spelled out here
// so the tests assert against the kernel contract rather than against
// whatever the encoder happens to emit.
const (
	wireEntry       = 1
	wireEntryStart  = 1
	wireEntryEnd    = 2
	wireEntryGroup  = 3
	wireEntryGroup6 = 4
	wireEntryStats  = 5
)

// -------------------------------------------------------------------------
// TestModifyRequestRoundTrip — encode then decode
// -------------------------------------------------------------------------

func TestModifyRequestRoundTrip(t *testing.T) {
	t.Parallel()

	group4, err := vnifilter.GroupEndpoint(netip.MustParseAddr("239.1.1.1"))
	if err != nil {
		t.Fatalf("GroupEndpoint: %v", err)
	}
	group6, err := vnifilter.GroupEndpoint(netip.MustParseAddr("ff02::42"))
	if err != nil {
		t.Fatalf("GroupEndpoint: %v", err)
	}
	remote, err := vnifilter.RemoteEndpoint(netip.MustParseAddr("192.0.2.7"))
	if err != nil {
		t.Fatalf("RemoteEndpoint: %v", err)
	}

	tests := []struct {
		name string
		req  vnifilter.ModifyRequest
	}{
		{
			name: "single vni no endpoint",
			req: vnifilter.ModifyRequest{
				Ifindex: 4,
				Ranges:  []vnifilter.VNIRange{{Start: 100}},
			},
		},
		{
			name: "vni range",
			req: vnifilter.ModifyRequest{
				Ifindex: 4,
				Ranges:  []vnifilter.VNIRange{{Start: 100, End: 200}},
			},
		},
		{
			name: "multiple ranges keep order",
			req: vnifilter.ModifyRequest{
				Ifindex: 4,
				Ranges: []vnifilter.VNIRange{
					{Start: 300},
					{Start: 10, End: 20},
					{Start: 5},
				},
			},
		},
		{
			name: "ipv4 group on every range",
			req: vnifilter.ModifyRequest{
				Ifindex:  4,
				Ranges:   []vnifilter.VNIRange{{Start: 100}, {Start: 200, End: 210}},
				Endpoint: group4,
			},
		},
		{
			name: "ipv6 group",
			req: vnifilter.ModifyRequest{
				Ifindex:  4,
				Ranges:   []vnifilter.VNIRange{{Start: 100}},
				Endpoint: group6,
			},
		},
		{
			name: "unicast remote",
			req: vnifilter.ModifyRequest{
				Ifindex:  4,
				Ranges:   []vnifilter.VNIRange{{Start: 100}},
				Endpoint: remote,
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := tt.req.MarshalAttributes()
			if err != nil {
				t.Fatalf("MarshalAttributes: %v", err)
			}

			entries, err := vnifilter.UnmarshalEntries(b)
			if err != nil {
				t.Fatalf("UnmarshalEntries: %v", err)
			}
			if len(entries) != len(tt.req.Ranges) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.req.Ranges))
			}

			for i, e := range entries {
				if e.Range != tt.req.Ranges[i] {
					t.Errorf("entry %d range = %+v, want %+v", i, e.Range, tt.req.Ranges[i])
				}
				if tt.req.Endpoint.IsNone() {
					if !e.Endpoint.IsNone() {
						t.Errorf("entry %d unexpected endpoint %v", i, e.Endpoint)
					}
					continue
				}
				// Decoded classification follows the multicast bit, so a
				// request's kind keyword survives a round trip.
				if e.Endpoint.Kind != tt.req.Endpoint.Kind {
					t.Errorf("entry %d endpoint kind = %v, want %v", i, e.Endpoint.Kind, tt.req.Endpoint.Kind)
				}
				if e.Endpoint.Addr != tt.req.Endpoint.Addr {
					t.Errorf("entry %d endpoint addr = %v, want %v", i, e.Endpoint.Addr, tt.req.Endpoint.Addr)
				}
			}
		})
	}
}

// -------------------------------------------------------------------------
// TestMarshalAttributesValidation — nothing is encoded on bad input
// -------------------------------------------------------------------------

func TestMarshalAttributesValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     vnifilter.ModifyRequest
		wantErr error
	}{
		{
			name:    "no ranges",
			req:     vnifilter.ModifyRequest{Ifindex: 4},
			wantErr: vnifilter.ErrNoRanges,
		},
		{
			name: "no device",
			req: vnifilter.ModifyRequest{
				Ranges: []vnifilter.VNIRange{{Start: 100}},
			},
			wantErr: vnifilter.ErrNoDevice,
		},
		{
			name: "start beyond 24 bits",
			req: vnifilter.ModifyRequest{
				Ifindex: 4,
				Ranges:  []vnifilter.VNIRange{{Start: 1 << 24}},
			},
			wantErr: vnifilter.ErrVNIOutOfRange,
		},
		{
			name: "end precedes start",
			req: vnifilter.ModifyRequest{
				Ifindex: 4,
				Ranges:  []vnifilter.VNIRange{{Start: 200, End: 100}},
			},
			wantErr: vnifilter.ErrInvalidVNIRange,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := tt.req.MarshalAttributes()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("MarshalAttributes error = %v, want %v", err, tt.wantErr)
			}
			if b != nil {
				t.Error("MarshalAttributes returned bytes alongside an error")
			}
		})
	}
}

// TestMarshalOmitsEndForSingleVNI walks the raw encoding and checks the
// end attribute is written only for multi-VNI ranges.
func TestMarshalOmitsEndForSingleVNI(t *testing.T) {
	t.Parallel()

	req := vnifilter.ModifyRequest{
		Ifindex: 4,
		Ranges:  []vnifilter.VNIRange{{Start: 100}, {Start: 200, End: 300}},
	}
	b, err := req.MarshalAttributes()
	if err != nil {
		t.Fatalf("MarshalAttributes: %v", err)
	}

	var wantEnd []bool
	ad, err := netlink.NewAttributeDecoder(b)
	if err != nil {
		t.Fatalf("NewAttributeDecoder: %v", err)
	}
	for ad.Next() {
		if ad.Type() != wireEntry {
			t.Fatalf("unexpected top-level attribute type %d", ad.Type())
		}
		hasEnd := false
		ad.Nested(func(nad *netlink.AttributeDecoder) error {
			for nad.Next() {
				if nad.Type() == wireEntryEnd {
					hasEnd = true
				}
			}
			return nil
		})
		wantEnd = append(wantEnd, hasEnd)
	}
	if err := ad.Err(); err != nil {
		t.Fatalf("walking encoded attributes: %v", err)
	}

	if len(wantEnd) != 2 || wantEnd[0] || !wantEnd[1] {
		t.Errorf("end attribute presence = %v, want [false true]", wantEnd)
	}
}

// -------------------------------------------------------------------------
// TestUnmarshalEntries — hostile and partial input
// -------------------------------------------------------------------------

func encodeAttrs(t *testing.T, fn func(*netlink.AttributeEncoder)) []byte {
	t.Helper()
	ae := netlink.NewAttributeEncoder()
	fn(ae)
	b, err := ae.Encode()
	if err != nil {
		t.Fatalf("encoding test attributes: %v", err)
	}
	return b
}

func TestUnmarshalEntriesSkipsForeignAttributes(t *testing.T) {
	t.Parallel()

	b := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		// A top-level attribute this decoder does not know.
		ae.Bytes(9, []byte{0xde, 0xad})
		ae.Nested(wireEntry, func(nae *netlink.AttributeEncoder) error {
			nae.Uint32(wireEntryStart, 100)
			// An unknown attribute inside the entry container.
			nae.Uint32(12, 777)
			return nil
		})
	})

	entries, err := vnifilter.UnmarshalEntries(b)
	if err != nil {
		t.Fatalf("UnmarshalEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Range.Start != 100 {
		t.Errorf("Start = %d, want 100", entries[0].Range.Start)
	}
}

func TestUnmarshalEntriesZeroGroupMeansNoEndpoint(t *testing.T) {
	t.Parallel()

	b := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Nested(wireEntry, func(nae *netlink.AttributeEncoder) error {
			nae.Uint32(wireEntryStart, 100)
			nae.Bytes(wireEntryGroup, make([]byte, 4))
			return nil
		})
	})

	entries, err := vnifilter.UnmarshalEntries(b)
	if err != nil {
		t.Fatalf("UnmarshalEntries: %v", err)
	}
	if len(entries) != 1 || !entries[0].Endpoint.IsNone() {
		t.Errorf("all-zero group address should decode as no endpoint, got %+v", entries)
	}
}

func TestUnmarshalEntriesClassifiesByMulticastBit(t *testing.T) {
	t.Parallel()

	// A unicast address carried in the group attribute still displays as
	// a remote; classification ignores which attribute delivered it.
	b := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Nested(wireEntry, func(nae *netlink.AttributeEncoder) error {
			nae.Uint32(wireEntryStart, 100)
			nae.Bytes(wireEntryGroup, []byte{10, 0, 0, 1})
			return nil
		})
	})

	entries, err := vnifilter.UnmarshalEntries(b)
	if err != nil {
		t.Fatalf("UnmarshalEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Endpoint.Kind != vnifilter.EndpointRemote {
		t.Errorf("Kind = %v, want remote", entries[0].Endpoint.Kind)
	}
	if want := netip.MustParseAddr("10.0.0.1"); entries[0].Endpoint.Addr != want {
		t.Errorf("Addr = %v, want %v", entries[0].Endpoint.Addr, want)
	}
}

func TestUnmarshalEntriesBadEndpointLength(t *testing.T) {
	t.Parallel()

	b := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Nested(wireEntry, func(nae *netlink.AttributeEncoder) error {
			nae.Uint32(wireEntryStart, 100)
			nae.Bytes(wireEntryGroup, []byte{1, 2, 3})
			return nil
		})
	})

	if _, err := vnifilter.UnmarshalEntries(b); !errors.Is(err, vnifilter.ErrBadEndpointLength) {
		t.Errorf("UnmarshalEntries error = %v, want %v", err, vnifilter.ErrBadEndpointLength)
	}
}

func TestUnmarshalEntriesTruncatedBuffer(t *testing.T) {
	t.Parallel()

	// Attribute header claims 8 bytes but only the header is present.
	b := []byte{0x08, 0x00, 0x01, 0x00}
	if _, err := vnifilter.UnmarshalEntries(b); err == nil {
		t.Error("UnmarshalEntries accepted a truncated buffer")
	}
}

func TestUnmarshalEntriesEmptyPayload(t *testing.T) {
	t.Parallel()

	entries, err := vnifilter.UnmarshalEntries(nil)
	if err != nil {
		t.Fatalf("UnmarshalEntries(nil): %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from empty payload", len(entries))
	}
}

// -------------------------------------------------------------------------
// TestStatsDecode — absent counters stay nil, zero counters stay zero
// -------------------------------------------------------------------------

func TestStatsDecode(t *testing.T) {
	t.Parallel()

	const (
		statsRxBytes = 1
		statsRxPkts  = 2
		statsTxBytes = 5
	)

	b := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Nested(wireEntry, func(nae *netlink.AttributeEncoder) error {
			nae.Uint32(wireEntryStart, 100)
			nae.Nested(wireEntryStats, func(sae *netlink.AttributeEncoder) error {
				sae.Uint64(statsRxBytes, 4096)
				sae.Uint64(statsRxPkts, 0)
				sae.Uint64(statsTxBytes, 17)
				return nil
			})
			return nil
		})
	})

	entries, err := vnifilter.UnmarshalEntries(b)
	if err != nil {
		t.Fatalf("UnmarshalEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	s := entries[0].Stats
	if s == nil {
		t.Fatal("Stats is nil")
	}
	if s.RxBytes == nil || *s.RxBytes != 4096 {
		t.Errorf("RxBytes = %v, want 4096", s.RxBytes)
	}
	if s.RxPkts == nil || *s.RxPkts != 0 {
		t.Errorf("RxPkts = %v, want present zero", s.RxPkts)
	}
	if s.TxBytes == nil || *s.TxBytes != 17 {
		t.Errorf("TxBytes = %v, want 17", s.TxBytes)
	}
	if s.RxDrops != nil || s.RxErrors != nil || s.TxPkts != nil || s.TxDrops != nil || s.TxErrors != nil {
		t.Error("absent counters should stay nil")
	}
}

func TestStatsAbsentWithoutContainer(t *testing.T) {
	t.Parallel()

	b := encodeAttrs(t, func(ae *netlink.AttributeEncoder) {
		ae.Nested(wireEntry, func(nae *netlink.AttributeEncoder) error {
			nae.Uint32(wireEntryStart, 100)
			return nil
		})
	})

	entries, err := vnifilter.UnmarshalEntries(b)
	if err != nil {
		t.Fatalf("UnmarshalEntries: %v", err)
	}
	if entries[0].Stats != nil {
		t.Error("Stats should be nil when the container is absent")
	}
}
