package vnifilter

import (
	"errors"
	"fmt"

	"github.com/mdlayher/netlink"
)

// Sentinel errors for request construction.
var (
	// ErrNoRanges indicates a modify request without any VNI ranges.
	ErrNoRanges = errors.New("modify request carries no VNI ranges")

	// ErrNoDevice indicates a modify request without a resolved device.
	ErrNoDevice = errors.New("modify request carries no device index")
)

// ModifyRequest is one add or delete request: a resolved device index,
// the VNI ranges to install or remove, and at most one endpoint shared
// by every range. Built once per invocation and consumed exactly once.
type ModifyRequest struct {
	Ifindex  uint32
	Ranges   []VNIRange
	Endpoint Endpoint
}

// Validate checks the structural invariants before encoding.
func (r *ModifyRequest) Validate() error {
	if r.Ifindex == 0 {
		return ErrNoDevice
	}
	if len(r.Ranges) == 0 {
		return ErrNoRanges
	}
	for _, vr := range r.Ranges {
		if vr.Start > MaxVNI || vr.End > MaxVNI {
			return fmt.Errorf("range %s: %w", vr, ErrVNIOutOfRange)
		}
		if vr.End != 0 && vr.End < vr.Start {
			return fmt.Errorf("range %s: %w", vr, ErrInvalidVNIRange)
		}
	}
	return nil
}

// MarshalAttributes encodes the request body: one self-describing nested
// VXLAN_VNIFILTER_ENTRY container per range, each carrying the start VNI
// always, the end VNI only for multi-VNI ranges, and the endpoint address
// only when one was specified, in that attribute order. An encoding
// failure is returned as-is; a partially encoded request is never used.
func (r *ModifyRequest) MarshalAttributes() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	ae := netlink.NewAttributeEncoder()
	for _, vr := range r.Ranges {
		ae.Nested(attrVNIFilterEntry, r.encodeEntry(vr))
	}

	b, err := ae.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode vni filter entries: %w", err)
	}
	return b, nil
}

// encodeEntry encodes the attributes of one entry container.
func (r *ModifyRequest) encodeEntry(vr VNIRange) func(*netlink.AttributeEncoder) error {
	return func(ae *netlink.AttributeEncoder) error {
		ae.Uint32(entryAttrStart, vr.Start)
		if vr.IsRange() {
			ae.Uint32(entryAttrEnd, vr.End)
		}
		if !r.Endpoint.IsNone() {
			typ := uint16(entryAttrGroup)
			if r.Endpoint.Is6() {
				typ = entryAttrGroup6
			}
			ae.Bytes(typ, r.Endpoint.Addr.AsSlice())
		}
		return nil
	}
}
