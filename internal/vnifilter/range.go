package vnifilter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxVNI is the largest valid VXLAN Network Identifier. The VNI field is
// 24 bits wide on the wire (RFC 7348 Section 5).
const MaxVNI = 1<<24 - 1

// Sentinel errors for VNI range parsing.
var (
	// ErrVNIOutOfRange indicates a VNI value exceeds the 24-bit range.
	ErrVNIOutOfRange = errors.New("VNI exceeds maximum 16777215")

	// ErrInvalidVNI indicates a VNI token is not a decimal number.
	ErrInvalidVNI = errors.New("invalid VNI")

	// ErrInvalidVNIRange indicates a range whose end precedes its start.
	ErrInvalidVNIRange = errors.New("VNI range end precedes start")

	// ErrEmptyVNIList indicates an empty VNI list specification.
	ErrEmptyVNIList = errors.New("empty VNI list")
)

// VNIRange is a single VNI or a contiguous range of VNIs. End == 0 means
// the range covers only Start; this mirrors the wire convention, where
// the end attribute is simply absent for single VNIs. A range with
// End == Start is equivalent to a single VNI.
type VNIRange struct {
	Start uint32
	End   uint32
}

// IsRange reports whether r covers more than one VNI.
func (r VNIRange) IsRange() bool {
	return r.End > r.Start
}

// Last returns the highest VNI covered by r.
func (r VNIRange) Last() uint32 {
	if r.End > r.Start {
		return r.End
	}
	return r.Start
}

// String renders r as "N" or "N-M".
func (r VNIRange) String() string {
	if r.IsRange() {
		return fmt.Sprintf("%d-%d", r.Start, r.End)
	}
	return strconv.FormatUint(uint64(r.Start), 10)
}

// ParseVNIRange parses one token of the form "N" or "N-M". Both bounds
// must be decimal numbers within 0..MaxVNI and M must be >= N. Malformed
// tokens are rejected outright; they are never coerced to zero.
func ParseVNIRange(tok string) (VNIRange, error) {
	start, end, found := strings.Cut(tok, "-")

	s, err := parseVNI(start)
	if err != nil {
		return VNIRange{}, err
	}
	if !found {
		return VNIRange{Start: s}, nil
	}

	e, err := parseVNI(end)
	if err != nil {
		return VNIRange{}, err
	}
	if e < s {
		return VNIRange{}, fmt.Errorf("%q: %w", tok, ErrInvalidVNIRange)
	}
	if e == s {
		return VNIRange{Start: s}, nil
	}
	return VNIRange{Start: s, End: e}, nil
}

// ParseVNIList parses a comma-separated list of VNIs and VNI ranges,
// e.g. "100,200-210,300". Order is preserved; any malformed element
// fails the whole list.
func ParseVNIList(s string) ([]VNIRange, error) {
	if s == "" {
		return nil, ErrEmptyVNIList
	}

	toks := strings.Split(s, ",")
	ranges := make([]VNIRange, 0, len(toks))
	for _, tok := range toks {
		r, err := ParseVNIRange(tok)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// parseVNI parses a single decimal VNI and enforces the 24-bit bound.
func parseVNI(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVNI, s)
	}
	if v > MaxVNI {
		return 0, fmt.Errorf("%d: %w", v, ErrVNIOutOfRange)
	}
	return uint32(v), nil
}
