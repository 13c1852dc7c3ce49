package netio

import (
	"errors"
	"fmt"
	"strconv"

	vishnetlink "github.com/vishvananda/netlink"
)

// Sentinel errors for device resolution.
var (
	// ErrNoDevice indicates the device name does not resolve to a link.
	ErrNoDevice = errors.New("no such device")

	// ErrNotVXLAN indicates a modify target that is not a vxlan device.
	ErrNotVXLAN = errors.New("not a vxlan device")
)

// ResolveDevice resolves a link name to its interface index.
func ResolveDevice(name string) (uint32, error) {
	link, err := vishnetlink.LinkByName(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoDevice, name)
	}
	return uint32(link.Attrs().Index), nil
}

// ResolveVXLANDevice resolves a link name and verifies it is a vxlan
// device; VNI filter modify requests are only meaningful there.
func ResolveVXLANDevice(name string) (uint32, error) {
	link, err := vishnetlink.LinkByName(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoDevice, name)
	}
	if link.Type() != "vxlan" {
		return 0, fmt.Errorf("%w: %q is a %s device", ErrNotVXLAN, name, link.Type())
	}
	return uint32(link.Attrs().Index), nil
}

// DeviceName returns the link name for an interface index, falling back
// to an "if<index>" placeholder when the link is gone, which happens
// routinely for deletion notifications.
func DeviceName(ifindex uint32) string {
	link, err := vishnetlink.LinkByIndex(int(ifindex))
	if err != nil {
		return "if" + strconv.FormatUint(uint64(ifindex), 10)
	}
	return link.Attrs().Name
}
