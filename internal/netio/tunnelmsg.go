package netio

import (
	"errors"
	"fmt"

	"github.com/mdlayher/netlink/nlenc"
)

// -------------------------------------------------------------------------
// Tunnel Message Header — linux/if_bridge.h struct tunnel_msg
// -------------------------------------------------------------------------

// tunnelMsgLen is the fixed tunnel_msg header size: family (u8),
// flags (u8), reserved (u16), ifindex (u32).
const tunnelMsgLen = 8

// TunnelFlagStats requests per-entry statistics in a dump
// (TUNNEL_MSG_FLAG_STATS).
const TunnelFlagStats uint8 = 0x01

// RTM message types for tunnel policy, linux/rtnetlink.h. Not exported
// by x/sys/unix on all supported versions, so carried here.
const (
	rtmNewTunnel = 120 // RTM_NEWTUNNEL
	rtmDelTunnel = 121 // RTM_DELTUNNEL
	rtmGetTunnel = 122 // RTM_GETTUNNEL
)

// rtnlGroupTunnel is the RTNLGRP_TUNNEL multicast group carrying tunnel
// policy notifications.
const rtnlGroupTunnel = 34

// ErrShortTunnelMsg indicates a message shorter than the tunnel_msg
// header. The computed attribute length would be negative; this is
// protocol corruption.
var ErrShortTunnelMsg = errors.New("tunnel message shorter than 8-byte header")

// TunnelMsg is the fixed header preceding the attribute payload of every
// tunnel message. Fields are native endian on the wire.
type TunnelMsg struct {
	Family  uint8
	Flags   uint8
	Ifindex uint32
}

// marshal encodes the header. The reserved field is zero.
func (m TunnelMsg) marshal() []byte {
	b := make([]byte, tunnelMsgLen)
	b[0] = m.Family
	b[1] = m.Flags
	nlenc.PutUint32(b[4:8], m.Ifindex)
	return b
}

// parseTunnelMsg splits a message body into its tunnel header and the
// attribute payload that follows it.
func parseTunnelMsg(b []byte) (TunnelMsg, []byte, error) {
	if len(b) < tunnelMsgLen {
		return TunnelMsg{}, nil, fmt.Errorf("%w: %d bytes", ErrShortTunnelMsg, len(b))
	}
	m := TunnelMsg{
		Family:  b[0],
		Flags:   b[1],
		Ifindex: nlenc.Uint32(b[4:8]),
	}
	return m, b[tunnelMsgLen:], nil
}
