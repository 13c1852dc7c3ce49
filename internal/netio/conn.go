package netio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// TunnelCmd selects the modify operation sent to the kernel.
type TunnelCmd uint16

const (
	// TunnelCmdAdd installs VNI filter entries (RTM_NEWTUNNEL).
	TunnelCmdAdd TunnelCmd = rtmNewTunnel

	// TunnelCmdDelete removes VNI filter entries (RTM_DELTUNNEL).
	TunnelCmdDelete TunnelCmd = rtmDelTunnel
)

// String returns the operation name for error messages.
func (c TunnelCmd) String() string {
	if c == TunnelCmdDelete {
		return "delete"
	}
	return "add"
}

// TunnelMessage is one classified tunnel message delivered to the decode
// pipeline: the parsed header, whether it originated from a deletion,
// and the raw attribute payload following the header.
type TunnelMessage struct {
	TunnelMsg
	Deleted bool
	Payload []byte
}

// Conn is a NETLINK_ROUTE connection for tunnel policy exchanges. It is
// not safe for concurrent use; each invocation performs at most one
// request/response or one dump pass.
type Conn struct {
	c       *netlink.Conn
	log     *slog.Logger
	timeout time.Duration
}

// Dial opens a NETLINK_ROUTE socket.
func Dial(logger *slog.Logger) (*Conn, error) {
	c, err := netlink.Dial(unix.NETLINK_ROUTE, nil)
	if err != nil {
		return nil, fmt.Errorf("dial netlink route socket: %w", err)
	}
	return &Conn{c: c, log: logger}, nil
}

// SetTimeout bounds each subsequent request/response exchange. Zero
// means no deadline.
func (c *Conn) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Close releases the socket.
func (c *Conn) Close() error {
	return c.c.Close()
}

// ModifyVNIFilter sends one encoded modify request for a device and
// waits for the kernel's acknowledgement. The request is atomic from the
// caller's perspective: a nack or send failure is the sole failure
// signal and nothing partial is retried.
func (c *Conn) ModifyVNIFilter(cmd TunnelCmd, ifindex uint32, attrs []byte) error {
	hdr := TunnelMsg{Family: unix.AF_BRIDGE, Ifindex: ifindex}
	msg := netlink.Message{
		Header: netlink.Header{
			Type:  netlink.HeaderType(cmd),
			Flags: netlink.Request | netlink.Acknowledge,
		},
		Data: append(hdr.marshal(), attrs...),
	}

	c.applyDeadline()
	if _, err := c.c.Execute(msg); err != nil {
		return fmt.Errorf("vni %s request: %w", cmd, err)
	}
	return nil
}

// DumpVNIFilters requests a tunnel policy dump and delivers each
// classified response message to fn in arrival order, stopping on the
// first callback error. The device filter index and the stats flag are
// carried in the request header so the kernel can pre-filter; callers
// still gate on the index themselves since older kernels ignore it.
// Messages with an unknown type or a foreign family are logged and
// skipped; a header shorter than tunnel_msg aborts the dump.
func (c *Conn) DumpVNIFilters(ifindex uint32, wantStats bool, fn func(TunnelMessage) error) error {
	var flags uint8
	if wantStats {
		flags = TunnelFlagStats
	}

	hdr := TunnelMsg{Family: unix.AF_BRIDGE, Flags: flags, Ifindex: ifindex}
	req := netlink.Message{
		Header: netlink.Header{
			Type:  rtmGetTunnel,
			Flags: netlink.Request | netlink.Dump,
		},
		Data: hdr.marshal(),
	}

	c.applyDeadline()
	msgs, err := c.c.Execute(req)
	if err != nil {
		return fmt.Errorf("vni filter dump request: %w", err)
	}

	for _, m := range msgs {
		tm, err := c.classify(m)
		if err != nil {
			return err
		}
		if tm == nil {
			continue
		}
		if err := fn(*tm); err != nil {
			return err
		}
	}
	return nil
}

// MonitorTunnels joins the tunnel notification group and delivers each
// notification to fn until ctx is cancelled or fn returns an error.
// Cancellation is a clean stop, not an error.
func (c *Conn) MonitorTunnels(ctx context.Context, fn func(TunnelMessage) error) error {
	if err := c.c.JoinGroup(rtnlGroupTunnel); err != nil {
		return fmt.Errorf("join tunnel notification group: %w", err)
	}
	defer func() {
		_ = c.c.LeaveGroup(rtnlGroupTunnel)
	}()

	// Unblock the pending Receive when the context ends.
	stop := context.AfterFunc(ctx, func() {
		_ = c.c.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		msgs, err := c.c.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive tunnel notification: %w", err)
		}

		for _, m := range msgs {
			tm, err := c.classify(m)
			if err != nil {
				return err
			}
			if tm == nil {
				continue
			}
			if err := fn(*tm); err != nil {
				return err
			}
		}
	}
}

// classify validates one raw netlink message and parses its tunnel
// header. A nil result with nil error means the message is not for us.
func (c *Conn) classify(m netlink.Message) (*TunnelMessage, error) {
	switch m.Header.Type {
	case rtmNewTunnel, rtmDelTunnel, rtmGetTunnel:
	default:
		c.log.Warn("skipping unknown tunnel rtm message",
			slog.Int("type", int(m.Header.Type)),
			slog.Int("len", len(m.Data)),
		)
		return nil, nil
	}

	hdr, payload, err := parseTunnelMsg(m.Data)
	if err != nil {
		return nil, err
	}
	if hdr.Family != unix.AF_BRIDGE {
		c.log.Debug("skipping tunnel message for foreign family",
			slog.Int("family", int(hdr.Family)),
		)
		return nil, nil
	}

	return &TunnelMessage{
		TunnelMsg: hdr,
		Deleted:   m.Header.Type == rtmDelTunnel,
		Payload:   payload,
	}, nil
}

func (c *Conn) applyDeadline() {
	if c.timeout > 0 {
		_ = c.c.SetDeadline(time.Now().Add(c.timeout))
	}
}
