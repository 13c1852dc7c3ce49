package commands

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/vnictl/internal/netio"
	"github.com/dantte-lp/vnictl/internal/vnifilter"
)

// Sentinel errors for modify argument validation. The iproute2 grammar
// is positional keyword/value pairs, so these are detected by the token
// walker rather than by cobra flags.
var (
	errDeviceAndVNIRequired = errors.New("device and VNI ID are required arguments")
	errDuplicateDev         = errors.New("duplicate dev")
	errDuplicateVNI         = errors.New("duplicate vni")
)

// modifySpec is the validated form of one add/delete invocation before
// device resolution.
type modifySpec struct {
	dev      string
	ranges   []vnifilter.VNIRange
	endpoint vnifilter.Endpoint
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add vni VNI[,VNI-VNI...] [group|remote ADDR] dev DEV",
		Short: "Install VNI filter entries on a vxlan device",
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return runModify(netio.TunnelCmdAdd, args)
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete vni VNI[,VNI-VNI...] [group|remote ADDR] dev DEV",
		Short: "Remove VNI filter entries from a vxlan device",
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return runModify(netio.TunnelCmdDelete, args)
		},
	}
}

// runModify validates the arguments, encodes the request and performs
// the ack'd exchange. Validation happens entirely before any wire
// interaction; nothing is sent on a validation failure.
func runModify(cmd netio.TunnelCmd, args []string) error {
	spec, err := parseModifySpec(args)
	if err != nil {
		return err
	}

	ifindex, err := netio.ResolveVXLANDevice(spec.dev)
	if err != nil {
		return err
	}

	req := vnifilter.ModifyRequest{
		Ifindex:  ifindex,
		Ranges:   spec.ranges,
		Endpoint: spec.endpoint,
	}
	attrs, err := req.MarshalAttributes()
	if err != nil {
		return err
	}

	conn, err := netio.Dial(logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetTimeout(cfg.Netlink.Timeout)

	return conn.ModifyVNIFilter(cmd, ifindex, attrs)
}

// parseModifySpec walks the iproute2-style token list:
//
//	vni VNI[,VNI-VNI...] [group ADDR | remote ADDR] dev DEV
//
// Duplicate keywords, a keyword without a value, conflicting group and
// remote, and malformed VNI lists or addresses are validation errors.
func parseModifySpec(args []string) (*modifySpec, error) {
	spec := &modifySpec{}
	for i := 0; i < len(args); i++ {
		kw := args[i]
		switch kw {
		case "dev":
			v, err := keywordValue(args, &i)
			if err != nil {
				return nil, err
			}
			if spec.dev != "" {
				return nil, errDuplicateDev
			}
			spec.dev = v

		case "vni":
			v, err := keywordValue(args, &i)
			if err != nil {
				return nil, err
			}
			if spec.ranges != nil {
				return nil, errDuplicateVNI
			}
			ranges, err := vnifilter.ParseVNIList(v)
			if err != nil {
				return nil, err
			}
			spec.ranges = ranges

		case "group", "remote":
			v, err := keywordValue(args, &i)
			if err != nil {
				return nil, err
			}
			ep, err := parseEndpoint(kw, v, spec.endpoint)
			if err != nil {
				return nil, err
			}
			spec.endpoint = ep

		default:
			return nil, fmt.Errorf("unknown argument %q", kw)
		}
	}

	if spec.dev == "" || spec.ranges == nil {
		return nil, errDeviceAndVNIRequired
	}
	return spec, nil
}

// parseEndpoint classifies one group/remote keyword. A second endpoint
// keyword is either a duplicate or the group/remote conflict.
func parseEndpoint(kw, val string, prev vnifilter.Endpoint) (vnifilter.Endpoint, error) {
	if !prev.IsNone() {
		if prev.Kind.String() == kw {
			return vnifilter.Endpoint{}, fmt.Errorf("duplicate %s", kw)
		}
		return vnifilter.Endpoint{}, vnifilter.ErrGroupAndRemote
	}

	addr, err := netip.ParseAddr(val)
	if err != nil {
		return vnifilter.Endpoint{}, fmt.Errorf("%w: %q", vnifilter.ErrInvalidAddress, val)
	}

	if kw == "group" {
		return vnifilter.GroupEndpoint(addr)
	}
	return vnifilter.RemoteEndpoint(addr)
}

// keywordValue consumes the value token following a keyword.
func keywordValue(args []string, i *int) (string, error) {
	*i++
	if *i >= len(args) {
		return "", fmt.Errorf("option %q requires an argument", args[*i-1])
	}
	return args[*i], nil
}
