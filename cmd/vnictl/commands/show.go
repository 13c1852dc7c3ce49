package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/vnictl/internal/netio"
	"github.com/dantte-lp/vnictl/internal/vnifilter"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show [dev DEV]",
		Aliases: []string{"list", "lst"},
		Short:   "List VNI filter entries",
		Args:    cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			return runShow(args)
		},
	}
}

// runShow performs one dump pass: resolve the optional device filter,
// walk the response messages in arrival order, and render each record.
// The filter index is threaded explicitly through the loop; there is no
// process-wide filter state.
func runShow(args []string) error {
	dev, err := parseShowArgs(args)
	if err != nil {
		return err
	}

	var filterIndex uint32
	if dev != "" {
		filterIndex, err = netio.ResolveDevice(dev)
		if err != nil {
			return err
		}
	}

	f, err := newFormatter(os.Stdout, outputFormat, false, netio.DeviceName)
	if err != nil {
		return err
	}

	conn, err := netio.Dial(logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetTimeout(cfg.Netlink.Timeout)

	f.header()
	dumpErr := conn.DumpVNIFilters(filterIndex, showStats, func(m netio.TunnelMessage) error {
		if filterIndex != 0 && m.Ifindex != filterIndex {
			return nil
		}
		entries, err := vnifilter.UnmarshalEntries(m.Payload)
		if err != nil {
			return err
		}
		return f.record(vnifilter.DeviceRecord{
			Ifindex: m.Ifindex,
			Deleted: m.Deleted,
			Entries: entries,
		})
	})

	// Flush whatever was rendered before a failure; everything decoded up
	// to the abort point stays visible.
	if err := f.flush(); err != nil && dumpErr == nil {
		dumpErr = err
	}
	return dumpErr
}

// parseShowArgs accepts the optional `dev DEV` filter.
func parseShowArgs(args []string) (string, error) {
	var dev string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "dev":
			v, err := keywordValue(args, &i)
			if err != nil {
				return "", err
			}
			if dev != "" {
				return "", errDuplicateDev
			}
			dev = v
		default:
			return "", fmt.Errorf("unknown argument %q", args[i])
		}
	}
	return dev, nil
}
