package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/vnictl/internal/netio"
	"github.com/dantte-lp/vnictl/internal/vnifilter"
)

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor [dev DEV]",
		Short: "Stream VNI filter change notifications",
		Long: `Subscribe to tunnel policy notifications and print each add or
delete event as it happens. Runs until interrupted.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(args)
		},
	}
}

func runMonitor(args []string) error {
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

	f, err := newFormatter(os.Stdout, outputFormat, true, netio.DeviceName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := netio.Dial(logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("monitoring tunnel notifications",
		"dev", dev,
	)

	f.header()
	return conn.MonitorTunnels(ctx, func(tm netio.TunnelMessage) error {
		if filterIndex != 0 && tm.Ifindex != filterIndex {
			return nil
		}
		entries, err := vnifilter.UnmarshalEntries(tm.Payload)
		if err != nil {
			return fmt.Errorf("decoding notification for ifindex %d: %w", tm.Ifindex, err)
		}
		if len(entries) == 0 {
			return nil
		}
		return f.record(vnifilter.DeviceRecord{
			Ifindex: tm.Ifindex,
			Deleted: tm.Deleted,
			Entries: entries,
		})
	})
}
