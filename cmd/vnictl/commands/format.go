package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dantte-lp/vnictl/internal/vnifilter"
)

var errUnsupportedFormat = errors.New("unsupported output format")

const (
	ifnameWidth = 16
	vniWidth    = 15
)

// A formatter renders device records to an output stream. The table
// formatter mirrors the plain iproute2 listing; the JSON formatter
// emits either a single array (dumps) or one object per record
// (monitor streams).
type formatter interface {
	header()
	record(rec vnifilter.DeviceRecord) error
	flush() error
}

// newFormatter builds a formatter for the given output format.
// deviceName maps an ifindex to a printable interface name; it is
// injected so rendering can be tested without netlink access.
func newFormatter(w io.Writer, format string, stream bool, deviceName func(uint32) string) (formatter, error) {
	switch format {
	case "table":
		return &tableFormatter{w: w, deviceName: deviceName}, nil
	case "json":
		return &jsonFormatter{w: w, stream: stream, deviceName: deviceName}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// ----------------------------------------------------------------------------
// Table output
// ----------------------------------------------------------------------------

type tableFormatter struct {
	w          io.Writer
	deviceName func(uint32) string

	// last tracks the previous record's ifindex so a device spanning
	// several dump messages prints its name only once.
	last     uint32
	havePrev bool
}

func (f *tableFormatter) header() {
	fmt.Fprintf(f.w, "%-*s  %-*s  %s\n", ifnameWidth, "dev", vniWidth, "vni", "group/remote")
}

func (f *tableFormatter) record(rec vnifilter.DeviceRecord) error {
	// Deletion records always reprint the name so the Deleted marker is
	// never swallowed by run grouping.
	newRun := !f.havePrev || f.last != rec.Ifindex || rec.Deleted
	f.last = rec.Ifindex
	f.havePrev = true

	name := ""
	if newRun {
		name = f.deviceName(rec.Ifindex)
	}

	for i, e := range rec.Entries {
		label := name
		if i > 0 {
			label = ""
		}
		if rec.Deleted && i == 0 && label != "" {
			label = "Deleted " + label
		}

		fmt.Fprintf(f.w, "%-*s  %-*s", ifnameWidth, label, vniWidth, e.Range.String())
		if !e.Endpoint.IsNone() {
			fmt.Fprintf(f.w, "  %s %s", e.Endpoint.Kind, e.Endpoint.Addr)
		}
		fmt.Fprintln(f.w)

		if e.Stats != nil {
			f.writeStats(e.Stats)
		}
	}
	return nil
}

func (f *tableFormatter) writeStats(s *vnifilter.EntryStats) {
	f.writeCounters("RX:", []counter{
		{"bytes", s.RxBytes},
		{"pkts", s.RxPkts},
		{"drops", s.RxDrops},
		{"errors", s.RxErrors},
	})
	f.writeCounters("TX:", []counter{
		{"bytes", s.TxBytes},
		{"pkts", s.TxPkts},
		{"drops", s.TxDrops},
		{"errors", s.TxErrors},
	})
}

type counter struct {
	name string
	val  *uint64
}

func (f *tableFormatter) writeCounters(dir string, cs []counter) {
	any := false
	for _, c := range cs {
		if c.val != nil {
			any = true
			break
		}
	}
	if !any {
		return
	}
	fmt.Fprintf(f.w, "%-*s    %s", ifnameWidth, "", dir)
	for _, c := range cs {
		if c.val != nil {
			fmt.Fprintf(f.w, " %s %d", c.name, *c.val)
		}
	}
	fmt.Fprintln(f.w)
}

func (f *tableFormatter) flush() error { return nil }

// ----------------------------------------------------------------------------
// JSON output
// ----------------------------------------------------------------------------

type deviceView struct {
	Ifname  string    `json:"ifname"`
	Deleted bool      `json:"deleted,omitempty"`
	VNIs    []vniView `json:"vnis"`
}

type vniView struct {
	VNI    uint32     `json:"vni"`
	VNIEnd uint32     `json:"vniEnd,omitempty"`
	Group  string     `json:"group,omitempty"`
	Remote string     `json:"remote,omitempty"`
	Stats  *statsView `json:"stats,omitempty"`
}

type statsView struct {
	RxBytes  *uint64 `json:"rx_bytes,omitempty"`
	RxPkts   *uint64 `json:"rx_pkts,omitempty"`
	RxDrops  *uint64 `json:"rx_drops,omitempty"`
	RxErrors *uint64 `json:"rx_errors,omitempty"`
	TxBytes  *uint64 `json:"tx_bytes,omitempty"`
	TxPkts   *uint64 `json:"tx_pkts,omitempty"`
	TxDrops  *uint64 `json:"tx_drops,omitempty"`
	TxErrors *uint64 `json:"tx_errors,omitempty"`
}

type jsonFormatter struct {
	w          io.Writer
	stream     bool
	deviceName func(uint32) string

	views []deviceView
}

func (f *jsonFormatter) header() {}

func (f *jsonFormatter) record(rec vnifilter.DeviceRecord) error {
	view := deviceView{
		Ifname:  f.deviceName(rec.Ifindex),
		Deleted: rec.Deleted,
		VNIs:    make([]vniView, 0, len(rec.Entries)),
	}
	for _, e := range rec.Entries {
		v := vniView{VNI: e.Range.Start}
		if e.Range.IsRange() {
			v.VNIEnd = e.Range.End
		}
		switch e.Endpoint.Kind {
		case vnifilter.EndpointGroup:
			v.Group = e.Endpoint.Addr.String()
		case vnifilter.EndpointRemote:
			v.Remote = e.Endpoint.Addr.String()
		}
		if s := e.Stats; s != nil {
			v.Stats = &statsView{
				RxBytes:  s.RxBytes,
				RxPkts:   s.RxPkts,
				RxDrops:  s.RxDrops,
				RxErrors: s.RxErrors,
				TxBytes:  s.TxBytes,
				TxPkts:   s.TxPkts,
				TxDrops:  s.TxDrops,
				TxErrors: s.TxErrors,
			}
		}
		view.VNIs = append(view.VNIs, v)
	}

	if f.stream {
		enc := json.NewEncoder(f.w)
		return enc.Encode(view)
	}
	f.views = append(f.views, view)
	return nil
}

func (f *jsonFormatter) flush() error {
	if f.stream {
		return nil
	}
	out, err := json.MarshalIndent(f.views, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(f.w, string(out))
	return err
}
