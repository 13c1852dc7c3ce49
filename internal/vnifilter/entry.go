package vnifilter

// FilterEntry is one decoded (or to-be-encoded) VNI filter record: a VNI
// range, an optional endpoint, and, on dumps that requested them,
// per-entry traffic counters. Entries are transient; they live for one
// encode or decode pass.
type FilterEntry struct {
	Range    VNIRange
	Endpoint Endpoint
	Stats    *EntryStats
}

// EntryStats holds the per-entry counters the kernel accounts when VNI
// filter statistics are enabled. A nil field means the kernel omitted
// that counter, which is distinct from a counter present with value 0.
type EntryStats struct {
	RxBytes  *uint64
	RxPkts   *uint64
	RxDrops  *uint64
	RxErrors *uint64
	TxBytes  *uint64
	TxPkts   *uint64
	TxDrops  *uint64
	TxErrors *uint64
}

// DeviceRecord groups the filter entries decoded from one tunnel message
// for one device. Entry order is response order. Deleted marks records
// originating from deletion notifications.
type DeviceRecord struct {
	Ifindex uint32
	Deleted bool
	Entries []FilterEntry
}
