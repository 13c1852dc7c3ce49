package vnifilter

// -------------------------------------------------------------------------
// Wire Attribute Types — linux/if_link.h
// -------------------------------------------------------------------------

// Top-level attribute of a tunnel message carrying one filter entry
// (VXLAN_VNIFILTER_ENTRY). The container is flagged NLA_F_NESTED on the
// wire; the attribute codec handles the flag bit on both sides.
const attrVNIFilterEntry = 1

// Attributes nested inside a VXLAN_VNIFILTER_ENTRY container.
const (
	entryAttrStart  = 1 // VXLAN_VNIFILTER_ENTRY_START, u32
	entryAttrEnd    = 2 // VXLAN_VNIFILTER_ENTRY_END, u32
	entryAttrGroup  = 3 // VXLAN_VNIFILTER_ENTRY_GROUP, 4-byte IPv4 address
	entryAttrGroup6 = 4 // VXLAN_VNIFILTER_ENTRY_GROUP6, 16-byte IPv6 address
	entryAttrStats  = 5 // VXLAN_VNIFILTER_ENTRY_STATS, nested counters
)

// Attributes nested inside a VXLAN_VNIFILTER_ENTRY_STATS container
// (VNIFILTER_ENTRY_STATS_*), all u64.
const (
	statsAttrRxBytes  = 1
	statsAttrRxPkts   = 2
	statsAttrRxDrops  = 3
	statsAttrRxErrors = 4
	statsAttrTxBytes  = 5
	statsAttrTxPkts   = 6
	statsAttrTxDrops  = 7
	statsAttrTxErrors = 8
)
