// Package vnifilter implements the VXLAN VNI filtering data model and its
// rtnetlink attribute marshalling.
//
// The kernel exchanges VNI filtering policy as nested netlink attribute
// trees: one VXLAN_VNIFILTER_ENTRY container per VNI or VNI range, each
// carrying a start VNI, an optional end VNI, an optional multicast group
// or unicast remote endpoint address, and (on dumps requesting them) a
// nested container of per-entry traffic counters.
//
// Encoding and decoding go through github.com/mdlayher/netlink attribute
// primitives; the decoder never reads past an attribute's declared length
// and skips attribute types it does not recognize.
package vnifilter
