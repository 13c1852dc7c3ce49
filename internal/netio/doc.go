// Package netio provides the rtnetlink transport for VNI filter
// management: the tunnel message header codec, the ack'd modify
// exchange, the multipart dump walk, and the tunnel notification
// monitor, plus device name resolution.
//
// Built on github.com/mdlayher/netlink for the NETLINK_ROUTE socket
// (sequence numbers, multipart reassembly, ack handling) and
// github.com/vishvananda/netlink for link lookups.
package netio
