// Package wire implements Git's pkt-line framing used on all smart-protocol
// connections: length-prefixed data frames, the reserved flush token, and
// side-band multiplexing.
//
// See https://git-scm.com/docs/protocol-common#_pkt_line_format.
package wire
