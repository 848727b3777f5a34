package p2p

import (
	"encoding/binary"
	"fmt"
	"net"
)

// NetAddrSize is the serialized size of a NetAddr as carried inside a
// version message: services(8) + ip(16) + port(2). Integer fields are
// little-endian except the port, which is big-endian (spec §4.1).
const NetAddrSize = 8 + 16 + 2

// NetAddr describes one endpoint (services bitmap, IP, port) as carried
// in the version handshake.
type NetAddr struct {
	Services uint64
	IP       [16]byte
	Port     uint16
}

// NewNetAddr maps ip (v4 or v6) into IPv6-mapped form per spec §4.7.
func NewNetAddr(services uint64, ip net.IP, port uint16) NetAddr {
	var addr NetAddr
	addr.Services = services
	addr.Port = port
	v6 := ip.To16()
	if v6 != nil {
		copy(addr.IP[:], v6)
	}
	return addr
}

// Serialize returns the canonical 26-byte encoding of a.
func (a NetAddr) Serialize() []byte {
	out := make([]byte, NetAddrSize)
	binary.LittleEndian.PutUint64(out[0:8], a.Services)
	copy(out[8:24], a.IP[:])
	binary.BigEndian.PutUint16(out[24:26], a.Port)
	return out
}

// ParseNetAddr parses the canonical 26-byte encoding of a NetAddr.
func ParseNetAddr(b []byte) (NetAddr, error) {
	var a NetAddr
	if len(b) != NetAddrSize {
		return a, fmt.Errorf("p2p: netaddr: expected %d bytes, got %d", NetAddrSize, len(b))
	}
	a.Services = binary.LittleEndian.Uint64(b[0:8])
	copy(a.IP[:], b[8:24])
	a.Port = binary.BigEndian.Uint16(b[24:26])
	return a, nil
}

// IPAddr renders the address's IP as a net.IP.
func (a NetAddr) IPAddr() net.IP {
	ip := make(net.IP, 16)
	copy(ip, a.IP[:])
	return ip
}
