package core

import (
	"fmt"
	"net"
	"strconv"
)

// PeerAddress identifies a remote node by host and port. It is the cache and
// dialer's unit of identity: two addresses that resolve to the same
// host:port string share one cached connection.
type PeerAddress struct {
	Host string
	Port int
}

func (a PeerAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ResolvePeerAddress validates host and port and returns the canonical
// address used as a cache key and dial target.
func ResolvePeerAddress(host string, port int) (PeerAddress, error) {
	addr := PeerAddress{Host: host, Port: port}
	if host == "" || port <= 0 || port > 65535 {
		return PeerAddress{}, fmt.Errorf("%w: %s", ErrInvalidAddress, addr.String())
	}
	if _, err := net.ResolveTCPAddr("tcp", addr.String()); err != nil {
		return PeerAddress{}, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, addr.String(), err)
	}
	return addr, nil
}
