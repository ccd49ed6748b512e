package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultGamePort is used when a join address has no port.
const DefaultGamePort = 7531

// guessIpAddress takes a base IP address and a partial address string,
// and fills in the missing octets from the base address.
func guessIpAddress(baseAddress net.IP, partialAddr string) (net.IP, error) {
	ip := make(net.IP, len(baseAddress))
	copy(ip, baseAddress)
	octets := strings.Split(partialAddr, ".")
	if len(octets) == 1 && octets[0] == "" {
		return ip, nil
	}
	if len(octets) > len(ip) {
		return net.IP{}, fmt.Errorf("address %q has too many octets", partialAddr)
	}
	for i := 0; i < len(octets); i++ {
		var octet byte
		_, err := fmt.Sscanf(octets[i], "%d", &octet)
		if err != nil {
			return net.IP{}, err
		}
		ip[len(ip)-len(octets)+i] = octet
	}
	return ip, nil
}

// subnetOfListener returns the IP network (CIDR) of the interface that contains
// the local address used by the provided TCP listener.
func subnetOfListener(l *net.TCPListener) (net.IPNet, error) {
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return net.IPNet{}, fmt.Errorf("listener is not TCP")
	}
	ip := tcpAddr.IP
	if ip == nil || ip.IsUnspecified() {
		return net.IPNet{}, fmt.Errorf("listener has unspecified IP %v", ip)
	}
	return subnetOf(ip)
}

func subnetOf(ip net.IP) (net.IPNet, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPNet{}, err
	}
	for _, ifi := range ifaces {
		addrs, _ := ifi.Addrs()
		for _, a := range addrs {
			var ipnet *net.IPNet
			switch v := a.(type) {
			case *net.IPNet:
				ipnet = v
			case *net.IPAddr:
				ipnet = &net.IPNet{IP: v.IP, Mask: v.IP.DefaultMask()}
			default:
				continue
			}
			if ipnet == nil {
				continue
			}
			if ipnet.Contains(ip) || ipnet.IP.Equal(ip) {
				return *ipnet, nil
			}
		}
	}
	return net.IPNet{}, fmt.Errorf("no interface found for ip %v", ip)
}

// localIP returns the first non-loopback IPv4 address of the machine, or
// the loopback address when there is none.
func localIP() net.IP {
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ip4 := ipnet.IP.To4(); ip4 != nil {
					return ip4
				}
			}
		}
	}
	return net.IPv4(127, 0, 0, 1).To4()
}

// advertisedAddr is the address a guest can reach the listener on. A
// listener on all interfaces is advertised with the LAN address.
func advertisedAddr(l net.Listener) string {
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return l.Addr().String()
	}
	ip := tcpAddr.IP
	if ip == nil || ip.IsUnspecified() {
		ip = localIP()
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(tcpAddr.Port))
}

// splitHostPort splits an address into host and port, using defaultPort if no port is specified.
func splitHostPort(addr string, defaultPort int) (string, string, error) {
	ipaddr, port, err := net.SplitHostPort(addr)
	if err != nil {
		addr = addr + ":" + strconv.Itoa(defaultPort)
		ipaddr, port, err = net.SplitHostPort(addr)
		if err != nil {
			return "", "", err
		}
	}
	return ipaddr, port, nil
}

// resolveAddr completes a partial address such as "42:7531" or "1.42"
// with the octets of base. Host names are kept as they are.
func resolveAddr(base net.IP, addr string) (string, error) {
	host, port, err := splitHostPort(addr, DefaultGamePort)
	if err != nil {
		return "", err
	}
	if host == "" || host == "localhost" {
		return net.JoinHostPort("localhost", port), nil
	}
	if !isNumericHost(host) {
		return net.JoinHostPort(host, port), nil
	}
	ip, err := guessIpAddress(base.To4(), host)
	if err != nil {
		return "", fmt.Errorf("could not guess address for %s: %w", addr, err)
	}
	return net.JoinHostPort(ip.String(), port), nil
}

func isNumericHost(host string) bool {
	for _, r := range host {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
