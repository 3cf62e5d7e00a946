package net

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
)

// LinkScheme prefixes the share links a host hands out.
const LinkScheme = "localdoodle://"

// OutgoingIP finds the preferred local IP address for the host to share.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// No route out; fall back to checking local interfaces.
		return firstIPv4()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func firstIPv4() string {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4().String()
			}
		}
	}
	slog.Warn("no suitable local IP found, share link uses loopback")
	return "127.0.0.1"
}

// ShareLink builds the link a joiner passes to "join".
func ShareLink(host string, port int) string {
	return LinkScheme + net.JoinHostPort(host, strconv.Itoa(port))
}

// ParseShareLink accepts a share link or a bare host:port and returns the
// host:port to dial.
func ParseShareLink(link string) (string, error) {
	addr := strings.TrimSpace(link)
	addr = strings.TrimPrefix(addr, LinkScheme)
	addr = strings.TrimSuffix(addr, "/")

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", link, err)
	}
	if host == "" {
		return "", fmt.Errorf("invalid link %q: missing host", link)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("invalid link %q: bad port %q", link, port)
	}
	return net.JoinHostPort(host, port), nil
}
