package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_localdoodle._tcp"

var ErrNoHost = errors.New("no host found")

// Advertise announces a host on the local network. The caller shuts the
// returned server down when hosting stops.
func Advertise(port int, info ...string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	if len(info) == 0 {
		info = []string{"LocalDoodle"}
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Discover browses for hosts for up to timeout and returns their host:port
// addresses in the order they answered.
func Discover(ctx context.Context, timeout time.Duration) ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	var addrs []string
	seen := map[string]bool{}
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				if err := <-errc; err != nil {
					return addrs, fmt.Errorf("mdns query: %w", err)
				}
				return addrs, nil
			}
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			addr := net.JoinHostPort(e.AddrV4.String(), strconv.Itoa(e.Port))
			if !seen[addr] {
				seen[addr] = true
				addrs = append(addrs, addr)
			}
		case <-ctx.Done():
			go func() {
				for range entries {
				}
			}()
			return addrs, ctx.Err()
		}
	}
}

// DiscoverHost returns the first host that answers.
func DiscoverHost(ctx context.Context, timeout time.Duration) (string, error) {
	addrs, err := Discover(ctx, timeout)
	if len(addrs) > 0 {
		return addrs[0], nil
	}
	if err != nil {
		return "", err
	}
	return "", ErrNoHost
}
