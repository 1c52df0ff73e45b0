// Package geo resolves requester IP addresses to a country and city and
// attaches the result to already recorded clicks.
package geo

//go:generate mockgen -source=geo.go -destination=mock_geo_test.go -package=geo

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	ErrInvalidIP  = errors.New("invalid ip address")
	ErrPrivateIP  = errors.New("ip address is not publicly routable")
	ErrNoLocation = errors.New("no location for ip address")
)

// Location is a lookup result. Either field may be empty.
type Location struct {
	Country string
	City    string
}

func (l *Location) empty() bool {
	return l == nil || (l.Country == "" && l.City == "")
}

// Lookup maps an IP address to a Location.
type Lookup interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

// ClickUpdater stores enrichment results on a click row.
type ClickUpdater interface {
	SetClickLocation(ctx context.Context, clickID string, country, city *string) error
}

// parsePublicIP strips an optional port and rejects addresses that no
// geo database can place.
func parsePublicIP(raw string) (net.IP, error) {
	raw = strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	ip := net.ParseIP(strings.Trim(raw, "[]"))
	if ip == nil {
		return nil, ErrInvalidIP
	}
	if ip.IsUnspecified() || ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return nil, ErrPrivateIP
	}
	return ip, nil
}
