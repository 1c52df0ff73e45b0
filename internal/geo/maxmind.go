package geo

import (
	"context"
	"fmt"

	"github.com/oschwald/geoip2-golang"
)

// MaxMind looks addresses up in a local GeoLite2-City database.
type MaxMind struct {
	reader *geoip2.Reader
}

func OpenMaxMind(path string) (*MaxMind, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %s: %w", path, err)
	}
	return &MaxMind{reader: reader}, nil
}

func (m *MaxMind) Lookup(_ context.Context, raw string) (*Location, error) {
	ip, err := parsePublicIP(raw)
	if err != nil {
		return nil, err
	}
	record, err := m.reader.City(ip)
	if err != nil {
		return nil, fmt.Errorf("geoip city lookup: %w", err)
	}
	loc := &Location{Country: record.Country.IsoCode}
	if name, ok := record.City.Names["en"]; ok {
		loc.City = name
	}
	if loc.empty() {
		return nil, ErrNoLocation
	}
	return loc, nil
}

func (m *MaxMind) Close() error {
	return m.reader.Close()
}
