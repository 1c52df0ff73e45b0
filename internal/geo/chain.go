package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Chain tries each lookup in order and returns the first location found.
type Chain []Lookup

func (c Chain) Lookup(ctx context.Context, ip string) (*Location, error) {
	var lastErr error
	for _, l := range c {
		loc, err := l.Lookup(ctx, ip)
		if err == nil {
			return loc, nil
		}
		// Bad input fails the same way everywhere.
		if errors.Is(err, ErrInvalidIP) || errors.Is(err, ErrPrivateIP) {
			return nil, err
		}
		slog.Debug("geo provider failed", "error", err)
		lastErr = err
	}
	if lastErr == nil {
		return nil, fmt.Errorf("no geo providers configured")
	}
	return nil, fmt.Errorf("all geo providers failed: %w", lastErr)
}
