package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"linktrail/internal/metrics"
)

const ipAPIBreaker = "ip-api"

// IPAPI queries the free ip-api.com service. Calls go through a circuit
// breaker so an unreachable service costs nothing once it has tripped.
type IPAPI struct {
	client  *http.Client
	baseURL string
	cb      *gobreaker.CircuitBreaker[*Location]
}

type ipAPIResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CountryCode string `json:"countryCode"`
	City        string `json:"city"`
}

func NewIPAPI(baseURL string) *IPAPI {
	if baseURL == "" {
		baseURL = "http://ip-api.com/json"
	}
	metrics.CircuitBreakerState.WithLabelValues(ipAPIBreaker).Set(0)
	return &IPAPI{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		cb: gobreaker.NewCircuitBreaker[*Location](gobreaker.Settings{
			Name:        ipAPIBreaker,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 10 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			IsSuccessful: func(err error) bool {
				// A lookup miss says nothing about the service's health.
				return err == nil || errors.Is(err, ErrNoLocation)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Info("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
				metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			},
		}),
	}
}

func (p *IPAPI) Lookup(ctx context.Context, raw string) (*Location, error) {
	ip, err := parsePublicIP(raw)
	if err != nil {
		return nil, err
	}
	return p.cb.Execute(func() (*Location, error) {
		return p.query(ctx, ip.String())
	})
}

func (p *IPAPI) query(ctx context.Context, ip string) (*Location, error) {
	url := fmt.Sprintf("%s/%s?fields=status,message,countryCode,city", p.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create ip-api request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query ip-api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api returned status %d", resp.StatusCode)
	}
	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode ip-api response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrNoLocation, body.Message)
	}
	loc := &Location{Country: body.CountryCode, City: body.City}
	if loc.empty() {
		return nil, ErrNoLocation
	}
	return loc, nil
}
