package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dtroode/erp-sessions/internal/cache"
	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/model"
)

var (
	_ model.GeoResolver = (*HTTPGeoResolver)(nil)
	_ model.GeoResolver = NoopGeoResolver{}
	_ model.GeoResolver = (*CachedGeoResolver)(nil)
)

// HTTPGeoResolver queries an ip-api compatible endpoint: GET <endpoint>/<ip> returning
// {"status":"success","city":"...","country":"..."}.
type HTTPGeoResolver struct {
	endpoint string
	client   *http.Client
}

func NewHTTPGeoResolver(endpoint string, timeout time.Duration) *HTTPGeoResolver {
	return &HTTPGeoResolver{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

type geoResponse struct {
	Status  string `json:"status"`
	City    string `json:"city"`
	Country string `json:"country"`
}

func (r *HTTPGeoResolver) Resolve(ctx context.Context, ip string) (string, error) {
	if !routable(ip) {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/"+ip, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geo request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query geo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo endpoint returned status %d", resp.StatusCode)
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode geo response: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return model.UnknownLocation, nil
	}

	parts := make([]string, 0, 2)
	for _, p := range []string{body.City, body.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return model.UnknownLocation, nil
	}
	return strings.Join(parts, ", "), nil
}

// routable reports whether ip is a public address worth looking up.
func routable(ip string) bool {
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil {
		return false
	}
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsMulticast())
}

// NoopGeoResolver never resolves anything.
type NoopGeoResolver struct{}

func (NoopGeoResolver) Resolve(context.Context, string) (string, error) {
	return "", nil
}

// NewGeoResolver returns the HTTP resolver when an endpoint is configured, otherwise the no-op one.
func NewGeoResolver(endpoint string, timeout time.Duration) model.GeoResolver {
	if endpoint == "" {
		return NoopGeoResolver{}
	}
	return NewHTTPGeoResolver(endpoint, timeout)
}

// CachedGeoResolver keeps resolved locations in the cache registry under geo:<ip>.
type CachedGeoResolver struct {
	next     model.GeoResolver
	registry *cache.Registry
	ttl      time.Duration
	log      *logger.Logger
}

func NewCachedGeoResolver(next model.GeoResolver, registry *cache.Registry, ttl time.Duration, log *logger.Logger) *CachedGeoResolver {
	return &CachedGeoResolver{
		next:     next,
		registry: registry,
		ttl:      ttl,
		log:      log,
	}
}

func (r *CachedGeoResolver) Resolve(ctx context.Context, ip string) (string, error) {
	loc, found, err := r.registry.CachedLocation(ctx, ip)
	if err != nil {
		r.log.Warn("Geo resolver: cache read failed", "ip", ip, "error", err)
	}
	if found {
		return loc, nil
	}

	loc, err = r.next.Resolve(ctx, ip)
	if err != nil || loc == "" {
		return loc, err
	}

	if err := r.registry.CacheLocation(ctx, ip, loc, r.ttl); err != nil {
		r.log.Warn("Geo resolver: cache write failed", "ip", ip, "error", err)
	}
	return loc, nil
}
