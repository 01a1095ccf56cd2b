package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/erp-sessions/internal/cache"
	"github.com/dtroode/erp-sessions/internal/model"
	"github.com/dtroode/erp-sessions/internal/testutil"
)

const (
	chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	googlebot     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestUserAgentParser_Parse(t *testing.T) {
	p := NewUserAgentParser("useragent")

	desktop := p.Parse(chromeWindows)
	assert.Contains(t, desktop.Browser, "Chrome")
	assert.Contains(t, desktop.OS, "Windows")
	assert.Equal(t, DeviceDesktop, desktop.Device)

	assert.Equal(t, DeviceMobile, p.Parse(safariIPhone).Device)
	assert.Equal(t, DeviceBot, p.Parse(googlebot).Device)

	assert.Equal(t, model.UserAgentInfo{}, p.Parse("   "))
}

func TestNoopUserAgentParser(t *testing.T) {
	p := NewUserAgentParser("noop")
	assert.IsType(t, NoopUserAgentParser{}, p)
	assert.Equal(t, model.UserAgentInfo{}, p.Parse(chromeWindows))
}

func TestHTTPGeoResolver_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/8.8.8.8":
			_, _ = w.Write([]byte(`{"status":"success","city":"Mountain View","country":"United States"}`))
		case "/1.1.1.1":
			_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	r := NewHTTPGeoResolver(srv.URL+"/", time.Second)
	ctx := context.Background()

	loc, err := r.Resolve(ctx, "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "Mountain View, United States", loc)

	loc, err = r.Resolve(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, model.UnknownLocation, loc)

	_, err = r.Resolve(ctx, "9.9.9.9")
	require.Error(t, err)

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "not-an-ip", ""} {
		loc, err := r.Resolve(ctx, ip)
		require.NoError(t, err, ip)
		assert.Empty(t, loc, ip)
	}
}

func TestNewGeoResolver_NoEndpoint(t *testing.T) {
	r := NewGeoResolver("", time.Second)
	loc, err := r.Resolve(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Empty(t, loc)
}

type countingResolver struct {
	calls atomic.Int32
	loc   string
}

func (c *countingResolver) Resolve(context.Context, string) (string, error) {
	c.calls.Add(1)
	return c.loc, nil
}

func TestCachedGeoResolver(t *testing.T) {
	mr := miniredis.RunT(t)
	backend := cache.NewRedisBackend(cache.RedisOptions{Addr: mr.Addr()})
	registry := cache.NewRegistry(backend)
	t.Cleanup(func() { _ = registry.Close() })

	next := &countingResolver{loc: "Berlin, Germany"}
	r := NewCachedGeoResolver(next, registry, time.Hour, testutil.MakeNoopLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		loc, err := r.Resolve(ctx, "8.8.4.4")
		require.NoError(t, err)
		assert.Equal(t, "Berlin, Germany", loc)
	}
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, time.Hour, mr.TTL(cache.GeoPrefix+"8.8.4.4"))

	mr.SetError("ERR down")
	loc, err := r.Resolve(ctx, "8.8.4.4")
	require.NoError(t, err)
	assert.Equal(t, "Berlin, Germany", loc)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedGeoResolver_SkipsEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	registry := cache.NewRegistry(cache.NewRedisBackend(cache.RedisOptions{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = registry.Close() })

	r := NewCachedGeoResolver(&countingResolver{}, registry, time.Hour, testutil.MakeNoopLogger())
	loc, err := r.Resolve(context.Background(), "8.8.4.4")
	require.NoError(t, err)
	assert.Empty(t, loc)
	assert.Empty(t, mr.Keys())
}
