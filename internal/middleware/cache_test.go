package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-reservation/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	body := []byte(`{"ok":true}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, _, _, ok := decodePayload([]byte("short"))
	assert.False(t, ok)

	// Header length pointing past the end of the buffer.
	bad, err := encodePayload(http.StatusOK, http.Header{}, nil)
	require.NoError(t, err)
	bad[7] = 0xFF
	_, _, _, ok = decodePayload(bad)
	assert.False(t, ok)
}

func TestCacheKeyStrategies(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	e := echo.New()

	ctxFor := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/runs/:id/slots")
		return c
	}

	cfg.KeyStrategy = "route"
	byRoute := cacheKeyFrom(cfg, ctxFor("/v1/runs/7/slots?x=1"))
	assert.Equal(t, byRoute, cacheKeyFrom(cfg, ctxFor("/v1/runs/7/slots?x=2")),
		"route strategy ignores the query string")

	cfg.KeyStrategy = "route_query"
	withQuery := cacheKeyFrom(cfg, ctxFor("/v1/runs/7/slots?x=1"))
	assert.NotEqual(t, withQuery, cacheKeyFrom(cfg, ctxFor("/v1/runs/7/slots?x=2")))
}

func TestCacheKeySeparatesEntities(t *testing.T) {
	// Both requests land on the same parameterized route; their keys must
	// differ or one run's availability would be served for every run.
	e := echo.New()
	ctxFor := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/runs/:id/slots")
		return c
	}

	for _, strategy := range []string{"route", "method_route", "method_route_query", "route_query"} {
		cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: strategy}
		run1 := cacheKeyFrom(cfg, ctxFor("/v1/runs/1/slots"))
		run2 := cacheKeyFrom(cfg, ctxFor("/v1/runs/2/slots"))
		assert.NotEqual(t, run1, run2, "strategy %s", strategy)
	}
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/stations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})(c)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}
