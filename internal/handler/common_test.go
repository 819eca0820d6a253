package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetUserID(t *testing.T) {
	c := testCtx("/")
	c.Set("user_id", uint64(7))
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	// JWT claims decode numbers as float64.
	c.Set("user_id", float64(12))
	id, err = getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	c.Set("user_id", "oops")
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestPathID(t *testing.T) {
	c := testCtx("/")
	c.SetParamNames("id")

	c.SetParamValues("42")
	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c.SetParamValues(bad)
		_, ok := pathID(c, "id")
		assert.False(t, ok, "value %q", bad)
	}
}

func TestPagination(t *testing.T) {
	offset, limit := pagination(testCtx("/v1/orders"))
	assert.Equal(t, 0, offset)
	assert.Equal(t, 50, limit)

	offset, limit = pagination(testCtx("/v1/orders?offset=20&limit=10"))
	assert.Equal(t, 20, offset)
	assert.Equal(t, 10, limit)

	offset, limit = pagination(testCtx("/v1/orders?offset=-5&limit=9999"))
	assert.Equal(t, 0, offset)
	assert.Equal(t, 200, limit)
}
