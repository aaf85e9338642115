package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CryptoInsight/internal/domain/models"
	applogger "CryptoInsight/pkg/logger"
	"CryptoInsight/pkg/metrics"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, Options{}, applogger.NewNop(), metrics.Nop{})
}

func TestPositioningPercentages(t *testing.T) {
	ts := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC).UnixMilli()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/futures/data/globalLongShortAccountRatio", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ETHUSDT", q.Get("symbol"))
		assert.Equal(t, "1d", q.Get("period"))
		assert.Equal(t, "7", q.Get("limit"))
		_, _ = w.Write([]byte(`[{"symbol":"ETHUSDT","longAccount":"0.6523","shortAccount":"0.3477","longShortRatio":"1.8760","timestamp":` +
			itoa(ts) + `}]`))
	})

	got, ok := c.Positioning(context.Background(), "eth")
	require.True(t, ok)
	want := []models.LongShortPoint{{Time: "6/9", Long: 65.2, Short: 34.8}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("positioning mismatch (-want +got):\n%s", diff)
	}
}

func TestPositioningUnlistedPair(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})
	got, ok := c.Positioning(context.Background(), "NOTREAL")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestPositioningNonArrayBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"msg":"maintenance"}`))
	})
	_, ok := c.Positioning(context.Background(), "BTC")
	assert.False(t, ok)
}

func TestPositioningSkipsBadEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"longAccount":"x","shortAccount":"0.5","timestamp":0},{"longAccount":"0.5","shortAccount":"0.5","timestamp":0}]`))
	})
	got, ok := c.Positioning(context.Background(), "BTC")
	require.True(t, ok)
	assert.Len(t, got, 1)
	assert.Equal(t, 50.0, got[0].Long)
}

func TestPercentRounding(t *testing.T) {
	v, err := percent("0.12345")
	require.NoError(t, err)
	assert.Equal(t, 12.3, v)

	v, err = percent("0.12351")
	require.NoError(t, err)
	assert.Equal(t, 12.4, v)

	_, err = percent("")
	assert.Error(t, err)
}
