package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "github.com/AbishekAnand15/exodetect-backend/pkg/logger"
)

type batchCapture struct {
	mu      sync.Mutex
	batches [][]applogger.AggregatedLogEntry
}

func (b *batchCapture) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches = append(b.batches, payload.([]applogger.AggregatedLogEntry))
	return nil
}

func (b *batchCapture) entries() []applogger.AggregatedLogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []applogger.AggregatedLogEntry
	for _, batch := range b.batches {
		out = append(out, batch...)
	}
	return out
}

func TestMetrics_RepeatedServerErrorsCollapseInLogCollector(t *testing.T) {
	pub := &batchCapture{}
	l := applogger.Nop()
	l.AddCollector(&applogger.CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	e := echo.New()
	e.Use(Metrics(NewHTTPMetrics(prometheus.NewRegistry()), l, 0))
	calls := 0
	e.GET("/runs", func(c echo.Context) error {
		calls++
		time.Sleep(time.Duration(calls) * 5 * time.Millisecond)
		return c.NoContent(http.StatusBadGateway)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
		require.Equal(t, http.StatusBadGateway, rec.Code)
	}
	l.RemoveCollector()

	entries := pub.entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Count)
	assert.Equal(t, "http request failed", entries[0].Message)
	assert.NotContains(t, entries[0].Fields, "duration_ms")
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusOK))
	assert.Equal(t, "4xx", statusClass(http.StatusNotFound))
	assert.Equal(t, "5xx", statusClass(http.StatusBadGateway))
	assert.Equal(t, "5xx", statusClass(0))
}
