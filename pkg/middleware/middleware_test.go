package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/llcformation/pkg/config"
	"github.com/wyfcoding/llcformation/pkg/logger"
	"github.com/wyfcoding/llcformation/pkg/metrics"
	"github.com/wyfcoding/llcformation/pkg/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinLoggingPropagatesTraceID(t *testing.T) {
	r := gin.New()
	r.Use(GinLogging(metrics.New("test")))

	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = logger.TraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceHeader, "trace-abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "trace-abc", seen)
	require.Equal(t, "trace-abc", rec.Header().Get(TraceHeader))
}

func TestGinRecovery(t *testing.T) {
	r := gin.New()
	r.Use(GinRecovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(ratelimit.NewLocalRateLimiter(time.Minute), config.RateLimitConfig{Enabled: true, QPS: 1, Burst: 1}))
	r.GET("/track/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/track/LLC-1", nil))
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
