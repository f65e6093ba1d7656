package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "endpoint"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *httpMetrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("http request", fields...)
			return
		}
		log.Info("http request", fields...)
	}
}

func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic in handler", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		fail(c, http.StatusInternalServerError, "internal server error")
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter limits each client IP to perSecond requests with the given
// burst. Idle clients are swept on access.
func rateLimiter(perSecond float64, burst int) gin.HandlerFunc {
	visitors := make(map[string]*visitor)
	var mu sync.Mutex
	lastSweep := time.Now()
	const idle = 5 * time.Minute

	return func(c *gin.Context) {
		key := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > idle {
			for ip, v := range visitors {
				if now.Sub(v.lastSeen) > idle {
					delete(visitors, ip)
				}
			}
			lastSweep = now
		}
		v, ok := visitors[key]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
			visitors[key] = v
		}
		v.lastSeen = now
		mu.Unlock()

		if !v.limiter.Allow() {
			fail(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
