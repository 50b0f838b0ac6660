package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snake_http_requests_total",
			Help: "HTTP requests handled, by route and status",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snake_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	liveGames = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "snake_live_games",
			Help: "Games currently registered in the arena",
		},
	)
	scoresSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "snake_scores_submitted_total",
			Help: "Scores accepted onto the leaderboard",
		},
	)
	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snake_auth_attempts_total",
			Help: "Login and sign-up attempts by outcome",
		},
		[]string{"op", "outcome"},
	)
	rlRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snake_rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	rlBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snake_rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests)
	prometheus.MustRegister(httpDuration)
	prometheus.MustRegister(liveGames)
	prometheus.MustRegister(scoresSubmitted)
	prometheus.MustRegister(authAttempts)
	prometheus.MustRegister(rlRequests)
	prometheus.MustRegister(rlBlocked)
}

// instrument records request counts and latency per matched route.
func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
