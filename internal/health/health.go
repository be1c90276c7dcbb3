package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Pinger is any dependency that can report its own connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker tracks readiness and exposes the probe endpoints
type HealthChecker struct {
	db        *gorm.DB
	cache     Pinger
	ready     atomic.Bool
	startTime time.Time
	version   string
}

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_service_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	dbConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_service_db_connection_status",
		Help: "Database connection status (1 = connected, 0 = disconnected)",
	})

	serviceInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_service_info",
			Help: "Service information",
		},
		[]string{"version"},
	)

	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_service_orders_total",
			Help: "Orders by lifecycle event",
		},
		[]string{"event"},
	)

	orderAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_service_order_amount_pesos",
		Help:    "Order totals in pesos",
		Buckets: prometheus.ExponentialBuckets(10000, 2.5, 10),
	})

	paymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_service_payments_total",
			Help: "Payment operations by method and outcome",
		},
		[]string{"operation", "method", "status"},
	)

	pointsMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_service_points_total",
			Help: "Loyalty points moved through the ledger",
		},
		[]string{"type"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_service_uploads_total",
			Help: "Image uploads by folder and outcome",
		},
		[]string{"folder", "status"},
	)

	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_service_job_runs_total",
			Help: "Scheduled job executions",
		},
		[]string{"job", "status"},
	)
)

// NewHealthChecker creates a new health checker instance; cache may be nil
func NewHealthChecker(db *gorm.DB, cache Pinger, version string) *HealthChecker {
	hc := &HealthChecker{
		db:        db,
		cache:     cache,
		startTime: time.Now(),
		version:   version,
	}

	serviceInfo.WithLabelValues(version).Set(1)

	return hc
}

// SetReady marks the service as ready to receive traffic
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the service is ready
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// CheckDatabase verifies database connectivity
func (h *HealthChecker) CheckDatabase() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		dbConnectionStatus.Set(0)
		return err
	}

	if err := sqlDB.Ping(); err != nil {
		dbConnectionStatus.Set(0)
		return err
	}

	dbConnectionStatus.Set(1)
	return nil
}

// LivezHandler handles liveness probe requests
func (h *HealthChecker) LivezHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// ReadyzHandler returns 200 only once startup finished and the database answers
func (h *HealthChecker) ReadyzHandler(c *gin.Context) {
	if !h.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "service not initialized",
		})
		return
	}

	if err := h.CheckDatabase(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// HealthHandler reports uptime and dependency status
func (h *HealthChecker) HealthHandler(c *gin.Context) {
	uptime := time.Since(h.startTime)

	dbStatus := "connected"
	if err := h.CheckDatabase(); err != nil {
		dbStatus = "disconnected"
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		cacheStatus = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "disconnected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "storefront-service",
		"version": h.version,
		"uptime":  uptime.String(),
		"database": gin.H{
			"status": dbStatus,
		},
		"cache": gin.H{
			"status": cacheStatus,
		},
	})
}

// MetricsHandler returns Prometheus metrics handler
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsMiddleware records HTTP request metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		statusStr := http.StatusText(c.Writer.Status())
		if statusStr == "" {
			statusStr = "unknown"
		}

		if path != "/livez" && path != "/readyz" && path != "/metrics" && path != "/health" {
			httpRequestsTotal.WithLabelValues(c.Request.Method, path, statusStr).Inc()
			httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
		}
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordOrderEvent counts an order lifecycle event (created, cancelled, paid, expired)
func RecordOrderEvent(event string, total int64) {
	ordersTotal.WithLabelValues(event).Inc()
	if event == "created" {
		orderAmount.Observe(float64(total))
	}
}

// RecordPayment counts a payment operation
func RecordPayment(operation, method string, success bool) {
	paymentsTotal.WithLabelValues(operation, method, outcome(success)).Inc()
}

// RecordPoints adds moved points under GANADOS or REDIMIDOS
func RecordPoints(kind string, amount int64) {
	pointsMoved.WithLabelValues(kind).Add(float64(amount))
}

// RecordUpload counts an image upload
func RecordUpload(folder string, success bool) {
	uploadsTotal.WithLabelValues(folder, outcome(success)).Inc()
}

// RecordJobRun counts a scheduled job execution
func RecordJobRun(job string, success bool) {
	jobRuns.WithLabelValues(job, outcome(success)).Inc()
}
