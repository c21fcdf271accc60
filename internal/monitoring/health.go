package monitoring

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthCheckFunc func(ctx context.Context) error

type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	timeout   time.Duration
	startTime time.Time
}

func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		timeout:   timeout,
		startTime: time.Now(),
	}
}

func (h *HealthChecker) Register(name string, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Run executes every check with its own timeout.
func (h *HealthChecker) Run(ctx context.Context) map[string]HealthCheck {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheckFunc, len(h.checks))
	for k, v := range h.checks {
		checks[k] = v
	}
	h.mu.RUnlock()

	sort.Strings(names)

	results := make(map[string]HealthCheck, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := checks[name](checkCtx)
		cancel()

		result := HealthCheck{Name: name, Status: StatusHealthy, LastRun: time.Now()}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
		}
		results[name] = result
	}

	return results
}

func overall(checks map[string]HealthCheck) string {
	for _, check := range checks {
		if check.Status != StatusHealthy {
			return StatusUnhealthy
		}
	}
	return StatusHealthy
}

func (h *HealthChecker) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := h.Run(c.Request.Context())
		status := overall(checks)

		code := http.StatusOK
		if status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(h.startTime).String(),
		})
	}
}

func (h *HealthChecker) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if overall(h.Run(c.Request.Context())) == StatusHealthy {
			c.JSON(http.StatusOK, gin.H{
				"status":    "ready",
				"timestamp": time.Now(),
			})
			return
		}

		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not ready",
			"timestamp": time.Now(),
		})
	}
}

func (h *HealthChecker) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(h.startTime).String(),
		})
	}
}
