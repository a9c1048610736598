// Package health provides the liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Response represents a health check response
type Response struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	ReportedAt time.Time              `json:"reported_at"`
}

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

type check struct {
	name     string
	fn       CheckFunc
	critical bool
}

// Checker runs the registered dependency checks
type Checker struct {
	checks    []check
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewChecker creates a new health checker
func NewChecker(version string) *Checker {
	return &Checker{
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// AddCheck registers a check. A failing critical check makes the service unhealthy;
// any other failing check only degrades it.
func (c *Checker) AddCheck(name string, critical bool, fn CheckFunc) *Checker {
	c.checks = append(c.checks, check{name: name, fn: fn, critical: critical})
	return c
}

// Register mounts the health routes
func (c *Checker) Register(g *echo.Group) {
	g.GET("/health", c.HealthHandler)
	g.GET("/health/live", c.LivenessHandler)
	g.GET("/health/ready", c.ReadinessHandler)
}

// LivenessHandler answers as long as the process serves requests
func (c *Checker) LivenessHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Response{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		ReportedAt: time.Now(),
	})
}

// ReadinessHandler answers 200 only when no critical check fails
func (c *Checker) ReadinessHandler(ctx echo.Context) error {
	return c.respond(ctx)
}

// HealthHandler reports every check
func (c *Checker) HealthHandler(ctx echo.Context) error {
	return c.respond(ctx)
}

func (c *Checker) respond(ctx echo.Context) error {
	checks, status := c.Run(ctx.Request().Context())

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	return ctx.JSON(code, Response{
		Status:     status,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     checks,
		ReportedAt: time.Now(),
	})
}

// Run executes every check and folds them into an overall status
func (c *Checker) Run(ctx context.Context) (map[string]CheckResult, Status) {
	results := make(map[string]CheckResult, len(c.checks))
	overall := StatusHealthy

	sorted := append([]check(nil), c.checks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })

	for _, chk := range sorted {
		result := c.runCheck(ctx, chk.fn)
		if result.Status != StatusHealthy {
			if chk.critical {
				overall = StatusUnhealthy
			} else {
				result.Status = StatusDegraded
				if overall == StatusHealthy {
					overall = StatusDegraded
				}
			}
		}
		results[chk.name] = result
	}

	return results, overall
}

func (c *Checker) runCheck(ctx context.Context, fn CheckFunc) CheckResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: err.Error(),
			Latency: time.Since(start).String(),
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Latency: time.Since(start).String(),
	}
}
