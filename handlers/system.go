package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// System serves the root banner and the health endpoints.
type System struct {
	// Deps are checked by /ready; a nil entry counts as not ready.
	Deps    map[string]Pinger
	Timeout time.Duration
	started time.Time
}

func NewSystem(deps map[string]Pinger) *System {
	return &System{Deps: deps, Timeout: 2 * time.Second, started: time.Now()}
}

func (s *System) Register(r gin.IRouter) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"Hello": "Welcome to my country currency & exchange api"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when every dependency answers
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.Timeout)
		defer cancel()

		ready := true
		deps := map[string]bool{}
		for name, p := range s.Deps {
			ok := p != nil && p.Ping(ctx) == nil
			deps[name] = ok
			ready = ready && ok
		}

		uptime := time.Since(s.started).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	})
}
