package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

// GET /api/health
func (a *API) Health(c *gin.Context) {
	store := "memory"
	if a.DB != nil {
		store = "mysql"
		if err := a.DB.PingContext(c.Request.Context()); err != nil {
			RespondError(c, http.StatusServiceUnavailable, "database unreachable", err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": store})
}

// GET /api/routes
func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
