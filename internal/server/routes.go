package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/remotectl/internal/auth"
	logs "github.com/danmuck/remotectl/internal/logging"
	"github.com/danmuck/remotectl/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultEventLimit = 50

type commandRequest struct {
	Command string `json:"command"`
}

func (a *Admin) RegisterRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.appeared).String(),
			"service": "remotectl",
			"version": a.cfg.Version,
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.ctrl.Status())
	})

	a.router.GET("/events", func(c *gin.Context) {
		limit := defaultEventLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}
		c.JSON(http.StatusOK, gin.H{"events": a.ctrl.RecentEvents(limit)})
	})

	a.router.POST("/commands", a.requireToken(), func(c *gin.Context) {
		var req commandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
			return
		}
		id, err := a.ctrl.SendCommand(req.Command)
		if err != nil {
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, session.ErrEmptyCommand):
				status = http.StatusBadRequest
			case errors.Is(err, session.ErrClosed):
				status = http.StatusServiceUnavailable
			}
			logs.Warnf("server.Admin.commands rejected command=%q status=%d err=%v", req.Command, status, err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "sent", "id": id, "command": req.Command})
	})

	a.router.POST("/cancel", a.requireToken(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"cancelled": a.ctrl.Cancel()})
	})
}

// requireToken is a no-op unless the admin was configured with a token.
func (a *Admin) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.tokens == nil {
			c.Next()
			return
		}
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok || a.tokens.Validate(token) != nil {
			logs.Warnf("server.Admin.requireToken denied path=%s client=%s", c.FullPath(), c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}
