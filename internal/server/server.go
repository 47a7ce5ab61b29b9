package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/remotectl/internal/auth"
	logs "github.com/danmuck/remotectl/internal/logging"
	"github.com/danmuck/remotectl/internal/observability"
	"github.com/danmuck/remotectl/internal/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	DefaultAddr     = "127.0.0.1:7480"
	shutdownTimeout = 5 * time.Second
)

var ErrAddrRequired = errors.New("server: admin addr required")

// Controller is the session surface the admin API drives.
type Controller interface {
	SendCommand(cmd string) (string, error)
	Cancel() bool
	Status() session.Snapshot
	RecentEvents(limit int) []session.Event
}

type Config struct {
	Addr        string
	CORSOrigins []string
	Version     string
	// Token, when set, is required as a bearer token on mutating routes.
	Token string
}

// Admin serves the local HTTP control surface for one controller.
type Admin struct {
	cfg      Config
	ctrl     Controller
	router   *gin.Engine
	tokens   auth.Validator
	appeared time.Time
}

func New(cfg Config, ctrl Controller) (*Admin, error) {
	addr, err := normalizeAdminAddr(cfg.Addr)
	if err != nil {
		return nil, err
	}
	cfg.Addr = addr
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.InitLogger("remotectl-admin")))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CORSOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	a := &Admin{
		cfg:      cfg,
		ctrl:     ctrl,
		router:   r,
		appeared: time.Now(),
	}
	if cfg.Token != "" {
		a.tokens = auth.StaticToken{Token: cfg.Token}
	}
	a.RegisterRoutes()
	return a, nil
}

func (a *Admin) Addr() string {
	return a.cfg.Addr
}

func (a *Admin) HTTPRouter() *gin.Engine {
	return a.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (a *Admin) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logs.Infof("server.Admin.Run listening addr=%s", a.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	logs.Infof("server.Admin.Run stopped addr=%s", a.cfg.Addr)
	return nil
}

// normalizeAdminAddr maps empty and localhost hosts to loopback.
func normalizeAdminAddr(rawAddr string) (string, error) {
	addr := strings.TrimSpace(rawAddr)
	if addr == "" {
		return DefaultAddr, nil
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("%w: invalid addr %q", ErrAddrRequired, addr)
	}
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	if port == "" {
		return "", fmt.Errorf("%w: missing port in %q", ErrAddrRequired, addr)
	}
	if host == "" || strings.EqualFold(host, "localhost") {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port), nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
