// Package server - HTTP-Schnittstelle fuer Modelltests
// Beinhaltet: Server-Struct, Router-Registrierung, Host-Pruefung
package server

import (
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/bioimageio/modeltest/envconfig"
	"github.com/bioimageio/modeltest/resourcetest"
	"github.com/bioimageio/modeltest/version"
)

var mode string = gin.DebugMode

// Server nimmt Test- und Diagnoseauftraege entgegen
type Server struct {
	addr     net.Addr
	defaults resourcetest.Options

	// newTester erstellt pro Anfrage einen Tester mit den Optionen der Anfrage
	newTester func(resourcetest.Options) *resourcetest.Tester

	// runs begrenzt gleichzeitige Laeufe, Pipelines halten Geraete
	runs *semaphore.Weighted
}

func init() {
	switch mode {
	case gin.DebugMode:
	case gin.ReleaseMode:
	case gin.TestMode:
	default:
		mode = gin.DebugMode
	}

	gin.SetMode(mode)
}

// NewServer erstellt einen Server mit Dateisystem-Loader und Default-Registry
func NewServer(addr net.Addr, defaults resourcetest.Options) *Server {
	maxRuns := int64(envconfig.MaxRuns())
	if maxRuns < 1 {
		maxRuns = 1
	}
	return &Server{
		addr:     addr,
		defaults: defaults,
		newTester: func(opts resourcetest.Options) *resourcetest.Tester {
			t := resourcetest.NewTester(opts)
			t.Notify = nil
			return t
		},
		runs: semaphore.NewWeighted(maxRuns),
	}
}

// allowedHost prueft ob ein Hostname lokal ist
func allowedHost(host string) bool {
	host = strings.ToLower(host)

	if host == "" || host == "localhost" {
		return true
	}

	if hostname, err := os.Hostname(); err == nil && host == strings.ToLower(hostname) {
		return true
	}

	for _, tld := range []string{"localhost", "local", "internal"} {
		if strings.HasSuffix(host, "."+tld) {
			return true
		}
	}

	return false
}

// allowedHostsMiddleware blockiert fremde Host-Header solange der Server
// nur auf Loopback lauscht. Modellpfade sind lokale Dateien.
func allowedHostsMiddleware(addr net.Addr) gin.HandlerFunc {
	return func(c *gin.Context) {
		if addr == nil {
			c.Next()
			return
		}

		if addr, err := netip.ParseAddrPort(addr.String()); err == nil && !addr.Addr().IsLoopback() {
			c.Next()
			return
		}

		host, _, err := net.SplitHostPort(c.Request.Host)
		if err != nil {
			host = c.Request.Host
		}

		if addr, err := netip.ParseAddr(host); err == nil {
			if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() {
				c.Next()
				return
			}
		}

		if allowedHost(host) {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}

			c.Next()
			return
		}

		c.AbortWithStatus(http.StatusForbidden)
	}
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() (http.Handler, error) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
	)

	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "modeltest is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "modeltest is running") })
	r.HEAD("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })
	r.GET("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })

	r.POST("/api/test", s.TestHandler)
	r.POST("/api/debug", s.DebugHandler)

	return r, nil
}
