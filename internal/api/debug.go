package api

import (
	"crypto/subtle"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultDebugAddr keeps profiling and metrics off the public interface
const DefaultDebugAddr = "127.0.0.1:6060"

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string

	// Optional basic auth for the whole debug surface
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultObservabilityConfig reads DISABLE_DEBUG_SERVER, DEBUG_ADDR and
// DEBUG_USER/DEBUG_PASS
func DefaultObservabilityConfig() ObservabilityConfig {
	cfg := ObservabilityConfig{
		Enabled:       os.Getenv("DISABLE_DEBUG_SERVER") != "true",
		ListenAddr:    DefaultDebugAddr,
		BasicAuthUser: os.Getenv("DEBUG_USER"),
		BasicAuthPass: os.Getenv("DEBUG_PASS"),
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	return cfg
}

// DebugHandler serves /debug/pprof/*, /metrics and /health
func DebugHandler(cfg ObservabilityConfig) http.Handler {
	r := chi.NewRouter()
	if cfg.BasicAuthUser != "" {
		r.Use(basicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	return r
}

// StartDebugServer serves DebugHandler in the background. Non-loopback
// addresses are rewritten to DefaultDebugAddr unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if !loopback(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Printf("⚠️ Debug server address %s is not loopback, using %s", cfg.ListenAddr, DefaultDebugAddr)
		cfg.ListenAddr = DefaultDebugAddr
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}

	log.Printf("📊 Debug server on %s (pprof at /debug/pprof/, metrics at /metrics)", cfg.ListenAddr)
	go func() {
		if err := http.Serve(ln, DebugHandler(cfg)); err != nil {
			log.Printf("⚠️ Debug server stopped: %v", err)
		}
	}()
	return nil
}

func loopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func basicAuth(user, pass string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
