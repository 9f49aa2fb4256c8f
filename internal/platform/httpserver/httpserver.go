// Package httpserver constructs the server fronting the loyalty API.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an http.Server for the router. The write timeout sits above the
// router's 30s per-request timeout so the timeout middleware, not the server,
// terminates slow requests; idle keep-alive connections from dashboard
// clients are kept for two minutes.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
