// internal/server/timeouts.go
//
// HTTP server helper with explicit timeouts.
//
//   • ReadTimeout   – abort slow-loris headers
//   • WriteTimeout  – cap total response time; keep it above the backend
//                     timeout or slow creates get cut off mid-response
//   • IdleTimeout   – close idle keep-alives
//
// Zero values in Timeouts fall back to 10 s, 15 s, and 60 s.

package server

import (
	"net/http"
	"time"
)

// Timeouts mirrors config.HTTP.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// New constructs an *http.Server for handler.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: orDefault(t.Read, 10*time.Second),
		ReadTimeout:       orDefault(t.Read, 10*time.Second),
		WriteTimeout:      orDefault(t.Write, 15*time.Second),
		IdleTimeout:       orDefault(t.Idle, 60*time.Second),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
