package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"braid/internal/directory"
	"braid/internal/relay"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_requests_total",
		Help: "Relay requests by route and status class.",
	}, []string{"route", "status"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_rate_limited_total",
		Help: "Requests rejected by the per-device rate limiter.",
	})
)

func main() {
	var (
		addr  string
		rps   float64
		burst int
	)

	root := &cobra.Command{
		Use:   "relay",
		Short: "Run the braid relay daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := relay.NewMemory(directory.New())
			handler := relay.Handler(backend)

			limiter := newDeviceLimiter(rps, burst, 10*time.Minute)

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.Handle("/", instrument(limiter, handler))

			log.Printf("relay listening on %s", addr)
			return http.ListenAndServe(addr, mux)
		},
	}

	root.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	root.Flags().Float64Var(&rps, "rate", 25, "per-device requests per second")
	root.Flags().IntVar(&burst, "burst", 50, "per-device burst size")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// instrument applies the per-device rate limit and counts requests.
func instrument(limiter *deviceLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeLabel(r)
		device := relay.DeviceFromPath(r.URL.Path)
		if device == "" {
			device = r.RemoteAddr
		}
		if !limiter.allow(device, time.Now()) {
			rateLimitedTotal.Inc()
			requestsTotal.WithLabelValues(route, "429").Inc()
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestsTotal.WithLabelValues(route, statusClass(rec.status)).Inc()
	})
}

func routeLabel(r *http.Request) string {
	switch {
	case r.URL.Path == "/register":
		return "register"
	case len(r.URL.Path) > 8 && r.URL.Path[:8] == "/bundle/":
		return "bundle"
	case len(r.URL.Path) > 5 && r.URL.Path[:5] == "/msg/":
		if len(r.URL.Path) > 4 && r.URL.Path[len(r.URL.Path)-4:] == "/ack" {
			return "ack"
		}
		return "msg"
	}
	return "other"
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	}
	return "5xx"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// deviceLimiter applies a token bucket per device id and evicts idle entries.
type deviceLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*limiterEntry
	hits  uint64
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newDeviceLimiter(rps float64, burst int, idleTTL time.Duration) *deviceLimiter {
	return &deviceLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[string]*limiterEntry),
	}
}

func (l *deviceLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now

	// Sweep idle entries occasionally so the map stays bounded.
	l.hits++
	if l.hits%1024 == 0 {
		for k, v := range l.byKey {
			if now.Sub(v.lastSeen) > l.idleTTL {
				delete(l.byKey, k)
			}
		}
	}
	return e.limiter.AllowN(now, 1)
}
