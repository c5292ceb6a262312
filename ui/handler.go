package ui

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/queue"
)

// Handler creates an http.Handler exposing q and, when store is not nil,
// its event journal and stats.
//
// Usage:
//
//	mux.Handle("/jobs/", http.StripPrefix("/jobs", ui.Handler(q, store)))
func Handler(q *queue.Queue, store core.Storage, opts ...Option) http.Handler {
	cfg := &config{
		logger:      slog.Default(),
		statsWindow: time.Hour,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	svc := &service{
		queue:       q,
		store:       store,
		logger:      cfg.logger,
		statsWindow: cfg.statsWindow,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(placeholderHTML))
	})

	r.Route("/queue", func(r chi.Router) {
		r.Get("/", svc.getQueue)
		r.Post("/start", svc.startQueue)
		r.Post("/stop", svc.stopQueue)
		r.Post("/end", svc.endQueue)
		r.Put("/concurrency", svc.setConcurrency)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", svc.listEvents)
		r.Get("/counts", svc.countEvents)
	})

	r.Get("/stats", svc.getStats)

	// Wrap with H2C for HTTP/2 over cleartext
	var h http.Handler = h2c.NewHandler(r, &http2.Server{})

	// Apply middleware if configured
	if cfg.middleware != nil {
		h = cfg.middleware(h)
	}

	return h
}

const placeholderHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Jobs UI</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            margin: 40px;
            background: #f5f5f5;
        }
        code { background: #f0f0f0; padding: 2px 6px; border-radius: 4px; }
    </style>
</head>
<body>
    <h1>Jobs UI</h1>
    <ul>
        <li><code>GET /queue</code> queue state and pending jobs</li>
        <li><code>POST /queue/start</code>, <code>POST /queue/stop</code>, <code>POST /queue/end</code></li>
        <li><code>PUT /queue/concurrency</code> with <code>{"concurrency": n}</code></li>
        <li><code>GET /events?kind=&amp;job_id=&amp;since=&amp;limit=</code> journaled events</li>
        <li><code>GET /events/counts</code> events per kind</li>
        <li><code>GET /stats?since=&amp;until=</code> per-minute counters</li>
    </ul>
</body>
</html>`
