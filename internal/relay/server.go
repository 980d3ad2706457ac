// Package relay implements the WebSocket relay server: connection
// upgrade, per-connection session state, envelope dispatch, periodic
// sweeps, and the admin HTTP surface.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/metrics"
	"github.com/codehive-dev/codehive/internal/persistence"
	"github.com/codehive-dev/codehive/internal/relay/middleware"
	"github.com/codehive-dev/codehive/internal/room"
	"github.com/codehive-dev/codehive/internal/webhook"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

// Config configures a Server's HTTP address, persistence cadence, and
// admin auth.
type Config struct {
	Addr               string
	PublicHost         string // host advertised in invite URIs; defaults to "127.0.0.1"
	PublicPort         int    // port advertised in invite URIs; defaults to 4819
	PersistInterval    time.Duration
	AdminTokenHash     string // bcrypt hash; empty disables the admin surface's auth check
	HeartbeatInterval  time.Duration
	HeartbeatTimeout   time.Duration
	RoomExpiryCheckInt time.Duration
}

func (c *Config) setDefaults() {
	if c.PublicHost == "" {
		c.PublicHost = "127.0.0.1"
	}
	if c.PublicPort == 0 {
		c.PublicPort = 4819
	}
	if c.PersistInterval == 0 {
		c.PersistInterval = 60 * time.Second
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = domain.HeartbeatInterval
	}
	if c.HeartbeatTimeout == 0 {
		c.HeartbeatTimeout = domain.HeartbeatTimeout
	}
	if c.RoomExpiryCheckInt == 0 {
		c.RoomExpiryCheckInt = domain.RoomExpiryCheckInt
	}
}

// Server is the relay's entire runtime: connection acceptance, room
// registry, webhook fan-out, metrics, and the persistence loop.
type Server struct {
	cfg       Config
	registry  *room.Registry
	fanout    *webhook.Fanout
	metrics   *metrics.Metrics
	persister persistence.Persister
	upgrader  websocket.Upgrader
	connCount atomic.Int64
}

// New wires a Server. persister may be nil to disable persistence.
func New(cfg Config, persister persistence.Persister, m *metrics.Metrics) *Server {
	cfg.setDefaults()
	s := &Server{
		cfg:       cfg,
		registry:  room.NewRegistry(),
		fanout:    webhook.New(),
		metrics:   m,
		persister: persister,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if m != nil {
		s.fanout.OnDeliver(m.RecordWebhookDelivery)
	}
	return s
}

// Router builds the chi HTTP mux: /ws, /healthz, /invite/{code}, and
// the bcrypt-gated admin surface (/metrics, /rooms, /rooms/{code}).
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/ws", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/invite/{code}", s.handleInvite)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.AdminAuth(s.cfg.AdminTokenHash))
		if s.metrics != nil {
			pr.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				s.metrics.Handler().ServeHTTP(w, r)
			})
		}
		pr.Get("/rooms", s.handleListRooms)
		pr.Get("/rooms/{code}", s.handleGetRoom)
	})

	return r
}

// Run starts the three periodic sweeps and blocks until ctx is done.
// On startup it loads persisted room metadata (best-effort).
func (s *Server) Run(ctx context.Context) {
	if s.persister != nil {
		s.restoreFromPersistence(ctx)
	}

	heartbeatTicker := time.NewTicker(s.cfg.HeartbeatInterval)
	expiryTicker := time.NewTicker(s.cfg.RoomExpiryCheckInt)
	persistTicker := time.NewTicker(s.cfg.PersistInterval)
	defer heartbeatTicker.Stop()
	defer expiryTicker.Stop()
	defer persistTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeatTicker.C:
			s.sweepHeartbeats()
		case <-expiryTicker.C:
			s.sweepExpiredRooms()
		case <-persistTicker.C:
			s.persist(ctx)
		}
	}
}

func (s *Server) restoreFromPersistence(ctx context.Context) {
	snaps, err := s.persister.Read(ctx)
	if err != nil {
		slog.Warn("relay: failed to read persisted rooms", "err", err)
		return
	}
	for _, snap := range snaps {
		s.registry.RestoreRoom(snap)
	}
	slog.Info("relay: restored room metadata", "count", len(snaps))
}

func (s *Server) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Write(ctx, s.registry.Snapshot()); err != nil {
		slog.Warn("relay: failed to persist rooms", "err", err)
	}
}

func nowMillis() int64 { return time.Now().UnixMilli() }
